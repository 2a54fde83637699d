package main

import (
	"flag"
	"log"
	"os"

	"k8s.io/klog/v2"

	"github.com/kothakarthikeya/legal-contract/config"
	"github.com/kothakarthikeya/legal-contract/internal/analyzer"
	"github.com/kothakarthikeya/legal-contract/internal/handler"
	"github.com/kothakarthikeya/legal-contract/internal/history"
	"github.com/kothakarthikeya/legal-contract/internal/pkg/database"
	"github.com/kothakarthikeya/legal-contract/internal/pkg/llm"
	"github.com/kothakarthikeya/legal-contract/internal/repository"
	"github.com/kothakarthikeya/legal-contract/internal/retrieval"
	"github.com/kothakarthikeya/legal-contract/internal/router"
	"github.com/kothakarthikeya/legal-contract/internal/service"
	"github.com/kothakarthikeya/legal-contract/internal/workflow"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	klog.V(6).Info("contract analysis server starting...")

	cfg := config.GetConfig()

	for _, dir := range []string{cfg.Data.Dir, cfg.Data.UploadDir, cfg.Data.ReportDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	historyStore, err := history.NewStore(cfg.Data.RegistryPath)
	if err != nil {
		log.Fatalf("Failed to open version registry: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	chunkRepo := repository.NewChunkRepository(db)

	llmClient := llm.NewClient(cfg)
	retriever := retrieval.NewStore(cfg, chunkRepo, llmClient)

	pipeline, err := workflow.NewPipeline(workflow.PipelineConfig{
		History:       historyStore,
		Retriever:     retriever,
		Analyzer:      analyzer.New(llmClient),
		TopKPerDomain: cfg.Analysis.TopKPerDomain,
		WorkerPool:    cfg.Analysis.WorkerPoolSize,
	})
	if err != nil {
		log.Fatalf("Failed to build analysis pipeline: %v", err)
	}
	defer pipeline.Close()

	analysisService := service.NewAnalysisService(pipeline, cfg.Data.UploadDir, cfg.Data.ReportDir)
	feedbackService := service.NewFeedbackService(historyStore, cfg.Data.FeedbackPath)
	userService := service.NewUserService(userRepo)

	r := router.Setup(
		cfg,
		handler.NewAnalyzeHandler(analysisService),
		handler.NewHistoryHandler(historyStore),
		handler.NewFeedbackHandler(feedbackService),
		handler.NewAuthHandler(userService),
	)

	log.Printf("Server starting on port %s...", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
