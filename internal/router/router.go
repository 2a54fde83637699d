package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/kothakarthikeya/legal-contract/config"
	"github.com/kothakarthikeya/legal-contract/internal/handler"
)

func Setup(
	cfg *config.Config,
	analyzeHandler *handler.AnalyzeHandler,
	historyHandler *handler.HistoryHandler,
	feedbackHandler *handler.FeedbackHandler,
	authHandler *handler.AuthHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-Doc-ID"},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/analyze", analyzeHandler.Analyze)
		api.GET("/reports/:docId", analyzeHandler.GetReport)
		api.GET("/history", historyHandler.Get)

		feedback := api.Group("/feedback")
		{
			feedback.POST("", feedbackHandler.Submit)
			feedback.GET("/export", feedbackHandler.Export)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}
	}

	return r
}
