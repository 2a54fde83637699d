package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"unicode/utf8"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/kothakarthikeya/legal-contract/internal/analyzer"
	"github.com/kothakarthikeya/legal-contract/internal/history"
	"github.com/kothakarthikeya/legal-contract/internal/ingest"
	"github.com/kothakarthikeya/legal-contract/internal/report"
	"github.com/kothakarthikeya/legal-contract/internal/retrieval"
)

// HistoryStore is the version-tracking surface the pipeline needs.
// DetectRelationship must return a non-nil relationship; unknown documents
// are reported as new, not as absent.
type HistoryStore interface {
	RegisterUpload(path, docID string) (*history.RegisterResult, error)
	GetVersions(logicalName string) []history.VersionEntry
	DetectRelationship(path string) *history.Relationship
}

// DomainAnalyzer produces one verdict per analytical domain.
type DomainAnalyzer interface {
	Analyze(ctx context.Context, domain string, snippets []retrieval.Snippet) *analyzer.Verdict
}

// Renderer turns the merged analysis into the final report document.
type Renderer func(in report.Input) string

// PipelineConfig carries the collaborators and tuning knobs for a contract
// analysis pipeline.
type PipelineConfig struct {
	History       HistoryStore
	Retriever     retrieval.Service
	Analyzer      DomainAnalyzer
	Render        Renderer
	TopKPerDomain int
	WorkerPool    int
}

// Pipeline is the contract analysis graph: ingest -> plan -> retrieve ->
// one stage per domain in parallel -> report.
type Pipeline struct {
	cfg   PipelineConfig
	graph *Graph
	pool  *ants.Pool
}

// NewPipeline builds and validates the analysis graph. The returned
// pipeline owns its worker pool; call Close when done.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.History == nil || cfg.Retriever == nil || cfg.Analyzer == nil {
		return nil, fmt.Errorf("pipeline requires history, retriever and analyzer")
	}
	if cfg.Render == nil {
		cfg.Render = report.Generate
	}
	if cfg.TopKPerDomain <= 0 {
		cfg.TopKPerDomain = 5
	}
	if cfg.WorkerPool <= 0 {
		cfg.WorkerPool = 5
	}
	pool, err := ants.NewPool(cfg.WorkerPool)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	p := &Pipeline{cfg: cfg, pool: pool}

	stages := []*Stage{p.ingestStage(), p.planStage(), p.retrieveStage()}
	edges := map[string][]string{
		"ingest": {"plan"},
		"plan":   {"retrieve"},
	}
	for _, domain := range retrieval.Domains {
		st := p.domainStage(domain)
		stages = append(stages, st)
		edges["retrieve"] = append(edges["retrieve"], st.Name)
		edges[st.Name] = []string{"report"}
	}
	stages = append(stages, p.reportStage())

	graph, err := NewGraph(stages, edges, []Field{FieldFilePath, FieldDocID}, pool)
	if err != nil {
		pool.Release()
		return nil, err
	}
	p.graph = graph
	return p, nil
}

// Run executes the full analysis for one uploaded document. The entry
// state carries only the file path and the document id; everything else
// is produced by the graph.
func (p *Pipeline) Run(ctx context.Context, filePath, docID string) (*State, error) {
	if filePath == "" || docID == "" {
		return nil, fmt.Errorf("file path and document id are required")
	}
	klog.V(6).Infof("starting analysis pipeline for doc=%s file=%s", docID, filePath)
	return p.graph.Execute(ctx, &State{FilePath: filePath, DocID: docID})
}

// Close releases the worker pool.
func (p *Pipeline) Close() {
	p.pool.Release()
}

// ingestStage reads the document text, registers the upload in the version
// history and indexes the content for retrieval.
func (p *Pipeline) ingestStage() *Stage {
	return &Stage{
		Name:   "ingest",
		Reads:  []Field{FieldFilePath, FieldDocID},
		Writes: []Field{FieldTextSummary, FieldHistoryContext, FieldRelationship},
		Run: func(ctx context.Context, s *State) (Update, error) {
			rel := p.cfg.History.DetectRelationship(s.FilePath)
			if _, err := p.cfg.History.RegisterUpload(s.FilePath, s.DocID); err != nil {
				return nil, fmt.Errorf("register upload: %w", err)
			}
			versions := p.cfg.History.GetVersions(ingest.LogicalName(filepath.Base(s.FilePath)))

			text, err := ingest.ReadText(s.FilePath)
			if err != nil {
				return nil, err
			}
			count, err := p.cfg.Retriever.EmbedAndStore(ctx, s.DocID, filepath.Base(s.FilePath), text)
			if err != nil {
				return nil, fmt.Errorf("index document: %w", err)
			}
			klog.V(6).Infof("doc %s indexed as %d chunks", s.DocID, count)

			return Update{
				FieldTextSummary:    summarize(text),
				FieldHistoryContext: versions,
				FieldRelationship:   rel,
			}, nil
		},
	}
}

// planStage decides which analytical domains run. Every domain runs on
// every contract; the plan exists so the fan-out is data-driven rather
// than hard-wired into the graph consumer.
func (p *Pipeline) planStage() *Stage {
	return &Stage{
		Name:   "plan",
		Reads:  []Field{FieldTextSummary},
		Writes: []Field{FieldPlan},
		Run: func(ctx context.Context, s *State) (Update, error) {
			agents := make([]string, len(retrieval.Domains))
			copy(agents, retrieval.Domains)
			return Update{FieldPlan: &Plan{Agents: agents}}, nil
		},
	}
}

// retrieveStage gathers the evidence every analyzer will see: for each
// planned domain it searches the index once per topic, then keeps the
// deduplicated top snippets. A retrieval failure has no recovery because
// every downstream stage depends on this field.
func (p *Pipeline) retrieveStage() *Stage {
	return &Stage{
		Name:   "retrieve",
		Reads:  []Field{FieldDocID, FieldPlan},
		Writes: []Field{FieldExtractedClauses},
		Run: func(ctx context.Context, s *State) (Update, error) {
			clauses := make(map[string][]retrieval.Snippet, len(s.Plan.Agents))
			var mu sync.Mutex

			g, gctx := errgroup.WithContext(ctx)
			for _, domain := range s.Plan.Agents {
				topics, ok := retrieval.DomainTopics[domain]
				if !ok {
					return nil, fmt.Errorf("no topics defined for domain %s", domain)
				}
				g.Go(func() error {
					var found []retrieval.Snippet
					for _, topic := range topics {
						snippets, err := p.cfg.Retriever.Search(gctx, s.DocID, topic)
						if err != nil {
							return fmt.Errorf("search %s/%s: %w", domain, topic, err)
						}
						found = append(found, snippets...)
					}
					top := retrieval.DedupeAndTruncate(found, p.cfg.TopKPerDomain)
					mu.Lock()
					clauses[domain] = top
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return Update{FieldExtractedClauses: clauses}, nil
		},
	}
}

// domainStage wraps one analyzer call. Each domain contributes exactly its
// own key to the output accumulator, and a branch failure degrades to a
// sentinel verdict for that domain only.
func (p *Pipeline) domainStage(domain string) *Stage {
	return &Stage{
		Name:   "analyze_" + domain,
		Reads:  []Field{FieldExtractedClauses},
		Writes: []Field{FieldAgentOutputs},
		Run: func(ctx context.Context, s *State) (Update, error) {
			verdict := p.cfg.Analyzer.Analyze(ctx, domain, s.ExtractedClauses[domain])
			return Update{
				FieldAgentOutputs: map[string]*analyzer.Verdict{domain: verdict},
			}, nil
		},
		Recover: func(s *State, err error) Update {
			klog.Errorf("domain %s analysis failed: %v", domain, err)
			return Update{
				FieldAgentOutputs: map[string]*analyzer.Verdict{domain: {
					AgentName: domain,
					RiskScore: 5,
					ErrorInfo: err.Error(),
					Features:  map[string]any{},
				}},
			}
		},
	}
}

// reportStage synthesizes the final document after the fan-in barrier.
func (p *Pipeline) reportStage() *Stage {
	return &Stage{
		Name:   "report",
		Reads:  []Field{FieldDocID, FieldAgentOutputs, FieldRelationship},
		Writes: []Field{FieldFinalReport},
		Run: func(ctx context.Context, s *State) (Update, error) {
			html := p.cfg.Render(report.Input{
				DocID:        s.DocID,
				Outputs:      s.AgentOutputs,
				Relationship: s.Relationship,
			})
			return Update{FieldFinalReport: html}, nil
		},
	}
}

// summarize keeps a bounded prefix of the document text for the state,
// cut on a rune boundary. The analyzers work from retrieved snippets, not
// from the raw text.
func summarize(text string) string {
	const limit = 2000
	if len(text) <= limit {
		return text
	}
	end := limit
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	return text[:end]
}
