package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kothakarthikeya/legal-contract/internal/retrieval"
	"github.com/kothakarthikeya/legal-contract/internal/utils"
	"k8s.io/klog/v2"
)

// Backend is the classification contract: freeform text expected to contain
// a JSON object. Satisfied by llm.Client.
type Backend interface {
	Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Analyzer runs one domain's analysis over its retrieved snippets. Every
// failure class degrades to a sentinel verdict instead of an error: the
// caller's barrier must never block on a failing domain.
type Analyzer struct {
	backend Backend
}

func New(backend Backend) *Analyzer {
	return &Analyzer{backend: backend}
}

// Analyze returns a verdict for the domain. It never returns nil.
func (a *Analyzer) Analyze(ctx context.Context, domain string, snippets []retrieval.Snippet) *Verdict {
	if len(snippets) == 0 {
		return &Verdict{
			AgentName: domain,
			ErrorInfo: "No clauses provided for analysis",
			Analysis:  "No clauses available for analysis",
			RiskScore: 0,
			Features:  map[string]any{},
		}
	}

	content, err := a.backend.Classify(ctx, systemPrompt(domain), userPrompt(domain, snippets))
	if err != nil {
		klog.Warningf("analysis backend failed: domain=%s, err=%v", domain, err)
		return &Verdict{
			AgentName: domain,
			ErrorInfo: err.Error(),
			Analysis:  fmt.Sprintf("Analysis failed: %v", err),
			RiskScore: 5,
			Features:  map[string]any{},
		}
	}

	verdict, err := parseVerdict(content)
	if err != nil {
		klog.Warningf("verdict parsing failed: domain=%s, err=%v", domain, err)
		return &Verdict{
			AgentName: domain,
			ErrorInfo: err.Error(),
			Analysis:  fmt.Sprintf("AI returned data but JSON parsing failed. Snippet: %s", snippetOf(content, 200)),
			RiskScore: 5,
			Features:  map[string]any{},
		}
	}

	if verdict.AgentName == "" {
		verdict.AgentName = domain
	}
	if verdict.Features == nil {
		verdict.Features = map[string]any{}
	}
	klog.V(6).Infof("analysis completed: domain=%s, riskScore=%.1f, features=%d",
		domain, verdict.RiskScore, len(verdict.Features))
	return verdict
}

// parseVerdict extracts the first well-formed JSON object from the model
// output, tolerating surrounding prose and fenced code blocks.
func parseVerdict(content string) (*Verdict, error) {
	clean := utils.ExtractJSON(content)
	var verdict Verdict
	if err := json.Unmarshal([]byte(clean), &verdict); err != nil {
		return nil, fmt.Errorf("invalid verdict JSON: %w", err)
	}
	return &verdict, nil
}

func snippetOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
