package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/kothakarthikeya/legal-contract/internal/analyzer"
	"github.com/kothakarthikeya/legal-contract/internal/history"
	"github.com/kothakarthikeya/legal-contract/internal/retrieval"
	"github.com/kothakarthikeya/legal-contract/internal/scoring"
	"k8s.io/klog/v2"
)

// Input is the aggregated state the synthesizer renders. Pure presentation:
// all decisions (scores, levels) are computed by scoring and embedded here.
type Input struct {
	DocID        string
	Outputs      map[string]*analyzer.Verdict
	Relationship *history.Relationship
}

type agentView struct {
	Name      string
	RiskScore float64
	RiskColor string
	Analysis  string
	Threshold string
	Degraded  bool
	Clauses   map[string]string
}

type reportView struct {
	DocID        string
	ContractType string
	Legality     string
	Relationship string
	RiskScore    string
	RiskLevel    string
	RiskColor    string
	Agents       []agentView
}

// Generate renders the composite HTML report from the fan-in state. Pure
// function of its input; never fails, degraded domains render as such.
func Generate(in Input) string {
	features := scoring.Flatten(in.Outputs, retrieval.Domains)
	score := scoring.Score(features)
	level := scoring.Level(score)
	klog.V(6).Infof("report synthesis: docID=%s, score=%.1f, level=%s", in.DocID, score, level)

	view := reportView{
		DocID:        in.DocID,
		ContractType: "General Agreement",
		Legality:     "Valid",
		RiskScore:    fmt.Sprintf("%.1f", score),
		RiskLevel:    strings.ToUpper(level),
		RiskColor:    scoreColor(score),
	}

	if legal, ok := in.Outputs["Legal"]; ok && legal != nil {
		if legal.ContractType != nil && legal.ContractType.Primary != "" {
			view.ContractType = legal.ContractType.Primary
		}
		if legal.ContractLegality != nil && legal.ContractLegality.Status != "" {
			view.Legality = legal.ContractLegality.Status
		}
	}
	if in.Relationship != nil {
		view.Relationship = strings.ReplaceAll(in.Relationship.Relationship, "_", " ")
	}

	for _, domain := range retrieval.Domains {
		verdict := in.Outputs[domain]
		if verdict == nil {
			continue
		}
		agent := agentView{
			Name:      domain,
			RiskScore: verdict.RiskScore,
			RiskColor: scoreColor(verdict.RiskScore),
			Analysis:  verdict.Analysis,
			Degraded:  verdict.Failed(),
			Clauses:   presentClauses(verdict.ExtractedClauses),
		}
		if agent.Analysis == "" {
			agent.Analysis = "No analysis available for this agent."
		}
		if t, ok := verdict.Features["threshold_value"].(string); ok && t != "" && t != "none" && t != "N/A" {
			agent.Threshold = t
		}
		view.Agents = append(view.Agents, agent)
	}

	var sb strings.Builder
	if err := reportTemplate.Execute(&sb, view); err != nil {
		// template and view are fully under our control; treat failure as a bug
		klog.Errorf("report template failed: docID=%s, err=%v", in.DocID, err)
		return fmt.Sprintf("<div class=\"error\">Report rendering failed for %s</div>", template.HTMLEscapeString(in.DocID))
	}
	return sb.String()
}

func presentClauses(clauses map[string]string) map[string]string {
	out := map[string]string{}
	for key, text := range clauses {
		if text == "" || text == "None" {
			continue
		}
		out[titleCase(key)] = text
	}
	return out
}

func titleCase(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// scoreColor follows the product's requested scheme: low scores red,
// mid-range amber, high green.
func scoreColor(score float64) string {
	switch {
	case score < 4.0:
		return "#ef4444"
	case score < 8.0:
		return "#f59e0b"
	default:
		return "#10b981"
	}
}

var reportTemplate = template.Must(template.New("report").Parse(`<div class="report-wrapper">
  <div class="report-top-bar">
    <div>
      <h2>Contract Intelligence Report</h2>
      <div class="report-badges">
        <span class="badge badge-type">Type: {{.ContractType}}</span>
        <span class="badge badge-status">Status: {{.Legality}}</span>
        {{- if .Relationship}}
        <span class="badge badge-relationship">{{.Relationship}}</span>
        {{- end}}
      </div>
    </div>
    <div class="composite-risk">
      <div class="composite-risk-label">Composite Risk</div>
      <div class="composite-risk-level" style="color: {{.RiskColor}};">{{.RiskLevel}}</div>
      <div class="composite-risk-score">Score: {{.RiskScore}}/10</div>
      <a href="/api/reports/{{.DocID}}" target="_blank" class="download-link">Download Report</a>
    </div>
  </div>

  <div class="agent-grid">
    {{- range .Agents}}
    <div class="agent-summary-card{{if .Degraded}} agent-degraded{{end}}">
      <div class="agent-summary-head">
        <span class="agent-name">{{.Name}}</span>
        <span class="agent-risk" style="color: {{.RiskColor}};">Risk: {{.RiskScore}}/10</span>
      </div>
      <p class="agent-analysis">{{.Analysis}}</p>
      {{- if .Threshold}}
      <div class="agent-threshold">Threshold: {{.Threshold}}</div>
      {{- end}}
      {{- if .Degraded}}
      <div class="agent-degraded-note">Analysis unavailable for this domain.</div>
      {{- end}}
    </div>
    {{- end}}
  </div>

  <h3 class="deep-dive-title">Agent Deep Dive</h3>
  <div class="agent-details-container">
    {{- range .Agents}}
    <div class="agent-detail-block">
      <div class="agent-detail-head">
        <h4>{{.Name}} Assessment</h4>
      </div>
      <div class="agent-detail-body">
        <div class="agent-detail-analysis">{{.Analysis}}</div>
        {{- if .Clauses}}
        <div class="clause-box">
          <div class="clause-box-title">Key Extracted Clauses</div>
          {{- range $name, $text := .Clauses}}
          <div class="clause-entry">
            <div class="clause-name">{{$name}}</div>
            <div class="clause-text">&quot;{{$text}}&quot;</div>
          </div>
          {{- end}}
        </div>
        {{- end}}
      </div>
    </div>
    {{- end}}
  </div>
  <div id="report-doc-id" data-id="{{.DocID}}" style="display: none;"></div>
</div>
`))
