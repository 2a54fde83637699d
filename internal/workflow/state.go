package workflow

import (
	"fmt"

	"github.com/kothakarthikeya/legal-contract/internal/analyzer"
	"github.com/kothakarthikeya/legal-contract/internal/history"
	"github.com/kothakarthikeya/legal-contract/internal/retrieval"
)

// Field names one slot of the shared execution state. Stages declare their
// read and write sets in terms of fields, and the engine checks both at
// graph construction.
type Field string

const (
	FieldFilePath         Field = "filePath"
	FieldDocID            Field = "docId"
	FieldTextSummary      Field = "textSummary"
	FieldPlan             Field = "plan"
	FieldExtractedClauses Field = "extractedClauses"
	FieldAgentOutputs     Field = "agentOutputs"
	FieldFinalReport      Field = "finalReport"
	FieldHistoryContext   Field = "historyContext"
	FieldRelationship     Field = "relationship"
)

// MergePolicy decides how a stage's partial update lands in the state.
type MergePolicy int

const (
	// Overwrite fields are single-writer: exactly one stage produces them.
	Overwrite MergePolicy = iota
	// Union fields accumulate disjoint-key map contributions from several
	// stages. Union over disjoint keys is commutative and associative, so
	// the merged result is identical under any execution order.
	Union
)

// fieldPolicies is the ownership table. Everything except the analyzer
// accumulator is single-writer.
var fieldPolicies = map[Field]MergePolicy{
	FieldFilePath:         Overwrite,
	FieldDocID:            Overwrite,
	FieldTextSummary:      Overwrite,
	FieldPlan:             Overwrite,
	FieldExtractedClauses: Overwrite,
	FieldAgentOutputs:     Union,
	FieldFinalReport:      Overwrite,
	FieldHistoryContext:   Overwrite,
	FieldRelationship:     Overwrite,
}

// Plan is the planning stage's output: which analytical domains run.
type Plan struct {
	Agents []string `json:"agents"`
}

// State is the single record threaded through the graph. Only the engine
// mutates it; stages receive snapshots and return partial updates.
type State struct {
	FilePath         string
	DocID            string
	TextSummary      string
	Plan             *Plan
	ExtractedClauses map[string][]retrieval.Snippet
	AgentOutputs     map[string]*analyzer.Verdict
	FinalReport      string
	HistoryContext   []history.VersionEntry
	Relationship     *history.Relationship
}

// Update is one stage's partial update: a subset of state fields.
type Update map[Field]any

// snapshot returns a copy safe for a concurrent branch to read. Maps are
// copied shallowly; stages treat snippet slices and verdicts as immutable.
func (s *State) snapshot() *State {
	out := *s
	if s.ExtractedClauses != nil {
		out.ExtractedClauses = make(map[string][]retrieval.Snippet, len(s.ExtractedClauses))
		for k, v := range s.ExtractedClauses {
			out.ExtractedClauses[k] = v
		}
	}
	if s.AgentOutputs != nil {
		out.AgentOutputs = make(map[string]*analyzer.Verdict, len(s.AgentOutputs))
		for k, v := range s.AgentOutputs {
			out.AgentOutputs[k] = v
		}
	}
	return &out
}

// initAccumulators makes union fields present before the first stage runs,
// so an execution where no contributor fires still yields a valid empty
// accumulator rather than a nil map.
func (s *State) initAccumulators() {
	if s.AgentOutputs == nil {
		s.AgentOutputs = make(map[string]*analyzer.Verdict)
	}
}

// committed reports whether a field has been written. Union fields are
// considered committed once initialized: an empty accumulator is a valid
// value, an absent single-writer field is not.
func (s *State) committed(f Field) bool {
	switch f {
	case FieldFilePath:
		return s.FilePath != ""
	case FieldDocID:
		return s.DocID != ""
	case FieldTextSummary:
		return s.TextSummary != ""
	case FieldPlan:
		return s.Plan != nil
	case FieldExtractedClauses:
		return s.ExtractedClauses != nil
	case FieldAgentOutputs:
		return s.AgentOutputs != nil
	case FieldFinalReport:
		return s.FinalReport != ""
	case FieldHistoryContext:
		return s.HistoryContext != nil
	case FieldRelationship:
		return s.Relationship != nil
	}
	return false
}

// apply merges one field of a partial update under its merge policy. The
// value's dynamic type must match the field; a mismatch is a stage bug
// surfaced as an error, never a silent skip.
func (s *State) apply(f Field, value any) error {
	switch f {
	case FieldFilePath:
		return assign(f, value, &s.FilePath)
	case FieldDocID:
		return assign(f, value, &s.DocID)
	case FieldTextSummary:
		return assign(f, value, &s.TextSummary)
	case FieldPlan:
		return assign(f, value, &s.Plan)
	case FieldExtractedClauses:
		return assign(f, value, &s.ExtractedClauses)
	case FieldFinalReport:
		return assign(f, value, &s.FinalReport)
	case FieldHistoryContext:
		return assign(f, value, &s.HistoryContext)
	case FieldRelationship:
		return assign(f, value, &s.Relationship)
	case FieldAgentOutputs:
		contribution, ok := value.(map[string]*analyzer.Verdict)
		if !ok {
			return fmt.Errorf("field %s: unexpected value type %T", f, value)
		}
		if s.AgentOutputs == nil {
			s.AgentOutputs = make(map[string]*analyzer.Verdict, len(contribution))
		}
		for k, v := range contribution {
			s.AgentOutputs[k] = v
		}
		return nil
	}
	return fmt.Errorf("unknown field %s", f)
}

func assign[T any](f Field, value any, dst *T) error {
	typed, ok := value.(T)
	if !ok {
		return fmt.Errorf("field %s: unexpected value type %T", f, value)
	}
	*dst = typed
	return nil
}
