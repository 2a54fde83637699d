package scoring

import "github.com/kothakarthikeya/legal-contract/internal/analyzer"

// FeatureSet is the flattened union of every domain's feature flags, keyed
// by flag name.
type FeatureSet map[string]any

// Flatten merges the verdicts' feature maps into a single set. Flag names
// are domain-specific by construction, so collisions should not occur; when
// one does, last write wins in the iteration order given by domains.
func Flatten(outputs map[string]*analyzer.Verdict, domains []string) FeatureSet {
	features := FeatureSet{}
	for _, domain := range domains {
		verdict, ok := outputs[domain]
		if !ok || verdict == nil {
			continue
		}
		for name, value := range verdict.Features {
			features[name] = value
		}
	}
	return features
}

// boolFlag returns the flag's value when it is an explicit boolean, and ok
// only in that case: an absent or non-boolean flag never fires a rule.
func (f FeatureSet) boolFlag(name string) (value, ok bool) {
	v, present := f[name]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// numFlag returns the flag as a float64, falling back to def when the flag
// is absent or not numeric. JSON numbers decode as float64; int covers
// hand-built feature sets in tests and callers.
func (f FeatureSet) numFlag(name string, def float64) float64 {
	v, present := f[name]
	if !present {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}
