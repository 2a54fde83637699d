package scoring

// Composite risk scoring. Rules are additive and independent: several rules
// may fire from one document, and the sum is clamped to [1.0, 10.0] only at
// the end. Absent flags fall back to explicit non-risky defaults, so a
// document with no extracted features scores the base, never an inflated
// value.

const (
	BaseScore = 1.0
	MinScore  = 1.0
	MaxScore  = 10.0
)

// Rule weights. Fixed constants, not derived; correlated rules (e.g. missing
// indemnity cap and uncapped liability) intentionally stack.
const (
	weightMissingIndemnityCap      = 2.0
	weightUnilateralTermination    = 0.75
	weightLiabilitiesUncapped      = 2.5
	weightConsequentialDamages     = 1.0
	weightPaymentTermsLong         = 1.0
	weightAutoRenewalPriceUncapped = 1.5
	weightSLAUptimeLow             = 1.5
	weightMissingGDPRClause        = 2.0
)

// Non-risky defaults for absent numeric flags.
const (
	defaultPaymentTermsDays = 30.0
	defaultSLAUptime        = 99.9
)

// Score converts a flattened feature set into a composite risk score in
// [1.0, 10.0]. Higher is riskier. Pure function.
func Score(features FeatureSet) float64 {
	score := BaseScore

	// Legal
	if v, ok := features.boolFlag("indemnity_cap_present"); ok && !v {
		score += weightMissingIndemnityCap
	}
	if v, ok := features.boolFlag("termination_for_convenience"); ok && !v {
		score += weightUnilateralTermination
	}
	if v, ok := features.boolFlag("liability_cap_present"); ok && !v {
		score += weightLiabilitiesUncapped
	}
	if v, ok := features.boolFlag("consequential_damages_waiver"); ok && !v {
		score += weightConsequentialDamages
	}

	// Finance
	if features.numFlag("payment_terms_days", defaultPaymentTermsDays) > 60 {
		score += weightPaymentTermsLong
	}
	autoRenewal, renewalOK := features.boolFlag("auto_renewal")
	priceCap, capOK := features.boolFlag("price_increase_cap_present")
	if renewalOK && autoRenewal && capOK && !priceCap {
		score += weightAutoRenewalPriceUncapped
	}

	// Compliance / Operations
	if features.numFlag("sla_uptime", defaultSLAUptime) < 99.0 {
		score += weightSLAUptimeLow
	}
	if v, ok := features.boolFlag("gdpr_addressed"); ok && !v {
		score += weightMissingGDPRClause
	}

	return clamp(score)
}

func clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Level maps a clamped score onto its categorical band, inclusive at each
// band's lower bound.
func Level(score float64) string {
	switch {
	case score >= 7.5:
		return "Critical"
	case score >= 5.0:
		return "High"
	case score >= 3.0:
		return "Medium"
	default:
		return "Low"
	}
}
