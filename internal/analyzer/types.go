package analyzer

// Verdict is the structured output of one domain's analysis. The envelope
// fields (AgentName, Analysis, RiskScore, Features) are always present;
// domain-specific payloads populate only for their domain; ErrorInfo only on
// failure.
type Verdict struct {
	AgentName        string            `json:"agent"`
	Analysis         string            `json:"analysis"`
	RiskScore        float64           `json:"risk_score"`
	Features         map[string]any    `json:"features"`
	ExtractedClauses map[string]string `json:"extracted_clauses,omitempty"`
	ErrorInfo        string            `json:"error,omitempty"`

	// Legal payload
	ContractLegality *StatusDesc   `json:"contract_legality,omitempty"`
	ContractType     *ContractType `json:"contract_type,omitempty"`

	// Finance payload
	FinancialDetails *FinancialDetails `json:"financial_details,omitempty"`
}

type StatusDesc struct {
	Status string `json:"status"`
	Desc   string `json:"desc"`
}

type ContractType struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type FinancialDetails struct {
	PaymentTerms string `json:"payment_terms"`
}

// Failed reports whether this verdict is a degraded sentinel rather than a
// real analysis.
func (v *Verdict) Failed() bool {
	return v.ErrorInfo != ""
}
