package analyzer

import (
	"fmt"
	"strings"

	"github.com/kothakarthikeya/legal-contract/internal/retrieval"
)

// domainPrompts holds the per-domain instruction blocks. Each block names
// the exact JSON keys and the feature flags the scorer recognizes for that
// domain; flag names are domain-specific so the flattened feature set stays
// collision-free.
var domainPrompts = map[string]string{
	"Legal": `You are a Legal Agent. Review the contract clauses for risk mitigation and enforceability.

Output JSON MUST include these exact keys:
{
    "agent": "Legal",
    "analysis": "Text summary...",
    "risk_score": (1-10 estimation based on text),
    "contract_legality": { "status": "Legally Valid" or "Not a Contract", "desc": "..." },
    "contract_type": { "primary": "Type...", "secondary": "..." },
    "features": {
        "indemnity_cap_present": boolean,
        "liability_cap_present": boolean,
        "threshold_value": "string or number (e.g. $10,000)",
        "termination_for_convenience": boolean,
        "consequential_damages_waiver": boolean,
        "governing_law_match": boolean
    },
    "extracted_clauses": {
        "indemnity": "text snippet...",
        "liability": "text snippet...",
        "termination": "text snippet..."
    }
}`,

	"Finance": `You are a Finance Agent. Review the contract clauses for financial obligations.

Output JSON MUST include these exact keys:
{
    "agent": "Finance",
    "analysis": "Text summary...",
    "risk_score": (1-10),
    "financial_details": { "payment_terms": "..." },
    "features": {
        "payment_terms_days": number,
        "late_payment_penalty_present": boolean,
        "threshold_value": "string or number (e.g. $5,000)",
        "auto_renewal": boolean,
        "price_increase_cap_present": boolean
    },
    "extracted_clauses": {
        "payment_terms": "text snippet...",
        "pricing": "text snippet..."
    }
}`,

	"Compliance": `You are a Compliance Agent. Review for data protection and security.

Output JSON MUST include these exact keys:
{
    "agent": "Compliance",
    "analysis": "Text summary...",
    "risk_score": (1-10),
    "features": {
        "gdpr_addressed": boolean,
        "audit_rights_missing": boolean
    },
    "extracted_clauses": {
        "data_protection": "text snippet...",
        "security": "text snippet..."
    }
}`,

	"Operations": `You are an Operations Agent. Review for SLA and support.

Output JSON MUST include these exact keys:
{
    "agent": "Operations",
    "analysis": "Text summary...",
    "risk_score": (1-10),
    "features": {
        "sla_uptime": number (e.g. 99.9),
        "maintenance_window_defined": boolean
    },
    "extracted_clauses": {
        "sla": "text snippet...",
        "support": "text snippet..."
    }
}`,

	"Security": `You are a Security Agent. Review for IT security, disaster recovery, and data protection measures.

Output JSON MUST include these exact keys:
{
    "agent": "Security",
    "analysis": "Text summary...",
    "risk_score": (1-10),
    "features": {
        "encryption_at_rest": boolean,
        "encryption_in_transit": boolean,
        "disaster_recovery_plan": boolean,
        "multi_factor_auth": boolean
    },
    "extracted_clauses": {
        "security_measures": "text snippet...",
        "disaster_recovery": "text snippet..."
    }
}`,
}

func systemPrompt(domain string) string {
	return fmt.Sprintf("You are a %s contract analysis agent. Respond ONLY with valid JSON.", domain)
}

func userPrompt(domain string, snippets []retrieval.Snippet) string {
	instructions, ok := domainPrompts[domain]
	if !ok {
		instructions = "Analyze these contract clauses and respond with a JSON object containing agent, analysis, risk_score and features keys."
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nClauses provided:\n")
	for i, s := range snippets {
		if i > 0 {
			sb.WriteString("\n---\n")
		}
		fmt.Fprintf(&sb, "Source (%s):\n%s", s.Topic, s.Text)
	}
	return sb.String()
}
