package retrieval

// Domains lists the analytical perspectives in declaration order. The order
// matters only for reporting layout; analysis branches are independent.
var Domains = []string{"Legal", "Finance", "Compliance", "Operations", "Security"}

// DomainTopics maps each domain to the topic queries used to pull its
// relevant passages.
var DomainTopics = map[string][]string{
	"Legal":      {"indemnity", "liability", "termination", "governing law", "warranties"},
	"Finance":    {"payment terms", "pricing", "fees", "renewal", "penalties"},
	"Compliance": {"data protection", "GDPR", "privacy", "audit rights", "compliance"},
	"Operations": {"SLA", "uptime", "service level", "support", "maintenance"},
	"Security":   {"security", "encryption", "disaster recovery", "backup", "access control"},
}
