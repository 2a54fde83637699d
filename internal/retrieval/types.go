package retrieval

import "context"

// Snippet is one retrieved passage with the topic query that surfaced it and
// its similarity score.
type Snippet struct {
	Topic string  `json:"topic"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Service is the semantic retrieval contract: ingestion stores a document's
// chunks for later filtered search; Search returns passages ranked by
// descending relevance to the query, scoped to one document.
type Service interface {
	EmbedAndStore(ctx context.Context, docID, source, text string) (int, error)
	Search(ctx context.Context, docID, query string) ([]Snippet, error)
}
