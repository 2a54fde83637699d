package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/kothakarthikeya/legal-contract/config"
	"github.com/kothakarthikeya/legal-contract/internal/ingest"
	"github.com/kothakarthikeya/legal-contract/internal/model"
	"github.com/kothakarthikeya/legal-contract/internal/repository"
	"gorm.io/datatypes"
	"k8s.io/klog/v2"
)

// Embedder turns texts into embedding vectors. Satisfied by llm.Client.
type Embedder interface {
	Embed(ctx context.Context, embedModel string, inputs []string) ([][]float64, error)
}

// Store implements Service over the chunk table: vectors live next to their
// text in the database and similarity is computed in process. Adequate at
// the assumed scale of tens-to-thousands of documents.
type Store struct {
	chunks       repository.ChunkRepository
	embedder     Embedder
	model        string
	chunkSize    int
	chunkOverlap int
	topK         int
}

func NewStore(cfg *config.Config, chunks repository.ChunkRepository, embedder Embedder) *Store {
	return &Store{
		chunks:       chunks,
		embedder:     embedder,
		model:        cfg.Embedding.Model,
		chunkSize:    cfg.Analysis.ChunkSize,
		chunkOverlap: cfg.Analysis.ChunkOverlap,
		topK:         cfg.Analysis.TopKPerTopic,
	}
}

// EmbedAndStore chunks text on word boundaries, embeds every chunk and
// replaces the document's stored passages. Returns the chunk count.
func (s *Store) EmbedAndStore(ctx context.Context, docID, source, text string) (int, error) {
	pieces := ingest.ChunkWords(text, s.chunkSize, s.chunkOverlap)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("no text to ingest for document %s", docID)
	}
	klog.V(6).Infof("embedding document: docID=%s, chunks=%d", docID, len(pieces))

	vectors, err := s.embedder.Embed(ctx, s.model, pieces)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	rows := make([]model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vec, err := json.Marshal(vectors[i])
		if err != nil {
			return 0, fmt.Errorf("failed to encode embedding: %w", err)
		}
		rows = append(rows, model.Chunk{
			DocID:     docID,
			Seq:       i,
			Source:    source,
			Text:      piece,
			Embedding: datatypes.JSON(vec),
		})
	}

	if err := s.chunks.ReplaceForDocument(docID, rows); err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	return len(rows), nil
}

// Search embeds the query and ranks the document's chunks by cosine
// similarity, keeping the configured top K.
func (s *Store) Search(ctx context.Context, docID, query string) ([]Snippet, error) {
	vectors, err := s.embedder.Embed(ctx, s.model, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec := vectors[0]

	rows, err := s.chunks.GetByDocument(docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	snippets := make([]Snippet, 0, len(rows))
	for _, row := range rows {
		var vec []float64
		if err := json.Unmarshal(row.Embedding, &vec); err != nil {
			klog.Warningf("skipping chunk with bad embedding: docID=%s, seq=%d, err=%v", docID, row.Seq, err)
			continue
		}
		score := cosineSimilarity(queryVec, vec)
		if score <= 0 {
			continue
		}
		snippets = append(snippets, Snippet{Topic: query, Text: row.Text, Score: score})
	}

	sort.SliceStable(snippets, func(i, j int) bool { return snippets[i].Score > snippets[j].Score })
	if s.topK > 0 && len(snippets) > s.topK {
		snippets = snippets[:s.topK]
	}
	return snippets, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
