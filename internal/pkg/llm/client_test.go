package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(url string, models ...string) *Client {
	return &Client{
		BaseURL:        url,
		APIKey:         "test-key",
		Models:         models,
		MaxTokens:      100,
		RequestTimeout: 2 * time.Second,
		HTTPClient:     &http.Client{Timeout: 2 * time.Second},
	}
}

func TestClassifyFirstModelSucceeds(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		requested = append(requested, req.Model)
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: ChatMessage{Role: "assistant", Content: `{"ok":true}`}}},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "model-a", "model-b")
	out, err := c.Classify(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if out != `{"ok":true}` {
		t.Fatalf("unexpected content: %s", out)
	}
	if len(requested) != 1 || requested[0] != "model-a" {
		t.Fatalf("expected single request to model-a, got %v", requested)
	}
}

func TestClassifyFallsBackToNextModel(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		requested = append(requested, req.Model)
		if req.Model == "model-a" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ChatResponse{
			Choices: []Choice{{Message: ChatMessage{Role: "assistant", Content: "fallback answer"}}},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "model-a", "model-b")
	out, err := c.Classify(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if out != "fallback answer" {
		t.Fatalf("unexpected content: %s", out)
	}
	if len(requested) != 2 {
		t.Fatalf("expected two attempts, got %v", requested)
	}
}

func TestClassifyAllModelsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "model-a", "model-b")
	_, err := c.Classify(context.Background(), "sys", "user")
	if err == nil {
		t.Fatalf("expected error when every model fails")
	}
}

func TestEmbedOrdersVectorsByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// deliberately out of order
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Data: []EmbeddingData{
				{Index: 1, Embedding: []float64{0, 1}},
				{Index: 0, Embedding: []float64{1, 0}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "unused")
	vectors, err := c.Embed(context.Background(), "embed-model", []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed error: %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors not ordered by index: %v", vectors)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Data: []EmbeddingData{{Index: 0, Embedding: []float64{1}}},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "unused")
	if _, err := c.Embed(context.Background(), "embed-model", []string{"a", "b"}); err == nil {
		t.Fatalf("expected count mismatch error")
	}
}
