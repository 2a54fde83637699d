package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kothakarthikeya/legal-contract/config"
	"k8s.io/klog/v2"
)

// ErrAllModelsFailed reports that every model in the fallback list was tried
// and none returned a usable completion.
var ErrAllModelsFailed = errors.New("all configured models failed")

// Client talks to an OpenAI-compatible API. Classify walks a ranked list of
// models and stops at the first success; each attempt has its own timeout so
// a hung backend cannot stall the caller beyond one attempt window.
type Client struct {
	BaseURL        string
	APIKey         string
	Models         []string
	MaxTokens      int
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.LLM.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:        cfg.LLM.APIURL,
		APIKey:         cfg.LLM.APIKey,
		Models:         cfg.LLM.Models,
		MaxTokens:      cfg.LLM.MaxTokens,
		RequestTimeout: timeout,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Classify sends a system+user prompt pair and returns the raw completion
// text. Models are tried in ranked order; the error wraps the last failure
// when every model is exhausted.
func (c *Client) Classify(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	var lastErr error
	for _, model := range c.Models {
		content, err := c.chat(ctx, model, messages)
		if err == nil {
			klog.V(6).Infof("classify completed: model=%s, len=%d", model, len(content))
			return content, nil
		}
		lastErr = err
		klog.Warningf("model failed, trying next: model=%s, err=%v", model, err)

		// Don't walk the rest of the list when the caller is gone.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no models configured")
	}
	return "", fmt.Errorf("%w: %v", ErrAllModelsFailed, lastErr)
}

func (c *Client) chat(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()

	reqBody := ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: 0.1,
	}

	var chatResp ChatResponse
	if err := c.post(attemptCtx, "/chat/completions", reqBody, &chatResp); err != nil {
		return "", err
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from model %s", model)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Embed returns one embedding vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, model string, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()

	var embResp EmbeddingResponse
	if err := c.post(attemptCtx, "/embeddings", EmbeddingRequest{Model: model, Input: inputs}, &embResp); err != nil {
		return nil, err
	}
	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}
	if len(embResp.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding count mismatch: want %d, got %d", len(inputs), len(embResp.Data))
	}

	vectors := make([][]float64, len(inputs))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index out of range: %d", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
