package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultBatchSize = 32

// TextEmbedder generates fixed-dimension text embeddings through an
// Ollama-compatible embeddings endpoint. One embedder is shared
// process-wide; the server loads the model once and reuses it across
// calls, so the same model and text always produce the same vector.
type TextEmbedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
	batchSize  int

	mu   sync.Mutex
	dims int // learned from the first successful embedding
}

// NewTextEmbedder creates a new text embedder.
func NewTextEmbedder(baseURL, model string, logger *slog.Logger) *TextEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TextEmbedder{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger:    logger,
		batchSize: defaultBatchSize,
	}
}

// Model returns the embedding model name.
func (e *TextEmbedder) Model() string { return e.model }

// Dimensions returns the embedding dimension, or 0 before the first
// successful call.
func (e *TextEmbedder) Dimensions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dims
}

// Embed generates one vector per input text, preserving input order.
// Inputs go to the server in mini-batches of batchSize so a large
// ingestion neither holds hundreds of texts in one request body nor
// pays a round trip per text.
func (e *TextEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("text %d cannot be empty", i)
		}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a search query.
func (e *TextEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	vecs, err := e.embedBatch(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *TextEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	payload := map[string]any{
		"model": e.model,
		"input": texts,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/embed", e.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(result.Embeddings), len(texts))
	}

	for _, vec := range result.Embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("empty embedding returned")
		}
		if err := e.trackDims(len(vec)); err != nil {
			return nil, err
		}
	}
	return result.Embeddings, nil
}

func (e *TextEmbedder) trackDims(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dims == 0 {
		e.dims = n
		e.logger.Debug("embedding dimension resolved", "model", e.model, "dims", e.dims)
		return nil
	}
	if n != e.dims {
		return fmt.Errorf("embedding dimension changed: got %d, expected %d", n, e.dims)
	}
	return nil
}
