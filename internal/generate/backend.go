package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tubesage/cli/internal/ollama"
)

// FallbackNotice prefixes extractive answers so users can tell a
// degraded response from a generated one.
const FallbackNotice = "The language model is currently unavailable. Showing the most relevant excerpts from the source instead:"

const (
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
)

// Client is the subset of the Ollama client the backend needs.
type Client interface {
	Generate(ctx context.Context, model, prompt string, opts ollama.GenerateOptions) (string, error)
}

// Backend wraps the hosted generative model. When the model call
// fails (network, quota, missing model) it degrades to an extractive
// answer built from the retrieved excerpts instead of propagating the
// error: retrieval output stays useful even with generation down.
type Backend struct {
	client      Client
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// NewBackend creates a generative backend bound to one model.
func NewBackend(client Client, model string, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		client:      client,
		model:       model,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		logger:      logger,
	}
}

// Model returns the generation model name.
func (b *Backend) Model() string { return b.model }

// Answer invokes the model with the prompt. excerpts are the retrieved
// chunk texts in rank order, used verbatim if generation fails.
func (b *Backend) Answer(ctx context.Context, prompt string, excerpts []string) string {
	answer, err := b.client.Generate(ctx, b.model, prompt, ollama.GenerateOptions{
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	})
	if err != nil {
		b.logger.Warn("generation failed, falling back to extractive answer",
			"model", b.model, "error", err)
		return extractive(excerpts)
	}
	if strings.TrimSpace(answer) == "" {
		b.logger.Warn("generation returned empty answer, falling back", "model", b.model)
		return extractive(excerpts)
	}
	return answer
}

func extractive(excerpts []string) string {
	var sb strings.Builder
	sb.WriteString(FallbackNotice)
	for i, text := range excerpts {
		sb.WriteString(fmt.Sprintf("\n\n[%d] %s", i+1, text))
	}
	return sb.String()
}
