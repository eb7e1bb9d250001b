// Package googleai implements the generation and embedding provider over the
// Google Gemini API.
package googleai

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/domain"
	"github.com/udyami-labs/maya/internal/metrics"
)

const backendName = "googleai"

// geminiClient is the slice of the langchaingo Gemini client the provider
// needs. Narrowed to an interface so tests can stub the remote API.
type geminiClient interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider implements domain.Generator and domain.Embedder via Gemini.
type Provider struct {
	client         geminiClient
	chatModel      string
	embeddingModel string
	logger         *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Logger         *zap.Logger
}

// New creates a Gemini provider.
func New(ctx context.Context, cfg *Config) (*Provider, error) {
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.ChatModel),
		googleai.WithDefaultEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return newWithClient(client, cfg), nil
}

func newWithClient(client geminiClient, cfg *Config) *Provider {
	return &Provider{
		client:         client,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		logger:         cfg.Logger,
	}
}

// Generate implements domain.Generator via a single-turn content generation.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	}

	start := time.Now()

	resp, err := p.client.GenerateContent(ctx, content, llms.WithModel(p.chatModel))

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(backendName, p.chatModel, "error").Inc()
		return "", fmt.Errorf("gemini generate: %v: %w", err, domain.ErrProviderUnavailable)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(backendName, p.chatModel, "error").Inc()
		return "", fmt.Errorf("empty gemini response: %w", domain.ErrProviderUnavailable)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(backendName, p.chatModel, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(backendName, p.chatModel).Observe(duration.Seconds())

	return resp.Choices[0].Content, nil
}

// Embed implements domain.Embedder. The Gemini embedding endpoint does not
// report token usage, so the counts stay zero.
func (p *Provider) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	vecs, err := p.client.CreateEmbedding(ctx, []string{text})

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(backendName, p.embeddingModel, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("gemini embed: %v: %w", err, domain.ErrProviderUnavailable)
	}
	if len(vecs) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(backendName, p.embeddingModel, "error").Inc()
		return domain.EmbeddingResult{}, fmt.Errorf("empty gemini embedding response: %w", domain.ErrProviderUnavailable)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(backendName, p.embeddingModel, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(backendName, p.embeddingModel).Observe(duration.Seconds())

	p.logger.Debug("embedding generated",
		zap.String("model", p.embeddingModel),
		zap.Int("dimensions", len(vecs[0])),
		zap.Duration("duration", duration))

	return domain.EmbeddingResult{Embedding: vecs[0]}, nil
}

// HealthCheck verifies API availability with a minimal embedding call.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if _, err := p.client.CreateEmbedding(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("gemini health check: %w", err)
	}
	return nil
}
