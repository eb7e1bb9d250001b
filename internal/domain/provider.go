package domain

import (
	"context"
	"fmt"
)

// Generator is the shared text-generation contract between layers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// UnavailableProvider implements Generator and Embedder by deterministically
// failing with ErrProviderUnavailable. It is wired at startup when provider
// credentials are missing, so call sites never branch on a nil provider.
type UnavailableProvider struct {
	reason string
}

// NewUnavailableProvider creates a provider that always fails with the
// given reason.
func NewUnavailableProvider(reason string) *UnavailableProvider {
	return &UnavailableProvider{reason: reason}
}

// Generate always fails with ErrProviderUnavailable.
func (p *UnavailableProvider) Generate(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("%s: %w", p.reason, ErrProviderUnavailable)
}

// Embed always fails with ErrProviderUnavailable.
func (p *UnavailableProvider) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	return EmbeddingResult{}, fmt.Errorf("%s: %w", p.reason, ErrProviderUnavailable)
}

// HealthCheck always fails with ErrProviderUnavailable.
func (p *UnavailableProvider) HealthCheck(_ context.Context) error {
	return fmt.Errorf("%s: %w", p.reason, ErrProviderUnavailable)
}
