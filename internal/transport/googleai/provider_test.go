package googleai

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/domain"
	"github.com/udyami-labs/maya/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterProviderMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockClient struct {
	generateFn func(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
	embedFn    func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockClient) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return m.generateFn(ctx, messages, options...)
}

func (m *mockClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return m.embedFn(ctx, texts)
}

func newTestProvider(client geminiClient) *Provider {
	return newWithClient(client, &Config{
		ChatModel:      "test-chat-model",
		EmbeddingModel: "test-embedding-model",
		Logger:         zap.NewNop(),
	})
}

// --- Tests ---

func TestProvider_Generate(t *testing.T) {
	var gotPrompt string

	p := newTestProvider(&mockClient{
		generateFn: func(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
			if len(messages) != 1 || messages[0].Role != llms.ChatMessageTypeHuman {
				t.Errorf("unexpected messages: %+v", messages)
			}
			if part, ok := messages[0].Parts[0].(llms.TextContent); ok {
				gotPrompt = part.Text
			}
			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{{Content: "generated answer"}},
			}, nil
		},
	})

	got, err := p.Generate(context.Background(), "describe subsidies")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "generated answer" {
		t.Errorf("Generate = %q, expected %q", got, "generated answer")
	}
	if gotPrompt != "describe subsidies" {
		t.Errorf("prompt = %q, expected %q", gotPrompt, "describe subsidies")
	}
}

func TestProvider_Generate_Error(t *testing.T) {
	p := newTestProvider(&mockClient{
		generateFn: func(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	})

	_, err := p.Generate(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestProvider_Generate_EmptyChoices(t *testing.T) {
	p := newTestProvider(&mockClient{
		generateFn: func(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
			return &llms.ContentResponse{}, nil
		},
	})

	_, err := p.Generate(context.Background(), "hello")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestProvider_Embed(t *testing.T) {
	expectedVec := []float32{0.5, 0.25, 0.125}

	p := newTestProvider(&mockClient{
		embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			if len(texts) != 1 || texts[0] != "hello world" {
				t.Errorf("unexpected texts: %v", texts)
			}
			return [][]float32{expectedVec}, nil
		},
	})

	result, err := p.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(result.Embedding) != len(expectedVec) {
		t.Fatalf("expected %d dimensions, got %d", len(expectedVec), len(result.Embedding))
	}
	for i, v := range result.Embedding {
		if v != expectedVec[i] {
			t.Errorf("vec[%d] = %f, expected %f", i, v, expectedVec[i])
		}
	}
}

func TestProvider_Embed_Error(t *testing.T) {
	p := newTestProvider(&mockClient{
		embedFn: func(_ context.Context, _ []string) ([][]float32, error) {
			return nil, errors.New("network unreachable")
		},
	})

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	p := newTestProvider(&mockClient{
		embedFn: func(_ context.Context, _ []string) ([][]float32, error) {
			return [][]float32{{0.1}}, nil
		},
	})

	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
