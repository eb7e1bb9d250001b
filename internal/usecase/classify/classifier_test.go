package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/udyami-labs/maya/internal/domain"
)

// --- Mocks ---

type mockGenerator struct {
	output     string
	err        error
	lastPrompt string
}

func (m *mockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	return m.output, m.err
}

// --- Tests ---

func TestClassify_ValidCategories(t *testing.T) {
	for _, c := range domain.Categories() {
		gen := &mockGenerator{output: string(c)}
		got := New(gen).Classify(context.Background(), "some query")
		if got != c {
			t.Errorf("Classify with output %q = %q, want %q", c, got, c)
		}
	}
}

func TestClassify_NormalizesProviderOutput(t *testing.T) {
	cases := []struct {
		output string
		want   domain.Category
	}{
		{"Scheme", domain.CategoryScheme},
		{"  MARKET \n", domain.CategoryMarket},
		{"finance", domain.CategoryFinance},
	}
	for _, tc := range cases {
		got := New(&mockGenerator{output: tc.output}).Classify(context.Background(), "q")
		if got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.output, got, tc.want)
		}
	}
}

func TestClassify_UnknownOutputCoercedToGeneral(t *testing.T) {
	for _, output := range []string{"foo", "", "scheme and market", "I think this is a scheme query"} {
		got := New(&mockGenerator{output: output}).Classify(context.Background(), "q")
		if got != domain.CategoryGeneral {
			t.Errorf("Classify with output %q = %q, want general", output, got)
		}
	}
}

func TestClassify_ProviderErrorFallsBackToGeneral(t *testing.T) {
	gen := &mockGenerator{err: errors.New("timeout")}
	got := New(gen).Classify(context.Background(), "q")
	if got != domain.CategoryGeneral {
		t.Errorf("Classify on provider error = %q, want general", got)
	}
}

func TestClassify_PromptContainsQueryAndCategories(t *testing.T) {
	gen := &mockGenerator{output: "general"}
	New(gen).Classify(context.Background(), "What subsidy can I get?")

	if !strings.Contains(gen.lastPrompt, "User Query: What subsidy can I get?") {
		t.Error("prompt missing user query")
	}
	for _, c := range domain.Categories() {
		if !strings.Contains(gen.lastPrompt, "'"+string(c)+"'") {
			t.Errorf("prompt missing category %q", c)
		}
	}
}

func TestClassify_EmptyQueryStillSubmitted(t *testing.T) {
	gen := &mockGenerator{output: "general"}
	New(gen).Classify(context.Background(), "")
	if gen.lastPrompt == "" {
		t.Error("empty query must still reach the provider")
	}
}
