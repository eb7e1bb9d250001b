// Package classify assigns an incoming query to one of the fixed intent
// categories using the text-generation provider.
package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/domain"
	"github.com/udyami-labs/maya/internal/logger"
	"github.com/udyami-labs/maya/internal/metrics"
)

const routerPrompt = `You are an intelligent intent classifier for the MAYA AI Assistant.
Classify the user's query into one of the following categories:

1. 'scheme': The user is asking about government schemes, loans, subsidies, or eligibility.
2. 'market': The user is asking about market research, competitors, or industry trends.
3. 'brand': The user is asking about branding, business names, or taglines.
4. 'finance': The user is asking about financial advice, pricing, or calculations (not specific schemes).
5. 'marketing': The user is asking about marketing strategies or promotion.
6. 'general': The user is saying hello, asking who you are, or general conversation.

Return ONLY the category name (e.g., 'scheme', 'market', 'general'). Do not add any explanation.`

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Classifier resolves a query to a Category. It never fails: provider
// errors and unrecognized output both coerce to CategoryGeneral, so
// dispatch always has a legal target.
type Classifier struct {
	gen Generator
}

// New creates a classifier.
func New(gen Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify submits the query to the provider and normalizes the answer.
// Empty or whitespace-only queries are still submitted; validation is the
// provider's problem, normalization is ours.
func (c *Classifier) Classify(ctx context.Context, query string) domain.Category {
	log := logger.FromContext(ctx)

	raw, err := c.gen.Generate(ctx, routerPrompt+"\n\nUser Query: "+query)
	if err != nil {
		log.Warn("Classification provider call failed, falling back to general", zap.Error(err))
		metrics.ClassifierFallbackTotal.WithLabelValues("provider_error").Inc()
		return domain.CategoryGeneral
	}

	category, ok := domain.ParseCategory(raw)
	if !ok {
		// Coerced silently for the user, loudly for offline monitoring.
		log.Warn("Unrecognized classifier output, coerced to general", zap.String("output", raw))
		metrics.ClassifierFallbackTotal.WithLabelValues("unrecognized").Inc()
	}
	return category
}
