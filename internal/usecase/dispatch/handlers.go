package dispatch

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/domain"
	"github.com/udyami-labs/maya/internal/logger"
)

// Fixed user-facing responses. Transports compare against SchemeFallback
// in tests, so the exact wording is part of the contract.
const (
	// ApologyResponse is returned whenever a handler's provider call fails.
	ApologyResponse = "Sorry, I encountered an error processing your request."
	// SchemeFallback is returned when retrieval finds nothing to synthesize.
	SchemeFallback = "I couldn't find any specific schemes matching your criteria. " +
		"Could you provide more details about your business or requirements?"
)

// Placeholder responses for categories without a real handler yet.
const (
	marketPlaceholder    = "Market Research Agent: Coming soon!"
	brandPlaceholder     = "Brand Consultant Agent: Coming soon!"
	financePlaceholder   = "Financial Advisor Agent: Coming soon!"
	marketingPlaceholder = "Marketing Agent: Coming soon!"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher retrieves schemes ranked by similarity to the query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.RankedScheme, error)
}

// NewSchemeHandler builds the retrieval-backed handler: search for relevant
// schemes, then have the provider explain them against the user's query.
// When retrieval comes back empty the fixed fallback is returned without a
// generation call; there is nothing to synthesize.
func NewSchemeHandler(search Searcher, gen Generator, limit int) Handler {
	return HandlerFunc(func(ctx context.Context, query string) (string, error) {
		log := logger.FromContext(ctx)

		schemes, err := search.Search(ctx, query, limit)
		if err != nil {
			log.Error("Scheme search failed", zap.Error(err))
			return ApologyResponse, nil
		}
		if len(schemes) == 0 {
			return SchemeFallback, nil
		}

		response, err := gen.Generate(ctx, schemeSynthesisPrompt(query, schemes))
		if err != nil {
			log.Warn("Scheme synthesis failed", zap.Error(err))
			return ApologyResponse, nil
		}
		return response, nil
	})
}

func schemeSynthesisPrompt(query string, schemes []domain.RankedScheme) string {
	var b strings.Builder
	b.WriteString("User Query: ")
	b.WriteString(query)
	b.WriteString("\n\nFound Schemes:\n")
	for _, r := range schemes {
		b.WriteString("Name: ")
		b.WriteString(r.Scheme.Name)
		b.WriteString("\nDescription: ")
		b.WriteString(r.Scheme.Description)
		b.WriteString("\nBenefits: ")
		b.WriteString(r.Scheme.Benefits)
		b.WriteString("\n")
	}
	b.WriteString("\nTask:\nSynthesize a helpful response for the user based on these schemes. ")
	b.WriteString("Explain why they are relevant to the user's query. ")
	b.WriteString("Keep it concise but encouraging.")
	return b.String()
}

// NewGeneralHandler passes the raw query straight to the provider.
func NewGeneralHandler(gen Generator) Handler {
	return HandlerFunc(func(ctx context.Context, query string) (string, error) {
		response, err := gen.Generate(ctx, query)
		if err != nil {
			logger.FromContext(ctx).Warn("General handler generation failed", zap.Error(err))
			return ApologyResponse, nil
		}
		return response, nil
	})
}

// NewPlaceholderHandler returns a fixed response for categories whose real
// handler has not shipped yet.
func NewPlaceholderHandler(response string) Handler {
	return HandlerFunc(func(_ context.Context, _ string) (string, error) {
		return response, nil
	})
}

// DefaultHandlers wires the full category→handler table: the
// retrieval-backed scheme handler, the direct general handler, and
// placeholders for the rest.
func DefaultHandlers(search Searcher, gen Generator, retrievalLimit int) map[domain.Category]Handler {
	return map[domain.Category]Handler{
		domain.CategoryScheme:    NewSchemeHandler(search, gen, retrievalLimit),
		domain.CategoryMarket:    NewPlaceholderHandler(marketPlaceholder),
		domain.CategoryBrand:     NewPlaceholderHandler(brandPlaceholder),
		domain.CategoryFinance:   NewPlaceholderHandler(financePlaceholder),
		domain.CategoryMarketing: NewPlaceholderHandler(marketingPlaceholder),
		domain.CategoryGeneral:   NewGeneralHandler(gen),
	}
}
