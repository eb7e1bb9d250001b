// Package retrieval ranks scheme records by vector similarity to a query.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/domain"
	"github.com/udyami-labs/maya/internal/logger"
)

// DefaultLimit is the number of records returned when the caller passes a
// non-positive limit.
const DefaultLimit = 3

// Service handles semantic scheme search: embed the query, rank all
// embedded records by cosine distance, return the closest.
type Service struct {
	schemes SchemeReader
	embed   Embedder
}

// New creates a retrieval service.
func New(schemes SchemeReader, embed Embedder) *Service {
	return &Service{schemes: schemes, embed: embed}
}

// Search returns at most limit schemes ordered by ascending cosine distance
// to the query. An embedding failure or empty query vector yields an empty
// result, never an error: to the caller, "provider down" and "nothing
// relevant" look the same. Distance ties keep storage order (stable sort).
func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.RankedScheme, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil || len(embResult.Embedding) == 0 {
		if err != nil {
			logger.FromContext(ctx).Warn("Query embedding failed, returning no results", zap.Error(err))
		}
		return nil, nil
	}

	candidates, err := s.schemes.AllWithEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schemes: %w", err)
	}

	// Exact linear scan. The catalog is small; an approximate index would
	// only cost determinism here.
	ranked := make([]domain.RankedScheme, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, domain.RankedScheme{
			Scheme:   c,
			Distance: domain.CosineDistance(embResult.Embedding, c.Embedding),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Distance < ranked[j].Distance
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
