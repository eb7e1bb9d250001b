package retrieval

import (
	"context"

	"github.com/udyami-labs/maya/internal/domain"
)

// SchemeReader reads retrievable scheme records. Implementations must only
// return records that hold a stored embedding, in a stable order for a
// fixed index snapshot.
type SchemeReader interface {
	AllWithEmbedding(ctx context.Context) ([]domain.Scheme, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
