package domain

// DefaultEmbeddingDimensions matches the Gemini embedding-001 model.
const DefaultEmbeddingDimensions = 768

// Scheme is a retrievable catalog record describing a government support
// scheme. Embedding may be empty: such a record exists in storage but is
// invisible to retrieval until it is embedded.
type Scheme struct {
	ID          string
	Name        string
	Description string
	Benefits    string
	Category    string
	Link        string
	Eligibility map[string]string
	Embedding   []float32
}

// HasEmbedding reports whether the scheme is visible to retrieval.
func (s Scheme) HasEmbedding() bool { return len(s.Embedding) > 0 }

// EmbeddingText is the canonical text embedded for a scheme. Seeding and
// re-indexing must both use it so stored vectors stay comparable.
func (s Scheme) EmbeddingText() string {
	return s.Name + ". " + s.Description + ". " + s.Benefits + ". Category: " + s.Category + "."
}

// RankedScheme pairs a scheme with its cosine distance to a query vector.
type RankedScheme struct {
	Scheme   Scheme
	Distance float64
}
