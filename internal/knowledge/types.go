package knowledge

import "time"

// VectorDimension is the embedding dimension the documents table schema uses.
// gemini-embedding-001 supports truncation to 768 dimensions.
const VectorDimension = 768

// Source type constants for knowledge documents.
const (
	// SourceTypeDocument represents ingested reference material.
	SourceTypeDocument = "document"

	// SourceTypeWeb represents content fetched from a URL.
	SourceTypeWeb = "web"
)

// Document represents a knowledge document.
type Document struct {
	ID       string            // Unique identifier
	Content  string            // Document text content
	Metadata map[string]string // Optional metadata (source_file, source_type, ...)
	CreateAt time.Time         // Creation timestamp
}

// Result represents a single search result with similarity score.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity score (0-1)
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK   int
	filter map[string]string
}

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithFilter adds a metadata filter to restrict search results.
// Multiple calls add additional filters (AND logic).
// Example: WithFilter("source_type", "document")
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK: 5,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
