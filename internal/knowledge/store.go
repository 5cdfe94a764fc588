// Package knowledge manages the grounding corpus: document storage,
// embedding generation, and vector similarity search on PostgreSQL + pgvector.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/pgvector/pgvector-go"
)

// searchTimeout bounds a single vector search (embedding + query).
const searchTimeout = 10 * time.Second

// Querier defines the database operations the store needs.
// The interface is defined here, by the consumer, so tests can supply
// a mock and production code the pgx implementation in queries.go.
type Querier interface {
	// UpsertDocument inserts or updates a document.
	UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error

	// SearchDocuments performs filtered vector search.
	SearchDocuments(ctx context.Context, arg SearchDocumentsParams) ([]DocumentRow, error)

	// SearchDocumentsAll performs unfiltered vector search.
	SearchDocumentsAll(ctx context.Context, arg SearchDocumentsAllParams) ([]DocumentRow, error)

	// CountDocuments counts documents matching a JSONB metadata filter.
	CountDocuments(ctx context.Context, filterMetadata []byte) (int64, error)

	// CountDocumentsAll counts all documents.
	CountDocumentsAll(ctx context.Context) (int64, error)

	// DeleteDocument deletes a document by ID.
	DeleteDocument(ctx context.Context, id string) error

	// DeleteDocumentsBySourceFile deletes all chunks of a source file.
	DeleteDocumentsBySourceFile(ctx context.Context, sourceFile string) (int64, error)
}

// Store manages knowledge documents with vector search capabilities.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a new Store.
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Add adds a document to the knowledge store. The content is embedded with
// the configured embedder; an existing document with the same ID is replaced.
func (s *Store) Add(ctx context.Context, doc Document) error {
	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	createdAt := doc.CreateAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if err := s.queries.UpsertDocument(ctx, UpsertDocumentParams{
		ID:        doc.ID,
		Content:   doc.Content,
		Embedding: pgvector.NewVector(embedding),
		Metadata:  metadataJSON,
		CreatedAt: createdAt,
	}); err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

// Search performs semantic search on the knowledge store.
// Results are ordered by similarity score, best first.
//
// Example:
//
//	results, err := store.Search(ctx, "연도별 총배출량",
//	    knowledge.WithTopK(5),
//	    knowledge.WithFilter("source_type", knowledge.SourceTypeDocument))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryEmbedding := pgvector.NewVector(embedding)

	// Filter values always go through json.Marshal and parameterized
	// queries; never interpolate user input into the JSONB filter.
	var rows []DocumentRow
	if len(cfg.filter) > 0 {
		filterJSON, marshalErr := json.Marshal(cfg.filter)
		if marshalErr != nil {
			return nil, fmt.Errorf("marshaling filter: %w", marshalErr)
		}
		rows, err = s.queries.SearchDocuments(queryCtx, SearchDocumentsParams{
			QueryEmbedding: queryEmbedding,
			FilterMetadata: filterJSON,
			ResultLimit:    int32(cfg.topK),
		})
	} else {
		rows, err = s.queries.SearchDocumentsAll(queryCtx, SearchDocumentsAllParams{
			QueryEmbedding: queryEmbedding,
			ResultLimit:    int32(cfg.topK),
		})
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return rowsToResults(rows), nil
}

// Count returns the number of documents matching the given filter.
// A nil or empty filter counts all documents.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	var count int64
	var err error

	if len(filter) > 0 {
		filterJSON, marshalErr := json.Marshal(filter)
		if marshalErr != nil {
			return 0, fmt.Errorf("marshaling filter: %w", marshalErr)
		}
		count, err = s.queries.CountDocuments(ctx, filterJSON)
	} else {
		count, err = s.queries.CountDocumentsAll(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}

	return int(count), nil
}

// Delete removes a document from the knowledge store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.queries.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("deleting document %q: %w", id, err)
	}
	return nil
}

// DeleteBySourceFile removes every chunk ingested from the named source file.
// Returns the number of deleted chunks.
func (s *Store) DeleteBySourceFile(ctx context.Context, sourceFile string) (int64, error) {
	n, err := s.queries.DeleteDocumentsBySourceFile(ctx, sourceFile)
	if err != nil {
		return 0, fmt.Errorf("deleting documents for %q: %w", sourceFile, err)
	}
	return n, nil
}

// embed generates an embedding for the given text.
func (s *Store) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return fitDimension(resp.Embeddings[0].Embedding, VectorDimension), nil
}

// fitDimension truncates an embedding to dim values and rescales it back
// to unit norm. gemini-embedding-001 emits 3072 dimensions by default and
// documents leading-dimension truncation; the vector column is fixed at
// VectorDimension.
func fitDimension(embedding []float32, dim int) []float32 {
	if len(embedding) <= dim {
		return embedding
	}
	truncated := embedding[:dim]
	var sum float64
	for _, v := range truncated {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return truncated
	}
	scale := 1 / math.Sqrt(sum)
	normalized := make([]float32, dim)
	for i, v := range truncated {
		normalized[i] = float32(float64(v) * scale)
	}
	return normalized
}

// rowsToResults converts database rows to search results.
func rowsToResults(rows []DocumentRow) []Result {
	results := make([]Result, len(rows))
	for i, row := range rows {
		var metadata map[string]string
		if len(row.Metadata) > 0 {
			// Metadata was written by json.Marshal; undecodable rows keep a nil map.
			_ = json.Unmarshal(row.Metadata, &metadata)
		}
		results[i] = Result{
			Document: Document{
				ID:       row.ID,
				Content:  row.Content,
				Metadata: metadata,
				CreateAt: row.CreatedAt,
			},
			Similarity: row.Similarity,
		}
	}
	return results
}
