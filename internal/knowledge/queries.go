package knowledge

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

// DBTX abstracts the pgx connection surface the queries need
// (satisfied by *pgxpool.Pool, *pgx.Conn, and pgx.Tx).
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the pgx-backed Querier implementation.
type Queries struct {
	db DBTX
}

// NewQueries creates a Queries bound to the given connection.
func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

// UpsertDocumentParams holds the arguments for UpsertDocument.
type UpsertDocumentParams struct {
	ID        string
	Content   string
	Embedding pgvector.Vector
	Metadata  []byte
	CreatedAt time.Time
}

// SearchDocumentsParams holds the arguments for SearchDocuments.
type SearchDocumentsParams struct {
	QueryEmbedding pgvector.Vector
	FilterMetadata []byte
	ResultLimit    int32
}

// SearchDocumentsAllParams holds the arguments for SearchDocumentsAll.
type SearchDocumentsAllParams struct {
	QueryEmbedding pgvector.Vector
	ResultLimit    int32
}

// DocumentRow is one row returned by the search queries.
type DocumentRow struct {
	ID         string
	Content    string
	Metadata   []byte
	CreatedAt  time.Time
	Similarity float32
}

const upsertDocumentSQL = `
INSERT INTO documents (id, content, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET content = EXCLUDED.content,
    embedding = EXCLUDED.embedding,
    metadata = EXCLUDED.metadata`

// UpsertDocument inserts or updates a document.
func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertDocumentParams) error {
	_, err := q.db.Exec(ctx, upsertDocumentSQL,
		arg.ID, arg.Content, arg.Embedding, arg.Metadata, arg.CreatedAt)
	return err
}

const searchDocumentsSQL = `
SELECT id, content, metadata, created_at,
       1 - (embedding <=> $1) AS similarity
FROM documents
WHERE metadata @> $2
ORDER BY embedding <=> $1
LIMIT $3`

// SearchDocuments performs a cosine-distance search restricted by a JSONB
// metadata containment filter.
func (q *Queries) SearchDocuments(ctx context.Context, arg SearchDocumentsParams) ([]DocumentRow, error) {
	rows, err := q.db.Query(ctx, searchDocumentsSQL,
		arg.QueryEmbedding, arg.FilterMetadata, arg.ResultLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

const searchDocumentsAllSQL = `
SELECT id, content, metadata, created_at,
       1 - (embedding <=> $1) AS similarity
FROM documents
ORDER BY embedding <=> $1
LIMIT $2`

// SearchDocumentsAll performs an unfiltered cosine-distance search.
func (q *Queries) SearchDocumentsAll(ctx context.Context, arg SearchDocumentsAllParams) ([]DocumentRow, error) {
	rows, err := q.db.Query(ctx, searchDocumentsAllSQL,
		arg.QueryEmbedding, arg.ResultLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocumentRows(rows)
}

// CountDocuments counts documents matching a JSONB metadata filter.
func (q *Queries) CountDocuments(ctx context.Context, filterMetadata []byte) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE metadata @> $1`,
		filterMetadata).Scan(&count)
	return count, err
}

// CountDocumentsAll counts all documents.
func (q *Queries) CountDocumentsAll(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count)
	return count, err
}

// DeleteDocument deletes a document by ID.
func (q *Queries) DeleteDocument(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

// DeleteDocumentsBySourceFile deletes all chunks tagged with the given
// source_file metadata value. Returns the number of deleted rows.
func (q *Queries) DeleteDocumentsBySourceFile(ctx context.Context, sourceFile string) (int64, error) {
	tag, err := q.db.Exec(ctx,
		`DELETE FROM documents WHERE metadata->>'source_file' = $1`, sourceFile)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanDocumentRows(rows pgx.Rows) ([]DocumentRow, error) {
	var out []DocumentRow
	for rows.Next() {
		var r DocumentRow
		if err := rows.Scan(&r.ID, &r.Content, &r.Metadata, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
