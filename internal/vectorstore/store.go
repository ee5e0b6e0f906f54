package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

const DefaultCollection = "pubmed-rag"

var ErrNoEmbedder = errors.New("vectorstore: no embedder configured")

// DB is the subset of *pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store keeps documents and their embeddings in the rag_document table,
// one collection per persisted vector store.
type Store struct {
	db         DB
	embedder   embeddings.Embedder
	collection string
}

func New(db DB, embedder embeddings.Embedder, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{db: db, embedder: embedder, collection: collection}
}

func (s *Store) Collection() string {
	return s.collection
}

// AddDocuments embeds the page contents and inserts one row per document.
// The returned ids follow the order of docs.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	opts := s.options(options)
	if opts.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.PageContent
	}

	vectors, err := opts.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	ids := make([]string, 0, len(docs))
	for i, d := range docs {
		id := uuid.New().String()

		metadata := d.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}

		_, err := s.db.Exec(ctx, `
			INSERT INTO rag_document (id, collection, content, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`,
			id,
			opts.NameSpace,
			d.PageContent,
			metadata,
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return nil, fmt.Errorf("insert document %d: %w", i, err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// SimilaritySearch returns the numDocuments closest documents by cosine
// distance. Score is the cosine similarity.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := s.options(options)
	if opts.Embedder == nil {
		return nil, ErrNoEmbedder
	}
	if numDocuments <= 0 {
		numDocuments = 4
	}

	vec, err := opts.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT content, metadata, 1 - (embedding <=> $2) AS score
		FROM rag_document
		WHERE collection = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`, opts.NameSpace, pgvector.NewVector(vec), numDocuments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		var (
			d     schema.Document
			score float64
		)
		if err := rows.Scan(&d.PageContent, &d.Metadata, &score); err != nil {
			return nil, err
		}
		d.Score = float32(score)
		if opts.ScoreThreshold > 0 && d.Score < opts.ScoreThreshold {
			continue
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT count(*) FROM rag_document WHERE collection = $1`, s.collection)
	if err != nil {
		return 0, err
	}
	n, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) options(options []vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{
		NameSpace: s.collection,
		Embedder:  s.embedder,
	}
	for _, o := range options {
		o(&opts)
	}
	if opts.NameSpace == "" {
		opts.NameSpace = s.collection
	}
	return opts
}

var _ vectorstores.VectorStore = (*Store)(nil)
