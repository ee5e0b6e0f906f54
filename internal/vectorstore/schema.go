package vectorstore

import (
	"context"
	"fmt"
)

// EnsureSchema creates the pgvector extension and the document table for
// embeddings of the given dimensionality.
func EnsureSchema(ctx context.Context, db DB, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("vectorstore: invalid embedding dimensions %d", dims)
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS rag_document (
				id         text PRIMARY KEY,
				collection text NOT NULL,
				content    text NOT NULL,
				metadata   jsonb NOT NULL DEFAULT '{}',
				embedding  vector(%d) NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, dims),
		`CREATE INDEX IF NOT EXISTS rag_document_collection_idx ON rag_document (collection)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropCollection removes every document of collection, so a rebuild does
// not mix old and new chunks.
func DropCollection(ctx context.Context, db DB, collection string) error {
	if _, err := db.Exec(ctx, `DELETE FROM rag_document WHERE collection = $1`, collection); err != nil {
		return fmt.Errorf("drop collection %s: %w", collection, err)
	}
	return nil
}
