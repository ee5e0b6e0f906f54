package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/josinaldojr/pubmed-rag/internal/datacard"
	"github.com/josinaldojr/pubmed-rag/internal/rag"
	"github.com/josinaldojr/pubmed-rag/internal/vectorstore"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

const DataCardFile = "README.md"

var (
	ErrNoDocuments = errors.New("no documents to store")

	// ErrPartialBuild means the documents were stored but the store
	// directory was not fully written; rebuild the collection.
	ErrPartialBuild = errors.New("vector store build incomplete")
)

// DocumentStore is the write side of a vector store.
type DocumentStore interface {
	AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error)
	Count(ctx context.Context) (int, error)
	Collection() string
}

// Builder persists a set of documents as a vector store: the embeddings go
// to the store, the manifest and the data card go to the store directory.
type Builder struct {
	Store          DocumentStore
	EmbeddingModel string
	Dimensions     int
	Head           int
	CharsPerLine   int

	now func() time.Time
}

func (b *Builder) Build(ctx context.Context, dir string, docs []schema.Document) (*vectorstore.Manifest, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	if err := rag.NormalizeAll(docs); err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	// render first so a bad document fails before anything is written
	card, err := datacard.Render(docs, b.Head, b.CharsPerLine)
	if err != nil {
		return nil, fmt.Errorf("data card: %w", err)
	}

	ids, err := b.Store.AddDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("store documents: %w", err)
	}
	log.Printf("✅ stored %d documents in collection %s", len(ids), b.Store.Collection())

	partial := func(err error) error {
		return fmt.Errorf("%w: collection %s already holds the new documents, rerun with --rebuild: %w",
			ErrPartialBuild, b.Store.Collection(), err)
	}

	// the collection may hold earlier runs when it was not rebuilt
	total, err := b.Store.Count(ctx)
	if err != nil {
		return nil, partial(fmt.Errorf("count documents: %w", err))
	}

	now := time.Now
	if b.now != nil {
		now = b.now
	}
	m := vectorstore.Manifest{
		Collection:     b.Store.Collection(),
		EmbeddingModel: b.EmbeddingModel,
		Dimensions:     b.Dimensions,
		Documents:      total,
		CreatedAt:      now().UTC().Format(time.RFC3339),
	}
	if err := vectorstore.WriteManifest(dir, m); err != nil {
		return nil, partial(err)
	}

	if err := os.WriteFile(filepath.Join(dir, DataCardFile), []byte(card), 0o644); err != nil {
		return nil, partial(fmt.Errorf("write data card: %w", err))
	}

	return &m, nil
}
