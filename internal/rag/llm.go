package rag

import (
	"context"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// Searcher is the read side of a vector store.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error)
}

type LLMClient interface {
	GenerateAnswer(ctx context.Context, question string, docs []schema.Document, lang string) (string, error)
}
