package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/josinaldojr/pubmed-rag/internal/vectorstore"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/vectorstores"
)

const (
	RetrieverToolName        = "retrieve_pubmed_research"
	RetrieverToolDescription = "Search and return information about pubmed research papers relating " +
		"to the user query."
)

// RetrieverTool exposes a retriever to an agent as a named tool.
type RetrieverTool struct {
	retriever schema.Retriever
}

func NewRetrieverTool(r schema.Retriever) *RetrieverTool {
	return &RetrieverTool{retriever: r}
}

// OpenRetrieverTool binds a retriever tool to the vector store persisted in
// path. k is the number of documents returned per call.
func OpenRetrieverTool(ctx context.Context, db vectorstore.DB, path string, embedder embeddings.Embedder, k int) (*RetrieverTool, *vectorstore.Store, error) {
	m, err := vectorstore.ReadManifest(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open vector store %s: %w", path, err)
	}
	if k <= 0 {
		k = defaultTopK
	}

	store := vectorstore.New(db, embedder, m.Collection)
	return NewRetrieverTool(vectorstores.ToRetriever(store, k)), store, nil
}

func (t *RetrieverTool) Name() string {
	return RetrieverToolName
}

func (t *RetrieverTool) Description() string {
	return RetrieverToolDescription
}

// Call returns the page contents of the retrieved documents separated by a
// blank line.
func (t *RetrieverTool) Call(ctx context.Context, input string) (string, error) {
	docs, err := t.retriever.GetRelevantDocuments(ctx, input)
	if err != nil {
		return "", fmt.Errorf("%s: %w", RetrieverToolName, err)
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, d.PageContent)
	}
	return strings.Join(parts, "\n\n"), nil
}

var _ tools.Tool = (*RetrieverTool)(nil)
