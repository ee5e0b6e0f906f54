package datacard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/schema"
)

const (
	DefaultHead         = 5
	DefaultCharsPerLine = 80
)

// Render builds the markdown data card of a vector store: a header with the
// number of previewed chunks followed by the metadata and wrapped content of
// the first head documents.
func Render(docs []schema.Document, head, charsPerLine int) (string, error) {
	if head < 0 {
		return "", fmt.Errorf("%w: head must not be negative, got %d", ErrInvalidArgument, head)
	}
	if head > len(docs) {
		head = len(docs)
	}
	preview := docs[:head]

	var b strings.Builder
	for i, doc := range preview {
		// embedded fences would close the content block early
		content, err := WrapString(strings.ReplaceAll(doc.PageContent, "```", ""), charsPerLine)
		if err != nil {
			return "", fmt.Errorf("chunk %d: %w", i, err)
		}

		fmt.Fprintf(&b, "\n\n---\n\n### 📖 Chunk %d\n\n**Page metadata:**\n\n%s\n\n**Content:**\n\n```\n%s\n```\n",
			i, formatMetadata(doc.Metadata), content)
	}

	return fmt.Sprintf("# 📚 Vector store knowledge base.\n\n"+
		"This artifact is a vector store of %d document chunks.\n\n"+
		"## Preview\n\n%s\n", len(preview), b.String()), nil
}

func formatMetadata(md map[string]any) string {
	if len(md) == 0 {
		return "{}"
	}
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Sprintf("%v", md)
	}
	return string(data)
}
