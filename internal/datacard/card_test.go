package datacard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

func testDocs(n int) []schema.Document {
	docs := make([]schema.Document, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, schema.Document{
			PageContent: "BACKGROUND: a short abstract about retrieval",
			Metadata:    map[string]any{"uid": "3800" + string(rune('0'+i)), "Title": "Paper"},
		})
	}
	return docs
}

func TestRender(t *testing.T) {
	t.Run("previews only the head", func(t *testing.T) {
		card, err := Render(testDocs(7), 3, 80)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(card, "# 📚 Vector store knowledge base.\n"))
		assert.Contains(t, card, "This artifact is a vector store of 3 document chunks.")
		assert.Contains(t, card, "### 📖 Chunk 0")
		assert.Contains(t, card, "### 📖 Chunk 2")
		assert.NotContains(t, card, "### 📖 Chunk 3")
		assert.Contains(t, card, `{"Title":"Paper","uid":"38000"}`)
	})

	t.Run("head larger than the docs", func(t *testing.T) {
		card, err := Render(testDocs(2), DefaultHead, DefaultCharsPerLine)
		require.NoError(t, err)
		assert.Contains(t, card, "vector store of 2 document chunks")
	})

	t.Run("wraps content and strips fences", func(t *testing.T) {
		docs := []schema.Document{{
			PageContent: "see ```code``` here and more",
			Metadata:    map[string]any{"uid": "1"},
		}}
		card, err := Render(docs, 1, 10)
		require.NoError(t, err)
		assert.Contains(t, card, "```\nsee code\n here and\n more\n```\n")
		assert.Equal(t, 2, strings.Count(card, "```"))
	})

	t.Run("no documents", func(t *testing.T) {
		card, err := Render(nil, 5, 80)
		require.NoError(t, err)
		assert.Contains(t, card, "vector store of 0 document chunks")
	})
}

func TestRenderErrors(t *testing.T) {
	_, err := Render(testDocs(1), -1, 80)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Render(testDocs(1), 1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Render([]schema.Document{{PageContent: "```"}}, 1, 80)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "chunk 0")
}
