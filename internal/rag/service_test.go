package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

type fakeSearcher struct {
	docs  []schema.Document
	err   error
	query string
	k     int
}

func (s *fakeSearcher) SimilaritySearch(ctx context.Context, query string, k int, _ ...vectorstores.Option) ([]schema.Document, error) {
	s.query, s.k = query, k
	return s.docs, s.err
}

type fakeLLM struct {
	answer string
	err    error
	lang   string
	docs   []schema.Document
}

func (l *fakeLLM) GenerateAnswer(ctx context.Context, question string, docs []schema.Document, lang string) (string, error) {
	l.lang, l.docs = lang, docs
	return l.answer, l.err
}

func TestServiceAsk(t *testing.T) {
	store := &fakeSearcher{docs: []schema.Document{
		{PageContent: "abstract", Metadata: map[string]any{"uid": "38000001", "Title": "RAG", "Published": "2024-03-15"}, Score: 0.8},
	}}
	llm := &fakeLLM{answer: "It helps [38000001]."}
	svc := NewService(store, llm, nil)

	resp, err := svc.Ask(context.Background(), AskRequest{Question: "  does retrieval reduce hallucination?  ", Lang: "en"})
	require.NoError(t, err)

	assert.Equal(t, "does retrieval reduce hallucination?", store.query)
	assert.Equal(t, defaultTopK, store.k)
	assert.Equal(t, "It helps [38000001].", resp.Answer)
	assert.Equal(t, "en", llm.lang)
	assert.Equal(t, []SourceRef{{UID: "38000001", Title: "RAG", Published: "2024-03-15", Score: 0.8}}, resp.Sources)
}

func TestServiceAskNoDocuments(t *testing.T) {
	llm := &fakeLLM{answer: "unused"}
	svc := NewService(&fakeSearcher{}, llm, nil)

	resp, err := svc.Ask(context.Background(), AskRequest{Question: "anything", TopK: 2, Lang: "pt"})
	require.NoError(t, err)
	assert.Empty(t, resp.Sources)
	assert.NotEqual(t, "unused", resp.Answer)
	assert.Nil(t, llm.docs)
}

func TestServiceAskErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewService(&fakeSearcher{}, &fakeLLM{}, nil).Ask(context.Background(), AskRequest{Question: "  "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = NewService(&fakeSearcher{err: boom}, &fakeLLM{}, nil).Ask(context.Background(), AskRequest{Question: "q", Lang: "en"})
	assert.ErrorIs(t, err, boom)

	store := &fakeSearcher{docs: []schema.Document{{PageContent: "x"}}}
	_, err = NewService(store, &fakeLLM{err: boom}, nil).Ask(context.Background(), AskRequest{Question: "q", Lang: "en"})
	assert.ErrorIs(t, err, boom)
}

func TestServiceRetrieve(t *testing.T) {
	tool := NewRetrieverTool(&fakeRetriever{docs: []schema.Document{{PageContent: "a"}, {PageContent: "b"}}})
	svc := NewService(&fakeSearcher{}, &fakeLLM{}, tool)

	out, err := svc.Retrieve(context.Background(), " statins ")
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", out)

	_, err = svc.Retrieve(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestDetectLang(t *testing.T) {
	assert.Equal(t, "en", detectLang("What are the side effects of long term statin therapy in elderly patients?"))
	assert.Equal(t, "es", detectLang("¿Cuáles son los efectos secundarios del tratamiento prolongado con estatinas en pacientes mayores?"))
}
