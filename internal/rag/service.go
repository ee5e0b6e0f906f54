package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	wl "github.com/abadojack/whatlanggo"
)

const defaultTopK = 4

var ErrEmptyQuestion = errors.New("question is required")

type Service struct {
	store Searcher
	llm   LLMClient
	tool  *RetrieverTool
}

func NewService(store Searcher, llm LLMClient, tool *RetrieverTool) *Service {
	return &Service{
		store: store,
		llm:   llm,
		tool:  tool,
	}
}

func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	q := strings.TrimSpace(req.Question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	lang := req.Lang
	if lang == "" || lang == "auto" {
		lang = detectLang(q)
	}

	// Vector search
	docs, err := s.store.SimilaritySearch(ctx, q, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(docs) == 0 {
		return &AskResponse{
			Answer:  "No indexed PubMed abstract matches this question.",
			Lang:    lang,
			Sources: []SourceRef{},
		}, nil
	}

	// Grounded answer
	answer, err := s.llm.GenerateAnswer(ctx, q, docs, lang)
	if err != nil {
		return nil, err
	}

	sources := make([]SourceRef, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, SourceRef{
			UID:       metaString(d.Metadata, MetaUID),
			Title:     metaString(d.Metadata, MetaTitle),
			Published: metaString(d.Metadata, "Published"),
			Score:     d.Score,
		})
	}

	return &AskResponse{
		Answer:  answer,
		Lang:    lang,
		Sources: sources,
	}, nil
}

// Retrieve runs the retriever tool for query.
func (s *Service) Retrieve(ctx context.Context, query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", ErrEmptyQuestion
	}
	return s.tool.Call(ctx, q)
}

func detectLang(s string) string {
	info := wl.Detect(s)
	switch strings.ToLower(wl.LangToString(info.Lang)) {
	case "por":
		return "pt"
	case "spa":
		return "es"
	default:
		return "en"
	}
}

func metaString(md map[string]any, key string) string {
	v, ok := md[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
