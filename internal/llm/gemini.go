package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/josinaldojr/pubmed-rag/internal/rag"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"google.golang.org/genai"
)

const (
	EmbeddingModel = "models/text-embedding-004"
	EmbedDim       = 768
	ragChatModel   = "gemini-2.5-flash"
)

var ErrMissingAPIKey = errors.New("missing embedding API key")

type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient builds the client from an explicit key; nothing is read
// from or written to the process environment.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: c}, nil
}

func (g *GeminiClient) Model() string   { return EmbeddingModel }
func (g *GeminiClient) Dimensions() int { return EmbedDim }

// EmbedQuery embeds a single search query.
func (g *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return g.embed(ctx, text, "RETRIEVAL_QUERY")
}

// EmbedDocuments embeds texts one request at a time, preserving order.
func (g *GeminiClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for i, t := range texts {
		vec, err := g.embed(ctx, t, "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out = append(out, vec)
	}
	return out, nil
}

func (g *GeminiClient) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	clean := normalizeWhitespace(text)
	if clean == "" {
		return nil, fmt.Errorf("empty text for embedding")
	}

	resp, err := g.client.Models.EmbedContent(
		ctx,
		EmbeddingModel,
		genai.Text(clean),
		&genai.EmbedContentConfig{
			TaskType:             taskType,
			OutputDimensionality: genai.Ptr(int32(EmbedDim)),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if len(values) != EmbedDim {
		return nil, fmt.Errorf("unexpected embedding size %d (expected %d)", len(values), EmbedDim)
	}

	out := make([]float32, EmbedDim)
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

// GenerateAnswer asks Gemini to answer question using only the retrieved
// abstracts.
func (g *GeminiClient) GenerateAnswer(ctx context.Context, question string, docs []schema.Document, lang string) (string, error) {
	if len(docs) == 0 {
		return "I couldn't find any relevant PubMed abstracts for this question.", nil
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.Text(buildSystemPrompt(lang))[0],
	}

	userContent := fmt.Sprintf(
		"Question:\n%s\n\nRelevant PubMed abstracts:\n%s",
		strings.TrimSpace(question),
		buildContext(docs),
	)

	resp, err := g.client.Models.GenerateContent(
		ctx,
		ragChatModel,
		genai.Text(userContent),
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("gemini generateContent error: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	txt := strings.TrimSpace(resp.Text())
	if txt == "" {
		return "", fmt.Errorf("model returned empty text")
	}

	return txt, nil
}

// -------- helpers --------

func buildSystemPrompt(lang string) string {
	target := map[string]string{
		"pt": "Brazilian Portuguese",
		"en": "English",
		"es": "Spanish",
	}[lang]
	if target == "" {
		target = "English"
	}

	var sys strings.Builder
	sys.WriteString("You are a research assistant that summarizes biomedical literature. ")
	sys.WriteString(target)
	sys.WriteString(" is the target language for all responses. ")
	sys.WriteString("Always answer ONLY based on the provided PubMed abstracts. ")
	sys.WriteString("If the answer is not clearly present, say that the indexed papers do not cover it. ")
	sys.WriteString("Do not invent studies, results or figures. ")
	sys.WriteString("Cite the PubMed id of every abstract you use as [PMID].\n")
	return sys.String()
}

func buildContext(docs []schema.Document) string {
	const (
		maxDocs     = 10
		maxDocChars = 1500
	)

	n := len(docs)
	if n > maxDocs {
		n = maxDocs
	}

	var b strings.Builder
	for _, d := range docs[:n] {
		fmt.Fprintf(&b, "\n[PMID %v] title=%s published=%v\n",
			d.Metadata[rag.MetaUID],
			oneLine(fmt.Sprint(d.Metadata[rag.MetaTitle])),
			d.Metadata["Published"],
		)
		b.WriteString(trimBody(d.PageContent, maxDocChars))
		b.WriteString("\n----\n")
	}
	return b.String()
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	return truncate(s, 160)
}

func trimBody(s string, max int) string {
	return truncate(strings.TrimSpace(s), max)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

var _ embeddings.Embedder = (*GeminiClient)(nil)
var _ rag.LLMClient = (*GeminiClient)(nil)
