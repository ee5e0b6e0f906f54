package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/josinaldojr/pubmed-rag/internal/rag"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

type stubSearcher struct {
	docs []schema.Document
	err  error
}

func (s stubSearcher) SimilaritySearch(ctx context.Context, query string, k int, _ ...vectorstores.Option) ([]schema.Document, error) {
	return s.docs, s.err
}

type stubLLM struct{}

func (stubLLM) GenerateAnswer(ctx context.Context, question string, docs []schema.Document, lang string) (string, error) {
	return "answer for " + question, nil
}

type stubRetriever struct{}

func (stubRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return []schema.Document{{PageContent: "abstract about " + query}}, nil
}

func newTestServer(t *testing.T, searcher rag.Searcher) *httptest.Server {
	t.Helper()
	svc := rag.NewService(searcher, stubLLM{}, rag.NewRetrieverTool(stubRetriever{}))
	srv := httptest.NewServer(NewRouter(NewHandler(svc), prometheus.NewRegistry()))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAsk(t *testing.T) {
	srv := newTestServer(t, stubSearcher{docs: []schema.Document{
		{PageContent: "x", Metadata: map[string]any{"uid": "7", "Title": "Seven"}, Score: 0.5},
	}})

	resp := post(t, srv.URL+"/ask", `{"question":"what is rag?","lang":"en"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out rag.AskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "answer for what is rag?", out.Answer)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "7", out.Sources[0].UID)
}

func TestAskErrors(t *testing.T) {
	srv := newTestServer(t, stubSearcher{err: errors.New("db down")})

	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/ask", `{`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/ask", `{"question":""}`).StatusCode)
	assert.Equal(t, http.StatusInternalServerError, post(t, srv.URL+"/ask", `{"question":"q","lang":"en"}`).StatusCode)
}

func TestRetrieve(t *testing.T) {
	srv := newTestServer(t, stubSearcher{})

	resp := post(t, srv.URL+"/retrieve", `{"query":"statins"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out rag.RetrieveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "abstract about statins", out.Result)

	assert.Equal(t, http.StatusBadRequest, post(t, srv.URL+"/retrieve", `{"query":"  "}`).StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, stubSearcher{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `pubmed_rag_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
