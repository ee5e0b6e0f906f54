package pubmed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labelledArticle = `<?xml version="1.0" ?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">38000001</PMID>
      <Article PubModel="Print">
        <ArticleTitle>Retrieval augmented generation for clinical notes.</ArticleTitle>
        <Abstract>
          <AbstractText Label="BACKGROUND">Large language models hallucinate.</AbstractText>
          <AbstractText Label="METHODS">We index abstracts &amp; retrieve <i>k</i> passages.</AbstractText>
          <CopyrightInformation>© 2024 The Authors.</CopyrightInformation>
        </Abstract>
        <ArticleDate DateType="Electronic">
          <Year>2024</Year>
          <Month>03</Month>
          <Day>15</Day>
        </ArticleDate>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

const markupArticle = `<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <ArticleTitle>Growth of <i>Escherichia coli</i> in biofilms</ArticleTitle>
        <Abstract>
          <AbstractText>First paragraph.</AbstractText>
          <AbstractText>Second paragraph.</AbstractText>
        </Abstract>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

const bareArticle = `<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <Article>
        <ArticleTitle>Letter to the editor</ArticleTitle>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestParseArticle(t *testing.T) {
	t.Run("labelled abstract", func(t *testing.T) {
		a, err := parseArticle("38000001", []byte(labelledArticle))
		require.NoError(t, err)

		assert.Equal(t, "38000001", a.UID)
		assert.Equal(t, "Retrieval augmented generation for clinical notes.", a.Title)
		assert.Equal(t, "2024-03-15", a.Published)
		assert.Equal(t, "© 2024 The Authors.", a.Copyright)
		assert.Equal(t, "BACKGROUND: Large language models hallucinate.\nMETHODS: We index abstracts & retrieve k passages.", a.Summary)
	})

	t.Run("title with markup", func(t *testing.T) {
		a, err := parseArticle("2", []byte(markupArticle))
		require.NoError(t, err)

		assert.Equal(t, map[string]any{
			"#text": "Growth of in biofilms",
			"i":     "Escherichia coli",
		}, a.Title)
		assert.Equal(t, "First paragraph.\nSecond paragraph.", a.Summary)
		assert.Equal(t, "--", a.Published)
	})

	t.Run("no abstract", func(t *testing.T) {
		a, err := parseArticle("3", []byte(bareArticle))
		require.NoError(t, err)
		assert.Equal(t, noAbstract, a.Summary)
		assert.Equal(t, map[string]any{
			"uid":                   "3",
			"Title":                 "Letter to the editor",
			"Published":             "--",
			"Copyright Information": "",
		}, a.Metadata())
	})

	t.Run("empty set", func(t *testing.T) {
		_, err := parseArticle("4", []byte(`<PubmedArticleSet></PubmedArticleSet>`))
		assert.Error(t, err)
	})

	t.Run("not xml", func(t *testing.T) {
		_, err := parseArticle("5", []byte(`{"error":"bad"}`))
		assert.Error(t, err)
	})
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "pubmed", q.Get("db"))
			assert.Equal(t, "rag llm", q.Get("term"))
			assert.Equal(t, "2", q.Get("retmax"))
			assert.Equal(t, "y", q.Get("usehistory"))
			assert.Equal(t, "secret", q.Get("api_key"))
			fmt.Fprint(w, `{"esearchresult":{"count":"2","idlist":["38000001","38000002"],"webenv":"MCID_1"}}`)
		case "/efetch.fcgi":
			assert.Equal(t, "MCID_1", q.Get("webenv"))
			if q.Get("id") == "38000002" {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			fmt.Fprint(w, labelledArticle)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", srv.Client())
	ctx := context.Background()

	res, err := c.Search(ctx, "rag llm", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"38000001", "38000002"}, res.IDs)
	assert.Equal(t, "MCID_1", res.WebEnv)

	a, err := c.RetrieveArticle(ctx, "38000001", res.WebEnv)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", a.Published)

	_, err = c.RetrieveArticle(ctx, "38000002", res.WebEnv)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.StatusCode)
	assert.True(t, IsTransient(err))
}
