package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

// Client talks to the NCBI E-utilities endpoints. A single call is made per
// method; retrying is the Retrier's job.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// SearchResult is the history-server handle of an esearch query.
type SearchResult struct {
	IDs    []string
	WebEnv string
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
		WebEnv string   `json:"webenv"`
	} `json:"esearchresult"`
}

// Search runs an esearch for query and keeps the result on the history
// server so articles can be fetched with the returned WebEnv.
func (c *Client) Search(ctx context.Context, query string, max int) (*SearchResult, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", query)
	q.Set("retmode", "json")
	q.Set("retmax", strconv.Itoa(max))
	q.Set("usehistory", "y")
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	body, err := c.get(ctx, "esearch.fcgi", q)
	if err != nil {
		return nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode esearch response: %w", err)
	}

	return &SearchResult{IDs: resp.Result.IDList, WebEnv: resp.Result.WebEnv}, nil
}

// RetrieveArticle fetches and parses one PubMed record.
func (c *Client) RetrieveArticle(ctx context.Context, uid, webenv string) (*Article, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("retmode", "xml")
	q.Set("id", uid)
	q.Set("webenv", webenv)
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}

	body, err := c.get(ctx, "efetch.fcgi", q)
	if err != nil {
		return nil, err
	}

	return parseArticle(uid, body)
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	u := c.baseURL + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: c.baseURL + endpoint}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s body: %w", endpoint, err)
	}
	return body, nil
}
