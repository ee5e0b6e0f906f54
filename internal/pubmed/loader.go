package pubmed

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/schema"
)

const DefaultLoadMaxDocs = 10

// Loader turns a PubMed query into documents, one per article, with the
// abstract as page content.
type Loader struct {
	client  *Client
	retrier *Retrier
	maxDocs int
}

func NewLoader(client *Client, retrier *Retrier, maxDocs int) *Loader {
	if maxDocs <= 0 {
		maxDocs = DefaultLoadMaxDocs
	}
	return &Loader{client: client, retrier: retrier, maxDocs: maxDocs}
}

// Load searches PubMed and retrieves every hit through the retrier. The
// first article that cannot be retrieved aborts the load.
func (l *Loader) Load(ctx context.Context, query string) ([]schema.Document, error) {
	var res *SearchResult
	err := l.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := l.client.Search(ctx, query, l.maxDocs)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	log.Printf("pubmed: query=%q hits=%d", query, len(res.IDs))

	docs := make([]schema.Document, 0, len(res.IDs))
	for _, uid := range res.IDs {
		article, err := l.retrier.Fetch(ctx, uid, res.WebEnv, l.client.RetrieveArticle)
		if err != nil {
			return nil, err
		}
		docs = append(docs, schema.Document{
			PageContent: article.Summary,
			Metadata:    article.Metadata(),
		})
	}

	return docs, nil
}
