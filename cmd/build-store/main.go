package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/josinaldojr/pubmed-rag/internal/config"
	"github.com/josinaldojr/pubmed-rag/internal/db"
	"github.com/josinaldojr/pubmed-rag/internal/ingest"
	"github.com/josinaldojr/pubmed-rag/internal/llm"
	"github.com/josinaldojr/pubmed-rag/internal/pubmed"
	"github.com/josinaldojr/pubmed-rag/internal/secrets"
	"github.com/josinaldojr/pubmed-rag/internal/vectorstore"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/schema"
)

type options struct {
	query      string
	path       string
	out        string
	collection string
	maxDocs    int
	maxRetry   int
	sleepTime  time.Duration
	rebuild    bool
}

func main() {
	cfg := config.Load()

	if err := newRootCmd(cfg).Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "build-store",
		Short: "Load PubMed abstracts (and local papers) into a vector store",
		Long: `build-store searches PubMed, retrieves every hit with retries, normalizes
the documents, embeds them into the pgvector store and writes the store
manifest and data card into the vector store directory.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.query == "" && opts.path == "" {
				return errors.New("use at least one source: --query or --path")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.query, "query", "", "PubMed search term")
	f.StringVar(&opts.path, "path", "", "directory of local papers (.md/.txt/.html/.pdf)")
	f.StringVar(&opts.out, "out", cfg.VectorStorePath, "vector store directory")
	f.StringVar(&opts.collection, "collection", cfg.VectorStoreCollection, "vector store collection")
	f.IntVar(&opts.maxDocs, "max-docs", cfg.LoadMaxDocs, "maximum PubMed articles to load")
	f.IntVar(&opts.maxRetry, "max-retry", cfg.MaxRetry, "attempts per article before giving up")
	f.DurationVar(&opts.sleepTime, "sleep-time", cfg.SleepTime, "delay between attempts")
	f.BoolVar(&opts.rebuild, "rebuild", false, "delete the collection before loading")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts *options) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	keys := secrets.Chain{
		secrets.DirProvider{Dir: cfg.SecretsDir},
		secrets.EnvProvider{},
	}

	var docs []schema.Document

	if opts.query != "" {
		ncbiKey := cfg.NCBIAPIKey
		if ncbiKey == "" {
			// optional: without a key NCBI allows 3 requests per second
			if k, err := keys.Get("ncbi_api_key"); err == nil {
				ncbiKey = k
			}
		}

		client := pubmed.NewClient(cfg.PubMedBaseURL, ncbiKey, nil)
		loader := pubmed.NewLoader(client, pubmed.NewRetrier(opts.maxRetry, opts.sleepTime), opts.maxDocs)

		loaded, err := loader.Load(ctx, opts.query)
		if err != nil {
			return fmt.Errorf("load pubmed: %w", err)
		}
		docs = append(docs, loaded...)
	}

	if opts.path != "" {
		loaded, err := ingest.LoadFiles(opts.path)
		if err != nil {
			return fmt.Errorf("load files: %w", err)
		}
		docs = append(docs, loaded...)
	}

	apiKey, err := keys.Get(cfg.EmbeddingAPIKeySecret)
	if err != nil {
		return fmt.Errorf("resolve embedding key: %w", err)
	}

	gemini, err := llm.NewGeminiClient(ctx, apiKey)
	if err != nil {
		return err
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := vectorstore.EnsureSchema(ctx, pool, gemini.Dimensions()); err != nil {
		return err
	}
	if opts.rebuild {
		if err := vectorstore.DropCollection(ctx, pool, opts.collection); err != nil {
			return err
		}
	}

	b := &ingest.Builder{
		Store:          vectorstore.New(pool, gemini, opts.collection),
		EmbeddingModel: gemini.Model(),
		Dimensions:     gemini.Dimensions(),
		Head:           cfg.DataCardHead,
		CharsPerLine:   cfg.DataCardCharsPerLine,
	}

	m, err := b.Build(ctx, opts.out, docs)
	if err != nil {
		return err
	}

	log.Printf("✅ vector store ready at %s: collection=%s documents=%d", opts.out, m.Collection, m.Documents)
	return nil
}
