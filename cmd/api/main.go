package main

import (
	"context"
	"log"
	"net/http"

	"github.com/josinaldojr/pubmed-rag/internal/config"
	"github.com/josinaldojr/pubmed-rag/internal/db"
	apphttp "github.com/josinaldojr/pubmed-rag/internal/http"
	"github.com/josinaldojr/pubmed-rag/internal/llm"
	"github.com/josinaldojr/pubmed-rag/internal/rag"
	"github.com/josinaldojr/pubmed-rag/internal/secrets"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer pool.Close()

	apiKey, err := secrets.Chain{
		secrets.DirProvider{Dir: cfg.SecretsDir},
		secrets.EnvProvider{},
	}.Get(cfg.EmbeddingAPIKeySecret)
	if err != nil {
		log.Fatalf("failed to resolve embedding key: %v", err)
	}

	geminiClient, err := llm.NewGeminiClient(ctx, apiKey)
	if err != nil {
		log.Fatalf("failed to init Gemini client: %v", err)
	}

	tool, store, err := rag.OpenRetrieverTool(ctx, pool, cfg.VectorStorePath, geminiClient, cfg.RetrieverTopK)
	if err != nil {
		log.Fatalf("failed to open vector store: %v", err)
	}
	n, err := store.Count(ctx)
	if err != nil {
		log.Fatalf("failed to read vector store: %v", err)
	}
	log.Printf("vector store %s (collection=%s documents=%d)", cfg.VectorStorePath, store.Collection(), n)

	ragService := rag.NewService(store, geminiClient, tool)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := apphttp.NewHandler(ragService)
	router := apphttp.NewRouter(h, reg)

	handler := corsMiddleware(router)

	addr := ":" + cfg.Port
	log.Printf("API listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == "http://localhost:3000" || origin == "http://127.0.0.1:3000" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
