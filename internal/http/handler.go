package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/josinaldojr/pubmed-rag/internal/rag"
)

type Handler struct {
	ragService *rag.Service
}

func NewHandler(ragService *rag.Service) *Handler {
	return &Handler{ragService: ragService}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req rag.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	resp, err := h.ragService.Ask(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, resp)
}

func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req rag.RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	result, err := h.ragService.Retrieve(ctx, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, rag.RetrieveResponse{Result: result})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, rag.ErrEmptyQuestion) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("request failed: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
