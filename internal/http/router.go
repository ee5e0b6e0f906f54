package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, reg *prometheus.Registry) http.Handler {
	r := mux.NewRouter()

	m := NewMetrics(reg)
	r.Use(m.Middleware)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/ask", h.Ask).Methods(http.MethodPost)
	r.HandleFunc("/retrieve", h.Retrieve).Methods(http.MethodPost)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}
