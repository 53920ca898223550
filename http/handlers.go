package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"delaycast/monitoring"
	"delaycast/storage"
)

// Service bundles what the handlers need. Stream and Gatherer are optional.
type Service struct {
	Models   *storage.ModelStore
	History  storage.History
	Metrics  *monitoring.Metrics
	Stream   *monitoring.Hub
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// RegisterHandlers mounts every endpoint on r.
func RegisterHandlers(r chi.Router, svc *Service) {
	r.Get("/health/", handleHealth)
	r.Post("/model/load/", svc.handleLoadModel)
	r.Post("/model/predict/", svc.handlePredict)
	r.Get("/model/history/", svc.handleHistory)

	if svc.Stream != nil {
		r.Get("/model/history/stream", svc.Stream.ServeHTTP)
	}
	if svc.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(svc.Gatherer, promhttp.HandlerOpts{}))
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
