package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"delaycast/ml"
	"delaycast/monitoring"
	"delaycast/storage"
)

// uploadField is the multipart field carrying the model artifact.
const uploadField = "arquivo"

type predictRequest struct {
	WindOrigin *float64 `json:"wind_origin"`
}

type predictResponse struct {
	PredictedDelay float64 `json:"atraso_previsto"`
}

func (s *Service) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(uploadField)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("arquivo excede o limite de %d bytes", tooLarge.Limit))
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "campo "+uploadField+" obrigatório")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "falha ao ler upload")
		return
	}

	err = s.Models.Load(header.Filename, data)
	var derr *storage.DeserializationError
	switch {
	case err == nil:
		s.Metrics.ModelLoads.WithLabelValues(monitoring.LoadOK).Inc()
		s.Logger.Info("model loaded", zap.String("filename", header.Filename), zap.Int("bytes", len(data)))
		writeJSON(w, http.StatusOK, map[string]string{"status": "modelo carregado e salvo"})
	case errors.Is(err, storage.ErrInvalidFormat):
		s.Metrics.ModelLoads.WithLabelValues(monitoring.LoadInvalidFormat).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &derr):
		s.Metrics.ModelLoads.WithLabelValues(monitoring.LoadDecodeFailed).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.Metrics.ModelLoads.WithLabelValues(monitoring.LoadWriteFailed).Inc()
		s.Logger.Error("model write failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Service) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		s.Metrics.PredictDuration.Observe(time.Since(start).Seconds())
	}()

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Metrics.PredictionsFailed.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusUnprocessableEntity, "corpo inválido: "+err.Error())
		return
	}
	if req.WindOrigin == nil {
		s.Metrics.PredictionsFailed.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusUnprocessableEntity, "campo wind_origin obrigatório")
		return
	}

	model, err := s.Models.Active()
	if errors.Is(err, storage.ErrNotLoaded) {
		s.Metrics.PredictionsFailed.WithLabelValues("not_loaded").Inc()
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		s.Metrics.PredictionsFailed.WithLabelValues("model_unavailable").Inc()
		s.Logger.Error("model read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	delay, err := ml.PredictOne(model, *req.WindOrigin)
	if err != nil {
		s.Metrics.PredictionsFailed.WithLabelValues("predict").Inc()
		s.Logger.Error("prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	rec := storage.NewRecord(*req.WindOrigin, delay)
	if err := s.History.Append(r.Context(), rec); err != nil {
		s.Metrics.HistoryAppendFails.Inc()
		s.Logger.Error("history append failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if s.Stream != nil {
		s.Stream.Publish(rec)
	}

	s.Metrics.PredictionsServed.Inc()
	writeJSON(w, http.StatusOK, predictResponse{PredictedDelay: delay})
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.History.ReadAll(r.Context())
	if err != nil {
		s.Logger.Error("history read failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}
