package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"delaycast/ml"
	"delaycast/monitoring"
	"delaycast/storage"
)

func newTestService(t *testing.T, dir string) *Service {
	t.Helper()
	models, err := storage.NewModelStore(dir)
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	return &Service{
		Models:   models,
		History:  storage.NewJSONLHistory(filepath.Join(dir, storage.HistoryFileName)),
		Metrics:  monitoring.NewMetrics(reg),
		Gatherer: reg,
		Logger:   zap.NewNop(),
	}
}

func newTestRouter(t *testing.T, dir string) http.Handler {
	t.Helper()
	return NewRouter(DefaultServerConfig(), newTestService(t, dir))
}

func linearArtifact(t *testing.T, intercept, slope float64) []byte {
	t.Helper()
	data, err := ml.Encode(&ml.LinearRegression{Intercept: intercept, Coef: []float64{slope}})
	require.NoError(t, err)
	return data
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/model/load/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func predictRequestFor(windOrigin string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/model/predict/", strings.NewReader(`{"wind_origin": `+windOrigin+`}`))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	w := serve(newTestRouter(t, t.TempDir()), httptest.NewRequest(http.MethodGet, "/health/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestLoadPredictHistoryScenario(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	w := serve(router, uploadRequest(t, "model.gob", linearArtifact(t, 2, 3)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"modelo carregado e salvo"}`, w.Body.String())

	w = serve(router, predictRequestFor("5.0"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pred predictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pred))
	assert.Equal(t, 17.0, pred.PredictedDelay)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/model/history/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var records []storage.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 5.0, records[0].Input.WindOrigin)
	assert.Equal(t, 17.0, records[0].Output)
	assert.Len(t, records[0].ID, 32)
}

func TestLoadRejectsTextFile(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	for _, content := range [][]byte{[]byte("hello"), linearArtifact(t, 0, 1)} {
		w := serve(router, uploadRequest(t, "model.txt", content))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := serve(router, predictRequestFor("1"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLoadRejectsCorruptArtifact(t *testing.T) {
	router := newTestRouter(t, t.TempDir())

	w := serve(router, uploadRequest(t, "model.gob", []byte("definitely not a model")))
	require.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["detail"], "erro ao ler modelo")
}

func TestLoadMissingFileField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/model/load/", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	w := serve(newTestRouter(t, t.TempDir()), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryKeepsPredictionOrder(t *testing.T) {
	router := newTestRouter(t, t.TempDir())
	require.Equal(t, http.StatusOK, serve(router, uploadRequest(t, "m.gob", linearArtifact(t, 0, 2))).Code)

	for _, x := range []string{"1.0", "2.0", "3.0"} {
		require.Equal(t, http.StatusOK, serve(router, predictRequestFor(x)).Code)
	}

	w := serve(router, httptest.NewRequest(http.MethodGet, "/model/history/", nil))
	var records []storage.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 3)
	for i, want := range []float64{1, 2, 3} {
		assert.Equal(t, want, records[i].Input.WindOrigin)
		assert.Equal(t, want*2, records[i].Output)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, t.TempDir())
	serve(router, uploadRequest(t, "model.txt", []byte("x")))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `delaycast_model_loads_total{outcome="invalid_format"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	w := serve(newTestRouter(t, t.TempDir()), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
