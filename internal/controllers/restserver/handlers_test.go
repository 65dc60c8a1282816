package restserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hydrostats/hydrofreq/internal/frequency"
	"github.com/hydrostats/hydrofreq/internal/log"
	"github.com/hydrostats/hydrofreq/internal/observability"
	"github.com/hydrostats/hydrofreq/pkg/config"
)

// testController builds a controller with no database or cache, suitable for
// exercising the inline analysis endpoint and the error contract.
func testController(t *testing.T) *Controller {
	t.Helper()

	// Ensure the package logger fallback is in place for handler error paths
	log.GetSugaredLogger()

	ctrl := &Controller{
		Analyzer: frequency.NewAnalyzer(zap.NewNop().Sugar()),
		AnalysisConfig: config.AnalysisData{
			ReturnPeriods: []float64{2, 10, 100},
		},
		Metrics: observability.NewMetricsForTesting(),
	}
	ctrl.handlers = NewHandlers(ctrl)
	return ctrl
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return testController(t).setupRouter()
}

// inlineBody builds an analysis request with one observation per year
func inlineBody(t *testing.T, years int, aggregation string) []byte {
	t.Helper()

	type sample struct {
		ObservedAt string  `json:"observed_at"`
		Value      float64 `json:"value"`
	}
	samples := make([]sample, 0, years)
	for i := 0; i < years; i++ {
		samples = append(samples, sample{
			ObservedAt: fmt.Sprintf("%d-06-15T12:00:00Z", 1990+i),
			Value:      100 + float64(i%11)*7,
		})
	}
	body, err := json.Marshal(map[string]interface{}{
		"samples":     samples,
		"aggregation": aggregation,
	})
	require.NoError(t, err)
	return body
}

func TestGetHealth(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["database"])
	assert.Equal(t, false, body["cache"])
}

func TestRunInlineAnalysis(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analysis",
		bytes.NewReader(inlineBody(t, 30, "max")))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var result frequency.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, 30, result.SampleCount)
	assert.Equal(t, "excellent", result.Quality.Grade)
	assert.Equal(t, frequency.AggMax, result.Aggregation)
	assert.NotEmpty(t, result.BestFitFamily)
	assert.Len(t, result.Fits, len(frequency.FamilyNames()))

	best, ok := result.Curves[result.BestFitFamily]
	require.True(t, ok, "curves missing for best fit family")
	assert.Len(t, best.EmpiricalPoints, 30)
	assert.Len(t, best.ReturnPeriods, 3)
}

func TestRunInlineAnalysisPreAggregated(t *testing.T) {
	router := testRouter(t)

	type pair struct {
		Period int     `json:"period"`
		Value  float64 `json:"value"`
	}
	pairs := make([]pair, 0, 25)
	for i := 0; i < 25; i++ {
		pairs = append(pairs, pair{Period: 1995 + i, Value: 50 + float64(i%9)*4})
	}
	body, err := json.Marshal(map[string]interface{}{
		"periods":       pairs,
		"aggregation":   "max",
		"distributions": []string{"gumbel", "lognorm"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analysis", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var result frequency.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 25, result.SampleCount)
	assert.Equal(t, "good", result.Quality.Grade)
	assert.Len(t, result.Fits, 2)
}

func TestRunInlineAnalysisErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		wantStatus int
		wantKind   string
	}{
		{
			name:       "malformed json",
			body:       []byte(`{"samples": [`),
			wantStatus: http.StatusBadRequest,
			wantKind:   "input_validation",
		},
		{
			name:       "no samples",
			body:       []byte(`{"samples": []}`),
			wantStatus: http.StatusBadRequest,
			wantKind:   "input_validation",
		},
		{
			name:       "unknown aggregation",
			body:       inlineBody(t, 10, "median"),
			wantStatus: http.StatusBadRequest,
			wantKind:   "input_validation",
		},
		{
			name:       "single period",
			body:       inlineBody(t, 1, "max"),
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "insufficient_data",
		},
	}

	router := testRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/analysis", bytes.NewReader(tt.body))
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, "body: %s", rec.Body.String())

			var payload errorPayload
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, tt.wantKind, payload.Error.Kind)
			assert.NotEmpty(t, payload.Error.Message)
		})
	}
}

func TestAnalysisQueryConfig(t *testing.T) {
	h := testController(t).handlers

	t.Run("defaults", func(t *testing.T) {
		cfg, err := h.analysisQueryConfig(url.Values{})
		require.NoError(t, err)
		assert.Empty(t, cfg.Families)
		assert.Equal(t, []float64{2, 10, 100}, cfg.ReturnPeriods)
	})

	t.Run("overrides", func(t *testing.T) {
		q := url.Values{}
		q.Set("distributions", "gumbel,lognorm")
		q.Set("return_periods", "5, 50,500")
		cfg, err := h.analysisQueryConfig(q)
		require.NoError(t, err)
		assert.Equal(t, []string{"gumbel", "lognorm"}, cfg.Families)
		assert.Equal(t, []float64{5, 50, 500}, cfg.ReturnPeriods)
	})

	t.Run("bad return period", func(t *testing.T) {
		q := url.Values{}
		q.Set("return_periods", "10,often")
		_, err := h.analysisQueryConfig(q)
		var ae *frequency.AnalysisError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, frequency.KindInputValidation, ae.Kind)
	})
}

func TestStationEndpointsRequireDatabase(t *testing.T) {
	router := testRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/stations"},
		{http.MethodPost, "/api/stations"},
		{http.MethodGet, "/api/stations/abc"},
		{http.MethodDelete, "/api/stations/abc"},
		{http.MethodPost, "/api/stations/abc/samples"},
		{http.MethodGet, "/api/stations/abc/analysis"},
		{http.MethodGet, "/api/stations/abc/frequency/gumbel"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))

			require.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var payload errorPayload
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
			assert.Equal(t, "configuration", payload.Error.Kind)
		})
	}
}
