package restserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/hydrostats/hydrofreq/internal/cache"
	"github.com/hydrostats/hydrofreq/internal/database"
	"github.com/hydrostats/hydrofreq/internal/frequency"
	"github.com/hydrostats/hydrofreq/internal/log"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
	}
}

// errorPayload is the wire shape of every error response
type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorPayload{Error: errorBody{Kind: kind, Message: message}})
}

// writeAnalysisError maps an analysis error onto the HTTP error contract
func writeAnalysisError(w http.ResponseWriter, err error) {
	var ae *frequency.AnalysisError
	if errors.As(err, &ae) {
		status := http.StatusUnprocessableEntity
		switch ae.Kind {
		case frequency.KindInputValidation, frequency.KindConfiguration:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorPayload{Error: errorBody{
			Kind:    string(ae.Kind),
			Message: ae.Message,
			Context: ae.Context,
		}})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", err.Error())
}

func (h *Handlers) requireDB(w http.ResponseWriter) bool {
	if !h.controller.DBEnabled {
		writeError(w, http.StatusServiceUnavailable, "configuration",
			"no database configured; station endpoints are unavailable")
		return false
	}
	return true
}

// GetHealth reports service liveness
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"database": h.controller.DBEnabled,
		"cache":    h.controller.CacheEnabled,
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// stationRequest is the creation payload for a station
type stationRequest struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Parameter string  `json:"parameter"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ListStations returns all registered stations
func (h *Handlers) ListStations(w http.ResponseWriter, req *http.Request) {
	if !h.requireDB(w) {
		return
	}

	stations, err := h.controller.DB.ListStations()
	if err != nil {
		log.Errorf("error listing stations: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "error listing stations")
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// CreateStation registers a new station
func (h *Handlers) CreateStation(w http.ResponseWriter, req *http.Request) {
	if !h.requireDB(w) {
		return
	}

	var sr stationRequest
	if err := json.NewDecoder(req.Body).Decode(&sr); err != nil {
		writeError(w, http.StatusBadRequest, "input_validation", "invalid JSON body")
		return
	}
	if sr.Code == "" || sr.Name == "" {
		writeError(w, http.StatusBadRequest, "input_validation", "station code and name are required")
		return
	}
	if sr.Parameter != "" {
		if _, ok := frequency.ParameterLimits[sr.Parameter]; !ok {
			writeError(w, http.StatusBadRequest, "input_validation",
				fmt.Sprintf("unknown parameter %q", sr.Parameter))
			return
		}
	}

	station := database.Station{
		Code:      sr.Code,
		Name:      sr.Name,
		Parameter: sr.Parameter,
		Latitude:  sr.Latitude,
		Longitude: sr.Longitude,
	}
	if err := h.controller.DB.CreateStation(&station); err != nil {
		log.Errorf("error creating station: %v", err)
		writeError(w, http.StatusConflict, "input_validation", "station could not be created")
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

// GetStation returns a single station by ID
func (h *Handlers) GetStation(w http.ResponseWriter, req *http.Request) {
	if !h.requireDB(w) {
		return
	}

	id := mux.Vars(req)["id"]
	station, err := h.controller.DB.GetStation(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "input_validation", "station not found")
			return
		}
		log.Errorf("error fetching station %v: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal", "error fetching station")
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// DeleteStation removes a station and its observations
func (h *Handlers) DeleteStation(w http.ResponseWriter, req *http.Request) {
	if !h.requireDB(w) {
		return
	}

	id := mux.Vars(req)["id"]
	if err := h.controller.DB.DeleteStation(id); err != nil {
		log.Errorf("error deleting station %v: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal", "error deleting station")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sampleRequest is one observation in a sample upload
type sampleRequest struct {
	ObservedAt time.Time `json:"observed_at"`
	Value      float64   `json:"value"`
}

// AddSamples stores a batch of observations for a station
func (h *Handlers) AddSamples(w http.ResponseWriter, req *http.Request) {
	if !h.requireDB(w) {
		return
	}

	id := mux.Vars(req)["id"]
	if _, err := h.controller.DB.GetStation(id); err != nil {
		writeError(w, http.StatusNotFound, "input_validation", "station not found")
		return
	}

	var body []sampleRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "input_validation", "invalid JSON body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "input_validation", "no samples provided")
		return
	}

	rows := make([]database.Sample, 0, len(body))
	for _, s := range body {
		if s.ObservedAt.IsZero() {
			writeError(w, http.StatusBadRequest, "input_validation", "observed_at is required on every sample")
			return
		}
		rows = append(rows, database.Sample{
			StationID:  id,
			ObservedAt: s.ObservedAt,
			Value:      s.Value,
		})
	}

	if err := h.controller.DB.InsertSamples(rows); err != nil {
		log.Errorf("error inserting samples for station %v: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal", "error storing samples")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": len(rows)})
}

// periodValue is one pre-aggregated (period, value) pair
type periodValue struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// inlineAnalysisRequest carries raw samples, or already-aggregated per-period
// values, for a one-shot analysis
type inlineAnalysisRequest struct {
	Samples       []sampleRequest `json:"samples,omitempty"`
	Periods       []periodValue   `json:"periods,omitempty"`
	Aggregation   string          `json:"aggregation"`
	Distributions []string        `json:"distributions,omitempty"`
	ReturnPeriods []float64       `json:"return_periods,omitempty"`
}

// RunInlineAnalysis runs a frequency analysis on data supplied in the
// request body, without touching the database
func (h *Handlers) RunInlineAnalysis(w http.ResponseWriter, req *http.Request) {
	var body inlineAnalysisRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "input_validation", "invalid JSON body")
		return
	}
	if len(body.Samples) == 0 && len(body.Periods) == 0 {
		writeError(w, http.StatusBadRequest, "input_validation", "no samples provided")
		return
	}

	agg := frequency.AggregationFunc(body.Aggregation)
	if body.Aggregation == "" {
		agg = frequency.AggMax
	}

	var series *frequency.AggregatedSeries
	var err error
	if len(body.Periods) > 0 {
		periods := make([]int, len(body.Periods))
		values := make([]float64, len(body.Periods))
		for i, p := range body.Periods {
			periods[i] = p.Period
			values[i] = p.Value
		}
		series, err = frequency.SeriesFromPairs(periods, values, agg)
	} else {
		samples := make([]frequency.Sample, 0, len(body.Samples))
		for _, s := range body.Samples {
			samples = append(samples, frequency.Sample{Timestamp: s.ObservedAt, Value: s.Value})
		}
		series, err = frequency.Aggregate(samples, agg)
	}
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	result, _, err := h.analyzeSeries(req, series, body.Distributions, body.ReturnPeriods)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// analyze aggregates raw samples and runs the full analysis pipeline,
// recording metrics. Returns the result and its cache key.
func (h *Handlers) analyze(req *http.Request, samples []frequency.Sample, agg frequency.AggregationFunc, families []string, returnPeriods []float64) (*frequency.AnalysisResult, string, error) {
	series, err := frequency.Aggregate(samples, agg)
	if err != nil {
		return nil, "", err
	}
	return h.analyzeSeries(req, series, families, returnPeriods)
}

// analyzeSeries runs the analysis pipeline on an aggregated series
func (h *Handlers) analyzeSeries(req *http.Request, series *frequency.AggregatedSeries, families []string, returnPeriods []float64) (*frequency.AnalysisResult, string, error) {
	cfg := frequency.Config{
		Families:      families,
		ReturnPeriods: returnPeriods,
	}
	if len(cfg.Families) == 0 {
		cfg.Families = h.controller.AnalysisConfig.Distributions
	}
	if len(cfg.ReturnPeriods) == 0 {
		cfg.ReturnPeriods = h.controller.AnalysisConfig.ReturnPeriods
	}

	start := time.Now()
	result, err := h.controller.Analyzer.Analyze(req.Context(), series, cfg)
	h.controller.Metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.controller.Metrics.AnalysesFailed.Inc()
		return nil, "", err
	}
	h.controller.Metrics.AnalysesRun.Inc()
	for _, fit := range result.Fits {
		outcome := "success"
		if !fit.FitSucceeded {
			outcome = "failure"
		}
		h.controller.Metrics.FitOutcomes.WithLabelValues(fit.FamilyName, outcome).Inc()
	}

	return result, frequency.CacheKey(series, cfg), nil
}

// screenSamples applies the pre-aggregation quality steps to a station's raw
// observations: range validation against the station's parameter, then
// z-score outlier exclusion
func (h *Handlers) screenSamples(station database.Station, samples []frequency.Sample) []frequency.Sample {
	if station.Parameter != "" {
		kept, rejected := frequency.ValidateRange(samples, station.Parameter)
		if len(rejected) > 0 {
			log.Warnf("station %v: %d samples outside the plausible %v range were excluded",
				station.Code, len(rejected), station.Parameter)
		}
		samples = kept
	}

	threshold := h.controller.AnalysisConfig.OutlierZThreshold
	if threshold == 0 {
		threshold = frequency.DefaultOutlierZThreshold
	}
	kept, excluded := frequency.FilterOutliers(samples, threshold)
	if len(excluded) > 0 {
		log.Warnf("station %v: %d samples excluded as outliers (|z| > %v)",
			station.Code, len(excluded), threshold)
	}
	return kept
}

// analysisQueryConfig builds the analysis configuration for a request. The
// distributions and return_periods query parameters, both comma-separated,
// override the configured defaults.
func (h *Handlers) analysisQueryConfig(q url.Values) (frequency.Config, error) {
	cfg := frequency.Config{
		Families:      h.controller.AnalysisConfig.Distributions,
		ReturnPeriods: h.controller.AnalysisConfig.ReturnPeriods,
	}
	if d := q.Get("distributions"); d != "" {
		cfg.Families = strings.Split(d, ",")
	}
	if rp := q.Get("return_periods"); rp != "" {
		parts := strings.Split(rp, ",")
		periods := make([]float64, 0, len(parts))
		for _, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return frequency.Config{}, frequency.NewInputValidationError(
					"invalid return period %q", strings.TrimSpace(part))
			}
			periods = append(periods, v)
		}
		cfg.ReturnPeriods = periods
	}
	return cfg, nil
}

// GetStationAnalysis runs (or serves from cache) a full frequency analysis
// over a station's stored observations and archives the result
func (h *Handlers) GetStationAnalysis(w http.ResponseWriter, req *http.Request) {
	if !h.requireDB(w) {
		return
	}

	id := mux.Vars(req)["id"]
	station, err := h.controller.DB.GetStation(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "input_validation", "station not found")
		return
	}

	samples, err := h.controller.DB.GetSamples(id)
	if err != nil {
		log.Errorf("error fetching samples for station %v: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal", "error fetching samples")
		return
	}

	agg := frequency.AggMax
	if a := req.URL.Query().Get("aggregation"); a != "" {
		agg = frequency.AggregationFunc(a)
	}

	samples = h.screenSamples(station, samples)

	series, err := frequency.Aggregate(samples, agg)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	cfg, err := h.analysisQueryConfig(req.URL.Query())
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	key := frequency.CacheKey(series, cfg)

	if h.controller.CacheEnabled {
		cached, err := h.controller.Cache.Get(req.Context(), key)
		if err == nil {
			h.controller.Metrics.CacheLookups.WithLabelValues("hit").Inc()
			writeJSON(w, http.StatusOK, cached)
			return
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warnf("result cache lookup failed: %v", err)
		}
		h.controller.Metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	result, err := h.controller.Analyzer.Analyze(req.Context(), series, cfg)
	h.controller.Metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.controller.Metrics.AnalysesFailed.Inc()
		writeAnalysisError(w, err)
		return
	}
	h.controller.Metrics.AnalysesRun.Inc()
	for _, fit := range result.Fits {
		outcome := "success"
		if !fit.FitSucceeded {
			outcome = "failure"
		}
		h.controller.Metrics.FitOutcomes.WithLabelValues(fit.FamilyName, outcome).Inc()
	}

	if h.controller.CacheEnabled {
		if err := h.controller.Cache.Put(req.Context(), key, result); err != nil {
			log.Warnf("result cache store failed: %v", err)
		}
	}
	if err := h.controller.DB.ArchiveAnalysis(id, key, result); err != nil {
		log.Warnf("analysis archival failed for station %v: %v", id, err)
	}

	writeJSON(w, http.StatusOK, result)
}

// GetFrequencyCurve returns the curves for one fitted family from a fresh
// analysis of the station's observations
func (h *Handlers) GetFrequencyCurve(w http.ResponseWriter, req *http.Request) {
	if !h.requireDB(w) {
		return
	}

	vars := mux.Vars(req)
	id := vars["id"]
	family := vars["family"]

	if _, ok := frequency.Lookup(family); !ok {
		writeError(w, http.StatusBadRequest, "input_validation",
			fmt.Sprintf("unknown distribution family %q", family))
		return
	}

	station, err := h.controller.DB.GetStation(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "input_validation", "station not found")
		return
	}

	samples, err := h.controller.DB.GetSamples(id)
	if err != nil {
		log.Errorf("error fetching samples for station %v: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal", "error fetching samples")
		return
	}

	agg := frequency.AggMax
	if a := req.URL.Query().Get("aggregation"); a != "" {
		agg = frequency.AggregationFunc(a)
	}

	samples = h.screenSamples(station, samples)

	cfg, err := h.analysisQueryConfig(req.URL.Query())
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	result, _, err := h.analyze(req, samples, agg, []string{family}, cfg.ReturnPeriods)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	curves, ok := result.Curves[family]
	if !ok {
		// Fit failed; report the recorded reason
		reason := "distribution fit failed"
		for _, fit := range result.Fits {
			if fit.FamilyName == family && fit.FailureReason != "" {
				reason = fit.FailureReason
			}
		}
		writeError(w, http.StatusUnprocessableEntity, "distribution_fitting", reason)
		return
	}
	writeJSON(w, http.StatusOK, curves)
}
