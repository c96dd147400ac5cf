package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rfbench/aa30gw/analyzer"
)

var (
	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "aa30gw_sweep_duration_seconds",
			Help: "Duration of analyzer sweep operations",
		},
	)
	sweepPoints = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aa30gw_sweep_points_total",
			Help: "Number of sample points acquired across all sweeps",
		},
	)
	sweepFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aa30gw_sweep_failures_total",
			Help: "Number of sweeps that ended in an error",
		},
	)
)

func init() {
	prometheus.MustRegister(sweepDuration, sweepPoints, sweepFailures)
}

// Server handles incoming HTTP requests for interacting with the
// configured analyzer session
type Server struct {
	Logger  *slog.Logger
	Session *analyzer.Session
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sweep", s.handleSweep)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

type sweepRequest struct {
	StartHz uint64 `json:"start_hz"`
	EndHz   uint64 `json:"end_hz"`
	Points  int    `json:"points"`
}

type sweepPoint struct {
	FrequencyHz     *float64 `json:"frequency_hz"`
	ResistanceOhm   *float64 `json:"resistance_ohm"`
	ReactanceOhm    *float64 `json:"reactance_ohm"`
	ReflectionCoeff *float64 `json:"reflection_coeff"`
	SWR             *float64 `json:"swr"`
	ReturnLossDB    *float64 `json:"return_loss_db"`
	Valid           bool     `json:"valid"`
}

type timeDomainPoint struct {
	DelaySeconds *float64 `json:"delay_s"`
	Amplitude    *float64 `json:"amplitude"`
}

type sweepResponse struct {
	ID         string            `json:"id"`
	Complete   bool              `json:"complete"`
	Points     []sweepPoint      `json:"points"`
	TimeDomain []timeDomainPoint `json:"time_domain"`
}

// handleSweep runs one sweep against the analyzer and returns the full
// result. Progress snapshots are consumed locally for debug logging; live
// streaming to the client is not offered over this surface.
func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req sweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.New()
	logger := s.Logger.With("sweep", id.String())
	logger.Info("Starting sweep",
		"start", humanize.SIWithDigits(float64(req.StartHz), 3, "Hz"),
		"end", humanize.SIWithDigits(float64(req.EndHz), 3, "Hz"),
		"points", req.Points,
	)

	// Buffered to the full point count so the sweep never blocks on a slow
	// consumer.
	progress := make(chan analyzer.Progress, max(req.Points, 1))
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for p := range progress {
			logger.Debug("Point acquired", "index", p.Index)
		}
	}()

	start := time.Now()
	result, err := s.Session.RunSweep(r.Context(), analyzer.SweepRequest{
		StartHz: req.StartHz,
		EndHz:   req.EndHz,
		Points:  req.Points,
	}, progress)
	close(progress)
	<-drained

	if err != nil {
		sweepFailures.Inc()
		logger.Error("Sweep failed", "error", err)
		switch {
		case errors.Is(err, analyzer.ErrInvalidRequest):
			s.sendError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, analyzer.ErrSessionBusy):
			s.sendError(w, err.Error(), http.StatusConflict)
		default:
			s.sendError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	sweepDuration.Observe(time.Since(start).Seconds())
	sweepPoints.Add(float64(len(result.Points)))
	logger.Info("Sweep completed", "points", len(result.Points), "complete", result.Complete)

	resp := sweepResponse{
		ID:         id.String(),
		Complete:   result.Complete,
		Points:     make([]sweepPoint, 0, len(result.Points)),
		TimeDomain: make([]timeDomainPoint, 0, len(result.TimeDomain)),
	}
	for _, p := range result.Points {
		resp.Points = append(resp.Points, sweepPoint{
			FrequencyHz:     jsonNumber(p.Sample.FrequencyHz),
			ResistanceOhm:   jsonNumber(p.Sample.ResistanceOhm),
			ReactanceOhm:    jsonNumber(p.Sample.ReactanceOhm),
			ReflectionCoeff: jsonNumber(p.Derived.ReflectionCoeff),
			SWR:             jsonNumber(p.Derived.SWR),
			ReturnLossDB:    jsonNumber(p.Derived.ReturnLossDB),
			Valid:           p.Sample.Valid(),
		})
	}
	for _, p := range result.TimeDomain {
		resp.TimeDomain = append(resp.TimeDomain, timeDomainPoint{
			DelaySeconds: jsonNumber(p.DelaySeconds),
			Amplitude:    jsonNumber(p.Amplitude),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	type VersionResponse struct {
		Version string `json:"version"`
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VersionResponse{Version: s.Session.Version()})
}

// jsonNumber maps NaN and infinities (invalid points, clamp boundaries) to
// JSON null, which encoding/json cannot represent otherwise.
func jsonNumber(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
