// Package api serves the schedule API over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"clinicgrid/internal/config"
	"clinicgrid/internal/db"
	"clinicgrid/internal/events"
	"clinicgrid/internal/interaction"
	"clinicgrid/internal/metrics"
	"clinicgrid/internal/schedule"
)

// MaxRangeDays bounds the date range of schedule reads and exports.
const MaxRangeDays = 92

// HTTPServer exposes the schedule, catalogue and settings endpoints.
type HTTPServer struct {
	server *http.Server
	db     *db.DB
	bus    *events.Bus
	clinic func() *config.ClinicConfig
	apiKey string
	touch  interaction.LongPressConfig
	logger *zerolog.Logger
}

// NewHTTPServer wires the routes. clinic may be nil; it supplies working
// hours for the layout endpoint.
func NewHTTPServer(cfg *config.Config, database *db.DB, bus *events.Bus, clinic func() *config.ClinicConfig, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if bus == nil {
		bus = events.NewBus()
	}
	s := &HTTPServer{
		db:     database,
		bus:    bus,
		clinic: clinic,
		apiKey: cfg.Server.APIKey,
		touch:  cfg.LongPress(),
		logger: logger,
	}
	if s.touch.Delay <= 0 {
		s.touch.Delay = interaction.DefaultLongPressDelay
	}
	if s.touch.MoveThreshold <= 0 {
		s.touch.MoveThreshold = interaction.DefaultLongPressThreshold
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("GET /api/schedule", s.protect(s.handleGetSchedule))
	mux.Handle("PUT /api/schedule", s.protect(s.handlePutSchedule))
	mux.Handle("GET /api/schedule/export", s.protect(s.handleExport))
	mux.Handle("PATCH /api/visits/{id}", s.protect(s.handleMoveVisit))
	mux.Handle("GET /api/layout", s.protect(s.handleLayout))

	mux.Handle("GET /api/patients", s.protect(s.handleListPatients))
	mux.Handle("POST /api/patients", s.protect(s.handleCreatePatient))
	mux.Handle("GET /api/doctors", s.protect(s.handleListDoctors))
	mux.Handle("GET /api/cabinets", s.protect(s.handleListCabinets))
	mux.Handle("GET /api/statuses", s.protect(s.handleListStatuses))
	mux.Handle("GET /api/settings/{userID}", s.protect(s.handleGetSettings))
	mux.Handle("PUT /api/settings/{userID}", s.protect(s.handlePutSettings))

	s.server = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      s.observe(mux),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("address", s.server.Addr).Msg("schedule API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// protect requires the x-api-key header when a key is configured.
func (s *HTTPServer) protect(h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("x-api-key") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		h(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.ObserveHTTP(route, rec.status, elapsed)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("http request")
	})
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeFailure maps domain errors onto status codes.
func (s *HTTPServer) writeFailure(w http.ResponseWriter, err error) {
	var verr *schedule.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, schedule.ErrDateNotFound),
		errors.Is(err, schedule.ErrCabinetNotFound),
		errors.Is(err, schedule.ErrShiftNotFound),
		errors.Is(err, schedule.ErrVisitNotFound),
		errors.Is(err, db.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, schedule.ErrOutsideShift):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
