package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miradorstack/meterd/internal/config"
	"github.com/miradorstack/meterd/internal/meter"
	"github.com/miradorstack/meterd/internal/models"
)

// MeterBackend is the meter surface exposed over HTTP.
type MeterBackend interface {
	Snapshot() models.Snapshot
	Analytics() models.Analytics
	Submit(req models.AdjustmentRequest) error
	Nudge(delta float64) error
	Reset() error
	SetAdjusting(adjusting bool)
	Subscribe() (<-chan struct{}, func())
}

// ThemeBackend reads and updates the theme preference.
type ThemeBackend interface {
	State() models.ThemeState
	Toggle(ctx context.Context) models.ThemeState
	SetSystemPreference(ctx context.Context, dark bool) models.ThemeState
}

// UserDirectory lists trusted users.
type UserDirectory interface {
	List() []models.TrustedUser
}

// HTTPServer serves the JSON API, the snapshot stream and /metrics.
type HTTPServer struct {
	cfg    config.ServerConfig
	logger *slog.Logger
	meter  MeterBackend
	theme  ThemeBackend
	users  UserDirectory
	stream *Streamer

	handler http.Handler
	server  *http.Server
}

// NewHTTPServer wires the routes. The listener is not opened until Start.
func NewHTTPServer(cfg config.ServerConfig, logger *slog.Logger, meterBackend MeterBackend, themeBackend ThemeBackend, users UserDirectory) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{
		cfg:    cfg,
		logger: logger,
		meter:  meterBackend,
		theme:  themeBackend,
		users:  users,
		stream: NewStreamer(meterBackend, cfg.AllowedOrigins, logger),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/meter", s.handleGetMeter).Methods(http.MethodGet)
	v1.HandleFunc("/meter/analytics", s.handleGetAnalytics).Methods(http.MethodGet)
	v1.HandleFunc("/meter/adjustments", s.handleAdjust).Methods(http.MethodPost)
	v1.HandleFunc("/meter/reset", s.handleReset).Methods(http.MethodPost)
	v1.HandleFunc("/meter/adjusting", s.handleSetAdjusting).Methods(http.MethodPut)
	v1.Handle("/meter/stream", s.stream).Methods(http.MethodGet)
	v1.HandleFunc("/theme", s.handleGetTheme).Methods(http.MethodGet)
	v1.HandleFunc("/theme/toggle", s.handleToggleTheme).Methods(http.MethodPost)
	v1.HandleFunc("/theme/system", s.handleSystemTheme).Methods(http.MethodPut)
	v1.HandleFunc("/trusted-users", s.handleTrustedUsers).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	s.handler = h
	s.server = &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped router.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured HTTP address and blocks until Shutdown.
// Calling Shutdown first makes Start return nil immediately.
func (s *HTTPServer) Start() error {
	lis, err := net.Listen("tcp", s.cfg.HTTPAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.HTTPAddress, err)
	}
	s.logger.Info("http server listening", slog.String("address", lis.Addr().String()))
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes open streams and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.stream.Close()
	return s.server.Shutdown(ctx)
}

type adjustmentBody struct {
	Delta    *float64 `json:"delta"`
	Type     string   `json:"type"`
	OriginID string   `json:"originId"`
	Hold     bool     `json:"hold"`
}

type adjustingBody struct {
	Adjusting bool `json:"adjusting"`
}

type systemThemeBody struct {
	Dark bool `json:"dark"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleGetMeter(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.meter.Snapshot())
}

func (s *HTTPServer) handleGetAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.meter.Analytics())
}

func (s *HTTPServer) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var body adjustmentBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Delta == nil {
		writeError(w, http.StatusBadRequest, "delta is required")
		return
	}
	typ, err := models.ParseAdjustmentType(body.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if body.Hold {
		// Held adjustments are always manual and attributed to the local origin.
		if typ != models.AdjustmentManual || body.OriginID != "" {
			writeError(w, http.StatusBadRequest, "hold adjustments are manual and take no originId")
			return
		}
		err = s.meter.Nudge(*body.Delta)
	} else {
		err = s.meter.Submit(models.AdjustmentRequest{Delta: *body.Delta, Type: typ, OriginID: body.OriginID})
	}
	s.writeAdjustResult(w, err)
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.writeAdjustResult(w, s.meter.Reset())
}

func (s *HTTPServer) writeAdjustResult(w http.ResponseWriter, err error) {
	if err != nil {
		if errors.Is(err, meter.ErrAdjustmentTooLarge) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("adjustment failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "adjustment failed")
		return
	}
	writeJSON(w, http.StatusAccepted, s.meter.Snapshot())
}

func (s *HTTPServer) handleSetAdjusting(w http.ResponseWriter, r *http.Request) {
	var body adjustingBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.meter.SetAdjusting(body.Adjusting)
	writeJSON(w, http.StatusOK, s.meter.Snapshot())
}

func (s *HTTPServer) handleGetTheme(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.theme.State())
}

func (s *HTTPServer) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.theme.Toggle(r.Context()))
}

func (s *HTTPServer) handleSystemTheme(w http.ResponseWriter, r *http.Request) {
	var body systemThemeBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.theme.SetSystemPreference(r.Context(), body.Dark))
}

func (s *HTTPServer) handleTrustedUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.users.List())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
