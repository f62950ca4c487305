package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"voicecmd/core/events"
	"voicecmd/core/inference"
	"voicecmd/logger"
	"voicecmd/model"
	"voicecmd/repository"
)

// Options configures optional server features.
type Options struct {
	// History enables /api/predictions when set.
	History repository.PredictionRepository
	// JWTSecret protects the prediction routes when non-empty.
	JWTSecret []byte
	// MaxUploadBytes caps multipart bodies. Zero means 32 MB.
	MaxUploadBytes int64
	// Events enables /ws/events when set. The caller runs the hub.
	Events *events.Hub
}

// Server exposes a Dispatcher over HTTP and WebSocket.
type Server struct {
	dispatcher *inference.Dispatcher
	history    repository.PredictionRepository
	events     *events.Hub
	metrics    *Metrics
	jwtSecret  []byte
	maxUpload  int64
	upgrader   websocket.Upgrader
}

// New creates a server around d.
func New(d *inference.Dispatcher, opts Options) *Server {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &Server{
		dispatcher: d,
		history:    opts.History,
		events:     opts.Events,
		metrics:    NewMetrics(),
		jwtSecret:  opts.JWTSecret,
		maxUpload:  maxUpload,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.HandleFunc("/predict", s.AuthMiddleware(s.PredictHandler)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/ws/predict", s.AuthMiddleware(s.WebSocketPredictHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/predictions", s.AuthMiddleware(s.RecentPredictionsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/predictions/stats", s.AuthMiddleware(s.PredictionStatsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/ws/events", s.AuthMiddleware(s.EventsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: a transcription may take arbitrarily long.
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// predict runs one request through the dispatcher and records metrics.
func (s *Server) predict(ctx context.Context, transport string, payload io.Reader) (*inference.Result, error) {
	timer := prometheus.NewTimer(s.metrics.Duration.WithLabelValues(transport))
	defer timer.ObserveDuration()

	res, err := s.dispatcher.Predict(ctx, payload)
	switch {
	case errors.Is(err, inference.ErrMissingInput):
		s.metrics.Requests.WithLabelValues(transport, "missing_input").Inc()
	case err != nil:
		s.metrics.Requests.WithLabelValues(transport, "error").Inc()
		logger.Error("prediction failed", logger.String("transport", transport), logger.ErrorField(err))
		s.publish(events.Event{Type: events.EventFailure, Transport: transport, Error: err.Error()})
	default:
		s.metrics.Requests.WithLabelValues(transport, "success").Inc()
		s.metrics.Labels.WithLabelValues(s.metricLabel(res.Label)).Inc()
		if res.CacheHit {
			s.metrics.CacheHits.Inc()
		}
		s.publish(events.Event{
			Type:       events.EventPrediction,
			Transport:  transport,
			Label:      res.Label,
			ClassIndex: res.ClassIndex,
			CacheHit:   res.CacheHit,
			DurationMs: res.Elapsed.Milliseconds(),
		})
	}
	return res, err
}

// metricLabel keeps the label dimension bounded: free-form model output
// outside the table is counted as "other".
func (s *Server) metricLabel(label string) string {
	if label == model.UnknownLabel {
		return label
	}
	for _, l := range s.dispatcher.Labels() {
		if l == label {
			return label
		}
	}
	return otherLabel
}

func (s *Server) publish(ev events.Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}

const otherLabel = "other"

type errorResponse struct {
	Error string `json:"error"`
}

type commandResponse struct {
	Command string `json:"command"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response failed", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
