// Package server implements the HTTP ingress: authenticated intake of raw
// sensor payloads, transformation, and asynchronous fan-out to the sinks.
package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/eddielth/sensor-gate/config"
	"github.com/eddielth/sensor-gate/logger"
	"github.com/eddielth/sensor-gate/transformer"
)

// PublishSink forwards a record to the message bus
type PublishSink interface {
	Publish(ctx context.Context, record *transformer.Record) error
}

// StoreSink persists a record durably
type StoreSink interface {
	Store(ctx context.Context, deviceID string, record *transformer.Record) error
}

// Server represents the HTTP ingress
type Server struct {
	cfg         config.ServerConfig
	transformer *transformer.Transformer
	publisher   PublishSink
	store       StoreSink
	httpServer  *http.Server
}

// New creates a new ingress server. Either sink may be nil when disabled.
func New(cfg config.ServerConfig, t *transformer.Transformer, publisher PublishSink, store StoreSink) *Server {
	s := &Server{
		cfg:         cfg,
		transformer: t,
		publisher:   publisher,
		store:       store,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler builds the routing tree with request logging
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	// Health stays unauthenticated for container probes
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.basicAuth)
	authed.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	authed.HandleFunc("/sensor-data", s.handleSensorData).Methods(http.MethodPost)

	return handlers.LoggingHandler(os.Stdout, r)
}

// basicAuth verifies HTTP basic credentials using constant-time comparison
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()

		// Both comparisons always run so timing does not reveal which half matched
		usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
		passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) == 1

		if !ok || !usernameOK || !passwordOK {
			w.Header().Set("WWW-Authenticate", `Basic realm="sensor-gate"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "invalid credentials",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ListenAndServe runs the server until Shutdown or a listener error
func (s *Server) ListenAndServe() error {
	logger.Info("HTTP ingress listening on %s", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
