// Package server exposes the judge service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/config"
	"github.com/ssgjosh/amibeingunreasonable-app-sub000/internal/judge"
)

// MaxBodyBytes caps the size of a request body.
const MaxBodyBytes = 64 << 10

// shutdownTimeout bounds graceful shutdown once the serve context ends.
const shutdownTimeout = 10 * time.Second

// Server serves the judge API.
type Server struct {
	svc *judge.Service
	cfg config.Server
	log *zap.Logger
}

// New creates a Server for svc.
func New(svc *judge.Service, cfg config.Server, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, cfg: cfg, log: log}
}

// Handler returns the routed, logged HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/judge", s.handleJudge)
	mux.HandleFunc("GET /api/results/{id}", s.handleResult)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return logRequests(s.log, mux)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	s.log.Info("stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// handleJudge runs a judgment and returns the bare result; the stored ID
// travels in the X-Result-Id header.
func (s *Server) handleJudge(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	// Unknown fields are ignored; only context and query are read.
	dec := json.NewDecoder(r.Body)

	var in judge.Input
	if err := dec.Decode(&in); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "request body must be a JSON object with context and query", nil)
		return
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "request body must contain a single JSON object", nil)
		return
	}

	v, jerr := s.svc.Judge(r.Context(), in)
	if jerr != nil {
		writeError(w, jerr.Status, jerr.Message, jerr.Details)
		return
	}
	if v.ID != "" {
		w.Header().Set("X-Result-Id", v.ID)
	}
	writeJSON(w, http.StatusOK, v.Result)
}

// handleResult returns a stored record.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	rec, jerr := s.svc.Result(r.Context(), r.PathValue("id"))
	if jerr != nil {
		writeError(w, jerr.Status, jerr.Message, nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
