package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
	"github.com/Epistemic-Technology/pdf-toolkit/internal/session"
)

// Service information
const (
	ServiceName    = "pdf-toolkit"
	ServiceVersion = "1.0.0"
)

var endpoints = []string{
	"/merge/upload",
	"/merge/reorder",
	"/merge/process",
	"/merge/download",
	"/split/upload",
	"/split/process",
	"/split/download/{index}",
	"/convert/upload",
	"/convert/extract",
	"/convert/download/{format}",
	"/convert/update-text",
	"/clear/{section}",
}

// Server represents the API server
type Server struct {
	sessions       *session.Service
	log            logger.Logger
	maxUploadBytes int64
}

// NewServer creates a new API server. Request bodies are limited to maxUploadBytes.
func NewServer(sessions *session.Service, maxUploadBytes int64, log logger.Logger) *Server {
	return &Server{
		sessions:       sessions,
		log:            log.With("api"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Handler registers every route on a new mux
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Register service discovery endpoints
	mux.HandleFunc("GET /health", s.HealthCheckHandler)
	mux.HandleFunc("GET /service-info", s.ServiceInfoHandler)

	mux.HandleFunc("POST /merge/upload", s.MergeUploadHandler)
	mux.HandleFunc("POST /merge/reorder", s.MergeReorderHandler)
	mux.HandleFunc("POST /merge/process", s.MergeProcessHandler)
	mux.HandleFunc("GET /merge/download", s.MergeDownloadHandler)

	mux.HandleFunc("POST /split/upload", s.SplitUploadHandler)
	mux.HandleFunc("POST /split/process", s.SplitProcessHandler)
	mux.HandleFunc("GET /split/download/{index}", s.SplitDownloadHandler)

	mux.HandleFunc("POST /convert/upload", s.ConvertUploadHandler)
	mux.HandleFunc("POST /convert/extract", s.ConvertExtractHandler)
	mux.HandleFunc("GET /convert/download/{format}", s.ConvertDownloadHandler)
	mux.HandleFunc("POST /convert/update-text", s.ConvertUpdateTextHandler)

	mux.HandleFunc("POST /clear/{section}", s.ClearHandler)

	return mux
}

// ListenAndServe runs the HTTP server and the expired-session janitor until
// ctx is cancelled, then shuts both down.
func (s *Server) ListenAndServe(ctx context.Context, addr string, janitorInterval time.Duration) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 300 * time.Second, // Allow for long merges and splits
		IdleTimeout:  120 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.runJanitor(janitorCtx, janitorInterval)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting %s API server on %s", ServiceName, addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// runJanitor purges expired sessions every interval until ctx is done
func (s *Server) runJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.sessions.PurgeExpired(ctx); err != nil {
				s.log.Warn("Janitor failed to purge expired sessions: %v", err)
			}
		}
	}
}

// HealthCheckHandler returns the health status of the service
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// ServiceInfoHandler returns information about this service for service discovery
func (s *Server) ServiceInfoHandler(w http.ResponseWriter, r *http.Request) {
	hostname, _ := os.Hostname()

	writeJSON(w, http.StatusOK, ServiceInfo{
		Service:   ServiceName,
		Version:   ServiceVersion,
		Hostname:  hostname,
		Endpoints: endpoints,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
