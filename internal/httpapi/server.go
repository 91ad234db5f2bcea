// Package httpapi exposes backup triggers, the archive list, health and
// Prometheus metrics over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raoulx24/wal-archiver/internal/backup"
	"github.com/raoulx24/wal-archiver/internal/logging"
	"github.com/raoulx24/wal-archiver/internal/snapshot"
)

// Backups is the part of *backup.Manager the API serves.
type Backups interface {
	Backup(ctx context.Context, destDir string) (string, error)
	List(dir string) ([]snapshot.Archive, error)
}

type Server struct {
	addr    string
	backups Backups
	next    func() time.Time
	log     logging.Logger
}

// New creates the API server. next may be nil when no scheduler runs.
func New(addr string, backups Backups, next func() time.Time, log logging.Logger) *Server {
	return &Server{addr: addr, backups: backups, next: next, log: log}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/backups", func(r chi.Router) {
		r.Get("/", s.listBackups)
		r.Post("/", s.createBackup)
	})
	return r
}

// Serve listens until ctx is done, then shuts down gracefully. It matches
// suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("httpapi: listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("httpapi: shutdown", "error", err)
		}
		return nil
	}
}

func (s *Server) String() string { return "http-api" }

type archiveJSON struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
	ModTime   time.Time `json:"modTime"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.next != nil {
		if next := s.next(); !next.IsZero() {
			body["nextBackup"] = next
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) listBackups(w http.ResponseWriter, _ *http.Request) {
	archives, err := s.backups.List("")
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: err.Error()})
		return
	}

	out := make([]archiveJSON, 0, len(archives))
	for _, a := range archives {
		out = append(out, archiveJSON{
			Name:      a.Name,
			Path:      a.Path,
			Size:      a.Size,
			Timestamp: a.Timestamp,
			ModTime:   a.ModTime,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createBackup(w http.ResponseWriter, r *http.Request) {
	path, err := s.backups.Backup(r.Context(), "")
	switch {
	case errors.Is(err, backup.ErrNothingToBackup):
		writeJSON(w, http.StatusConflict, errorJSON{Error: err.Error()})
	case err != nil:
		s.log.Error("httpapi: backup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorJSON{Error: err.Error()})
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"archive": path})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
