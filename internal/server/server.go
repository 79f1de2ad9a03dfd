// Package server exposes the Jenkins notification webhook.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"jenkins-notify/internal/notify"
	"jenkins-notify/internal/report"
)

// BuildResolver resolves the repositories and commits of a build.
type BuildResolver interface {
	Resolve(ctx context.Context, job string, number int) (notify.BuildOutcome, error)
}

// BuildReporter posts the outcome of a build.
type BuildReporter interface {
	Report(ctx context.Context, b report.Build, outcome notify.BuildOutcome) error
}

type Server struct {
	secret   string
	resolver BuildResolver
	reporter BuildReporter
	logger   *slog.Logger
	router   *mux.Router
}

func New(secret string, resolver BuildResolver, reporter BuildReporter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		secret:   secret,
		resolver: resolver,
		reporter: reporter,
		logger:   logger,
		router:   mux.NewRouter(),
	}
	s.router.HandleFunc("/jobs/notify", s.handleNotify).Methods(http.MethodGet)
	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type notifyResponse struct {
	Status       notify.Status `json:"status"`
	Repositories int           `json:"repositories"`
}

// handleNotify serves GET /jobs/notify?secret&event&job_name&build_number&url.
func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With("request_id", uuid.NewString())
	q := r.URL.Query()

	for _, name := range []string{"secret", "event", "job_name", "build_number", "url"} {
		if !q.Has(name) {
			logger.Warn("rejected notification", "reason", "missing parameter", "parameter", name)
			http.Error(w, "missing parameter: "+name, http.StatusBadRequest)
			return
		}
	}
	number, err := strconv.Atoi(q.Get("build_number"))
	if err != nil {
		logger.Warn("rejected notification", "reason", "invalid build number", "build_number", q.Get("build_number"))
		http.Error(w, "invalid build_number", http.StatusBadRequest)
		return
	}

	if err := notify.ValidateSecret(s.secret, q.Get("secret")); err != nil {
		logger.Warn("rejected notification", "reason", err.Error())
		http.Error(w, err.Error(), statusCode(err))
		return
	}
	if err := notify.ValidateEvent(q.Get("event")); err != nil {
		logger.Warn("rejected notification", "reason", err.Error())
		http.Error(w, err.Error(), statusCode(err))
		return
	}

	b := report.Build{JobName: q.Get("job_name"), Number: number, URL: q.Get("url")}
	logger = logger.With("job", b.JobName, "build", b.Number, "event", q.Get("event"))

	outcome, err := s.resolver.Resolve(r.Context(), b.JobName, b.Number)
	if err != nil {
		logger.Error("failed to resolve build", "error", err)
		http.Error(w, "failed to resolve build", http.StatusInternalServerError)
		return
	}
	if err := s.reporter.Report(r.Context(), b, outcome); err != nil {
		logger.Error("failed to report build", "error", err)
		http.Error(w, "failed to report build", http.StatusInternalServerError)
		return
	}
	logger.Info("build reported", "status", outcome.Status, "repositories", len(outcome.Facts))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notifyResponse{Status: outcome.Status, Repositories: len(outcome.Facts)})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, notify.ErrInvalidSecret):
		return http.StatusForbidden
	case errors.Is(err, notify.ErrInvalidEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
