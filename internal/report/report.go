package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jenkins-notify/internal/notify"
)

// Reporter posts the outcome of a build as commit statuses.
type Reporter struct {
	poster     StatusPoster
	jenkinsURL string
	logger     *slog.Logger
}

func NewReporter(poster StatusPoster, jenkinsURL string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		poster:     poster,
		jenkinsURL: strings.TrimSuffix(jenkinsURL, "/"),
		logger:     logger,
	}
}

// Report posts one status per fact, in order, and stops at the first failure.
func (r *Reporter) Report(ctx context.Context, b Build, outcome notify.BuildOutcome) error {
	for _, fact := range outcome.Facts {
		p := NewPayload(r.jenkinsURL, b, fact, outcome.Status)
		if err := r.poster.CreateStatus(ctx, fact.Slug, fact.Commit, p); err != nil {
			return fmt.Errorf("posting status to %s@%s: %w", fact.Slug, fact.Commit, err)
		}
		r.logger.Info("posted commit status",
			"repo", fact.Slug,
			"commit", fact.Commit,
			"state", p.State,
			"context", p.Context)
	}
	return nil
}
