package report

import (
	"context"
	"fmt"

	"jenkins-notify/internal/notify"
)

// Build identifies the Jenkins build being reported.
type Build struct {
	JobName string
	Number  int
	URL     string // relative to the Jenkins root, e.g. "job/eden-win64/12"
}

// Payload is the body of a GitHub commit status.
type Payload struct {
	State       string `json:"state"`
	TargetURL   string `json:"target_url"`
	Description string `json:"description"`
	Context     string `json:"context"`
}

// StatusPoster posts a commit status to a repository.
type StatusPoster interface {
	CreateStatus(ctx context.Context, repoSlug, sha string, p Payload) error
}

// NewPayload builds the status posted for one repository of a build.
func NewPayload(jenkinsURL string, b Build, fact notify.RepoBuildFact, status notify.Status) Payload {
	return Payload{
		State:       string(status),
		TargetURL:   jenkinsURL + "/" + b.URL,
		Description: fmt.Sprintf("build #%d %s", b.Number, status),
		Context:     notify.JobAlias(b.JobName, fact.BranchName) + " job",
	}
}
