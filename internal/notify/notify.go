// Package notify works out which GitHub repositories and commits a Jenkins
// build touched, so their commit statuses can follow the build.
package notify

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSecret = errors.New("invalid secret")
	ErrInvalidEvent  = errors.New("invalid event")
	// ErrMalformedBuildData is returned when a git build-data action lists
	// GitHub remotes but carries no built revision.
	ErrMalformedBuildData = errors.New("malformed git build data")
)

// Events sent by the Jenkins notification plugin that are handled.
const (
	EventJobStarted   = "jenkins.job.started"
	EventJobCompleted = "jenkins.job.completed"
)

// Status is the commit status state posted for a build.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// StatusFromResult maps a Jenkins build result to a commit status. Builds
// without a result are still running.
func StatusFromResult(result *string) Status {
	switch {
	case result == nil:
		return StatusPending
	case *result == "SUCCESS":
		return StatusSuccess
	default:
		return StatusFailure
	}
}

// RepoBuildFact identifies a GitHub commit built by a job.
type RepoBuildFact struct {
	Slug       string
	BranchName string
	Commit     string
}

// BuildOutcome is everything needed to report a build to GitHub. Facts keep
// the order in which the repositories were discovered; a repository reached
// through several remotes appears once per remote.
type BuildOutcome struct {
	Facts  []RepoBuildFact
	Status Status
}

// ValidateSecret checks the secret sent along with a webhook call.
func ValidateSecret(expected, got string) error {
	if subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		return ErrInvalidSecret
	}
	return nil
}

// ValidateEvent accepts only job start and completion events.
func ValidateEvent(event string) error {
	switch event {
	case EventJobStarted, EventJobCompleted:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidEvent, event)
	}
}

const originPrefix = "origin/"

// JobAlias shortens a job name for display next to a commit by dropping the
// branch name from it:
//
//	JobAlias("alfasim-fb-EDEN-2505-app-win64", "fb-EDEN-2505") == "alfasim/app-win64"
func JobAlias(jobName, branchName string) string {
	branchName = strings.TrimPrefix(branchName, originPrefix)
	alias := strings.ReplaceAll(jobName, branchName, "")
	// The branch usually sits between two dashes.
	alias = strings.ReplaceAll(alias, "--", "/")
	return strings.TrimRight(alias, "-")
}
