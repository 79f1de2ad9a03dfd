package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jenkins-notify/internal/jenkins"
	"jenkins-notify/internal/jobconfig"
	"jenkins-notify/internal/slug"
)

// JobInfoClient reads build and job data from Jenkins.
type JobInfoClient interface {
	GetBuildInfo(ctx context.Context, job string, number int) (*jenkins.BuildInfo, error)
	GetJobConfig(ctx context.Context, job string) (string, error)
}

// RepoHostClient looks up the current head commit of a branch.
type RepoHostClient interface {
	BranchHead(ctx context.Context, owner, repo, branch string) (string, error)
}

// Resolver finds the GitHub commits involved in a Jenkins build.
type Resolver struct {
	jobs   JobInfoClient
	repos  RepoHostClient
	logger *slog.Logger
}

func NewResolver(jobs JobInfoClient, repos RepoHostClient, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{jobs: jobs, repos: repos, logger: logger}
}

// Resolve returns the GitHub commits built by build number of job along with
// the status to report for them.
//
// The commits come from the git build data Jenkins records once a build has
// checked out its sources. Builds that have not got that far (typically when
// the start notification arrives) have no build data yet; for those the git
// sources are read from the job configuration and each branch head is asked
// from GitHub.
func (r *Resolver) Resolve(ctx context.Context, job string, number int) (BuildOutcome, error) {
	info, err := r.jobs.GetBuildInfo(ctx, job, number)
	if err != nil {
		return BuildOutcome{}, err
	}

	facts, found, err := factsFromBuildData(info)
	if err != nil {
		return BuildOutcome{}, fmt.Errorf("build %s #%d: %w", job, number, err)
	}
	if found {
		r.logger.Debug("resolved repositories from build data", "job", job, "build", number, "repositories", len(facts))
	} else {
		facts, err = r.factsFromJobConfig(ctx, job)
		if err != nil {
			return BuildOutcome{}, err
		}
		r.logger.Debug("resolved repositories from job config", "job", job, "build", number, "repositories", len(facts))
	}

	return BuildOutcome{Facts: facts, Status: StatusFromResult(info.Result)}, nil
}

// factsFromBuildData collects the GitHub commits recorded in the git build
// data actions of a build. found is false when no action lists any remote at
// all, GitHub or otherwise, meaning nothing was checked out yet.
func factsFromBuildData(info *jenkins.BuildInfo) (facts []RepoBuildFact, found bool, err error) {
	for _, action := range info.Actions {
		if !action.IsGitBuildData() || len(action.RemoteURLs) == 0 {
			continue
		}
		found = true

		for _, remote := range action.RemoteURLs {
			s, ok := slug.Parse(remote)
			if !ok {
				continue
			}
			rev := action.LastBuiltRevision
			if rev == nil || len(rev.Branch) == 0 {
				return nil, true, fmt.Errorf("%w: no built revision for %s", ErrMalformedBuildData, remote)
			}
			branch := rev.Branch[0]
			facts = append(facts, RepoBuildFact{
				Slug:       s,
				BranchName: strings.TrimPrefix(branch.Name, originPrefix),
				Commit:     branch.SHA1,
			})
		}
	}
	return facts, found, nil
}

func (r *Resolver) factsFromJobConfig(ctx context.Context, job string) ([]RepoBuildFact, error) {
	doc, err := r.jobs.GetJobConfig(ctx, job)
	if err != nil {
		return nil, err
	}
	sources, err := jobconfig.Parse(doc)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job, err)
	}

	var facts []RepoBuildFact
	for _, src := range sources {
		s, ok := slug.Parse(src.URL)
		if !ok {
			continue
		}
		facts = append(facts, RepoBuildFact{Slug: s, BranchName: src.Branch})
	}

	for i := range facts {
		owner, repo, _ := slug.Split(facts[i].Slug)
		sha, err := r.repos.BranchHead(ctx, owner, repo, facts[i].BranchName)
		if err != nil {
			return nil, fmt.Errorf("head of %s@%s: %w", facts[i].Slug, facts[i].BranchName, err)
		}
		facts[i].Commit = sha
	}
	return facts, nil
}
