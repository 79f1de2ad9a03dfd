package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"

	"jenkins-notify/internal/report"
	"jenkins-notify/internal/slug"
)

// Client wraps the GitHub REST API calls used to report builds.
type Client struct {
	gh *github.Client
}

// NewClient returns a client authenticated with token. A non-empty apiURL
// points it at a GitHub Enterprise server.
func NewClient(token, apiURL string) (*Client, error) {
	gh := github.NewClient(nil).WithAuthToken(token)
	if apiURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
	}
	return &Client{gh: gh}, nil
}

// BranchHead returns the SHA of the commit at the tip of branch.
func (c *Client) BranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	b, _, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if err != nil {
		return "", err
	}
	sha := b.GetCommit().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("branch %s of %s/%s has no head commit", branch, owner, repo)
	}
	return sha, nil
}

// CreateStatus posts a commit status to the repository named by repoSlug.
func (c *Client) CreateStatus(ctx context.Context, repoSlug, sha string, p report.Payload) error {
	owner, repo, ok := slug.Split(repoSlug)
	if !ok {
		return fmt.Errorf("invalid repository %q", repoSlug)
	}

	status := &github.RepoStatus{
		State:       github.Ptr(p.State),
		TargetURL:   github.Ptr(p.TargetURL),
		Description: github.Ptr(p.Description),
		Context:     github.Ptr(p.Context),
	}
	if _, _, err := c.gh.Repositories.CreateStatus(ctx, owner, repo, sha, status); err != nil {
		return err
	}
	return nil
}
