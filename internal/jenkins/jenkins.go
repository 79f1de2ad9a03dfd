// Package jenkins is a small client for the parts of the Jenkins REST API
// needed to find out what a build checked out.
package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GitBuildDataClass is the action class the git plugin uses to record the
// checkouts of a build.
const GitBuildDataClass = "hudson.plugins.git.util.BuildData"

// BuildInfo is the subset of a build's api/json document used here.
type BuildInfo struct {
	Number   int      `json:"number"`
	URL      string   `json:"url"`
	Building bool     `json:"building"`
	Result   *string  `json:"result"` // nil while the build is running
	Actions  []Action `json:"actions"`
}

// Action is one entry of a build's action list. Only git build-data actions
// fill RemoteURLs and LastBuiltRevision.
type Action struct {
	Class             string    `json:"_class"`
	RemoteURLs        []string  `json:"remoteUrls"`
	LastBuiltRevision *Revision `json:"lastBuiltRevision"`
}

// IsGitBuildData reports whether the action records a git checkout.
func (a Action) IsGitBuildData() bool {
	return a.Class == GitBuildDataClass
}

type Revision struct {
	SHA1   string   `json:"SHA1"`
	Branch []Branch `json:"branch"`
}

type Branch struct {
	SHA1 string `json:"SHA1"`
	Name string `json:"name"`
}

// Client talks to a single Jenkins server.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// NewClient creates a client authenticating with HTTP basic auth; password may
// be an API token.
func NewClient(baseURL, username, password string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid jenkins url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid jenkins url %q: only http and https are allowed", baseURL)
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetBuildInfo fetches the metadata of build number of job.
func (c *Client) GetBuildInfo(ctx context.Context, job string, number int) (*BuildInfo, error) {
	jobPath, err := jobURLPath(job)
	if err != nil {
		return nil, err
	}

	body, err := c.get(ctx, fmt.Sprintf("%s/%d/api/json?depth=0", jobPath, number))
	if err != nil {
		return nil, fmt.Errorf("getting build %s #%d: %w", job, number, err)
	}

	var info BuildInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decoding build %s #%d: %w", job, number, err)
	}
	return &info, nil
}

// GetJobConfig fetches the config.xml document of job.
func (c *Client) GetJobConfig(ctx context.Context, job string) (string, error) {
	jobPath, err := jobURLPath(job)
	if err != nil {
		return "", err
	}

	body, err := c.get(ctx, jobPath+"/config.xml")
	if err != nil {
		return "", fmt.Errorf("getting config of %s: %w", job, err)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// jobURLPath maps a job name to its URL path. Slashes in the name address
// folders: "team/app" becomes "/job/team/job/app".
func jobURLPath(job string) (string, error) {
	if job == "" {
		return "", fmt.Errorf("job name cannot be empty")
	}

	var b strings.Builder
	for _, part := range strings.Split(job, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid job name %q", job)
		}
		b.WriteString("/job/")
		b.WriteString(url.PathEscape(part))
	}
	return b.String(), nil
}
