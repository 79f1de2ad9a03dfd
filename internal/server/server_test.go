package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"

	"jenkins-notify/internal/jenkins"
	"jenkins-notify/internal/notify"
	"jenkins-notify/internal/report"
)

const (
	testSecret = "FAKE_JENKINS_SECRET"
	testJob    = "alfasim-fb-ASIM-4742-app-newlinux"
)

type fakeJenkins struct {
	info *jenkins.BuildInfo
	err  error
}

func (f *fakeJenkins) GetBuildInfo(context.Context, string, int) (*jenkins.BuildInfo, error) {
	return f.info, f.err
}

func (f *fakeJenkins) GetJobConfig(context.Context, string) (string, error) {
	return "<project/>", nil
}

type noBranches struct{}

func (noBranches) BranchHead(context.Context, string, string, string) (string, error) {
	return "", errors.New("unexpected branch lookup")
}

type posted struct {
	Slug    string
	SHA     string
	Payload report.Payload
}

type fakePoster struct {
	posted []posted
}

func (f *fakePoster) CreateStatus(_ context.Context, repoSlug, sha string, p report.Payload) error {
	f.posted = append(f.posted, posted{repoSlug, sha, p})
	return nil
}

func gitAction(remote, sha string) jenkins.Action {
	return jenkins.Action{
		Class:      jenkins.GitBuildDataClass,
		RemoteURLs: []string{remote},
		LastBuiltRevision: &jenkins.Revision{
			SHA1:   sha,
			Branch: []jenkins.Branch{{SHA1: sha, Name: "origin/fb-ASIM-4742"}},
		},
	}
}

func newTestServer(jobs *fakeJenkins, poster *fakePoster) *Server {
	resolver := notify.NewResolver(jobs, noBranches{}, nil)
	reporter := report.NewReporter(poster, "http://FAKE_JENKINS_URL", nil)
	return New(testSecret, resolver, reporter, nil)
}

func notifyURL(params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return "/jobs/notify?" + q.Encode()
}

func validParams() map[string]string {
	return map[string]string{
		"secret":       testSecret,
		"event":        notify.EventJobCompleted,
		"job_name":     testJob,
		"build_number": "6",
		"url":          "job/" + testJob + "/6",
	}
}

func TestHandleNotify(t *testing.T) {
	success := "SUCCESS"
	jobs := &fakeJenkins{info: &jenkins.BuildInfo{
		Number: 6,
		Result: &success,
		Actions: []jenkins.Action{
			gitAction("git@github.com:ESSS/alfasim.git", "183c3b5d60eb015704eb081d600b79e2c261f3a3"),
			gitAction("ssh://git@github.com/ESSS/qmxgraph.git", "3a93b466b35fa703897d0d35fe93f12ea027da90"),
			gitAction("https://github.com/ESSS/hookman", "4a7af78b5dc6d1bdd820ccea9c12beb07a113d13"),
			gitAction("git@github.com:ESSS/alfasim-sdk.git", "de93939e21c4c942e2d0ad00d017c1df15b8f3ab"),
		},
	}}
	poster := &fakePoster{}
	srv := newTestServer(jobs, poster)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, notifyURL(validParams()), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	var resp notifyResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != notify.StatusSuccess || resp.Repositories != 4 {
		t.Errorf("response = %+v", resp)
	}

	payload := report.Payload{
		State:       "success",
		TargetURL:   "http://FAKE_JENKINS_URL/job/" + testJob + "/6",
		Description: "build #6 success",
		Context:     "alfasim/app-newlinux job",
	}
	want := []posted{
		{"ESSS/alfasim", "183c3b5d60eb015704eb081d600b79e2c261f3a3", payload},
		{"ESSS/qmxgraph", "3a93b466b35fa703897d0d35fe93f12ea027da90", payload},
		{"ESSS/hookman", "4a7af78b5dc6d1bdd820ccea9c12beb07a113d13", payload},
		{"ESSS/alfasim-sdk", "de93939e21c4c942e2d0ad00d017c1df15b8f3ab", payload},
	}
	if diff := cmp.Diff(want, poster.posted); diff != "" {
		t.Errorf("posted statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleNotifyRejects(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
		drop     string
		wantCode int
	}{
		{name: "wrong secret", override: map[string]string{"secret": "nope"}, wantCode: http.StatusForbidden},
		{name: "unknown event", override: map[string]string{"event": "jenkins.job.deleted"}, wantCode: http.StatusBadRequest},
		{name: "bad build number", override: map[string]string{"build_number": "six"}, wantCode: http.StatusBadRequest},
		{name: "missing url", drop: "url", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			for k, v := range tt.override {
				params[k] = v
			}
			delete(params, tt.drop)

			poster := &fakePoster{}
			srv := newTestServer(&fakeJenkins{err: errors.New("should not be called")}, poster)

			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, notifyURL(params), nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if len(poster.posted) != 0 {
				t.Errorf("posted %d statuses, want 0", len(poster.posted))
			}
		})
	}
}

func TestHandleNotifyResolveError(t *testing.T) {
	srv := newTestServer(&fakeJenkins{err: errors.New("jenkins down")}, &fakePoster{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, notifyURL(validParams()), nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakeJenkins{}, &fakePoster{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
