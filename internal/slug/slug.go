// Package slug extracts "owner/repo" identifiers from GitHub remote URLs.
package slug

import (
	"regexp"
	"strings"
)

var (
	sshPattern   = regexp.MustCompile(`^(?:ssh://)?git@github\.com[:/]([\w-]+)/([\w-]+)\.git`)
	httpsPattern = regexp.MustCompile(`^https://github\.com/([\w-]+)/([\w-]+)`)
)

// Parse returns the slug ("owner/repo") of a GitHub remote given in SSH or
// HTTPS form. The second result is false for any other host or shape.
func Parse(url string) (string, bool) {
	for _, p := range []*regexp.Regexp{sshPattern, httpsPattern} {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1] + "/" + m[2], true
		}
	}
	return "", false
}

// Split splits a slug into owner and repository name.
func Split(s string) (owner, repo string, ok bool) {
	owner, repo, ok = strings.Cut(s, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
