// Package config loads the service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrMissingVariable is returned when a required setting is absent.
var ErrMissingVariable = errors.New("missing configuration variable")

// Config holds the settings read once at startup.
type Config struct {
	JenkinsURL      string
	JenkinsUsername string
	JenkinsPassword string
	// JenkinsSecret is the shared secret the Jenkins webhook must send.
	JenkinsSecret string
	GitHubToken   string
	// GitHubAPIURL points at a GitHub Enterprise server; empty means github.com.
	GitHubAPIURL string
	ListenAddr   string
}

const defaultListenAddr = ":8000"

// Load reads envFile (when it exists) and the process environment. Real
// environment variables win over values from the file.
func Load(envFile string) (Config, error) {
	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, key := range allKeys {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}
	return FromMap(vars)
}

var requiredKeys = []string{
	"JENKINS_URL",
	"JENKINS_USERNAME",
	"JENKINS_PASSWORD",
	"JENKINS_SECRET",
	"GH_TOKEN",
}

var allKeys = append(append([]string{}, requiredKeys...), "GH_API_URL", "LISTEN_ADDR")

// FromMap builds a Config from raw variables. Required variables may be empty
// but must be present.
func FromMap(vars map[string]string) (Config, error) {
	for _, key := range requiredKeys {
		if _, ok := vars[key]; !ok {
			return Config{}, fmt.Errorf("%w: %s", ErrMissingVariable, key)
		}
	}

	cfg := Config{
		JenkinsURL:      vars["JENKINS_URL"],
		JenkinsUsername: vars["JENKINS_USERNAME"],
		JenkinsPassword: vars["JENKINS_PASSWORD"],
		JenkinsSecret:   vars["JENKINS_SECRET"],
		GitHubToken:     vars["GH_TOKEN"],
		GitHubAPIURL:    vars["GH_API_URL"],
		ListenAddr:      vars["LISTEN_ADDR"],
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	return cfg, nil
}
