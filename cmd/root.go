package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"jenkins-notify/internal/config"
	"jenkins-notify/internal/github"
	"jenkins-notify/internal/jenkins"
	"jenkins-notify/internal/notify"
	"jenkins-notify/internal/report"
)

var (
	envFileFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "jenkins-notify",
	Short:         "Relay Jenkins build results to GitHub commit statuses",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "dotenv file with the service settings; real environment variables take precedence")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", `log level: "debug", "info", "warn" or "error"`)

	rootCmd.AddCommand(serveCmd, resolveCmd, postCmd)
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

// app bundles the collaborators every command needs.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	resolver *notify.Resolver
	reporter *report.Reporter
}

// setup loads the configuration and wires the Jenkins and GitHub clients.
// A missing setting fails here, before anything is served.
func setup() (*app, error) {
	logger, err := newLogger(logLevelFlag)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(envFileFlag)
	if err != nil {
		return nil, fmt.Errorf("%w\ncheck your %s file", err, envFileFlag)
	}

	jobs, err := jenkins.NewClient(cfg.JenkinsURL, cfg.JenkinsUsername, cfg.JenkinsPassword)
	if err != nil {
		return nil, err
	}
	gh, err := github.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		resolver: notify.NewResolver(jobs, gh, logger),
		reporter: report.NewReporter(gh, cfg.JenkinsURL, logger),
	}, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger, nil
}
