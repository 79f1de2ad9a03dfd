package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"jenkins-notify/internal/report"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve JOB BUILD",
	Short: "Print the GitHub commits a build would report to",
	Args:  cobra.ExactArgs(2),
	RunE:  runResolve,
}

var postCmd = &cobra.Command{
	Use:   "post JOB BUILD URL",
	Short: "Post the commit statuses of a build, as a completion webhook would",
	Long: `Post the commit statuses of a build, as a completion webhook would.

URL is the build path relative to the Jenkins root, e.g. "job/eden-win64/12".`,
	Args: cobra.ExactArgs(3),
	RunE: runPost,
}

func runResolve(cmd *cobra.Command, args []string) error {
	number, err := parseBuildNumber(args[1])
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}

	outcome, err := a.resolver.Resolve(cmd.Context(), args[0], number)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status: %s\n", outcome.Status)
	if len(outcome.Facts) == 0 {
		fmt.Fprintln(out, "no GitHub repositories found")
	}
	for _, f := range outcome.Facts {
		fmt.Fprintf(out, "  - %s %s %s\n", f.Slug, f.BranchName, f.Commit)
	}
	return nil
}

func runPost(cmd *cobra.Command, args []string) error {
	number, err := parseBuildNumber(args[1])
	if err != nil {
		return err
	}
	a, err := setup()
	if err != nil {
		return err
	}

	outcome, err := a.resolver.Resolve(cmd.Context(), args[0], number)
	if err != nil {
		return err
	}
	b := report.Build{JobName: args[0], Number: number, URL: args[2]}
	if err := a.reporter.Report(cmd.Context(), b, outcome); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "posted %s to %d repositories\n", outcome.Status, len(outcome.Facts))
	return nil
}

func parseBuildNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid build number %q", s)
	}
	return n, nil
}
