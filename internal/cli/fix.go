package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/autofix"
	"github.com/Paretofilm/amplify-pipeline-mcp/executor"
	"github.com/Paretofilm/amplify-pipeline-mcp/git"
	"github.com/Paretofilm/amplify-pipeline-mcp/monitor"
)

var (
	fixAppID     string
	fixBranch    string
	fixDir       string
	fixJobID     string
	fixPreflight bool
)

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Recover a failed build, or run preflight fixes",
	Long: `Fix classifies the failed build, applies the matching automated fix,
commits and pushes it, and watches the retry build. Retries are bounded
by max_fix_attempts and guarded against fix loops.

With --preflight, the safe fixes (lint, format, audit) run against the
worktree before any deploy, without a failure to react to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger()

		dir := fixDir
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return err
			}
		}
		repo, err := git.Open(osfs.New(dir))
		if err != nil {
			return err
		}

		client, err := amplify.New(cmd.Context(),
			amplify.WithRegion(cfg.Region),
			amplify.WithLogger(logger))
		if err != nil {
			return err
		}
		watcher := monitor.NewWatcher(client,
			monitor.WithLogger(logger),
			monitor.WithPollInterval(cfg.PollInterval.Duration()),
			monitor.WithTimeout(cfg.BuildTimeout.Duration()))

		orch := autofix.NewOrchestrator(autofix.Config{
			AppID:       fixAppID,
			Branch:      fixBranch,
			MaxAttempts: cfg.MaxFixAttempts,
			Remote:      cfg.Remote,
			Committer: git.Identity{
				Name:  cfg.Committer.Name,
				Email: cfg.Committer.Email,
			},
		}, repo, executor.NewOSRunner(logger), watcher,
			autofix.WithLogger(logger),
			autofix.WithRegistry(autofix.DefaultRegistry(fixAppID, fixBranch, dir)))

		var report *autofix.Report
		if fixPreflight {
			report, err = orch.Preflight(cmd.Context())
		} else {
			jobID := fixJobID
			if jobID == "" {
				latest, lerr := client.LatestJob(cmd.Context(), fixAppID, fixBranch)
				if lerr != nil {
					return lerr
				}
				jobID = latest.JobID
			}
			var failure *monitor.BuildResult
			failure, err = watcher.AwaitJob(cmd.Context(), fixAppID, fixBranch, jobID)
			if err != nil {
				return err
			}
			report, err = orch.Recover(cmd.Context(), failure)
		}
		if report != nil {
			printReport(cmd.OutOrStdout(), report)
		}
		return err
	},
}

func printReport(w io.Writer, report *autofix.Report) {
	fmt.Fprintf(w, "Outcome:  %s\n", report.Final)
	fmt.Fprintf(w, "Attempts: %d\n", report.Attempts)
	for _, name := range report.Applied {
		fmt.Fprintf(w, "Applied:  %s\n", name)
	}
	if report.Reason != "" {
		fmt.Fprintf(w, "Reason:   %s\n", report.Reason)
	}

	// An escalation hands the failure to a human, so the report carries
	// what they need to act on: the category and the raw diagnostic.
	if report.Final == autofix.StateEscalated && report.LastBuild != nil {
		fmt.Fprintf(w, "Category: %s\n", report.LastBuild.Classification.Category)
		if report.LastBuild.LogExcerpt != "" {
			fmt.Fprintf(w, "Diagnostic:\n%s\n", report.LastBuild.LogExcerpt)
		}
	}
}

func init() {
	fixCmd.Flags().StringVar(&fixAppID, "app-id", "", "Amplify app ID (required)")
	fixCmd.Flags().StringVar(&fixBranch, "branch", "main", "branch name")
	fixCmd.Flags().StringVar(&fixDir, "dir", "", "project directory (default: working directory)")
	fixCmd.Flags().StringVar(&fixJobID, "job-id", "", "failed job to recover (default: latest)")
	fixCmd.Flags().BoolVar(&fixPreflight, "preflight", false, "run safe fixes before a deploy")
	_ = fixCmd.MarkFlagRequired("app-id")
}
