package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/monitor"
)

var (
	monitorAppID  string
	monitorBranch string
	monitorJobID  string
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch a build job and classify its outcome",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger()

		client, err := amplify.New(cmd.Context(),
			amplify.WithRegion(cfg.Region),
			amplify.WithLogger(logger))
		if err != nil {
			return err
		}

		jobID := monitorJobID
		if jobID == "" {
			latest, err := client.LatestJob(cmd.Context(), monitorAppID, monitorBranch)
			if err != nil {
				return err
			}
			jobID = latest.JobID
		}

		watcher := monitor.NewWatcher(client,
			monitor.WithLogger(logger),
			monitor.WithPollInterval(cfg.PollInterval.Duration()),
			monitor.WithTimeout(cfg.BuildTimeout.Duration()))

		result, err := watcher.AwaitJob(cmd.Context(), monitorAppID, monitorBranch, jobID)
		if err != nil {
			return err
		}

		fmt.Printf("Job %s: %s\n", result.JobID, result.Status)
		if !result.Succeeded() {
			fmt.Printf("Failed step: %s\n", result.FailedStep)
			fmt.Printf("Category:    %s (%s)\n",
				result.Classification.Category, result.Classification.Description)
			fmt.Printf("Fixable:     %t\n", result.Classification.Fixable)
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorAppID, "app-id", "", "Amplify app ID (required)")
	monitorCmd.Flags().StringVar(&monitorBranch, "branch", "main", "branch name")
	monitorCmd.Flags().StringVar(&monitorJobID, "job-id", "", "job to watch (default: latest)")
	_ = monitorCmd.MarkFlagRequired("app-id")
}
