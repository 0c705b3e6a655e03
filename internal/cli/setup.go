package cli

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/setup"
)

var (
	setupAppID  string
	setupBranch string
	setupDir    string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Detect the deployment mode and configure the pipeline",
	Long: `Setup detects whether the app is repository-connected or manually
deployed, profiles the project's framework, writes the matching GitHub
Actions workflows and amplify.yml into the project, and reconciles the
build trigger: auto build for repository-connected apps, a webhook for
manual ones.`,
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

		dir := setupDir
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return err
			}
		}

		session := setup.NewSession(cfg, client, osfs.New(dir), setup.WithLogger(logger))
		summary, err := session.Run(cmd.Context(), setupAppID, setupBranch)
		if err != nil {
			return err
		}

		fmt.Printf("Deployment mode: %s\n", summary.Mode)
		fmt.Printf("Framework:       %s (%s)\n", summary.Framework, summary.Platform)
		fmt.Println("Artifacts:")
		for _, path := range summary.ArtifactPaths {
			fmt.Printf("  %s\n", path)
		}
		if summary.AutoBuildEnabled {
			fmt.Println("Trigger:         auto build on push")
		} else {
			fmt.Printf("Trigger:         webhook %s\n", summary.WebhookURL)
		}
		if !summary.Checks.LockfilePresent {
			fmt.Println("Note: package-lock.json is missing, npm ci will fail without it")
		}
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupAppID, "app-id", "", "Amplify app ID (required)")
	setupCmd.Flags().StringVar(&setupBranch, "branch", "", "branch name (default: current git branch)")
	setupCmd.Flags().StringVar(&setupDir, "dir", "", "project directory (default: working directory)")
	_ = setupCmd.MarkFlagRequired("app-id")
}
