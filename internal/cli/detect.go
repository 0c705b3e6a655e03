package cli

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/detect"
)

var (
	detectAppID  string
	detectBranch string
	detectDir    string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show the deployment mode and project profile",
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

		mode, err := detect.NewModeDetector(client, logger).Detect(cmd.Context(), detectAppID, detectBranch)
		if err != nil {
			return err
		}

		dir := detectDir
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return err
			}
		}
		profile := detect.ProfileProject(osfs.New(dir), ".")

		fmt.Printf("Deployment mode:  %s\n", mode)
		fmt.Printf("Framework:        %s", profile.Framework)
		if profile.Version != "" {
			fmt.Printf(" %s", profile.Version)
		}
		fmt.Println()
		fmt.Printf("Platform:         %s (%s)\n", profile.Platform, profile.Platform.HostingValue())
		fmt.Printf("Build command:    %s\n", profile.BuildCommand)
		fmt.Printf("Amplify backend:  %t\n", profile.HasAmplifyBackend)
		fmt.Printf("amplify.yml:      %t\n", profile.Checks.BuildSpecPresent)
		fmt.Printf("package-lock:     %t\n", profile.Checks.LockfilePresent)
		for _, wf := range profile.Checks.WorkflowFiles {
			fmt.Printf("Existing workflow: %s\n", wf)
		}
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectAppID, "app-id", "", "Amplify app ID (required)")
	detectCmd.Flags().StringVar(&detectBranch, "branch", "main", "branch name")
	detectCmd.Flags().StringVar(&detectDir, "dir", "", "project directory (default: working directory)")
	_ = detectCmd.MarkFlagRequired("app-id")
}
