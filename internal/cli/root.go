// Package cli implements the amplify-pipeline command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Paretofilm/amplify-pipeline-mcp/config"
)

var (
	flagConfigPath string
	flagRegion     string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "amplify-pipeline",
	Short: "Configure and heal AWS Amplify deployment pipelines",
	Long: `amplify-pipeline configures custom CI pipelines for AWS Amplify
applications and recovers from failed builds automatically.

It detects whether an app is repository-connected or manually deployed,
generates the matching GitHub Actions workflows and build spec, wires the
correct build trigger (auto build or webhook), and when a build fails it
classifies the cause, applies the matching fix, and retries within a
bounded budget.

Quick start:
  amplify-pipeline setup --app-id <id>     Configure the pipeline
  amplify-pipeline detect --app-id <id>    Show the deployment mode
  amplify-pipeline deploy --app-id <id>    Deploy the current build output
  amplify-pipeline monitor --app-id <id>   Watch the latest build
  amplify-pipeline fix --app-id <id>       Recover a failed build`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default: XDG config home)")
	rootCmd.PersistentFlags().StringVar(&flagRegion, "region", "", "AWS region override")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	path := flagConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flagRegion != "" {
		cfg.Region = flagRegion
	}
	return cfg, nil
}

// newLogger builds the CLI logger writing to stderr.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
