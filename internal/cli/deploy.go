package cli

import (
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/bundle"
	"github.com/Paretofilm/amplify-pipeline-mcp/detect"
	"github.com/Paretofilm/amplify-pipeline-mcp/monitor"
	"github.com/Paretofilm/amplify-pipeline-mcp/persist"
	"github.com/Paretofilm/amplify-pipeline-mcp/workflow"
)

var (
	deployAppID  string
	deployBranch string
	deployDir    string
	deployOutput string
	deployBucket string
	deployKey    string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the current build output to Amplify",
	Long: `Deploy pushes a build through the app's deployment path and waits for
the result. Repository-connected apps get a release of the branch head.
Manual apps get their build output zipped and deployed: through a
pre-signed upload by default, or staged in an S3 bucket with --bucket.

The build output directory is derived from the detected framework; use
--output to override it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger()

		dir := deployDir
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return err
			}
		}

		client, err := amplify.New(cmd.Context(),
			amplify.WithRegion(cfg.Region),
			amplify.WithLogger(logger))
		if err != nil {
			return err
		}

		info, err := client.DescribeApplication(cmd.Context(), deployAppID, deployBranch)
		if err != nil {
			return err
		}

		var jobID string
		if info.RepositoryURL != "" {
			job, err := client.StartRelease(cmd.Context(), deployAppID, deployBranch, "manual release requested")
			if err != nil {
				return err
			}
			jobID = job.JobID
			fmt.Printf("Release started: job %s\n", jobID)
		} else {
			jobID, err = deployBundle(cmd, client, cfg.Region, dir)
			if err != nil {
				return err
			}
		}

		watcher := monitor.NewWatcher(client,
			monitor.WithLogger(logger),
			monitor.WithPollInterval(cfg.PollInterval.Duration()),
			monitor.WithTimeout(cfg.BuildTimeout.Duration()))
		result, err := watcher.AwaitJob(cmd.Context(), deployAppID, deployBranch, jobID)
		if err != nil {
			return err
		}

		if result.Succeeded() {
			fmt.Printf("Deployment succeeded: job %s\n", result.JobID)
			return nil
		}
		fmt.Printf("Deployment failed: job %s (%s)\n", result.JobID, result.Classification.Category)
		if result.LogExcerpt != "" {
			fmt.Println(result.LogExcerpt)
		}
		return fmt.Errorf("deployment job %s failed", result.JobID)
	},
}

// deployBundle packages the build output and hands it to Amplify, either
// through the pre-signed CreateDeployment upload or via an S3 bucket.
// Returns the deployment job id.
func deployBundle(cmd *cobra.Command, client *amplify.Client, region, dir string) (string, error) {
	output := deployOutput
	if output == "" {
		profile := detect.ProfileProject(osfs.New(dir), ".")
		output = workflow.ArtifactDir(profile.Framework)
	}

	b, err := bundle.Package(osfs.New(dir), output)
	if err != nil {
		return "", err
	}
	fmt.Printf("Packaged %d files from %s\n", len(b.Manifest), output)

	if deployBucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(cmd.Context(), awsconfig.WithRegion(region))
		if err != nil {
			return "", err
		}
		key := deployKey
		if key == "" {
			key = persist.SanitizeFilename(deployAppID+"-"+deployBranch) + "/deploy-bundle.zip"
		}
		uploader := bundle.NewS3Uploader(s3.NewFromConfig(awsCfg), deployBucket)
		sourceURL, err := uploader.Upload(cmd.Context(), key, b)
		if err != nil {
			return "", err
		}
		fmt.Printf("Uploaded bundle to %s\n", sourceURL)

		job, err := client.StartDeployment(cmd.Context(), deployAppID, deployBranch, "", sourceURL)
		if err != nil {
			return "", err
		}
		return job.JobID, nil
	}

	target, err := client.CreateDeployment(cmd.Context(), deployAppID, deployBranch)
	if err != nil {
		return "", err
	}
	uploader := &bundle.PresignedUploader{}
	if err := uploader.Upload(cmd.Context(), target.UploadURL, b); err != nil {
		return "", err
	}
	job, err := client.StartDeployment(cmd.Context(), deployAppID, deployBranch, target.JobID, "")
	if err != nil {
		return "", err
	}
	return job.JobID, nil
}

func init() {
	deployCmd.Flags().StringVar(&deployAppID, "app-id", "", "Amplify app ID (required)")
	deployCmd.Flags().StringVar(&deployBranch, "branch", "main", "branch name")
	deployCmd.Flags().StringVar(&deployDir, "dir", "", "project directory (default: working directory)")
	deployCmd.Flags().StringVar(&deployOutput, "output", "", "build output directory (default: derived from the framework)")
	deployCmd.Flags().StringVar(&deployBucket, "bucket", "", "stage the bundle in this S3 bucket instead of the pre-signed upload")
	deployCmd.Flags().StringVar(&deployKey, "key", "", "S3 object key for the staged bundle")
	_ = deployCmd.MarkFlagRequired("app-id")
}
