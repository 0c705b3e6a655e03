package amplify

import (
	"context"

	awsamplify "github.com/aws/aws-sdk-go-v2/service/amplify"
)

// ControlPlaneAPI defines the subset of the AWS Amplify control plane the
// pipeline tooling consumes. The interface exists so tests can substitute a
// mock for the real SDK client.
type ControlPlaneAPI interface {
	// GetApp retrieves app-level metadata (repository linkage, platform).
	GetApp(ctx context.Context, params *awsamplify.GetAppInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.GetAppOutput, error)

	// GetBranch retrieves branch-level metadata (auto-build flag, framework).
	GetBranch(ctx context.Context, params *awsamplify.GetBranchInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.GetBranchOutput, error)

	// UpdateBranch mutates branch settings; used to toggle auto-build.
	UpdateBranch(ctx context.Context, params *awsamplify.UpdateBranchInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.UpdateBranchOutput, error)

	// CreateWebhook creates an incoming build trigger for a branch.
	CreateWebhook(ctx context.Context, params *awsamplify.CreateWebhookInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.CreateWebhookOutput, error)

	// ListJobs lists recent build jobs for a branch, newest first.
	ListJobs(ctx context.Context, params *awsamplify.ListJobsInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.ListJobsOutput, error)

	// GetJob retrieves a single build job including its step details.
	GetJob(ctx context.Context, params *awsamplify.GetJobInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.GetJobOutput, error)

	// StartJob requests a new build for a branch.
	StartJob(ctx context.Context, params *awsamplify.StartJobInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.StartJobOutput, error)

	// CreateDeployment registers a manual deployment and hands out the
	// pre-signed upload URL for the archive.
	CreateDeployment(ctx context.Context, params *awsamplify.CreateDeploymentInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.CreateDeploymentOutput, error)

	// StartDeployment starts a registered manual deployment job.
	StartDeployment(ctx context.Context, params *awsamplify.StartDeploymentInput,
		optFns ...func(*awsamplify.Options)) (*awsamplify.StartDeploymentOutput, error)
}
