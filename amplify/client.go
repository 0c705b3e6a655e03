// Package amplify provides a Go client for the AWS Amplify control plane
// scoped to pipeline setup and build monitoring. It wraps the AWS SDK v2
// behind a mockable interface, adds retry logic for throttling-class
// failures, and returns plain value types so callers stay SDK-free.
//
// Thread safety: all Client methods are safe for concurrent use. The AWS SDK
// v2 client is thread-safe and this wrapper holds no mutable state.
package amplify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awsamplify "github.com/aws/aws-sdk-go-v2/service/amplify"
	"github.com/aws/aws-sdk-go-v2/service/amplify/types"
)

// Client provides high-level access to the Amplify control plane.
type Client struct {
	api     ControlPlaneAPI
	logger  *slog.Logger
	retryer Retryer
}

// New creates a control plane client using the default AWS credential chain.
//
// Example:
//
//	client, err := amplify.New(ctx,
//	    amplify.WithRegion("eu-north-1"),
//	    amplify.WithLogger(slog.Default()),
//	)
func New(ctx context.Context, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var cfg aws.Config
	if o.awsCfg != nil {
		cfg = *o.awsCfg
	} else {
		loaded, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		cfg = loaded
	}

	if o.region != "" {
		cfg.Region = o.region
	}

	return &Client{
		api:     awsamplify.NewFromConfig(cfg),
		logger:  o.logger,
		retryer: o.retryer,
	}, nil
}

// NewWithAPI creates a client around a custom ControlPlaneAPI implementation.
// This is primarily used for testing with mocked control planes.
func NewWithAPI(api ControlPlaneAPI, opts ...Option) *Client {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Client{
		api:     api,
		logger:  o.logger,
		retryer: o.retryer,
	}
}

// DescribeApplication merges app-level and branch-level metadata into a
// single description. When the branch does not exist yet, the description
// degrades to app-level data with BranchExists=false rather than failing,
// since pipeline setup may run before the first push.
func (c *Client) DescribeApplication(ctx context.Context, appID, branch string) (*ApplicationInfo, error) {
	if appID == "" {
		return nil, wrapErr(ErrAppNotFound, "application id cannot be empty")
	}

	appOut, err := c.getApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	info := &ApplicationInfo{
		AppID:         appID,
		BranchName:    branch,
		RepositoryURL: aws.ToString(appOut.App.Repository),
		Platform:      string(appOut.App.Platform),
	}

	branchOut, err := c.getBranch(ctx, appID, branch)
	switch {
	case err == nil:
		b := branchOut.Branch
		info.BranchExists = true
		info.AutoBuild = b.EnableAutoBuild
		info.FrameworkTag = aws.ToString(b.Framework)
		info.Stage = string(b.Stage)
	case errors.Is(err, ErrBranchNotFound):
		c.logger.Warn("branch not found, using app-level metadata only",
			"app_id", appID, "branch", branch)
	default:
		return nil, err
	}

	c.logger.Info("described application",
		"app_id", appID,
		"branch", branch,
		"repository", info.RepositoryURL != "",
		"branch_exists", info.BranchExists)

	return info, nil
}

// SetAutoBuild toggles the automatic build flag for a branch.
func (c *Client) SetAutoBuild(ctx context.Context, appID, branch string, enabled bool) error {
	in := &awsamplify.UpdateBranchInput{
		AppId:           aws.String(appID),
		BranchName:      aws.String(branch),
		EnableAutoBuild: aws.Bool(enabled),
	}

	err := c.do(ctx, "UpdateBranch", func(ctx context.Context) error {
		_, err := c.api.UpdateBranch(ctx, in)
		return err
	})
	if err != nil {
		return wrapErrf(classifyNotFound(err), "failed to set auto-build=%t for branch %q", enabled, branch)
	}

	c.logger.Info("auto-build updated", "app_id", appID, "branch", branch, "enabled", enabled)
	return nil
}

// CreateWebhook creates an incoming build trigger for a branch and returns
// its identifier and invocation URL.
func (c *Client) CreateWebhook(ctx context.Context, appID, branch string) (*Webhook, error) {
	in := &awsamplify.CreateWebhookInput{
		AppId:       aws.String(appID),
		BranchName:  aws.String(branch),
		Description: aws.String(fmt.Sprintf("Custom pipeline webhook for %s", branch)),
	}

	var out *awsamplify.CreateWebhookOutput
	err := c.do(ctx, "CreateWebhook", func(ctx context.Context) error {
		var err error
		out, err = c.api.CreateWebhook(ctx, in)
		return err
	})
	if err != nil {
		return nil, wrapErrf(classifyNotFound(err), "failed to create webhook for branch %q", branch)
	}

	wh := &Webhook{
		ID:        aws.ToString(out.Webhook.WebhookId),
		URL:       aws.ToString(out.Webhook.WebhookUrl),
		AppID:     appID,
		Branch:    branch,
		CreatedAt: time.Now().UTC(),
	}

	c.logger.Info("webhook created", "app_id", appID, "branch", branch, "webhook_id", wh.ID)
	return wh, nil
}

// FindJobByCommit returns the most recent job whose commit matches the given
// SHA. Matching uses the abbreviated prefix, mirroring how the console
// correlates pushes to builds. Returns ErrJobNotFound when no job matches.
func (c *Client) FindJobByCommit(ctx context.Context, appID, branch, commitSHA string) (*JobSummary, error) {
	summaries, err := c.listJobs(ctx, appID, branch, 10)
	if err != nil {
		return nil, err
	}

	prefix := commitSHA
	if len(prefix) > 7 {
		prefix = prefix[:7]
	}

	for i := range summaries {
		if strings.HasPrefix(summaries[i].CommitID, prefix) {
			return &summaries[i], nil
		}
	}
	return nil, wrapErrf(ErrJobNotFound, "no job for commit %q on branch %q", commitSHA, branch)
}

// LatestJob returns the most recent job for a branch, or ErrJobNotFound when
// the branch has no build history.
func (c *Client) LatestJob(ctx context.Context, appID, branch string) (*JobSummary, error) {
	summaries, err := c.listJobs(ctx, appID, branch, 1)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, wrapErrf(ErrJobNotFound, "branch %q has no jobs", branch)
	}
	return &summaries[0], nil
}

// JobDetail retrieves the full job description including step results.
func (c *Client) JobDetail(ctx context.Context, appID, branch, jobID string) (*JobDetail, error) {
	in := &awsamplify.GetJobInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
		JobId:      aws.String(jobID),
	}

	var out *awsamplify.GetJobOutput
	err := c.do(ctx, "GetJob", func(ctx context.Context) error {
		var err error
		out, err = c.api.GetJob(ctx, in)
		return err
	})
	if err != nil {
		return nil, wrapErrf(classifyNotFound(err), "failed to get job %q", jobID)
	}

	detail := &JobDetail{Summary: toJobSummary(out.Job.Summary)}
	for _, s := range out.Job.Steps {
		detail.Steps = append(detail.Steps, StepResult{
			Name:         aws.ToString(s.StepName),
			Status:       JobStatus(s.Status),
			StatusReason: aws.ToString(s.StatusReason),
			LogURL:       aws.ToString(s.LogUrl),
			ArtifactsURL: aws.ToString(s.ArtifactsUrl),
		})
	}
	return detail, nil
}

// StartRelease requests a new build of the branch head. Used when a retry is
// needed on a repository-connected app without pushing a new commit.
func (c *Client) StartRelease(ctx context.Context, appID, branch, reason string) (*JobSummary, error) {
	in := &awsamplify.StartJobInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
		JobType:    types.JobTypeRelease,
		JobReason:  aws.String(reason),
	}

	var out *awsamplify.StartJobOutput
	err := c.do(ctx, "StartJob", func(ctx context.Context) error {
		var err error
		out, err = c.api.StartJob(ctx, in)
		return err
	})
	if err != nil {
		return nil, wrapErrf(classifyNotFound(err), "failed to start job on branch %q", branch)
	}

	summary := toJobSummary(out.JobSummary)
	c.logger.Info("job started", "app_id", appID, "branch", branch, "job_id", summary.JobID)
	return &summary, nil
}

// CreateDeployment registers a manual deployment for a branch. The
// returned target carries the job id and the pre-signed URL the zipped
// build output must be uploaded to before StartDeployment.
func (c *Client) CreateDeployment(ctx context.Context, appID, branch string) (*DeploymentTarget, error) {
	in := &awsamplify.CreateDeploymentInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
	}

	var out *awsamplify.CreateDeploymentOutput
	err := c.do(ctx, "CreateDeployment", func(ctx context.Context) error {
		var err error
		out, err = c.api.CreateDeployment(ctx, in)
		return err
	})
	if err != nil {
		return nil, wrapErrf(classifyNotFound(err), "failed to create deployment for branch %q", branch)
	}

	target := &DeploymentTarget{
		JobID:     aws.ToString(out.JobId),
		UploadURL: aws.ToString(out.ZipUploadUrl),
	}
	c.logger.Info("deployment created", "app_id", appID, "branch", branch, "job_id", target.JobID)
	return target, nil
}

// StartDeployment starts a manual deployment job. Exactly one of jobID
// and sourceURL must be set: jobID deploys an archive uploaded through a
// CreateDeployment target, sourceURL deploys straight from an S3 object.
func (c *Client) StartDeployment(ctx context.Context, appID, branch, jobID, sourceURL string) (*JobSummary, error) {
	if (jobID == "") == (sourceURL == "") {
		return nil, fmt.Errorf("exactly one of jobID and sourceURL must be set")
	}

	in := &awsamplify.StartDeploymentInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
	}
	if jobID != "" {
		in.JobId = aws.String(jobID)
	} else {
		in.SourceUrl = aws.String(sourceURL)
	}

	var out *awsamplify.StartDeploymentOutput
	err := c.do(ctx, "StartDeployment", func(ctx context.Context) error {
		var err error
		out, err = c.api.StartDeployment(ctx, in)
		return err
	})
	if err != nil {
		return nil, wrapErrf(classifyNotFound(err), "failed to start deployment on branch %q", branch)
	}

	summary := toJobSummary(out.JobSummary)
	c.logger.Info("deployment started", "app_id", appID, "branch", branch, "job_id", summary.JobID)
	return &summary, nil
}

func (c *Client) getApp(ctx context.Context, appID string) (*awsamplify.GetAppOutput, error) {
	var out *awsamplify.GetAppOutput
	err := c.do(ctx, "GetApp", func(ctx context.Context) error {
		var err error
		out, err = c.api.GetApp(ctx, &awsamplify.GetAppInput{AppId: aws.String(appID)})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, wrapErrf(ErrAppNotFound, "app %q", appID)
		}
		return nil, wrapErrf(err, "failed to get app %q", appID)
	}
	return out, nil
}

func (c *Client) getBranch(ctx context.Context, appID, branch string) (*awsamplify.GetBranchOutput, error) {
	in := &awsamplify.GetBranchInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
	}

	var out *awsamplify.GetBranchOutput
	err := c.do(ctx, "GetBranch", func(ctx context.Context) error {
		var err error
		out, err = c.api.GetBranch(ctx, in)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, wrapErrf(ErrBranchNotFound, "branch %q of app %q", branch, appID)
		}
		return nil, wrapErrf(err, "failed to get branch %q", branch)
	}
	return out, nil
}

func (c *Client) listJobs(ctx context.Context, appID, branch string, limit int32) ([]JobSummary, error) {
	in := &awsamplify.ListJobsInput{
		AppId:      aws.String(appID),
		BranchName: aws.String(branch),
		MaxResults: limit,
	}

	var out *awsamplify.ListJobsOutput
	err := c.do(ctx, "ListJobs", func(ctx context.Context) error {
		var err error
		out, err = c.api.ListJobs(ctx, in)
		return err
	})
	if err != nil {
		return nil, wrapErrf(classifyNotFound(err), "failed to list jobs for branch %q", branch)
	}

	summaries := make([]JobSummary, 0, len(out.JobSummaries))
	for i := range out.JobSummaries {
		summaries = append(summaries, toJobSummary(&out.JobSummaries[i]))
	}
	return summaries, nil
}

// do executes a control plane call with the configured retry policy.
// Non-retryable errors and exhausted budgets return the last error.
func (c *Client) do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.retryer.MaxAttempts(); attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !c.retryer.IsErrorRetryable(lastErr) {
			return lastErr
		}

		c.logger.Debug("retrying control plane call",
			"operation", op, "attempt", attempt, "error", lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(c.retryer.RetryDelay(attempt, lastErr)):
		}
	}
	return lastErr
}

func toJobSummary(s *types.JobSummary) JobSummary {
	if s == nil {
		return JobSummary{}
	}
	return JobSummary{
		JobID:    aws.ToString(s.JobId),
		CommitID: aws.ToString(s.CommitId),
		Status:   JobStatus(s.Status),
		Started:  aws.ToTime(s.StartTime),
		Ended:    aws.ToTime(s.EndTime),
	}
}

// isNotFound reports whether err is the control plane's NotFoundException.
func isNotFound(err error) bool {
	var nfe *types.NotFoundException
	return errors.As(err, &nfe)
}

// classifyNotFound maps NotFoundException onto the package sentinel so
// callers can errors.Is against ErrAppNotFound, leaving other errors intact.
func classifyNotFound(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %w", ErrAppNotFound, err)
	}
	return err
}
