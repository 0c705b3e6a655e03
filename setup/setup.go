// Package setup runs the end-to-end pipeline configuration flow for one
// application branch: detect the deployment mode, profile the project,
// generate and persist the pipeline templates, and reconcile the build
// trigger topology.
package setup

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/config"
	"github.com/Paretofilm/amplify-pipeline-mcp/detect"
	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
	"github.com/Paretofilm/amplify-pipeline-mcp/git"
	"github.com/Paretofilm/amplify-pipeline-mcp/persist"
	"github.com/Paretofilm/amplify-pipeline-mcp/trigger"
	"github.com/Paretofilm/amplify-pipeline-mcp/workflow"
)

// ControlPlane is the full control plane surface setup needs.
// *amplify.Client satisfies it.
type ControlPlane interface {
	DescribeApplication(ctx context.Context, appID, branch string) (*amplify.ApplicationInfo, error)
	SetAutoBuild(ctx context.Context, appID, branch string, enabled bool) error
	CreateWebhook(ctx context.Context, appID, branch string) (*amplify.Webhook, error)
}

// Summary reports what one setup session detected and changed.
type Summary struct {
	SessionID string
	AppID     string
	Branch    string

	Mode      detect.DeploymentMode
	Framework detect.Framework
	Platform  detect.Platform

	// ArtifactPaths lists the files written into the project.
	ArtifactPaths []string

	// AutoBuildEnabled mirrors the applied trigger plan.
	AutoBuildEnabled bool

	// WebhookURL is set for manual-mode branches.
	WebhookURL string

	// Checks are the project prerequisite findings.
	Checks detect.PrereqChecks
}

// Session wires the setup flow over a project filesystem and the
// Amplify control plane.
type Session struct {
	cfg    *config.Config
	cp     ControlPlane
	fsys   billy.Filesystem
	hooks  *persist.WebhookStore
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithWebhookStore replaces the webhook store.
func WithWebhookStore(store *persist.WebhookStore) Option {
	return func(s *Session) { s.hooks = store }
}

// NewSession creates a setup session for the project rooted at fsys.
func NewSession(cfg *config.Config, cp ControlPlane, fsys billy.Filesystem, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		cp:     cp,
		fsys:   fsys,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hooks == nil {
		s.hooks = persist.DefaultWebhookStore()
	}
	return s
}

// Run executes the full setup flow. An empty branch is resolved from the
// project's git HEAD.
func (s *Session) Run(ctx context.Context, appID, branch string) (*Summary, error) {
	sessionID := uuid.NewString()
	logger := s.logger.With("session_id", sessionID, "app_id", appID)

	if branch == "" {
		resolved, err := s.resolveBranch()
		if err != nil {
			return nil, err
		}
		branch = resolved
	}
	logger = logger.With("branch", branch)

	app, profile, err := detect.NewModeDetector(s.cp, logger).Describe(ctx, s.fsys, ".", appID, branch)
	if err != nil {
		return nil, err
	}
	logger.Info("project profiled",
		"framework", profile.Framework, "platform", profile.Platform,
		"amplify_backend", profile.HasAmplifyBackend)

	triggerPlan, err := trigger.PlanFor(app.Mode)
	if err != nil {
		return nil, err
	}

	// A webhook recorded by an earlier run is reused, not recreated, so
	// reruns do not accumulate webhooks on the control plane.
	var applyOpts []trigger.ApplyOption
	if triggerPlan.WebhookRequired {
		record, err := s.hooks.Lookup(appID, branch)
		if err != nil {
			logger.Warn("ignoring unreadable webhook record", "error", err)
		} else if record != nil {
			applyOpts = append(applyOpts, trigger.WithExistingWebhook(&amplify.Webhook{
				ID:     record.WebhookID,
				URL:    record.URL,
				AppID:  appID,
				Branch: branch,
			}))
		}
	}
	result, err := trigger.NewPlanner(s.cp, logger).Apply(ctx, appID, branch, triggerPlan, applyOpts...)
	if err != nil {
		return nil, err
	}

	// The applied trigger feeds generation: the manual-mode workflow
	// embeds the webhook URL it must invoke.
	var webhookURL string
	if result.Webhook != nil {
		webhookURL = result.Webhook.URL
	}
	plan, err := workflow.NewGenerator(logger).Generate(workflow.Params{
		AppID:             appID,
		Branch:            branch,
		Region:            s.cfg.Region,
		Framework:         profile.Framework,
		Platform:          profile.Platform,
		Mode:              app.Mode,
		BuildCommand:      profile.BuildCommand,
		HasAmplifyBackend: profile.HasAmplifyBackend,
		WebhookURL:        webhookURL,
	})
	if err != nil {
		return nil, err
	}

	if err := persist.NewArtifactWriter(s.fsys, logger).WritePlan(plan); err != nil {
		return nil, err
	}

	summary := &Summary{
		SessionID:        sessionID,
		AppID:            appID,
		Branch:           branch,
		Mode:             app.Mode,
		Framework:        profile.Framework,
		Platform:         profile.Platform,
		AutoBuildEnabled: triggerPlan.AutoBuildEnabled,
		Checks:           profile.Checks,
	}
	for _, artifact := range plan.Artifacts() {
		summary.ArtifactPaths = append(summary.ArtifactPaths, artifact.Path)
	}
	if result.Webhook != nil {
		summary.WebhookURL = result.Webhook.URL
		if !result.WebhookReused {
			if _, err := s.hooks.Record(result.Webhook); err != nil {
				return nil, err
			}
		}
	}

	logger.Info("setup complete", "mode", app.Mode)
	return summary, nil
}

func (s *Session) resolveBranch() (string, error) {
	repo, err := git.Open(s.fsys)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidInput,
			"branch not given and project is not a git repository")
	}
	branch, err := repo.CurrentBranch()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidInput,
			"branch not given and HEAD is not on a branch")
	}
	return branch, nil
}
