// Package trigger plans and applies build trigger topology for an
// application branch. Exactly one trigger path is active per branch:
// repository-connected branches build through Amplify auto build, manual
// branches through an incoming webhook. Enabling both double-builds,
// enabling neither strands the branch.
package trigger

import (
	"context"
	"io"
	"log/slog"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/detect"
	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// ControlPlane is the mutation surface the planner needs.
// *amplify.Client satisfies it.
type ControlPlane interface {
	SetAutoBuild(ctx context.Context, appID, branch string, enabled bool) error
	CreateWebhook(ctx context.Context, appID, branch string) (*amplify.Webhook, error)
}

// Plan states the trigger topology for one deployment mode. The two
// fields are mutually exclusive: exactly one is true for any valid plan.
type Plan struct {
	Mode             detect.DeploymentMode
	AutoBuildEnabled bool
	WebhookRequired  bool
}

// Valid reports whether the plan honors the one-active-trigger invariant.
func (p Plan) Valid() bool {
	return p.AutoBuildEnabled != p.WebhookRequired
}

// PlanFor derives the trigger plan for a deployment mode.
func PlanFor(mode detect.DeploymentMode) (Plan, error) {
	switch mode {
	case detect.ModeRepositoryConnected:
		return Plan{Mode: mode, AutoBuildEnabled: true}, nil
	case detect.ModeManual:
		return Plan{Mode: mode, WebhookRequired: true}, nil
	default:
		return Plan{}, errors.Newf(errors.CodeInvalidInput, "no trigger plan for mode %q", mode)
	}
}

// Result records what Apply changed on the control plane.
type Result struct {
	Plan    Plan
	Webhook *amplify.Webhook

	// WebhookReused is true when Webhook came from an earlier run rather
	// than a CreateWebhook call.
	WebhookReused bool
}

// Planner applies trigger plans to the Amplify control plane.
type Planner struct {
	cp     ControlPlane
	logger *slog.Logger
}

// NewPlanner creates a Planner. A nil logger disables logging.
func NewPlanner(cp ControlPlane, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{cp: cp, logger: logger}
}

// ApplyOption adjusts a single Apply call.
type ApplyOption func(*applyOptions)

type applyOptions struct {
	existing *amplify.Webhook
}

// WithExistingWebhook reuses a previously created webhook instead of
// creating a fresh one. Webhooks are stable per branch, so a setup rerun
// should not accumulate duplicates on the control plane.
func WithExistingWebhook(hook *amplify.Webhook) ApplyOption {
	return func(o *applyOptions) { o.existing = hook }
}

// Apply reconciles the branch's trigger topology with the plan.
// Repository-connected branches get auto build enabled. Manual branches
// get auto build disabled before the webhook is created, so a push
// landing between the two calls cannot trigger a duplicate build.
func (p *Planner) Apply(ctx context.Context, appID, branch string, plan Plan, opts ...ApplyOption) (*Result, error) {
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !plan.Valid() {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"trigger plan for mode %q must enable exactly one trigger path", plan.Mode)
	}

	if plan.AutoBuildEnabled {
		if err := p.cp.SetAutoBuild(ctx, appID, branch, true); err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeControlPlane,
				"could not enable auto build", map[string]any{
					"app_id": appID,
					"branch": branch,
				})
		}
		p.logger.Info("auto build enabled", "app_id", appID, "branch", branch)
		return &Result{Plan: plan}, nil
	}

	if err := p.cp.SetAutoBuild(ctx, appID, branch, false); err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeControlPlane,
			"could not disable auto build", map[string]any{
				"app_id": appID,
				"branch": branch,
			})
	}
	if o.existing != nil {
		p.logger.Info("reusing deployment webhook",
			"app_id", appID, "branch", branch, "webhook_id", o.existing.ID)
		return &Result{Plan: plan, Webhook: o.existing, WebhookReused: true}, nil
	}
	hook, err := p.cp.CreateWebhook(ctx, appID, branch)
	if err != nil {
		return nil, errors.WrapWithContext(err, errors.CodeControlPlane,
			"could not create deployment webhook", map[string]any{
				"app_id": appID,
				"branch": branch,
			})
	}
	p.logger.Info("deployment webhook created",
		"app_id", appID, "branch", branch, "webhook_id", hook.ID)
	return &Result{Plan: plan, Webhook: hook}, nil
}
