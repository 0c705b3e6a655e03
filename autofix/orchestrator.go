package autofix

import (
	"context"
	gliberrors "errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
	"github.com/Paretofilm/amplify-pipeline-mcp/executor"
	"github.com/Paretofilm/amplify-pipeline-mcp/git"
	"github.com/Paretofilm/amplify-pipeline-mcp/monitor"
)

// Repository is the repository surface the loop needs. *git.Repo
// satisfies it.
type Repository interface {
	HeadHash() (string, error)
	HeadMessage() (string, error)
	CommitAll(message string, author git.Identity) (string, error)
	Push(ctx context.Context, remote string) error
}

// BuildAwaiter watches the build triggered by a commit to completion.
// *monitor.Watcher satisfies it.
type BuildAwaiter interface {
	AwaitCommit(ctx context.Context, appID, branch, commitSHA string) (*monitor.BuildResult, error)
}

// Config bounds and parameterizes the recovery loop.
type Config struct {
	// AppID and Branch identify the application under recovery.
	AppID  string
	Branch string

	// MaxAttempts caps reactive fix attempts per recovery run.
	// Defaults to 1.
	MaxAttempts int

	// Committer is the author identity for fix commits.
	Committer git.Identity

	// Remote is the push target. Defaults to origin.
	Remote string
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.Remote == "" {
		c.Remote = git.DefaultRemoteName
	}
	if c.Committer.Name == "" {
		c.Committer = git.Identity{
			Name:  "amplify-auto-fix",
			Email: "auto-fix@users.noreply.github.com",
		}
	}
}

// Orchestrator runs the recovery loop for one application branch.
type Orchestrator struct {
	cfg      Config
	repo     Repository
	runner   executor.Runner
	registry *Registry
	builds   BuildAwaiter
	logger   *slog.Logger

	// consumed tracks head hashes a fix attempt was already made for.
	// One token per tree state: seeing the same token twice means the
	// fix did not change the tree and retrying is a loop.
	consumed map[string]bool
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRegistry replaces the default fix registry.
func WithRegistry(r *Registry) OrchestratorOption {
	return func(o *Orchestrator) { o.registry = r }
}

// NewOrchestrator wires a recovery loop over a repository, a tool
// runner, and a build watcher.
func NewOrchestrator(cfg Config, repo Repository, runner executor.Runner, builds BuildAwaiter, opts ...OrchestratorOption) *Orchestrator {
	cfg.applyDefaults()
	o := &Orchestrator{
		cfg:      cfg,
		repo:     repo,
		runner:   runner,
		builds:   builds,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		consumed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry(cfg.AppID, cfg.Branch, "")
	}
	return o
}

// Preflight runs the safe fixes against the worktree and commits the
// result as a single marked commit. A clean worktree after the tools
// run is not an error: there was simply nothing to fix. A fixer tool
// that cannot run is logged and skipped, never fatal, so preflight can
// never block a build that would otherwise succeed.
func (o *Orchestrator) Preflight(ctx context.Context) (*Report, error) {
	report := &Report{}
	report.enter(StatePreflight)

	var applied []string
	for _, fix := range o.registry.Preflight() {
		if err := o.runFix(ctx, fix); err != nil {
			o.logger.Warn("preflight fix skipped", "fix", fix.Name, "error", err)
			continue
		}
		applied = append(applied, fix.Name)
	}

	msg, err := git.FixCommitMessage("ci", "apply preflight fixes", 0)
	if err != nil {
		return report, errors.Wrap(err, errors.CodeInvalidInput, "could not build commit message")
	}
	_, err = o.repo.CommitAll(msg, o.cfg.Committer)
	if gliberrors.Is(err, git.ErrNothingToCommit) {
		o.logger.Info("preflight found nothing to fix")
		report.enter(StateResolved)
		return report, nil
	}
	if err != nil {
		return report, errors.Wrap(err, errors.CodeUnknown, "could not commit preflight fixes")
	}
	if err := o.repo.Push(ctx, o.cfg.Remote); err != nil && !gliberrors.Is(err, git.ErrAlreadyUpToDate) {
		return report, errors.Wrap(err, errors.CodeUnknown, "could not push preflight fixes")
	}

	report.Applied = applied
	report.enter(StateResolved)
	return report, nil
}

// Recover reacts to a failed build: apply the matching fix, push it,
// and watch the retry. The loop continues while retry builds keep
// failing with fixable causes, up to MaxAttempts. Everything else
// escalates with a reason.
func (o *Orchestrator) Recover(ctx context.Context, failure *monitor.BuildResult) (*Report, error) {
	report := &Report{LastBuild: failure}

	for {
		if failure.Succeeded() {
			report.enter(StateResolved)
			return report, nil
		}

		report.enter(StateFailed)

		if !failure.Classification.Fixable {
			return o.escalate(report, fmt.Sprintf(
				"failure category %q has no automated fix", failure.Classification.Category))
		}

		if report.Attempts >= o.cfg.MaxAttempts {
			report.enter(StateEscalated)
			report.Reason = fmt.Sprintf("retry budget of %d exhausted", o.cfg.MaxAttempts)
			return report, errors.Newf(errors.CodeRetryExhausted,
				"build still failing after %d fix attempts", report.Attempts)
		}

		// The consumed map does not survive a process restart, but the
		// markers in the head commit message do. A head that already
		// carries a fix attempt at the budget means a previous
		// invocation spent it.
		if msg, err := o.repo.HeadMessage(); err == nil && git.IsAutomatedFix(msg) {
			if n, ok := git.RetryAttemptOf(msg); ok && n >= o.cfg.MaxAttempts {
				report.enter(StateEscalated)
				report.Reason = fmt.Sprintf(
					"head commit already carries fix attempt %d of %d", n, o.cfg.MaxAttempts)
				return report, errors.Newf(errors.CodeRetryExhausted,
					"head commit is fix attempt %d, budget of %d is spent", n, o.cfg.MaxAttempts)
			}
		}

		token, err := o.repo.HeadHash()
		if err != nil {
			return report, errors.Wrap(err, errors.CodeUnknown, "could not read head for loop guard")
		}
		if o.consumed[token] {
			report.enter(StateEscalated)
			report.Reason = "fix attempt already made for this tree state"
			return report, errors.Newf(errors.CodeLoopGuard,
				"head %s was already fixed once, refusing to loop", token[:7])
		}
		o.consumed[token] = true

		fix, ok := o.registry.Lookup(failure.Classification.Category)
		if !ok {
			return o.escalate(report, fmt.Sprintf(
				"no fix registered for category %q", failure.Classification.Category))
		}

		report.enter(StateReactiveFix)
		report.Attempts++
		o.logger.Info("applying fix",
			"fix", fix.Name, "category", fix.Category, "attempt", report.Attempts)

		if err := o.runFix(ctx, fix); err != nil {
			return report, err
		}

		msg, err := git.FixCommitMessage(fix.Scope, fix.Description, report.Attempts)
		if err != nil {
			return report, errors.Wrap(err, errors.CodeInvalidInput, "could not build commit message")
		}
		commit, err := o.repo.CommitAll(msg, o.cfg.Committer)
		if gliberrors.Is(err, git.ErrNothingToCommit) {
			return o.escalate(report, fmt.Sprintf(
				"fix %q produced no changes, the failure needs a human", fix.Name))
		}
		if err != nil {
			return report, errors.Wrap(err, errors.CodeUnknown, "could not commit fix")
		}
		if err := o.repo.Push(ctx, o.cfg.Remote); err != nil && !gliberrors.Is(err, git.ErrAlreadyUpToDate) {
			return report, errors.Wrap(err, errors.CodeUnknown, "could not push fix")
		}
		report.Applied = append(report.Applied, fix.Name)

		report.enter(StateRetrying)
		report.enter(StateAwaitingBuild)
		result, err := o.builds.AwaitCommit(ctx, o.cfg.AppID, o.cfg.Branch, commit)
		if err != nil {
			return report, err
		}
		report.LastBuild = result
		failure = result
	}
}

// escalate closes the report without an error: an escalation with a
// reason is a normal loop outcome, not a malfunction.
func (o *Orchestrator) escalate(report *Report, reason string) (*Report, error) {
	report.enter(StateEscalated)
	report.Reason = reason
	o.logger.Warn("recovery escalated", "reason", reason)
	return report, nil
}

func (o *Orchestrator) runFix(ctx context.Context, fix Fix) error {
	for _, cmd := range fix.Commands {
		res, err := o.runner.Run(ctx, cmd)
		if err != nil {
			return errors.WrapWithContext(err, errors.CodeFixNotApplicable,
				"fix tool could not run", map[string]any{
					"fix":     fix.Name,
					"program": cmd.Program,
				})
		}
		if res.ExitCode != 0 {
			o.logger.Debug("fix tool exited non-zero",
				"fix", fix.Name, "program", cmd.Program, "exit_code", res.ExitCode)
		}
	}
	return nil
}
