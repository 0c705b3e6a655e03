package autofix

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Paretofilm/amplify-pipeline-mcp/errors"
	"github.com/Paretofilm/amplify-pipeline-mcp/executor"
	"github.com/Paretofilm/amplify-pipeline-mcp/git"
	"github.com/Paretofilm/amplify-pipeline-mcp/monitor"
)

type fakeRepo struct {
	head      string
	headMsg   string
	advance   bool
	commits   []string
	pushes    int
	commitErr error
	commitSeq int
}

func (f *fakeRepo) HeadHash() (string, error) {
	return f.head, nil
}

func (f *fakeRepo) HeadMessage() (string, error) {
	return f.headMsg, nil
}

func (f *fakeRepo) CommitAll(message string, author git.Identity) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commits = append(f.commits, message)
	f.headMsg = message
	f.commitSeq++
	if f.advance {
		f.head = fmt.Sprintf("%040d", f.commitSeq)
	}
	return f.head, nil
}

func (f *fakeRepo) Push(ctx context.Context, remote string) error {
	f.pushes++
	return nil
}

type fakeRunner struct {
	commands []executor.Command
	exitCode int
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, cmd executor.Command) (*executor.Result, error) {
	f.commands = append(f.commands, cmd)
	if f.err != nil {
		return nil, f.err
	}
	return &executor.Result{ExitCode: f.exitCode}, nil
}

type scriptedBuilds struct {
	results []*monitor.BuildResult
	next    int
}

func (s *scriptedBuilds) AwaitCommit(ctx context.Context, appID, branch, commitSHA string) (*monitor.BuildResult, error) {
	res := s.results[s.next]
	if s.next < len(s.results)-1 {
		s.next++
	}
	return res, nil
}

func failedBuild(category monitor.FailureCategory, fixable bool) *monitor.BuildResult {
	return &monitor.BuildResult{
		JobID:  "7",
		Status: "FAILED",
		Classification: monitor.Classification{
			Category: category,
			Fixable:  fixable,
		},
	}
}

func succeededBuild() *monitor.BuildResult {
	return &monitor.BuildResult{JobID: "8", Status: "SUCCEED"}
}

func newTestOrchestrator(repo *fakeRepo, runner *fakeRunner, builds BuildAwaiter, maxAttempts int) *Orchestrator {
	return NewOrchestrator(Config{
		AppID:       "d1abc",
		Branch:      "main",
		MaxAttempts: maxAttempts,
	}, repo, runner, builds)
}

func TestRecoverLintFailureResolves(t *testing.T) {
	repo := &fakeRepo{head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", advance: true}
	runner := &fakeRunner{}
	builds := &scriptedBuilds{results: []*monitor.BuildResult{succeededBuild()}}
	o := newTestOrchestrator(repo, runner, builds, 1)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryLint, true))
	require.NoError(t, err)
	assert.True(t, report.Resolved())
	assert.Equal(t, 1, report.Attempts)
	assert.Equal(t, []string{"fix-lint"}, report.Applied)
	assert.Equal(t, []State{StateFailed, StateReactiveFix, StateRetrying, StateAwaitingBuild, StateResolved}, report.States)

	require.Len(t, repo.commits, 1)
	assert.Contains(t, repo.commits[0], "fix(lint): apply eslint fixes")
	assert.Contains(t, repo.commits[0], "[auto-fix-attempt:1]")
	assert.NotContains(t, repo.commits[0], "[skip ci]")
	assert.Equal(t, 1, repo.pushes)

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "npx", runner.commands[0].Program)
	assert.Equal(t, []string{"eslint", ".", "--fix"}, runner.commands[0].Args)
}

func TestRecoverUnclassifiedEscalatesImmediately(t *testing.T) {
	repo := &fakeRepo{head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	runner := &fakeRunner{}
	o := newTestOrchestrator(repo, runner, &scriptedBuilds{}, 3)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryUnclassified, false))
	require.NoError(t, err)
	assert.Equal(t, StateEscalated, report.Final)
	assert.Zero(t, report.Attempts)
	assert.Empty(t, repo.commits)
	assert.Empty(t, runner.commands)
	assert.Contains(t, report.Reason, "no automated fix")
}

func TestRecoverWrongModeEscalates(t *testing.T) {
	repo := &fakeRepo{head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	o := newTestOrchestrator(repo, &fakeRunner{}, &scriptedBuilds{}, 3)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryWrongMode, false))
	require.NoError(t, err)
	assert.Equal(t, StateEscalated, report.Final)
	assert.Empty(t, repo.commits)
}

func TestRecoverRetryBudgetExhausted(t *testing.T) {
	repo := &fakeRepo{head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", advance: true}
	builds := &scriptedBuilds{results: []*monitor.BuildResult{
		failedBuild(monitor.CategoryLint, true),
	}}
	o := newTestOrchestrator(repo, &fakeRunner{}, builds, 1)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryLint, true))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRetryExhausted, apperrors.CodeOf(err))
	assert.Equal(t, StateEscalated, report.Final)
	assert.Equal(t, 1, report.Attempts)
}

func TestRecoverHeadMarkerSpendsBudget(t *testing.T) {
	// A fresh orchestrator has an empty consumed map, but the head
	// commit from a previous invocation still carries its attempt
	// marker. That marker counts against the budget.
	repo := &fakeRepo{
		head:    "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		headMsg: "fix(lint): apply eslint fixes [auto-fix-attempt:1]",
		advance: true,
	}
	runner := &fakeRunner{}
	builds := &scriptedBuilds{results: []*monitor.BuildResult{succeededBuild()}}
	o := newTestOrchestrator(repo, runner, builds, 1)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryLint, true))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRetryExhausted, apperrors.CodeOf(err))
	assert.Equal(t, StateEscalated, report.Final)
	assert.Zero(t, report.Attempts)
	assert.Empty(t, repo.commits)
	assert.Zero(t, repo.pushes)
}

func TestRecoverLoopGuardRefusesSameTree(t *testing.T) {
	// The fix commits but the head never moves, so the second attempt
	// would fix the exact tree that already failed.
	repo := &fakeRepo{head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", advance: false}
	builds := &scriptedBuilds{results: []*monitor.BuildResult{
		failedBuild(monitor.CategoryLint, true),
	}}
	o := newTestOrchestrator(repo, &fakeRunner{}, builds, 3)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryLint, true))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLoopGuard, apperrors.CodeOf(err))
	assert.Equal(t, StateEscalated, report.Final)
	assert.Equal(t, 1, report.Attempts)
}

func TestRecoverFixProducesNoChanges(t *testing.T) {
	repo := &fakeRepo{
		head:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		commitErr: git.ErrNothingToCommit,
	}
	o := newTestOrchestrator(repo, &fakeRunner{}, &scriptedBuilds{}, 3)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryLint, true))
	require.NoError(t, err)
	assert.Equal(t, StateEscalated, report.Final)
	assert.Contains(t, report.Reason, "produced no changes")
}

func TestRecoverSecondAttemptDifferentCategory(t *testing.T) {
	// First fix resolves the lint failure but the retry build trips over
	// missing outputs; with budget for two attempts both get fixed.
	repo := &fakeRepo{head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", advance: true}
	runner := &fakeRunner{}
	builds := &scriptedBuilds{results: []*monitor.BuildResult{
		failedBuild(monitor.CategoryMissingConfig, true),
		succeededBuild(),
	}}
	o := newTestOrchestrator(repo, runner, builds, 2)

	report, err := o.Recover(context.Background(), failedBuild(monitor.CategoryLint, true))
	require.NoError(t, err)
	assert.True(t, report.Resolved())
	assert.Equal(t, 2, report.Attempts)
	assert.Equal(t, []string{"fix-lint", "generate-outputs"}, report.Applied)
}

func TestPreflightAppliesSafeFixes(t *testing.T) {
	repo := &fakeRepo{head: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", advance: true}
	runner := &fakeRunner{}
	o := newTestOrchestrator(repo, runner, &scriptedBuilds{}, 1)

	report, err := o.Preflight(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Resolved())
	assert.Equal(t, []string{"fix-lint", "fix-format", "audit-fix"}, report.Applied)

	require.Len(t, repo.commits, 1)
	assert.Contains(t, repo.commits[0], "[skip ci]")
	assert.Equal(t, 1, repo.pushes)

	programs := make([]string, 0, len(runner.commands))
	for _, cmd := range runner.commands {
		programs = append(programs, cmd.Program)
	}
	assert.Equal(t, []string{"npx", "npx", "npm"}, programs)
}

func TestPreflightNothingToFix(t *testing.T) {
	repo := &fakeRepo{
		head:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		commitErr: git.ErrNothingToCommit,
	}
	o := newTestOrchestrator(repo, &fakeRunner{}, &scriptedBuilds{}, 1)

	report, err := o.Preflight(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Resolved())
	assert.Empty(t, report.Applied)
	assert.Zero(t, repo.pushes)
}

func TestPreflightToolErrorIsNonFatal(t *testing.T) {
	repo := &fakeRepo{
		head:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		commitErr: git.ErrNothingToCommit,
	}
	runner := &fakeRunner{err: assert.AnError}
	o := newTestOrchestrator(repo, runner, &scriptedBuilds{}, 1)

	report, err := o.Preflight(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Resolved())
	assert.Empty(t, report.Applied)
}

func TestDefaultRegistryLookup(t *testing.T) {
	r := DefaultRegistry("d1abc", "main", "/repo")

	fix, ok := r.Lookup(monitor.CategoryMissingConfig)
	require.True(t, ok)
	assert.Equal(t, "generate-outputs", fix.Name)
	require.Len(t, fix.Commands, 1)
	assert.Contains(t, fix.Commands[0].Args, "d1abc")
	assert.Contains(t, fix.Commands[0].Args, "main")
	assert.Equal(t, "/repo", fix.Commands[0].Dir)

	_, ok = r.Lookup(monitor.CategoryUnclassified)
	assert.False(t, ok)
}

func TestReportEnterTracksStates(t *testing.T) {
	r := &Report{}
	r.enter(StateReactiveFix)
	r.enter(StateRetrying)
	r.enter(StateResolved)
	assert.Equal(t, StateResolved, r.Final)
	assert.True(t, r.Final.Terminal())
	assert.False(t, StateRetrying.Terminal())
}
