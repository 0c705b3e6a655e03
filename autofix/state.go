// Package autofix drives the build failure recovery loop: classify a
// failed build, apply the matching fix, commit and push the result, and
// watch the retry build. Retries are bounded and loop-guarded so a fix
// that does not actually fix anything can never ping-pong builds.
package autofix

import "github.com/Paretofilm/amplify-pipeline-mcp/monitor"

// State names a phase of the recovery loop.
type State string

const (
	// StateIdle means no recovery is in progress.
	StateIdle State = "idle"

	// StatePreflight means safe fixes are being applied before a deploy.
	StatePreflight State = "preflight"

	// StateFailed means a classified build failure is in hand and the
	// loop is deciding whether a fix applies.
	StateFailed State = "failed"

	// StateReactiveFix means a fix for a classified failure is running.
	StateReactiveFix State = "reactive-fix"

	// StateRetrying means a fix was pushed and a retry build was
	// requested.
	StateRetrying State = "retrying"

	// StateAwaitingBuild means the loop is waiting for the retry build
	// to finish.
	StateAwaitingBuild State = "awaiting-build"

	// StateResolved means a retry build succeeded.
	StateResolved State = "resolved"

	// StateEscalated means recovery gave up and the failure needs a
	// human.
	StateEscalated State = "escalated"
)

// Terminal reports whether the state ends the loop.
func (s State) Terminal() bool {
	return s == StateResolved || s == StateEscalated
}

// Report summarizes one recovery run.
type Report struct {
	// Final is the terminal state, StateResolved or StateEscalated.
	Final State

	// Attempts counts the reactive fix attempts that were made.
	Attempts int

	// Applied lists the names of fixes that were committed and pushed.
	Applied []string

	// States traces the loop's phase transitions in order.
	States []State

	// LastBuild is the last observed build result.
	LastBuild *monitor.BuildResult

	// Reason explains an escalation in one line. Empty when resolved.
	Reason string
}

// Resolved reports whether the run ended with a green build.
func (r *Report) Resolved() bool {
	return r.Final == StateResolved
}

func (r *Report) enter(s State) {
	r.States = append(r.States, s)
	r.Final = s
}
