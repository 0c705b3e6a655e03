// Package executor runs project tooling (npm, npx, git) with output
// capture and context support. Fix actions depend only on the Runner
// interface, so tests substitute a recording fake and never spawn
// processes.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// Command describes one tool invocation.
type Command struct {
	// Program is the executable to run.
	Program string

	// Args are the program arguments.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra environment variables, appended to the process
	// environment.
	Env map[string]string

	// Timeout bounds the invocation. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration
}

// Result holds the captured output of one invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout and stderr concatenated, for log scanning.
func (r *Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Runner executes commands. *OSRunner is the production implementation.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// OSRunner runs commands as OS processes.
type OSRunner struct {
	logger *slog.Logger
}

// NewOSRunner creates a process-backed runner. A nil logger disables
// logging.
func NewOSRunner(logger *slog.Logger) *OSRunner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OSRunner{logger: logger}
}

// Run executes the command and captures its output. A non-zero exit is
// not an error: the Result carries the exit code and the caller decides.
// An error means the command could not run at all or the context ended.
func (r *OSRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Program == "" {
		return nil, errors.New("program is required")
	}

	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	proc.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		proc.Env = os.Environ()
		for k, v := range cmd.Env {
			proc.Env = append(proc.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	start := time.Now()
	err := proc.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			r.logger.Debug("command exited non-zero",
				"program", cmd.Program, "exit_code", result.ExitCode,
				"duration", result.Duration)
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("command %s interrupted: %w", cmd.Program, ctxErr)
		}
		return result, fmt.Errorf("could not run %s: %w", cmd.Program, err)
	}

	r.logger.Debug("command succeeded",
		"program", cmd.Program, "duration", result.Duration)
	return result, nil
}
