package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	r := NewOSRunner(nil)

	res, err := r.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "out\nerr\n", res.Combined())
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	r := NewOSRunner(nil)

	res, err := r.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "exit 3"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunMissingProgram(t *testing.T) {
	r := NewOSRunner(nil)

	_, err := r.Run(context.Background(), Command{})
	assert.Error(t, err)
}

func TestRunHonorsEnvAndDir(t *testing.T) {
	r := NewOSRunner(nil)
	dir := t.TempDir()

	res, err := r.Run(context.Background(), Command{
		Program: "sh",
		Args:    []string{"-c", "echo $FIX_SCOPE; pwd"},
		Dir:     dir,
		Env:     map[string]string{"FIX_SCOPE": "lint"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "lint")
	assert.Contains(t, res.Stdout, dir)
}

func TestRunTimeout(t *testing.T) {
	r := NewOSRunner(nil)

	_, err := r.Run(context.Background(), Command{
		Program: "sleep",
		Args:    []string{"5"},
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunCancelledContext(t *testing.T) {
	r := NewOSRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, Command{Program: "sleep", Args: []string{"5"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
