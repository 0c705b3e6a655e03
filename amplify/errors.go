package amplify

import (
	"errors"
	"fmt"
)

// Sentinel errors for control plane operations. All can be checked with
// errors.Is() while wrapped with additional context.

// ErrAppNotFound is returned when the application identifier does not
// resolve to an Amplify app.
var ErrAppNotFound = errors.New("application not found")

// ErrBranchNotFound is returned when branch-level metadata is requested for
// a branch the application does not have.
var ErrBranchNotFound = errors.New("branch not found")

// ErrJobNotFound is returned when no build job matches the requested
// identifier or commit.
var ErrJobNotFound = errors.New("job not found")

// wrapErr wraps an error with additional context while preserving the
// ability to check against sentinel errors using errors.Is().
func wrapErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// wrapErrf wraps an error with formatted context.
func wrapErrf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
