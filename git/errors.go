package git

import (
	"errors"
	"fmt"
)

// Sentinel errors for repository operations. Check with errors.Is().

// ErrNotARepository is returned when the target directory has no git
// repository.
var ErrNotARepository = errors.New("not a git repository")

// ErrDetachedHead is returned when an operation needs a branch but HEAD
// does not point at one.
var ErrDetachedHead = errors.New("HEAD is not on a branch")

// ErrNothingToCommit is returned when a commit is requested with a clean
// worktree.
var ErrNothingToCommit = errors.New("nothing to commit")

// ErrAlreadyUpToDate is returned when a push results in no changes.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrInvalidMessage is returned when a commit message does not parse as a
// conventional commit.
var ErrInvalidMessage = errors.New("invalid commit message")

// WrapError wraps err with a contextual message while preserving the
// error chain for errors.Is checks.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps err with a formatted contextual message.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
