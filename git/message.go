package git

import (
	"fmt"
	"strings"

	"github.com/leodido/go-conventionalcommits"
	"github.com/leodido/go-conventionalcommits/parser"
)

// Markers appended to automated fix commits. SkipCIMarker keeps the fix
// commit from retriggering the pipeline that produced it; the retry
// marker records which recovery attempt a commit belongs to.
const (
	SkipCIMarker      = "[skip ci]"
	RetryMarkerPrefix = "[auto-fix-attempt:"
)

// FixCommitMessage builds a conventional commit message for an automated
// fix. Attempt 0 is a preflight commit and carries the skip marker so CI
// does not re-trigger on it; attempts 1 and up are reactive fixes and
// carry the retry marker instead, because their push is what triggers
// the retry build. The assembled message is validated against the
// conventional commit grammar before it is returned.
func FixCommitMessage(scope, description string, attempt int) (string, error) {
	if description == "" {
		return "", WrapError(ErrInvalidMessage, "description is required")
	}
	subject := "fix"
	if scope != "" {
		subject += "(" + scope + ")"
	}
	marker := SkipCIMarker
	if attempt > 0 {
		marker = fmt.Sprintf("%s%d]", RetryMarkerPrefix, attempt)
	}
	msg := fmt.Sprintf("%s: %s %s", subject, description, marker)

	if err := validateMessage(msg); err != nil {
		return "", err
	}
	return msg, nil
}

// validateMessage parses msg with the conventional commit grammar.
func validateMessage(msg string) error {
	m := parser.NewMachine(conventionalcommits.WithTypes(conventionalcommits.TypesConventional))
	if _, err := m.Parse([]byte(msg)); err != nil {
		return WrapErrorf(ErrInvalidMessage, "%v", err)
	}
	return nil
}

// RetryAttemptOf extracts the retry attempt number from a fix commit
// message. Returns 0 and false when the message carries no retry marker.
func RetryAttemptOf(message string) (int, bool) {
	idx := strings.Index(message, RetryMarkerPrefix)
	if idx < 0 {
		return 0, false
	}
	rest := message[idx+len(RetryMarkerPrefix):]
	end := strings.Index(rest, "]")
	if end < 0 {
		return 0, false
	}
	var attempt int
	if _, err := fmt.Sscanf(rest[:end], "%d", &attempt); err != nil {
		return 0, false
	}
	return attempt, true
}

// IsAutomatedFix reports whether a commit message was produced by the
// fix loop, preflight or reactive.
func IsAutomatedFix(message string) bool {
	return strings.Contains(message, SkipCIMarker) || strings.Contains(message, RetryMarkerPrefix)
}
