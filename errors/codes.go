// Package errors provides the error handling foundation for the amplify
// pipeline tooling. It extends Go's standard error handling with structured
// error codes and context-preserving wrap helpers so that callers can react
// programmatically to failure classes without parsing message strings.
package errors

// ErrorCode identifies a specific failure class in the pipeline tooling.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Pipeline setup errors.

	// CodeDetectionFailed indicates the deployment mode of an application
	// could not be classified. Proceeding with a guessed mode risks wiring
	// the wrong trigger topology, so this is always fatal to setup.
	CodeDetectionFailed ErrorCode = "DETECTION_FAILED"

	// CodeTemplateMissing indicates no workflow template exists for a
	// (mode, platform) matrix cell. This is a programming error, not a
	// recoverable runtime condition.
	CodeTemplateMissing ErrorCode = "TEMPLATE_MISSING"

	// CodePersistFailed indicates a generated artifact could not be written
	// to durable storage. Fatal to setup; never retried here.
	CodePersistFailed ErrorCode = "PERSIST_FAILED"

	// Control plane errors.

	// CodeControlPlane indicates a hosting platform API call failed.
	CodeControlPlane ErrorCode = "CONTROL_PLANE_ERROR"

	// CodeThrottled indicates the control plane rejected a call because the
	// request rate limit was exceeded.
	CodeThrottled ErrorCode = "THROTTLED"

	// Recovery loop errors.

	// CodeFixNotApplicable indicates the reactive fix phase found no repair
	// matching the failure category. This triggers escalation rather than
	// surfacing as a crash.
	CodeFixNotApplicable ErrorCode = "FIX_NOT_APPLICABLE"

	// CodeLoopGuard indicates the same loop-guard token recurred. Always
	// escalates; never silently retried further.
	CodeLoopGuard ErrorCode = "LOOP_GUARD_TRIGGERED"

	// CodeRetryExhausted indicates the retry budget was consumed without a
	// successful build.
	CodeRetryExhausted ErrorCode = "RETRY_EXHAUSTED"

	// General errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
