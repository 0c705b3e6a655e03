// Package amplify provides functional options for configuring the control
// plane client.
package amplify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go"
)

// Retryer decides whether and when failed control plane calls are retried.
// Implementations must be safe for concurrent use.
type Retryer interface {
	// MaxAttempts returns the maximum number of attempts including the first.
	MaxAttempts() int

	// RetryDelay returns the delay before the given attempt number.
	RetryDelay(attempt int, err error) time.Duration

	// IsErrorRetryable determines if the given error should be retried.
	IsErrorRetryable(error) bool
}

// BackoffRetryer implements Retryer with exponential backoff and jitter.
// All fields are immutable after construction, so the value is safe for
// concurrent use.
type BackoffRetryer struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewBackoffRetryer creates a retryer with the given attempt budget and
// delay bounds.
func NewBackoffRetryer(maxAttempts int, baseDelay, maxDelay time.Duration) *BackoffRetryer {
	return &BackoffRetryer{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
}

// MaxAttempts returns the maximum number of attempts including the first.
func (r *BackoffRetryer) MaxAttempts() int {
	return r.maxAttempts
}

// RetryDelay returns the backoff delay for the given attempt, with ±25%
// jitter to avoid thundering herds against the control plane.
func (r *BackoffRetryer) RetryDelay(attempt int, _ error) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * r.baseDelay

	jitterRange := int64(float64(delay) * 0.25)
	if jitterRange > 0 {
		delay += time.Duration(rand.Int63n(2*jitterRange) - jitterRange)
	}

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	if delay < 0 {
		delay = 0
	}
	return delay
}

// IsErrorRetryable reports whether the error is a transient control plane
// failure. Throttling-class API errors retry; permission and validation
// errors never do, and neither do context cancellations.
func (r *BackoffRetryer) IsErrorRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException",
			"LimitExceededException",
			"TooManyRequestsException",
			"InternalFailureException":
			return true
		case "AccessDeniedException",
			"UnauthorizedException",
			"BadRequestException",
			"NotFoundException":
			return false
		}
	}

	return false
}

// options holds the configurable pieces of a Client.
type options struct {
	logger  *slog.Logger
	retryer Retryer
	region  string
	awsCfg  *aws.Config
}

// Option configures a Client during construction.
type Option func(*options)

// defaultOptions returns the baseline configuration: a discard logger and a
// three-attempt backoff retryer.
func defaultOptions() *options {
	return &options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		retryer: NewBackoffRetryer(3, 200*time.Millisecond, 5*time.Second),
	}
}

// WithLogger sets the structured logger used for operation logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRetryer sets a custom retryer for control plane calls.
func WithRetryer(r Retryer) Option {
	return func(o *options) {
		if r != nil {
			o.retryer = r
		}
	}
}

// WithRegion overrides the AWS region.
func WithRegion(region string) Option {
	return func(o *options) {
		o.region = region
	}
}

// WithConfig supplies a pre-built AWS configuration instead of loading the
// default credential chain. Useful for tests and custom endpoints.
func WithConfig(cfg aws.Config) Option {
	return func(o *options) {
		o.awsCfg = &cfg
	}
}
