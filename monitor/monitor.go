package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// Jobs is the read surface the watcher needs. *amplify.Client
// satisfies it.
type Jobs interface {
	LatestJob(ctx context.Context, appID, branch string) (*amplify.JobSummary, error)
	FindJobByCommit(ctx context.Context, appID, branch, commitSHA string) (*amplify.JobSummary, error)
	JobDetail(ctx context.Context, appID, branch, jobID string) (*amplify.JobDetail, error)
}

// LogFetcher retrieves build logs from a step's log URL.
type LogFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPLogFetcher fetches logs over HTTP. Amplify log URLs are
// pre-signed, so no credentials are attached.
type HTTPLogFetcher struct {
	Client *http.Client
}

// maxLogBytes caps how much of a build log is read for classification.
const maxLogBytes = 1 << 20

// Fetch downloads the log at url.
func (f *HTTPLogFetcher) Fetch(ctx context.Context, url string) (string, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("could not build log request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("could not fetch build log: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("build log request returned %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogBytes))
	if err != nil {
		return "", fmt.Errorf("could not read build log: %w", err)
	}
	return string(data), nil
}

// BuildResult is the outcome of watching one build job to completion.
type BuildResult struct {
	JobID    string
	CommitID string
	Status   amplify.JobStatus

	// FailedStep names the step that failed, empty on success.
	FailedStep string

	// Classification is meaningful only when Status is JobFailed.
	Classification Classification

	// LogExcerpt holds the tail of the failing step's log.
	LogExcerpt string
}

// Succeeded reports whether the build completed successfully.
func (r *BuildResult) Succeeded() bool {
	return r.Status == amplify.JobSucceeded
}

// Watcher polls build jobs until they reach a terminal state.
type Watcher struct {
	jobs     Jobs
	logs     LogFetcher
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithPollInterval sets the poll interval. Default 15s.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.interval = d }
}

// WithTimeout sets the overall watch timeout. Default 30m.
func WithTimeout(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.timeout = d }
}

// WithLogFetcher replaces the log fetcher.
func WithLogFetcher(f LogFetcher) WatcherOption {
	return func(w *Watcher) { w.logs = f }
}

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) { w.logger = logger }
}

// NewWatcher creates a Watcher over the given job source.
func NewWatcher(jobs Jobs, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		jobs:     jobs,
		logs:     &HTTPLogFetcher{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		interval: 15 * time.Second,
		timeout:  30 * time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AwaitJob polls the job until it reaches a terminal state and returns
// the classified result. Failed jobs get their failing step's log
// fetched and scanned; when the log is unreachable the step's status
// reason is classified instead.
func (w *Watcher) AwaitJob(ctx context.Context, appID, branch, jobID string) (*BuildResult, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		detail, err := w.jobs.JobDetail(ctx, appID, branch, jobID)
		if err != nil {
			return nil, errors.WrapWithContext(err, errors.CodeControlPlane,
				"could not read job status", map[string]any{
					"app_id": appID,
					"branch": branch,
					"job_id": jobID,
				})
		}

		if detail.Summary.Status.Terminal() {
			return w.buildResult(ctx, detail), nil
		}

		w.logger.Debug("build in progress",
			"job_id", jobID, "status", detail.Summary.Status)

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), errors.CodeTimeout, "build did not finish in time")
		case <-ticker.C:
		}
	}
}

// AwaitCommit locates the job building the given commit and awaits it.
func (w *Watcher) AwaitCommit(ctx context.Context, appID, branch, commitSHA string) (*BuildResult, error) {
	summary, err := w.jobs.FindJobByCommit(ctx, appID, branch, commitSHA)
	if err != nil {
		return nil, err
	}
	return w.AwaitJob(ctx, appID, branch, summary.JobID)
}

func (w *Watcher) buildResult(ctx context.Context, detail *amplify.JobDetail) *BuildResult {
	result := &BuildResult{
		JobID:    detail.Summary.JobID,
		CommitID: detail.Summary.CommitID,
		Status:   detail.Summary.Status,
	}
	if result.Succeeded() {
		w.logger.Info("build succeeded", "job_id", result.JobID)
		return result
	}

	step := detail.FailedStep()
	if step == nil {
		result.Classification = Classify("")
		return result
	}
	result.FailedStep = step.Name

	output := step.StatusReason
	if step.LogURL != "" {
		if logs, err := w.logs.Fetch(ctx, step.LogURL); err == nil {
			output = logs
		} else {
			w.logger.Warn("could not fetch build log, classifying status reason",
				"job_id", result.JobID, "error", err)
		}
	}

	result.Classification = Classify(output)
	result.LogExcerpt = tail(output, 4000)

	w.logger.Info("build failed",
		"job_id", result.JobID, "step", step.Name,
		"category", result.Classification.Category)
	return result
}

// tail returns the last n bytes of s, trimmed to a line boundary.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[len(s)-n:]
	if idx := strings.IndexByte(cut, '\n'); idx >= 0 && idx+1 < len(cut) {
		cut = cut[idx+1:]
	}
	return cut
}
