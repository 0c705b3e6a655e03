package amplify

import "time"

// ApplicationInfo is the merged app/branch description the mode detector
// consumes. It is a plain value so callers never touch SDK types directly.
type ApplicationInfo struct {
	// AppID is the Amplify application identifier.
	AppID string

	// BranchName is the branch the description was resolved for.
	BranchName string

	// RepositoryURL is the linked source repository, empty when the app has
	// no repository linkage.
	RepositoryURL string

	// AutoBuild reports the branch auto-build flag. Nil when the flag could
	// not be read (for example the branch does not exist yet); the mode
	// detector treats nil combined with a repository linkage as indeterminate.
	AutoBuild *bool

	// FrameworkTag is the framework string reported by the platform, if any.
	FrameworkTag string

	// Platform is the hosting platform's rendering target
	// ("WEB" for static, "WEB_COMPUTE" for server-rendered).
	Platform string

	// BranchExists reports whether branch-level metadata was available.
	// When false, the description degraded to app-level data only.
	BranchExists bool

	// Stage is the branch stage (PRODUCTION, BETA, ...), empty when the
	// branch does not exist.
	Stage string
}

// Webhook describes an incoming build trigger created on the control plane.
type Webhook struct {
	ID        string
	URL       string
	AppID     string
	Branch    string
	CreatedAt time.Time
}

// DeploymentTarget is the upload destination CreateDeployment hands out
// for a manual deployment: the job the archive belongs to and the
// pre-signed URL it must be PUT to.
type DeploymentTarget struct {
	JobID     string
	UploadURL string
}

// JobStatus is the lifecycle status of an Amplify build job.
type JobStatus string

const (
	JobPending      JobStatus = "PENDING"
	JobProvisioning JobStatus = "PROVISIONING"
	JobRunning      JobStatus = "RUNNING"
	JobSucceeded    JobStatus = "SUCCEED"
	JobFailed       JobStatus = "FAILED"
	JobCancelled    JobStatus = "CANCELLED"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed || s == JobCancelled
}

// JobSummary is a condensed view of a build job.
type JobSummary struct {
	JobID    string
	CommitID string
	Status   JobStatus
	Started  time.Time
	Ended    time.Time
}

// StepResult describes one step of a build job.
type StepResult struct {
	Name         string
	Status       JobStatus
	StatusReason string
	LogURL       string
	ArtifactsURL string
}

// JobDetail is a full build job description including step results.
type JobDetail struct {
	Summary JobSummary
	Steps   []StepResult
}

// FailedStep returns the first failed step, or nil if none failed.
func (j *JobDetail) FailedStep() *StepResult {
	for i := range j.Steps {
		if j.Steps[i].Status == JobFailed {
			return &j.Steps[i]
		}
	}
	return nil
}

// AppArtifactURL returns the deployed artifact URL from the DEPLOY step,
// or empty if the job has no deploy artifacts.
func (j *JobDetail) AppArtifactURL() string {
	for _, s := range j.Steps {
		if s.Name == "DEPLOY" {
			return s.ArtifactsURL
		}
	}
	return ""
}
