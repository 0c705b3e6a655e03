// Package workflow generates CI pipeline templates for Amplify
// applications. Generation is deterministic: identical parameters always
// produce byte-identical artifacts, so regenerating over an unchanged
// project is a no-op at the content level.
package workflow

import (
	"fmt"

	"github.com/Paretofilm/amplify-pipeline-mcp/detect"
)

// Params are the inputs to template generation. AppID, Branch, Region,
// Mode, and Platform are required; the rest default sensibly.
type Params struct {
	// AppID is the Amplify application identifier.
	AppID string

	// Branch is the deployment branch.
	Branch string

	// Region is the AWS region the application lives in.
	Region string

	// Framework is the detected frontend framework.
	Framework detect.Framework

	// Platform is the rendering platform for the framework.
	Platform detect.Platform

	// Mode selects the pipeline topology.
	Mode detect.DeploymentMode

	// BuildCommand is the project build command. Defaults to "npm run build".
	BuildCommand string

	// HasAmplifyBackend enables backend output generation steps when the
	// project declares Amplify Gen 2 backend dependencies.
	HasAmplifyBackend bool

	// NodeVersion is the Node.js version for CI runners. Defaults to "20".
	NodeVersion string

	// WebhookURL is the recorded deployment webhook for the branch. When
	// set, the manual-mode workflow triggers the frontend build through
	// it; when empty, the workflow falls back to a direct archive
	// deployment.
	WebhookURL string
}

// Validate reports whether the parameters can select and fill a template.
func (p *Params) Validate() error {
	if p.AppID == "" {
		return fmt.Errorf("app id is required")
	}
	if p.Branch == "" {
		return fmt.Errorf("branch is required")
	}
	if p.Region == "" {
		return fmt.Errorf("region is required")
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("invalid deployment mode %q", p.Mode)
	}
	switch p.Platform {
	case detect.PlatformServerRendered, detect.PlatformStatic:
	default:
		return fmt.Errorf("invalid platform %q", p.Platform)
	}
	return nil
}

// Artifact is a single generated file, with a path relative to the
// project root.
type Artifact struct {
	Path    string
	Content []byte
}

// Plan is the full set of artifacts generated for one application branch.
type Plan struct {
	// Deploy is the primary deployment workflow.
	Deploy Artifact

	// AutoFix is the failure-recovery companion workflow.
	AutoFix Artifact

	// BuildSpec is the Amplify build specification (amplify.yml).
	BuildSpec Artifact
}

// Artifacts returns the plan's artifacts in write order.
func (p *Plan) Artifacts() []Artifact {
	return []Artifact{p.Deploy, p.AutoFix, p.BuildSpec}
}

// TemplateSelectionError reports a (mode, platform) pair with no template.
// The matrix is closed: every valid pair has a cell, so this error
// indicates invalid input rather than a gap.
type TemplateSelectionError struct {
	Mode     detect.DeploymentMode
	Platform detect.Platform
}

func (e *TemplateSelectionError) Error() string {
	return fmt.Sprintf("no pipeline template for mode %q on platform %q", e.Mode, e.Platform)
}
