package detect

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

// ControlPlane is the control plane surface the mode detector consumes.
// *amplify.Client satisfies it; tests substitute a mock.
type ControlPlane interface {
	DescribeApplication(ctx context.Context, appID, branch string) (*amplify.ApplicationInfo, error)
}

// ModeDetector classifies applications as repository-connected or manual.
// Classification is pure: it reads platform metadata and never mutates
// platform state.
type ModeDetector struct {
	cp     ControlPlane
	logger *slog.Logger
}

// NewModeDetector creates a detector over the given control plane.
// A nil logger disables logging.
func NewModeDetector(cp ControlPlane, logger *slog.Logger) *ModeDetector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ModeDetector{cp: cp, logger: logger}
}

// Detect resolves the deployment mode for an application branch.
//
// The decision is binary and total: an active repository linkage with a
// queryable auto-build flag classifies as repository-connected; no linkage
// classifies as manual. A linkage whose auto-build flag cannot be read is
// indeterminate and returns a detection error rather than a guessed mode,
// since a wrong guess wires the wrong trigger topology.
func (d *ModeDetector) Detect(ctx context.Context, appID, branch string) (DeploymentMode, error) {
	info, err := d.cp.DescribeApplication(ctx, appID, branch)
	if err != nil {
		return "", errors.WrapWithContext(err, errors.CodeDetectionFailed,
			"could not classify deployment mode", map[string]any{
				"app_id": appID,
				"branch": branch,
			})
	}
	return d.classify(info)
}

// Describe assembles the full application descriptor for one setup
// session: mode from the control plane, framework and platform from the
// project tree at dir.
func (d *ModeDetector) Describe(ctx context.Context, fsys billy.Filesystem, dir, appID, branch string) (*AppDescriptor, *Profile, error) {
	info, err := d.cp.DescribeApplication(ctx, appID, branch)
	if err != nil {
		return nil, nil, errors.WrapWithContext(err, errors.CodeDetectionFailed,
			"could not classify deployment mode", map[string]any{
				"app_id": appID,
				"branch": branch,
			})
	}
	mode, err := d.classify(info)
	if err != nil {
		return nil, nil, err
	}

	profile := ProfileProject(fsys, dir)
	return &AppDescriptor{
		AppID:         appID,
		RepositoryURL: info.RepositoryURL,
		Branch:        branch,
		Framework:     profile.Framework,
		Platform:      profile.Platform,
		Mode:          mode,
	}, profile, nil
}

func (d *ModeDetector) classify(info *amplify.ApplicationInfo) (DeploymentMode, error) {
	if info.RepositoryURL == "" {
		d.logger.Info("deployment mode detected",
			"app_id", info.AppID, "branch", info.BranchName, "mode", ModeManual)
		return ModeManual, nil
	}

	// Linked app: the auto-build flag must be readable to prove the linkage
	// is active. A nil flag means branch metadata was unavailable, which is
	// indeterminate, not manual.
	if info.AutoBuild == nil {
		return "", errors.Newf(errors.CodeDetectionFailed,
			"app %s is linked to %s but the auto-build flag for branch %s is not queryable",
			info.AppID, info.RepositoryURL, info.BranchName)
	}

	d.logger.Info("deployment mode detected",
		"app_id", info.AppID, "branch", info.BranchName,
		"mode", ModeRepositoryConnected, "auto_build", *info.AutoBuild)
	return ModeRepositoryConnected, nil
}
