package detect

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	apperrors "github.com/Paretofilm/amplify-pipeline-mcp/errors"
)

type mockControlPlane struct {
	describeFunc func(ctx context.Context, appID, branch string) (*amplify.ApplicationInfo, error)
}

func (m *mockControlPlane) DescribeApplication(ctx context.Context, appID, branch string) (*amplify.ApplicationInfo, error) {
	return m.describeFunc(ctx, appID, branch)
}

func boolPtr(b bool) *bool { return &b }

func TestModeDetectorDetect(t *testing.T) {
	tests := []struct {
		name     string
		info     *amplify.ApplicationInfo
		err      error
		wantMode DeploymentMode
		wantErr  bool
		wantCode apperrors.ErrorCode
	}{
		{
			name: "repository linked with auto-build",
			info: &amplify.ApplicationInfo{
				AppID:         "d1abc",
				BranchName:    "main",
				RepositoryURL: "https://github.com/acme/site",
				AutoBuild:     boolPtr(true),
				BranchExists:  true,
			},
			wantMode: ModeRepositoryConnected,
		},
		{
			name: "repository linked with auto-build disabled",
			info: &amplify.ApplicationInfo{
				AppID:         "d1abc",
				BranchName:    "main",
				RepositoryURL: "https://github.com/acme/site",
				AutoBuild:     boolPtr(false),
				BranchExists:  true,
			},
			wantMode: ModeRepositoryConnected,
		},
		{
			name: "no repository linkage",
			info: &amplify.ApplicationInfo{
				AppID:        "d1abc",
				BranchName:   "main",
				BranchExists: true,
			},
			wantMode: ModeManual,
		},
		{
			name: "linkage present but auto-build indeterminate",
			info: &amplify.ApplicationInfo{
				AppID:         "d1abc",
				BranchName:    "main",
				RepositoryURL: "https://github.com/acme/site",
				BranchExists:  false,
			},
			wantErr:  true,
			wantCode: apperrors.CodeDetectionFailed,
		},
		{
			name:     "control plane error",
			err:      apperrors.New(apperrors.CodeControlPlane, "get app failed"),
			wantErr:  true,
			wantCode: apperrors.CodeDetectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := &mockControlPlane{
				describeFunc: func(ctx context.Context, appID, branch string) (*amplify.ApplicationInfo, error) {
					return tt.info, tt.err
				},
			}
			d := NewModeDetector(cp, nil)

			mode, err := d.Detect(context.Background(), "d1abc", "main")
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, mode)
			assert.True(t, mode.Valid())
		})
	}
}

func TestModeDetectorDescribe(t *testing.T) {
	fsys := memfs.New()
	writeFile(t, fsys, "package.json", `{
		"dependencies": {"next": "^14.2.0"},
		"scripts": {"build": "next build"}
	}`)

	cp := &mockControlPlane{
		describeFunc: func(ctx context.Context, appID, branch string) (*amplify.ApplicationInfo, error) {
			return &amplify.ApplicationInfo{
				AppID:         appID,
				BranchName:    branch,
				RepositoryURL: "https://github.com/acme/site",
				AutoBuild:     boolPtr(true),
				BranchExists:  true,
			}, nil
		},
	}

	app, profile, err := NewModeDetector(cp, nil).Describe(context.Background(), fsys, ".", "d1abc", "main")
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "d1abc", app.AppID)
	assert.Equal(t, "main", app.Branch)
	assert.Equal(t, "https://github.com/acme/site", app.RepositoryURL)
	assert.Equal(t, ModeRepositoryConnected, app.Mode)
	assert.Equal(t, FrameworkNextSSR, app.Framework)
	assert.Equal(t, PlatformServerRendered, app.Platform)
	assert.Equal(t, profile.Framework, app.Framework)
}

func TestDeploymentModeValid(t *testing.T) {
	assert.True(t, ModeRepositoryConnected.Valid())
	assert.True(t, ModeManual.Valid())
	assert.False(t, DeploymentMode("hybrid").Valid())
	assert.False(t, DeploymentMode("").Valid())
}
