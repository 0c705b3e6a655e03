package detect

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fsys billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fsys, name, []byte(content), 0o644))
}

func TestProfileProject(t *testing.T) {
	tests := []struct {
		name          string
		setup         func(t *testing.T, fsys billy.Filesystem)
		wantFramework Framework
		wantPlatform  Platform
		wantVersion   string
		wantBuild     string
		wantBackend   bool
	}{
		{
			name: "next ssr",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"next": "^14.2.3", "react": "^18.3.0"},
					"scripts": {"build": "next build"}
				}`)
			},
			wantFramework: FrameworkNextSSR,
			wantPlatform:  PlatformServerRendered,
			wantVersion:   "14.2.3",
			wantBuild:     "next build",
		},
		{
			name: "next static export",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"next": "14.1.0"}
				}`)
				writeFile(t, fsys, "next.config.mjs", `
					const nextConfig = { output: 'export' };
					export default nextConfig;
				`)
			},
			wantFramework: FrameworkNextStatic,
			wantPlatform:  PlatformStatic,
			wantVersion:   "14.1.0",
			wantBuild:     "next build",
		},
		{
			name: "react spa",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"react": "^18.2.0"},
					"devDependencies": {"react-scripts": "5.0.1"}
				}`)
			},
			wantFramework: FrameworkReactSPA,
			wantPlatform:  PlatformStatic,
			wantVersion:   "18.2.0",
			wantBuild:     "react-scripts build",
		},
		{
			name: "vue spa",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"vue": "~3.4.21"}
				}`)
			},
			wantFramework: FrameworkVueSPA,
			wantPlatform:  PlatformStatic,
			wantVersion:   "3.4.21",
			wantBuild:     "vue-cli-service build",
		},
		{
			name: "angular spa",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"@angular/core": ">=17.0.0"}
				}`)
			},
			wantFramework: FrameworkAngularSPA,
			wantPlatform:  PlatformStatic,
			wantVersion:   "17.0.0",
			wantBuild:     "ng build",
		},
		{
			name: "gatsby static",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"gatsby": "^5.13.0", "react": "^18.2.0"}
				}`)
			},
			wantFramework: FrameworkGatsbyStatic,
			wantPlatform:  PlatformStatic,
			wantVersion:   "5.13.0",
			wantBuild:     "gatsby build",
		},
		{
			name: "nuxt ssr",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"nuxt": "^3.11.2"}
				}`)
			},
			wantFramework: FrameworkNuxtSSR,
			wantPlatform:  PlatformServerRendered,
			wantVersion:   "3.11.2",
			wantBuild:     "nuxt build",
		},
		{
			name: "amplify backend detected",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"next": "^14.0.0"},
					"devDependencies": {"@aws-amplify/backend": "^1.0.0"}
				}`)
			},
			wantFramework: FrameworkNextSSR,
			wantPlatform:  PlatformServerRendered,
			wantVersion:   "14.0.0",
			wantBuild:     "next build",
			wantBackend:   true,
		},
		{
			name: "custom build script wins",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"next": "^14.0.0"},
					"scripts": {"build": "next build && npm run postprocess"}
				}`)
			},
			wantFramework: FrameworkNextSSR,
			wantPlatform:  PlatformServerRendered,
			wantVersion:   "14.0.0",
			wantBuild:     "next build && npm run postprocess",
		},
		{
			name:          "missing manifest degrades to unknown",
			setup:         func(t *testing.T, fsys billy.Filesystem) {},
			wantFramework: FrameworkUnknown,
			wantPlatform:  PlatformStatic,
			wantBuild:     "npm run build",
		},
		{
			name: "malformed manifest degrades to unknown",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{"dependencies": [`)
			},
			wantFramework: FrameworkUnknown,
			wantPlatform:  PlatformStatic,
			wantBuild:     "npm run build",
		},
		{
			name: "unrecognized dependencies degrade to unknown",
			setup: func(t *testing.T, fsys billy.Filesystem) {
				writeFile(t, fsys, "package.json", `{
					"dependencies": {"svelte": "^4.0.0"}
				}`)
			},
			wantFramework: FrameworkUnknown,
			wantPlatform:  PlatformStatic,
			wantBuild:     "npm run build",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := memfs.New()
			tt.setup(t, fsys)

			p := ProfileProject(fsys, ".")
			require.NotNil(t, p)
			assert.Equal(t, tt.wantFramework, p.Framework)
			assert.Equal(t, tt.wantPlatform, p.Platform)
			assert.Equal(t, tt.wantVersion, p.Version)
			assert.Equal(t, tt.wantBuild, p.BuildCommand)
			assert.Equal(t, tt.wantBackend, p.HasAmplifyBackend)
		})
	}
}

func TestProfileProjectPrerequisites(t *testing.T) {
	fsys := memfs.New()
	writeFile(t, fsys, "package.json", `{"dependencies": {"next": "^14.0.0"}}`)
	writeFile(t, fsys, "amplify.yml", "version: 1\n")
	writeFile(t, fsys, "package-lock.json", "{}")
	writeFile(t, fsys, ".github/workflows/amplify-deploy.yml", "name: deploy\n")
	writeFile(t, fsys, ".github/workflows/release.yml", "name: release\n")

	p := ProfileProject(fsys, ".")
	assert.True(t, p.Checks.BuildSpecPresent)
	assert.True(t, p.Checks.LockfilePresent)
	assert.Equal(t, []string{".github/workflows/amplify-deploy.yml"}, p.Checks.WorkflowFiles)
}

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"^14.2.3", "14.2.3"},
		{"~3.4.21", "3.4.21"},
		{">=17.0.0", "17.0.0"},
		{"v5.13.0", "5.13.0"},
		{"14", "14.0.0"},
		{"workspace:*", "workspace:*"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeVersion(tt.raw), "raw %q", tt.raw)
	}
}
