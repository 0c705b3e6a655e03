package detect

import (
	"encoding/json"
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Profile is the result of inspecting a project's manifest. Profiling
// degrades gracefully: an unreadable or unrecognized manifest yields
// FrameworkUnknown with a static platform, never an error, because
// templates must still be producible.
type Profile struct {
	// Framework is the detected framework tag.
	Framework Framework

	// Platform is the rendering platform the framework requires.
	Platform Platform

	// Version is the normalized framework version ("14.2.3"), or the raw
	// manifest range when it does not parse as semver. Empty for unknown
	// frameworks.
	Version string

	// BuildCommand is the build script from the manifest, or the
	// framework's conventional default.
	BuildCommand string

	// HasAmplifyBackend reports whether the project declares Amplify Gen 2
	// backend dependencies.
	HasAmplifyBackend bool

	// Checks are the deployment prerequisite checks for the project.
	Checks PrereqChecks
}

// PrereqChecks reports the presence of files pipeline setup depends on.
type PrereqChecks struct {
	// BuildSpecPresent reports whether amplify.yml exists in the project root.
	BuildSpecPresent bool

	// LockfilePresent reports whether package-lock.json exists. Builds use
	// npm ci, which requires it.
	LockfilePresent bool

	// WorkflowFiles lists existing Amplify workflow files under
	// .github/workflows, relative to the project root.
	WorkflowFiles []string
}

// manifest is the subset of package.json the profiler reads.
type manifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

// staticExportPattern matches a Next.js static export configuration
// (output: 'export') in any next.config variant.
var staticExportPattern = regexp.MustCompile(`output\s*:\s*['"]export['"]`)

// ProfileProject inspects the project manifest at dir within fsys and
// returns the framework profile.
func ProfileProject(fsys billy.Filesystem, dir string) *Profile {
	p := &Profile{
		Framework:    FrameworkUnknown,
		Platform:     PlatformStatic,
		BuildCommand: "npm run build",
	}
	p.Checks = checkPrerequisites(fsys, dir)

	data, err := util.ReadFile(fsys, path.Join(dir, "package.json"))
	if err != nil {
		return p
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return p
	}

	deps := make(map[string]string, len(m.Dependencies)+len(m.DevDependencies))
	for k, v := range m.Dependencies {
		deps[k] = v
	}
	for k, v := range m.DevDependencies {
		deps[k] = v
	}

	p.HasAmplifyBackend = deps["@aws-amplify/backend"] != "" || deps["aws-amplify"] != ""

	framework, rawVersion, defaultBuild := classifyDependencies(deps)
	if framework == FrameworkNextSSR && hasStaticExportConfig(fsys, dir) {
		framework = FrameworkNextStatic
	}

	p.Framework = framework
	p.Platform = framework.Platform()
	p.Version = normalizeVersion(rawVersion)
	if cmd, ok := m.Scripts["build"]; ok && cmd != "" {
		p.BuildCommand = cmd
	} else if defaultBuild != "" {
		p.BuildCommand = defaultBuild
	}

	return p
}

// classifyDependencies maps manifest dependencies onto the closed framework
// set. Order matters: react-scripts projects also depend on react, and Next
// projects also depend on react, so the more specific checks come first.
func classifyDependencies(deps map[string]string) (Framework, string, string) {
	switch {
	case deps["next"] != "":
		return FrameworkNextSSR, deps["next"], "next build"
	case deps["nuxt"] != "" || deps["nuxt3"] != "":
		v := deps["nuxt"]
		if v == "" {
			v = deps["nuxt3"]
		}
		return FrameworkNuxtSSR, v, "nuxt build"
	case deps["gatsby"] != "":
		return FrameworkGatsbyStatic, deps["gatsby"], "gatsby build"
	case deps["react"] != "" && deps["react-scripts"] != "":
		return FrameworkReactSPA, deps["react"], "react-scripts build"
	case deps["vue"] != "":
		return FrameworkVueSPA, deps["vue"], "vue-cli-service build"
	case deps["@angular/core"] != "":
		return FrameworkAngularSPA, deps["@angular/core"], "ng build"
	default:
		return FrameworkUnknown, "", ""
	}
}

// hasStaticExportConfig reports whether a next.config file requests static
// export, which downgrades the platform from compute to static hosting.
func hasStaticExportConfig(fsys billy.Filesystem, dir string) bool {
	for _, name := range []string{"next.config.js", "next.config.mjs", "next.config.ts"} {
		data, err := util.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			continue
		}
		if staticExportPattern.Match(data) {
			return true
		}
	}
	return false
}

// normalizeVersion strips range operators from a manifest version and
// normalizes it through semver. Unparseable values pass through raw so the
// profile never loses information.
func normalizeVersion(raw string) string {
	if raw == "" {
		return ""
	}
	trimmed := strings.TrimLeft(raw, "^~>=< v")
	v, err := semver.NewVersion(trimmed)
	if err != nil {
		return raw
	}
	return v.String()
}

func checkPrerequisites(fsys billy.Filesystem, dir string) PrereqChecks {
	checks := PrereqChecks{
		BuildSpecPresent: fileExists(fsys, path.Join(dir, "amplify.yml")),
		LockfilePresent:  fileExists(fsys, path.Join(dir, "package-lock.json")),
	}

	workflowDir := path.Join(dir, ".github", "workflows")
	entries, err := fsys.ReadDir(workflowDir)
	if err != nil {
		return checks
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml") {
			continue
		}
		if strings.Contains(strings.ToLower(name), "amplify") {
			checks.WorkflowFiles = append(checks.WorkflowFiles, path.Join(".github", "workflows", name))
		}
	}
	return checks
}

func fileExists(fsys billy.Filesystem, name string) bool {
	_, err := fsys.Stat(name)
	return err == nil
}
