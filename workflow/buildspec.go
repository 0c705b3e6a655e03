package workflow

import (
	"github.com/Paretofilm/amplify-pipeline-mcp/detect"
	"gopkg.in/yaml.v3"
)

// buildSpec models amplify.yml. Field order matches the conventional
// layout of Amplify console-generated specs; yaml.v3 preserves struct
// field order, which keeps rendering deterministic.
type buildSpec struct {
	Version  string        `yaml:"version"`
	Backend  *backendSpec  `yaml:"backend,omitempty"`
	Frontend *frontendSpec `yaml:"frontend"`
}

type backendSpec struct {
	Phases phaseSpec `yaml:"phases"`
}

type frontendSpec struct {
	Phases    phaseSpec    `yaml:"phases"`
	Artifacts artifactSpec `yaml:"artifacts"`
	Cache     cacheSpec    `yaml:"cache"`
}

type phaseSpec struct {
	PreBuild *commandList `yaml:"preBuild,omitempty"`
	Build    *commandList `yaml:"build"`
}

type commandList struct {
	Commands []string `yaml:"commands"`
}

type artifactSpec struct {
	BaseDirectory string   `yaml:"baseDirectory"`
	Files         []string `yaml:"files"`
}

type cacheSpec struct {
	Paths []string `yaml:"paths"`
}

// ArtifactDir maps a framework to its build output directory.
func ArtifactDir(f detect.Framework) string {
	switch f {
	case detect.FrameworkNextSSR:
		return ".next"
	case detect.FrameworkNextStatic:
		return "out"
	case detect.FrameworkReactSPA:
		return "build"
	case detect.FrameworkGatsbyStatic:
		return "public"
	case detect.FrameworkNuxtSSR:
		return ".output"
	default:
		return "dist"
	}
}

// renderBuildSpec produces the amplify.yml content for the given
// parameters.
func renderBuildSpec(p Params) ([]byte, error) {
	spec := buildSpec{
		Version: "1.0",
		Frontend: &frontendSpec{
			Phases: phaseSpec{
				PreBuild: &commandList{Commands: []string{"npm ci"}},
				Build:    &commandList{Commands: []string{p.BuildCommand}},
			},
			Artifacts: artifactSpec{
				BaseDirectory: ArtifactDir(p.Framework),
				Files:         []string{"**/*"},
			},
			Cache: cacheSpec{
				Paths: []string{"node_modules/**/*", ".npm/**/*"},
			},
		},
	}
	if p.HasAmplifyBackend {
		spec.Backend = &backendSpec{
			Phases: phaseSpec{
				Build: &commandList{Commands: []string{
					"npm ci",
					"npx ampx pipeline-deploy --branch $AWS_BRANCH --app-id $AWS_APP_ID",
				}},
			},
		}
	}
	return yaml.Marshal(&spec)
}
