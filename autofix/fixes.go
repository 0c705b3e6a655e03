package autofix

import (
	"github.com/Paretofilm/amplify-pipeline-mcp/executor"
	"github.com/Paretofilm/amplify-pipeline-mcp/monitor"
)

// Fix is one automated remedy for a failure category.
type Fix struct {
	// Name identifies the fix in reports and commit messages.
	Name string

	// Category is the failure category this fix remedies.
	Category monitor.FailureCategory

	// Scope is the conventional commit scope for the fix commit.
	Scope string

	// Description becomes the fix commit subject.
	Description string

	// Commands are run in order. A non-zero exit does not abort the
	// fix: tools like eslint exit non-zero when unfixable problems
	// remain, yet the fixable ones were still written.
	Commands []executor.Command

	// Preflight marks fixes safe to run before a deploy, without any
	// failure to react to.
	Preflight bool
}

// Registry maps failure categories to fixes.
type Registry struct {
	fixes map[monitor.FailureCategory]Fix
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{fixes: make(map[monitor.FailureCategory]Fix)}
}

// Register adds or replaces the fix for its category.
func (r *Registry) Register(f Fix) {
	r.fixes[f.Category] = f
}

// Lookup returns the fix for a category.
func (r *Registry) Lookup(category monitor.FailureCategory) (Fix, bool) {
	f, ok := r.fixes[category]
	return f, ok
}

// Preflight returns the fixes safe to run proactively, in a stable
// order.
func (r *Registry) Preflight() []Fix {
	order := []monitor.FailureCategory{
		monitor.CategoryLint,
		monitor.CategoryFormat,
		monitor.CategorySecurity,
	}
	out := make([]Fix, 0, len(order))
	for _, cat := range order {
		if f, ok := r.fixes[cat]; ok && f.Preflight {
			out = append(out, f)
		}
	}
	return out
}

// DefaultRegistry builds the standard fix set for a project. The appID
// and branch parameterize backend output generation.
func DefaultRegistry(appID, branch, projectDir string) *Registry {
	r := NewRegistry()
	r.Register(Fix{
		Name:        "regenerate-package-lock",
		Category:    monitor.CategoryDependency,
		Scope:       "deps",
		Description: "regenerate package-lock.json",
		Commands: []executor.Command{
			{Program: "npm", Args: []string{"install"}, Dir: projectDir},
		},
	})
	r.Register(Fix{
		Name:        "check-typescript",
		Category:    monitor.CategoryType,
		Scope:       "types",
		Description: "surface typescript errors",
		Commands: []executor.Command{
			{Program: "npx", Args: []string{"tsc", "--noEmit"}, Dir: projectDir},
		},
	})
	r.Register(Fix{
		Name:        "fix-lint",
		Category:    monitor.CategoryLint,
		Scope:       "lint",
		Description: "apply eslint fixes",
		Commands: []executor.Command{
			{Program: "npx", Args: []string{"eslint", ".", "--fix"}, Dir: projectDir},
		},
		Preflight: true,
	})
	r.Register(Fix{
		Name:        "fix-format",
		Category:    monitor.CategoryFormat,
		Scope:       "format",
		Description: "apply prettier formatting",
		Commands: []executor.Command{
			{Program: "npx", Args: []string{"prettier", "--write", "."}, Dir: projectDir},
		},
		Preflight: true,
	})
	r.Register(Fix{
		Name:        "generate-outputs",
		Category:    monitor.CategoryMissingConfig,
		Scope:       "amplify",
		Description: "generate amplify outputs",
		Commands: []executor.Command{
			{Program: "npx", Args: []string{
				"ampx", "generate", "outputs",
				"--branch", branch, "--app-id", appID,
			}, Dir: projectDir},
		},
	})
	r.Register(Fix{
		Name:        "audit-fix",
		Category:    monitor.CategorySecurity,
		Scope:       "deps",
		Description: "fix vulnerable dependencies",
		Commands: []executor.Command{
			{Program: "npm", Args: []string{"audit", "fix"}, Dir: projectDir},
		},
		Preflight: true,
	})
	return r
}
