// Package monitor watches Amplify build jobs and classifies failures
// into fixable categories. Classification drives the recovery loop: a
// recognized category maps to a concrete fix, anything else escalates.
package monitor

import "regexp"

// FailureCategory labels a recognized build failure cause.
type FailureCategory string

const (
	// CategoryDependency covers package-lock drift and npm ci failures.
	CategoryDependency FailureCategory = "dependency"

	// CategoryType covers TypeScript compilation errors.
	CategoryType FailureCategory = "type"

	// CategoryLint covers ESLint and parsing errors.
	CategoryLint FailureCategory = "lint"

	// CategoryFormat covers code style violations.
	CategoryFormat FailureCategory = "format"

	// CategoryMissingConfig covers a missing amplify_outputs.json.
	CategoryMissingConfig FailureCategory = "missing-config"

	// CategorySecurity covers dependency audit failures.
	CategorySecurity FailureCategory = "security"

	// CategoryBuild covers generic build command failures.
	CategoryBuild FailureCategory = "build"

	// CategoryWrongMode means a manual deployment was attempted against a
	// repository-connected app. Not fixable by changing code: the
	// pipeline topology itself is wrong.
	CategoryWrongMode FailureCategory = "wrong-deployment-mode"

	// CategoryUnclassified means no pattern matched.
	CategoryUnclassified FailureCategory = "unclassified"
)

// Classification is the outcome of scanning build output.
type Classification struct {
	Category    FailureCategory
	Description string

	// Fixable reports whether an automated fix exists for the category.
	Fixable bool
}

type rule struct {
	category    FailureCategory
	pattern     *regexp.Regexp
	description string
	fixable     bool
}

// Rule order matters: specific causes are matched before the generic
// build failure catch-all.
var rules = []rule{
	{
		category:    CategoryWrongMode,
		pattern:     regexp.MustCompile(`(?i)Operation not supported.*repository|BadRequestException.*CreateDeployment`),
		description: "manual deployment attempted against a repository-connected app",
		fixable:     false,
	},
	{
		category:    CategoryDependency,
		pattern:     regexp.MustCompile(`(?i)npm ci.*failed|npm ERR!.*package-lock\.json`),
		description: "package lock file out of sync",
		fixable:     true,
	},
	{
		category:    CategoryType,
		pattern:     regexp.MustCompile(`(?i)TypeScript error|TS\d{4}:|type.*error`),
		description: "TypeScript compilation errors",
		fixable:     true,
	},
	{
		category:    CategoryLint,
		pattern:     regexp.MustCompile(`(?i)ESLint.*error|Parsing error:|Linting failed`),
		description: "lint errors",
		fixable:     true,
	},
	{
		category:    CategoryFormat,
		pattern:     regexp.MustCompile(`(?i)Prettier|Code style issues found`),
		description: "formatting violations",
		fixable:     true,
	},
	{
		category:    CategoryMissingConfig,
		pattern:     regexp.MustCompile(`(?i)amplify_outputs\.json.*not found|Cannot find.*amplify_outputs`),
		description: "missing amplify_outputs.json",
		fixable:     true,
	},
	{
		category:    CategorySecurity,
		pattern:     regexp.MustCompile(`(?i)\d+ (high|critical) severity vulnerabilit|npm audit fix`),
		description: "vulnerable dependencies",
		fixable:     true,
	},
	{
		category:    CategoryBuild,
		pattern:     regexp.MustCompile(`(?i)npm run build.*failed|Build failed|next build.*error`),
		description: "build command failed",
		fixable:     false,
	},
}

// Classify scans build output against the failure rules and returns the
// first matching category, or CategoryUnclassified.
func Classify(output string) Classification {
	for _, r := range rules {
		if r.pattern.MatchString(output) {
			return Classification{
				Category:    r.category,
				Description: r.description,
				Fixable:     r.fixable,
			}
		}
	}
	return Classification{
		Category:    CategoryUnclassified,
		Description: "no known failure pattern matched",
	}
}
