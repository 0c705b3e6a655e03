package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Paretofilm/amplify-pipeline-mcp/amplify"
	"github.com/Paretofilm/amplify-pipeline-mcp/autofix"
	"github.com/Paretofilm/amplify-pipeline-mcp/monitor"
)

func TestPrintReportEscalated(t *testing.T) {
	report := &autofix.Report{
		Final:    autofix.StateEscalated,
		Attempts: 1,
		Applied:  []string{"fix-lint"},
		Reason:   "retry budget of 1 exhausted",
		LastBuild: &monitor.BuildResult{
			JobID:  "42",
			Status: amplify.JobFailed,
			Classification: monitor.Classification{
				Category: monitor.CategoryType,
			},
			LogExcerpt: "src/app.ts(12,3): error TS2322: Type 'string' is not assignable",
		},
	}

	var buf bytes.Buffer
	printReport(&buf, report)

	out := buf.String()
	assert.Contains(t, out, "Outcome:  escalated")
	assert.Contains(t, out, "Reason:   retry budget of 1 exhausted")
	assert.Contains(t, out, "Category: type")
	assert.Contains(t, out, "error TS2322")
}

func TestPrintReportResolvedOmitsDiagnostics(t *testing.T) {
	report := &autofix.Report{
		Final:    autofix.StateResolved,
		Attempts: 1,
		Applied:  []string{"fix-lint"},
		LastBuild: &monitor.BuildResult{
			JobID:  "43",
			Status: amplify.JobSucceeded,
		},
	}

	var buf bytes.Buffer
	printReport(&buf, report)

	out := buf.String()
	assert.Contains(t, out, "Outcome:  resolved")
	assert.Contains(t, out, "Applied:  fix-lint")
	assert.NotContains(t, out, "Category:")
	assert.NotContains(t, out, "Diagnostic:")
}
