package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

type CheckResult struct {
	Name        string   `json:"name" bson:"name"`
	Severity    string   `json:"severity" bson:"severity"`
	Description string   `json:"description" bson:"description"`
	Count       int      `json:"count" bson:"count"`
	Samples     []string `json:"samples" bson:"samples"`
	Error       string   `json:"error,omitempty" bson:"error,omitempty"`
}

type ValidationReport struct {
	RunID       string        `json:"run_id" bson:"run_id"`
	RunAt       time.Time     `json:"run_at" bson:"run_at"`
	Checks      []CheckResult `json:"checks" bson:"checks"`
	TotalIssues int           `json:"total_issues" bson:"total_issues"`
	Passed      bool          `json:"passed" bson:"passed"`
	ExpiresAt   time.Time     `json:"-" bson:"expires_at"`
}

// Summary renders the report as plain text for logs and the CLI.
func (r *ValidationReport) Summary() string {
	var b strings.Builder
	status := "PASSED"
	if !r.Passed {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "validation %s at %s: %s, %d issue(s)\n", r.RunID, r.RunAt.Format(time.RFC3339), status, r.TotalIssues)
	for _, c := range r.Checks {
		mark := "ok"
		switch {
		case c.Error != "":
			mark = "ERR"
		case c.Count > 0 && c.Severity == SeverityError:
			mark = "FAIL"
		case c.Count > 0:
			mark = "WARN"
		}
		fmt.Fprintf(&b, "  [%s] %-24s %6d  %s", mark, c.Name, c.Count, c.Description)
		if c.Error != "" {
			fmt.Fprintf(&b, " (%s)", c.Error)
		}
		if len(c.Samples) > 0 {
			fmt.Fprintf(&b, " e.g. %s", strings.Join(c.Samples, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
