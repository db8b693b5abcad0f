// Package types defines the data structures shared across project-checker.
package types

import "strings"

type (
	// Anomaly describes why a check failed.
	Anomaly struct {
		Title   string `json:"title" yaml:"message"`
		Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
		Command string `json:"command,omitempty" yaml:"command,omitempty"`
	}

	// CheckResult is the outcome of one check. Anomaly is nil on success.
	CheckResult struct {
		Name    string   `json:"name"`
		Passed  bool     `json:"passed"`
		Anomaly *Anomaly `json:"anomaly,omitempty"`
	}
)

// Error renders the anomaly as title, detail and command separated by blank lines.
func (a *Anomaly) Error() string {
	parts := []string{a.Title}
	if a.Detail != "" {
		parts = append(parts, strings.TrimRight(a.Detail, "\n"))
	}
	if a.Command != "" {
		parts = append(parts, a.Command)
	}
	return strings.Join(parts, "\n\n")
}
