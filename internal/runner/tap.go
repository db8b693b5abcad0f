package runner

import (
	"fmt"
	"io"

	"github.com/taigrr/project-checker/internal/tap"
	"github.com/taigrr/project-checker/internal/types"
)

// TAPReporter renders results as a TAP 13 stream.
type TAPReporter struct {
	w *tap.Writer
}

// NewTAPReporter creates a TAPReporter writing to w.
func NewTAPReporter(w io.Writer) *TAPReporter {
	return &TAPReporter{w: tap.NewWriter(w)}
}

// Start writes the plan.
func (t *TAPReporter) Start(total int) {
	t.w.Plan(total)
}

// Result writes one test point.
func (t *TAPReporter) Result(n int, result types.CheckResult) {
	if result.Passed {
		t.w.Ok(n, result.Name)
		return
	}
	t.w.NotOk(n, result.Name, result.Anomaly)
}

// Finish writes a closing comment.
func (t *TAPReporter) Finish(summary Summary) {
	t.w.Comment(fmt.Sprintf("%d of %d checks passed", summary.Passed, summary.Passed+summary.Failed))
}

// Err returns the first write error.
func (t *TAPReporter) Err() error {
	return t.w.Err()
}
