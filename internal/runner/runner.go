// Package runner executes an ordered list of checks against a project.
package runner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/taigrr/project-checker/internal/checks"
	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/types"
)

// Reporter receives results as checks finish.
type Reporter interface {
	Start(total int)
	Result(n int, result types.CheckResult)
	Finish(summary Summary)
}

// Summary aggregates the outcome of a run.
type Summary struct {
	Results []types.CheckResult `json:"results"`
	Passed  int                 `json:"passed"`
	Failed  int                 `json:"failed"`
}

// OK reports whether every check passed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Runner runs checks sequentially in registry order.
type Runner struct {
	checks   []checks.Check
	reporter Reporter
	logger   *log.Logger
}

// New creates a Runner. reporter may be nil.
func New(cs []checks.Check, reporter Reporter, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		checks:   cs,
		reporter: reporter,
		logger:   logger.WithPrefix("runner"),
	}
}

// Run executes every check against p. A check that errors, panics or is
// reached after ctx is done counts as failed; the run itself never aborts.
func (r *Runner) Run(ctx context.Context, p *project.Project) Summary {
	summary := Summary{Results: make([]types.CheckResult, 0, len(r.checks))}
	if r.reporter != nil {
		r.reporter.Start(len(r.checks))
	}

	for i, check := range r.checks {
		start := time.Now()
		anomaly := r.runOne(ctx, check, p)
		result := types.CheckResult{Name: check.Name, Passed: anomaly == nil, Anomaly: anomaly}

		if result.Passed {
			summary.Passed++
			r.logger.Info("check passed", "check", check.Name, "took", time.Since(start))
		} else {
			summary.Failed++
			r.logger.Info("check failed", "check", check.Name, "reason", anomaly.Title, "took", time.Since(start))
		}
		summary.Results = append(summary.Results, result)

		if r.reporter != nil {
			r.reporter.Result(i+1, result)
		}
	}

	if r.reporter != nil {
		r.reporter.Finish(summary)
	}
	return summary
}

func (r *Runner) runOne(ctx context.Context, check checks.Check, p *project.Project) (anomaly *types.Anomaly) {
	if err := ctx.Err(); err != nil {
		return &types.Anomaly{Title: "check cancelled", Detail: err.Error()}
	}

	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("check panicked", "check", check.Name, "panic", v)
			anomaly = &types.Anomaly{Title: "check panicked", Detail: fmt.Sprint(v)}
		}
	}()

	anomaly, err := check.Run(ctx, p)
	if err != nil {
		r.logger.Error("check could not run", "check", check.Name, "err", err)
		return &types.Anomaly{Title: "check could not run", Detail: err.Error()}
	}
	return anomaly
}
