// Package command runs external programs for checks that shell out.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Result captures the outcome of a finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns stdout followed by stderr.
func (r Result) Output() string {
	return r.Stdout + r.Stderr
}

// Runner runs a program in dir. A non-zero exit status is reported through
// Result.ExitCode; the error is reserved for processes that could not run.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) (Result, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	logger *log.Logger
}

// NewExecRunner creates a Runner that executes real processes.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ExecRunner{logger: logger.WithPrefix("command")}
}

// Run executes name with args and waits for it to exit.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running", "cmd", Line(name, args...), "dir", dir)
	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s: %w", name, ctxErr)
		}
		return result, fmt.Errorf("failed to run %s: %w", name, err)
	}

	return result, nil
}

// Line renders a command for display, quoting arguments that contain spaces.
func Line(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	for _, s := range append([]string{name}, args...) {
		if s == "" || strings.ContainsAny(s, " \t\n'\"") {
			s = "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
