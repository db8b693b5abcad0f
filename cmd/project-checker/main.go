// Package main implements the project-checker command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/project-checker/internal/osv"
	"github.com/taigrr/project-checker/internal/runner"
	"github.com/taigrr/project-checker/internal/tap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(
		ctx,
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutManpage(),
	); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project-checker [project-dir]",
		Short: "Check a git project for basic syntax and style issues",
		Long: `project-checker runs a fixed battery of checks against the files git
tracks in a project: README presence, trailing whitespace, tabs,
missing newline at end of file, bash syntax and vulnerable pinned
pip requirements. Results are printed as a TAP report and the exit
status is non-zero when any check fails.`,
		Example: `project-checker .
project-checker ~/src/app --exclude 'vendor/*' --exclude '*.png'
project-checker --skip pip-safety`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runCheck,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringArray("exclude", nil, "exclude tracked paths matching a shell glob, e.g. 'foo/*.jpg' ('*' also matches '/'); repeatable")
	flags.StringSlice("skip", nil, "skip checks by name; see 'project-checker checks'")
	flags.String("config", "", "config file (default <project-dir>/.project-checker.yaml)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("osv-url", osv.DefaultURL, "base URL of the OSV vulnerability API")
	flags.Duration("timeout", 5*time.Minute, "abort the run after this long")

	cmd.AddCommand(newChecksCmd(), newServeCmd())
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	p, err := a.load(ctx, nil)
	if err != nil {
		tap.NewWriter(out).BailOut(err.Error())
		return err
	}

	reporter := runner.NewTAPReporter(out)
	summary, err := a.run(ctx, p, reporter)
	if err != nil {
		return err
	}
	if err := reporter.Err(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !summary.OK() {
		return fmt.Errorf("%d of %d checks failed", summary.Failed, summary.Passed+summary.Failed)
	}
	return nil
}
