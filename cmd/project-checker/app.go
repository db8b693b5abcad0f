package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/taigrr/project-checker/internal/checks"
	"github.com/taigrr/project-checker/internal/command"
	"github.com/taigrr/project-checker/internal/config"
	"github.com/taigrr/project-checker/internal/osv"
	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/runner"
	"github.com/taigrr/project-checker/internal/types"
	"github.com/taigrr/project-checker/internal/vcs"
)

// app wires the services for one invocation.
type app struct {
	cfg    types.Config
	logger *log.Logger
	lister project.Lister
	deps   checks.Deps
}

func newApp(cmd *cobra.Command, args []string) (*app, error) {
	opts := config.Options{Flags: cmd.Flags()}
	if len(args) > 0 {
		opts.Dir = args[0]
	}
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	opts.File = file

	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:  level,
		Prefix: "project-checker",
	})

	deps := checks.Deps{
		Runner: command.NewExecRunner(logger),
		Vulns:  osv.NewClient(cfg.OSVURL, nil, logger),
		Logger: logger,
	}
	if _, err := checks.Skip(checks.Default(deps), cfg.Skip); err != nil {
		return nil, err
	}

	logger.Debug("configuration loaded", "dir", cfg.ProjectDir, "exclude", cfg.Exclude, "skip", cfg.Skip)
	return &app{
		cfg:    cfg,
		logger: logger,
		lister: vcs.New(logger),
		deps:   deps,
	}, nil
}

// load lists and filters the project's tracked files. extra patterns are
// applied on top of the configured ones.
func (a *app) load(ctx context.Context, extra []string) (*project.Project, error) {
	excludes := append(slices.Clone(a.cfg.Exclude), extra...)
	p, invalid, err := project.Load(ctx, a.cfg.ProjectDir, a.lister, excludes)
	if err != nil {
		return nil, err
	}
	for _, pattern := range invalid {
		a.logger.Warn("ignoring malformed exclude pattern", "pattern", pattern)
	}
	a.logger.Info("loaded project", "root", p.Root, "files", len(p.Files))
	return p, nil
}

// run executes the configured checks, minus any named in skip, against p.
func (a *app) run(ctx context.Context, p *project.Project, reporter runner.Reporter, skip ...string) (runner.Summary, error) {
	selected, err := checks.Skip(checks.Default(a.deps), append(slices.Clone(a.cfg.Skip), skip...))
	if err != nil {
		return runner.Summary{}, err
	}
	return runner.New(selected, reporter, a.logger).Run(ctx, p), nil
}
