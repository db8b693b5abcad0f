package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/taigrr/project-checker/internal/command"
	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/types"
)

func bashSyntax(runner command.Runner) RunFunc {
	return func(ctx context.Context, p *project.Project) (*types.Anomaly, error) {
		if runner == nil {
			return nil, fmt.Errorf("no command runner configured")
		}

		var detail, commands strings.Builder
		for _, name := range p.Files {
			if !strings.HasSuffix(name, ".sh") {
				continue
			}
			fullPath, err := p.Resolve(name)
			if err != nil {
				return nil, err
			}

			res, err := runner.Run(ctx, p.Root, "bash", "-n", fullPath)
			if err != nil {
				return nil, fmt.Errorf("bash -n %s: %w", name, err)
			}
			if res.ExitCode == 0 {
				continue
			}

			out := strings.TrimRight(res.Output(), "\n")
			if out == "" {
				out = fmt.Sprintf("%s: exit status %d", name, res.ExitCode)
			}
			detail.WriteString(out)
			detail.WriteByte('\n')
			commands.WriteString(command.Line("bash", "-n", fullPath))
			commands.WriteByte('\n')
		}

		if commands.Len() == 0 {
			return nil, nil
		}
		return &types.Anomaly{
			Title:   "All bash files must have correct syntax.",
			Detail:  detail.String(),
			Command: strings.TrimSuffix(commands.String(), "\n"),
		}, nil
	}
}
