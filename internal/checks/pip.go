package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/taigrr/project-checker/internal/osv"
	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/types"
)

const requirementsFile = "requirements.txt"

func pipSafety(db VulnerabilityDB, logger *log.Logger) RunFunc {
	return func(ctx context.Context, p *project.Project) (*types.Anomaly, error) {
		if !p.Has(requirementsFile) {
			return nil, nil
		}
		if db == nil {
			return nil, fmt.Errorf("no vulnerability database configured")
		}

		pkgs, err := osv.ParseRequirementsFS(os.DirFS(p.Root), requirementsFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("checking pinned requirements", "count", len(pkgs))

		findings, err := db.QueryBatch(ctx, pkgs)
		if err != nil {
			return nil, fmt.Errorf("vulnerability lookup failed: %w", err)
		}
		if len(findings) == 0 {
			return nil, nil
		}

		detail, err := json.MarshalIndent(findings, "", "    ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode findings: %w", err)
		}
		return &types.Anomaly{
			Title:  "Vulnerable package(s) in requirements.txt",
			Detail: string(detail),
		}, nil
	}
}
