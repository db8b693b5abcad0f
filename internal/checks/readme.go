package checks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/types"
)

func checkReadme(_ context.Context, p *project.Project) (*types.Anomaly, error) {
	info, err := os.Stat(filepath.Join(p.Root, "README.md"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &types.Anomaly{Title: "Every project must include a README.md"}, nil
	case err != nil:
		return nil, fmt.Errorf("failed to stat README.md: %w", err)
	case !info.Mode().IsRegular():
		return &types.Anomaly{
			Title:  "Every project must include a README.md",
			Detail: "README.md is not a regular file",
		}, nil
	}
	return nil, nil
}
