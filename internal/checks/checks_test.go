package checks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/project-checker/internal/command"
	"github.com/taigrr/project-checker/internal/osv"
	"github.com/taigrr/project-checker/internal/project"
	"github.com/taigrr/project-checker/internal/testutil"
)

type fakeRunner struct {
	calls   [][]string
	results map[string]command.Result
	err     error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (command.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.err != nil {
		return command.Result{}, f.err
	}
	return f.results[args[len(args)-1]], nil
}

type fakeDB struct {
	pkgs     []osv.Package
	findings []osv.Finding
	err      error
}

func (f *fakeDB) QueryBatch(_ context.Context, pkgs []osv.Package) ([]osv.Finding, error) {
	f.pkgs = pkgs
	return f.findings, f.err
}

func newProject(t *testing.T, files map[string]string) *project.Project {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFiles(t, root, files)
	p := &project.Project{Root: root}
	for name := range files {
		p.Files = append(p.Files, name)
	}
	// Stable order for detail assertions.
	slices.Sort(p.Files)
	return p
}

func find(t *testing.T, name string, deps Deps) Check {
	t.Helper()
	for _, c := range Default(deps) {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not registered", name)
	return Check{}
}

func TestDefault_Order(t *testing.T) {
	assert.Equal(t, []string{
		"readme",
		"trailing-whitespace",
		"tabs",
		"eof-newline",
		"bash-syntax",
		"pip-safety",
	}, Names(Default(Deps{})))
}

func TestSkip(t *testing.T) {
	all := Default(Deps{})

	kept, err := Skip(all, []string{"tabs", "pip-safety"})
	require.NoError(t, err)
	assert.Equal(t, []string{"readme", "trailing-whitespace", "eof-newline", "bash-syntax"}, Names(kept))

	kept, err = Skip(all, nil)
	require.NoError(t, err)
	assert.Len(t, kept, len(all))

	_, err = Skip(all, []string{"spelling"})
	assert.ErrorIs(t, err, ErrUnknownCheck)
}

func TestReadme(t *testing.T) {
	check := find(t, "readme", Deps{})

	t.Run("present", func(t *testing.T) {
		p := newProject(t, map[string]string{"README.md": "# hi\n"})
		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
	})

	t.Run("missing", func(t *testing.T) {
		p := newProject(t, map[string]string{"readme.txt": "hi\n"})
		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		require.NotNil(t, anomaly)
		assert.Equal(t, "Every project must include a README.md", anomaly.Title)
	})

	t.Run("directory", func(t *testing.T) {
		p := newProject(t, nil)
		require.NoError(t, os.Mkdir(filepath.Join(p.Root, "README.md"), 0o755))
		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		assert.NotNil(t, anomaly)
	})
}

func TestTrailingWhitespace(t *testing.T) {
	check := find(t, "trailing-whitespace", Deps{})

	t.Run("clean", func(t *testing.T) {
		p := newProject(t, map[string]string{"a.txt": "one\ntwo\n", "b.txt": ""})
		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
	})

	t.Run("dirty", func(t *testing.T) {
		p := newProject(t, map[string]string{
			"a.txt":     "ok\nspace \nok\n",
			"b/c.txt":   "tab\t\ncrlf\r\n",
			"image.png": "\x00 \n",
		})
		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		require.NotNil(t, anomaly)
		assert.Equal(t, "No file may have trailing whitespaces.", anomaly.Title)
		assert.Equal(t, "a.txt:2:space \nb/c.txt:1:tab\t\nb/c.txt:2:crlf\r\n", anomaly.Detail)
	})
}

func TestTabs(t *testing.T) {
	check := find(t, "tabs", Deps{})

	p := newProject(t, map[string]string{
		"Makefile":        "all:\n\techo hi\n",
		"build/rules.mk":  "x:\n\ttrue\n",
		"sub/Makefile":    "y:\n\ttrue\n",
		"src/main.py":     "def f():\n\treturn 1\n",
		"src/clean.py":    "x = 1\n",
		"Makefile.backup": "\t\n",
	})
	anomaly, err := check.Run(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, anomaly)
	assert.Equal(t, "No files may have tabs.", anomaly.Title)
	assert.Equal(t, "Makefile.backup:1:\t\nsrc/main.py:2:\treturn 1\n", anomaly.Detail)
}

func TestEOFNewline(t *testing.T) {
	check := find(t, "eof-newline", Deps{})
	assert.Contains(t, check.Description, "binary files (containing NUL) are skipped")

	t.Run("all terminated", func(t *testing.T) {
		p := newProject(t, map[string]string{"a.txt": "a\n", "empty": "", "bin": "\x00"})
		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
	})

	t.Run("missing newline", func(t *testing.T) {
		p := newProject(t, map[string]string{"a.txt": "a\n", "b.txt": "b", "c/d.txt": "d"})
		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		require.NotNil(t, anomaly)
		assert.Equal(t, "All files must end with newline.", anomaly.Title)
		assert.Equal(t, "b.txt does not contain line-break at EOF\nc/d.txt does not contain line-break at EOF\n", anomaly.Detail)
	})
}

func TestBashSyntax(t *testing.T) {
	t.Run("only shell files are checked", func(t *testing.T) {
		p := newProject(t, map[string]string{"a.sh": "echo\n", "b.py": "x\n", "scripts/c.sh": "echo\n"})
		runner := &fakeRunner{}
		check := find(t, "bash-syntax", Deps{Runner: runner})

		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
		assert.Equal(t, [][]string{
			{"bash", "-n", filepath.Join(p.Root, "a.sh")},
			{"bash", "-n", filepath.Join(p.Root, "scripts", "c.sh")},
		}, runner.calls)
	})

	t.Run("syntax error", func(t *testing.T) {
		p := newProject(t, map[string]string{"bad.sh": "if then\n", "good.sh": "echo\n"})
		bad := filepath.Join(p.Root, "bad.sh")
		runner := &fakeRunner{results: map[string]command.Result{
			bad: {ExitCode: 2, Stderr: bad + ": line 1: syntax error near unexpected token `then'\n"},
		}}
		check := find(t, "bash-syntax", Deps{Runner: runner})

		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		require.NotNil(t, anomaly)
		assert.Equal(t, "All bash files must have correct syntax.", anomaly.Title)
		assert.Contains(t, anomaly.Detail, "syntax error near unexpected token")
		assert.Equal(t, "bash -n "+bad, anomaly.Command)
	})

	t.Run("silent failure", func(t *testing.T) {
		p := newProject(t, map[string]string{"x.sh": "echo\n"})
		runner := &fakeRunner{results: map[string]command.Result{
			filepath.Join(p.Root, "x.sh"): {ExitCode: 1},
		}}
		check := find(t, "bash-syntax", Deps{Runner: runner})

		anomaly, err := check.Run(context.Background(), p)
		require.NoError(t, err)
		require.NotNil(t, anomaly)
		assert.Equal(t, "x.sh: exit status 1\n", anomaly.Detail)
	})

	t.Run("runner failure", func(t *testing.T) {
		p := newProject(t, map[string]string{"x.sh": "echo\n"})
		check := find(t, "bash-syntax", Deps{Runner: &fakeRunner{err: errors.New("bash: not found")}})

		_, err := check.Run(context.Background(), p)
		assert.Error(t, err)
	})
}

func TestBashSyntax_RealBash(t *testing.T) {
	runner := command.NewExecRunner(nil)
	if _, err := runner.Run(context.Background(), t.TempDir(), "bash", "-c", "true"); err != nil {
		t.Skip("bash not available")
	}

	p := newProject(t, map[string]string{"ok.sh": "echo hi\n", "broken.sh": "if true; then\n"})
	check := find(t, "bash-syntax", Deps{Runner: runner})

	anomaly, err := check.Run(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, anomaly)
	assert.True(t, strings.Contains(anomaly.Command, "broken.sh"))
	assert.False(t, strings.Contains(anomaly.Command, "ok.sh"))
}

func TestPipSafety(t *testing.T) {
	t.Run("no requirements file", func(t *testing.T) {
		db := &fakeDB{}
		p := newProject(t, map[string]string{"setup.py": "x\n"})
		anomaly, err := find(t, "pip-safety", Deps{Vulns: db}).Run(context.Background(), p)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
		assert.Nil(t, db.pkgs)
	})

	t.Run("excluded requirements file", func(t *testing.T) {
		db := &fakeDB{}
		p := newProject(t, map[string]string{"requirements.txt": "jinja2==2.4.1\n"})
		p.Files = nil
		anomaly, err := find(t, "pip-safety", Deps{Vulns: db}).Run(context.Background(), p)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
	})

	t.Run("safe", func(t *testing.T) {
		db := &fakeDB{}
		p := newProject(t, map[string]string{"requirements.txt": "click==8.1.7\n"})
		anomaly, err := find(t, "pip-safety", Deps{Vulns: db}).Run(context.Background(), p)
		require.NoError(t, err)
		assert.Nil(t, anomaly)
		assert.Equal(t, []osv.Package{{Name: "click", Version: "8.1.7", Ecosystem: osv.EcosystemPyPI}}, db.pkgs)
	})

	t.Run("vulnerable", func(t *testing.T) {
		db := &fakeDB{findings: []osv.Finding{{
			Package:         osv.Package{Name: "jinja2", Version: "2.4.1", Ecosystem: osv.EcosystemPyPI},
			Vulnerabilities: []osv.Vulnerability{{ID: "GHSA-462w-v97r-4m45"}},
		}}}
		p := newProject(t, map[string]string{"requirements.txt": "jinja2==2.4.1\n"})
		anomaly, err := find(t, "pip-safety", Deps{Vulns: db}).Run(context.Background(), p)
		require.NoError(t, err)
		require.NotNil(t, anomaly)
		assert.Equal(t, "Vulnerable package(s) in requirements.txt", anomaly.Title)
		assert.Contains(t, anomaly.Detail, `"id": "GHSA-462w-v97r-4m45"`)
	})

	t.Run("lookup failure", func(t *testing.T) {
		db := &fakeDB{err: errors.New("offline")}
		p := newProject(t, map[string]string{"requirements.txt": "jinja2==2.4.1\n"})
		_, err := find(t, "pip-safety", Deps{Vulns: db}).Run(context.Background(), p)
		assert.Error(t, err)
	})
}
