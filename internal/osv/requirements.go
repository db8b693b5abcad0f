package osv

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"path"
	"regexp"
	"strings"
)

var (
	requirementPattern = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[[^\]]*\])?\s*(.*)$`)
	separatorPattern   = regexp.MustCompile(`[-_.]+`)
	includePattern     = regexp.MustCompile(`^(?:-r|--requirement)(?:\s+|=)(\S+)`)
)

// NormalizeName returns the canonical form of a Python package name.
func NormalizeName(name string) string {
	return strings.ToLower(separatorPattern.ReplaceAllString(name, "-"))
}

// ParseRequirements reads a pip requirements file and returns the packages
// pinned to an exact version. Unpinned, URL and editable requirements are
// ignored since they cannot be looked up by version. Include directives are
// not followed; see ParseRequirementsFS.
func ParseRequirements(r io.Reader) ([]Package, error) {
	pkgs, _, err := parse(r)
	return pkgs, err
}

// ParseRequirementsFS parses name from fsys and follows -r includes, which
// are resolved relative to the including file.
func ParseRequirementsFS(fsys fs.FS, name string) ([]Package, error) {
	return parseFS(fsys, name, map[string]bool{})
}

func parseFS(fsys fs.FS, name string, seen map[string]bool) ([]Package, error) {
	if seen[name] {
		return nil, nil
	}
	seen[name] = true

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	pkgs, includes, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	for _, include := range includes {
		target := path.Join(path.Dir(name), include)
		if !fs.ValidPath(target) {
			return nil, fmt.Errorf("%s: include %q leaves the project", name, include)
		}
		more, err := parseFS(fsys, target, seen)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, more...)
	}
	return pkgs, nil
}

func parse(r io.Reader) (pkgs []Package, includes []string, err error) {
	scanner := bufio.NewScanner(r)
	var pending string
	for scanner.Scan() {
		line := pending + scanner.Text()
		if strings.HasSuffix(line, `\`) {
			pending = strings.TrimSuffix(line, `\`)
			continue
		}
		pending = ""

		line = stripComment(line)
		if line == "" {
			continue
		}
		if m := includePattern.FindStringSubmatch(line); m != nil {
			includes = append(includes, m[1])
			continue
		}
		if pkg, ok := parseLine(line); ok {
			pkgs = append(pkgs, pkg)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if line := stripComment(pending); line != "" {
		if pkg, ok := parseLine(line); ok {
			pkgs = append(pkgs, pkg)
		}
	}
	return pkgs, includes, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i == 0 {
		return ""
	} else if i > 0 && (line[i-1] == ' ' || line[i-1] == '\t') {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func parseLine(line string) (Package, bool) {
	if strings.HasPrefix(line, "-") || strings.Contains(line, "://") || strings.HasPrefix(line, ".") || strings.HasPrefix(line, "/") {
		return Package{}, false
	}
	// Per-requirement options such as --hash follow the specifier.
	if i := strings.Index(line, " --"); i >= 0 {
		line = line[:i]
	}
	// Environment markers.
	if i := strings.Index(line, ";"); i >= 0 {
		line = line[:i]
	}
	if strings.Contains(line, "@") {
		return Package{}, false
	}

	m := requirementPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Package{}, false
	}

	var version string
	for specifier := range strings.SplitSeq(m[2], ",") {
		specifier = strings.TrimSpace(specifier)
		v, ok := strings.CutPrefix(specifier, "===")
		if !ok {
			v, ok = strings.CutPrefix(specifier, "==")
		}
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		if v == "" || strings.Contains(v, "*") {
			return Package{}, false
		}
		version = v
	}
	if version == "" {
		return Package{}, false
	}

	return Package{Name: NormalizeName(m[1]), Version: version, Ecosystem: EcosystemPyPI}, true
}
