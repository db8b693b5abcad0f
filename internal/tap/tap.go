// Package tap writes Test Anything Protocol (version 13) reports.
package tap

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Writer emits TAP lines. The first write error is kept and later writes
// become no-ops; check it with Err.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a Writer on w and emits the version header.
func NewWriter(w io.Writer) *Writer {
	t := &Writer{w: w}
	t.printf("TAP version 13\n")
	return t
}

// Plan announces the number of test points.
func (t *Writer) Plan(n int) {
	t.printf("1..%d\n", n)
}

// Ok records a passing test point.
func (t *Writer) Ok(n int, name string) {
	t.printf("ok %d - %s\n", n, name)
}

// NotOk records a failing test point followed by a YAML diagnostic block
// built from diag, which may be nil.
func (t *Writer) NotOk(n int, name string, diag any) {
	t.printf("not ok %d - %s\n", n, name)
	if diag == nil {
		return
	}

	doc, err := encodeDiagnostic(diag)
	if err != nil {
		t.Comment(fmt.Sprintf("failed to encode diagnostics: %v", err))
		return
	}

	t.printf("  ---\n")
	for line := range strings.SplitSeq(strings.TrimRight(doc, "\n"), "\n") {
		t.printf("  %s\n", line)
	}
	t.printf("  ...\n")
}

func encodeDiagnostic(diag any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(diag); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Comment writes each line of msg as a TAP comment.
func (t *Writer) Comment(msg string) {
	for line := range strings.SplitSeq(strings.TrimRight(msg, "\n"), "\n") {
		t.printf("# %s\n", line)
	}
}

// BailOut aborts the report.
func (t *Writer) BailOut(reason string) {
	t.printf("Bail out! %s\n", reason)
}

// Err returns the first write error.
func (t *Writer) Err() error {
	return t.err
}

func (t *Writer) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}
