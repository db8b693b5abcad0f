package tap

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/project-checker/internal/types"
)

func TestWriter_Report(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Plan(3)
	w.Ok(1, "readme")
	w.NotOk(2, "eof-newline", &types.Anomaly{
		Title:  "All files must end with newline.",
		Detail: "a.txt does not contain line-break at EOF\n",
	})
	w.NotOk(3, "tabs", nil)
	w.Comment("1 of 3 checks passed")

	want := `TAP version 13
1..3
ok 1 - readme
not ok 2 - eof-newline
  ---
  message: All files must end with newline.
  detail: |
    a.txt does not contain line-break at EOF
  ...
not ok 3 - tabs
# 1 of 3 checks passed
`
	assert.Equal(t, want, buf.String())
	assert.NoError(t, w.Err())
}

func TestWriter_DiagnosticIsValidYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	anomaly := &types.Anomaly{
		Title:   "All bash files must have correct syntax.",
		Detail:  "x.sh: line 3: syntax error: unexpected end of file\n",
		Command: "bash -n /p/x.sh",
	}
	w.NotOk(1, "bash-syntax", anomaly)

	lines := bytes.Split(buf.Bytes(), []byte("\n"))
	var block bytes.Buffer
	inBlock := false
	for _, line := range lines {
		switch string(bytes.TrimSpace(line)) {
		case "---":
			inBlock = true
			continue
		case "...":
			inBlock = false
			continue
		}
		if inBlock {
			block.Write(bytes.TrimPrefix(line, []byte("  ")))
			block.WriteByte('\n')
		}
	}

	var got types.Anomaly
	assert.NoError(t, yaml.Unmarshal(block.Bytes(), &got))
	assert.Equal(t, *anomaly, got)
}

func TestWriter_Comment(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{w: &buf}
	w.Comment("line one\nline two\n")
	assert.Equal(t, "# line one\n# line two\n", buf.String())
}

func TestWriter_BailOut(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{w: &buf}
	w.BailOut("not a git repository")
	assert.Equal(t, "Bail out! not a git repository\n", buf.String())
}

type failingWriter struct{ n int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errors.New("closed pipe")
}

func TestWriter_StopsAfterError(t *testing.T) {
	fw := &failingWriter{}
	w := NewWriter(fw)
	w.Plan(1)
	w.Ok(1, "readme")

	assert.Error(t, w.Err())
	assert.Equal(t, 1, fw.n)
}

type unencodable struct{}

func (unencodable) MarshalYAML() (any, error) {
	return nil, errors.New("no yaml form")
}

func TestWriter_DiagnosticEncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	w := &Writer{w: &buf}
	w.NotOk(2, "tabs", unencodable{})

	want := "not ok 2 - tabs\n# failed to encode diagnostics: no yaml form\n"
	assert.Equal(t, want, buf.String())
	assert.NoError(t, w.Err())
}
