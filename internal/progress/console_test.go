package progress

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/namnv2496/gameforge/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestConsole_PlainOutputForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Report(model.Event{Kind: model.EventAttemptStarted, Attempt: 2, MaxAttempts: 3})
	c.Report(model.Event{Kind: model.EventExhausted, Attempt: 3, Artifact: "dest/generated_app.py"})

	out := buf.String()
	assert.Contains(t, out, "--- Attempt 2/3 ---")
	assert.Contains(t, out, "inspect dest/generated_app.py")
	assert.NotContains(t, out, "\x1b[", "no ANSI escapes when not a terminal")
}

func TestConsole_TruncatesDiagnostic(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, fmt.Sprintf("frame %d", i))
	}
	var buf bytes.Buffer
	NewConsole(&buf).Report(model.Event{Kind: model.EventCheckFailed, Stage: model.StageBasic, Diagnostic: strings.Join(lines, "\n")})

	out := buf.String()
	assert.Contains(t, out, "frame 19")
	assert.NotContains(t, out, "frame 5\n")
	assert.Contains(t, out, "...")
}

func TestMulti_SkipsNil(t *testing.T) {
	var got []model.EventKind
	m := Multi{nil, ReporterFunc(func(ev model.Event) { got = append(got, ev.Kind) })}
	m.Report(model.Event{Kind: model.EventRunStarted})
	assert.Equal(t, []model.EventKind{model.EventRunStarted}, got)
}
