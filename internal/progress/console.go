package progress

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/namnv2496/gameforge/internal/model"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#2C4A54")
)

type styles struct {
	title, success, warning, failure, muted lipgloss.Style
}

// Console prints human-readable progress. Colours are used only when out is
// a terminal.
type Console struct {
	out    io.Writer
	styles styles
	// diagLines bounds how much of a diagnostic is echoed.
	diagLines int
}

func NewConsole(out io.Writer) *Console {
	plain := lipgloss.NewStyle()
	s := styles{title: plain, success: plain, warning: plain, failure: plain, muted: plain}
	if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		s = styles{
			title:   lipgloss.NewStyle().Bold(true),
			success: lipgloss.NewStyle().Foreground(colorSuccess).Bold(true),
			warning: lipgloss.NewStyle().Foreground(colorWarning),
			failure: lipgloss.NewStyle().Foreground(colorError).Bold(true),
			muted:   lipgloss.NewStyle().Foreground(colorMuted),
		}
	}
	return &Console{out: out, styles: s, diagLines: 8}
}

func (c *Console) Report(ev model.Event) {
	switch ev.Kind {
	case model.EventRunStarted:
		c.line(c.styles.title, "Run %s started", ev.RunID)
	case model.EventGenerated:
		c.line(c.styles.muted, "%s", ev.Message)
	case model.EventAttemptStarted:
		c.line(c.styles.title, "\n--- Attempt %d/%d ---", ev.Attempt, ev.MaxAttempts)
	case model.EventCheckPassed:
		c.line(c.styles.success, "[%s] passed (%s)", ev.Stage, ev.Message)
	case model.EventCheckFailed:
		c.line(c.styles.failure, "[%s] failed (%s)", ev.Stage, ev.Message)
		c.diagnostic(ev.Diagnostic)
	case model.EventRepairing:
		c.line(c.styles.warning, "[%s] repairing the program...", ev.Stage)
	case model.EventRepairFailed:
		c.line(c.styles.failure, "repair failed: %s", ev.Message)
	case model.EventSucceeded:
		c.line(c.styles.success, "\nThe game passed every check on attempt %d. Artifact: %s", ev.Attempt, ev.Artifact)
	case model.EventExhausted:
		c.line(c.styles.failure, "\nAutomatic repair gave up after %d attempts. Please inspect %s and fix it by hand.", ev.Attempt, ev.Artifact)
	case model.EventAborted:
		c.line(c.styles.failure, "Run aborted: %s", ev.Message)
	}
}

func (c *Console) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(c.out, style.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) diagnostic(diag string) {
	lines := strings.Split(strings.TrimRight(diag, "\n"), "\n")
	if len(lines) > c.diagLines {
		lines = append([]string{"..."}, lines[len(lines)-c.diagLines:]...)
	}
	for _, l := range lines {
		c.line(c.styles.muted, "    %s", l)
	}
}
