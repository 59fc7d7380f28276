package job_executor

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/namnv2496/gameforge/internal/model"
	"golang.org/x/text/encoding/unicode"
)

// SilentCrash is reported when a failed program wrote nothing at all.
const SilentCrash = "Unknown error: the program crashed without writing any error output (silent crash)."

// Job describes one launch of a program.
type Job struct {
	Script  string
	WorkDir string
	Timeout time.Duration
	Env     []string
}

// JobExecutorOutput is the raw result of a launch. Err is set only for
// host-side failures (LaunchError, Cancelled).
type JobExecutorOutput struct {
	Status   model.ExecutionStatus
	ExitCode int
	RunTime  time.Duration
	Stdout   string
	Stderr   string
	Err      error
}

type JobExecutor interface {
	Execute(ctx context.Context, job Job) JobExecutorOutput
}

// UTF8Env forces UTF-8 text I/O in the child interpreter.
var UTF8Env = []string{"PYTHONIOENCODING=utf-8", "PYTHONUTF8=1"}

// DecodeOutput turns captured bytes into text, replacing invalid sequences
// instead of failing.
func DecodeOutput(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// Tail returns at most the last n characters of s without splitting a rune.
func Tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

// Diagnostic picks the text fed back for repair: stderr, else the tail of
// stdout, else SilentCrash. The result is never blank.
func Diagnostic(stderr, stdout string, tailChars int) string {
	if strings.TrimSpace(stderr) != "" {
		return stderr
	}
	if tail := Tail(stdout, tailChars); strings.TrimSpace(tail) != "" {
		return tail
	}
	return SilentCrash
}
