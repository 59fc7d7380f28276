package repair

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/namnv2496/gameforge/internal/artifact"
	"github.com/namnv2496/gameforge/internal/llm"
)

// ErrUnusableOutput is returned when the model's answer is too short to be a
// complete program.
var ErrUnusableOutput = errors.New("repair produced no usable source")

const systemInstruction = `You are a runtime exception specialist for Python pygame programs.
You receive the complete source of a program and the diagnostic produced when it failed
(a traceback, stderr output, or a report from an automated input fuzzer).
Rules:
1. Fix only the defect the diagnostic points at; start from the line named in the traceback.
2. Keep the overall structure and class design of the program.
3. Never delete functionality just to make the error disappear.
4. Output the complete corrected program, ready to run.
5. Output source code only: no explanations and no markdown fences.`

// Service asks the generator to fix a failing program and overwrites the
// artifact with the answer.
type Service struct {
	generator llm.Generator
	store     *artifact.Store
	minChars  int
}

func NewService(generator llm.Generator, store *artifact.Store, minChars int) *Service {
	return &Service{generator: generator, store: store, minChars: minChars}
}

// Repair returns the corrected source. On error the artifact is left as it was.
func (s *Service) Repair(ctx context.Context, diagnostic, source string) (string, error) {
	slog.Info("Requesting repair", "diagnostic_chars", len(diagnostic), "source_chars", len(source))
	raw, err := s.generator.Generate(ctx, systemInstruction, BuildRequest(diagnostic, source))
	if err != nil {
		return "", fmt.Errorf("repair generation: %w", err)
	}
	fixed := artifact.CleanCode(raw)
	if len(strings.TrimSpace(fixed)) < s.minChars {
		return "", fmt.Errorf("%w: %d characters", ErrUnusableOutput, len(strings.TrimSpace(fixed)))
	}
	if _, err := s.store.Write(fixed); err != nil {
		return "", fmt.Errorf("persist repaired source: %w", err)
	}
	return fixed, nil
}

// BuildRequest lays out the diagnostic and the full source for the model.
func BuildRequest(diagnostic, source string) string {
	var b strings.Builder
	b.WriteString("=== Runtime error report ===\n")
	b.WriteString(strings.TrimSpace(diagnostic))
	b.WriteString("\n============================\n\n")
	b.WriteString("=== Source code ===\n")
	b.WriteString(source)
	b.WriteString("\n===================\n\n")
	b.WriteString("Fix the source code according to the error report above.")
	return b.String()
}
