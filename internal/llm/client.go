package llm

import (
	"context"
	"errors"
)

var (
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("llm returned an empty response")
)

// Generator is the text-completion boundary: one request, one response, no
// streaming and no retries.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, userContent string) (string, error)
}
