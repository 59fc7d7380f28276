package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/namnv2496/gameforge/internal/artifact"
	"github.com/namnv2496/gameforge/internal/catalog"
	"github.com/namnv2496/gameforge/internal/llm"
	"github.com/namnv2496/gameforge/internal/model"
)

var (
	// ErrRejected is returned when the safety gate refuses the request.
	ErrRejected = errors.New("request rejected by the safety check")
	// ErrIncomplete is returned when generated code is too short to be a program.
	ErrIncomplete = errors.New("generated program is incomplete")
)

const rejectMarker = "INVALID"

// Planner produces the first version of the program: it refines the request,
// drafts a design document and generates (and optionally reviews) the code.
type Planner struct {
	generator llm.Generator
	catalog   catalog.Catalog
	store     *artifact.Store
	designDoc string
	review    bool
	minChars  int
}

type Options struct {
	DesignDoc string
	Review    bool
	MinChars  int
}

func New(generator llm.Generator, cat catalog.Catalog, store *artifact.Store, opts Options) *Planner {
	return &Planner{
		generator: generator,
		catalog:   cat,
		store:     store,
		designDoc: opts.DesignDoc,
		review:    opts.Review,
		minChars:  opts.MinChars,
	}
}

// Create runs every planning step and writes the program to the artifact path.
func (p *Planner) Create(ctx context.Context, prompt string) (model.SourceArtifact, error) {
	brief, err := p.Refine(ctx, prompt)
	if err != nil {
		return model.SourceArtifact{}, err
	}
	design, err := p.Design(ctx, brief)
	if err != nil {
		return model.SourceArtifact{}, err
	}
	source, err := p.Generate(ctx, design)
	if err != nil {
		return model.SourceArtifact{}, err
	}
	if p.review {
		source = p.Review(ctx, design, source)
	}
	art, err := p.store.Write(source)
	if err != nil {
		return model.SourceArtifact{}, fmt.Errorf("persist generated program: %w", err)
	}
	slog.Info("Program generated", "path", art.Path, "chars", len(source))
	return art, nil
}

// Refine turns a raw request into a development brief, or fails with
// ErrRejected.
func (p *Planner) Refine(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("%w: empty request", ErrRejected)
	}
	out, err := p.generator.Generate(ctx, refineInstruction, "User request: "+prompt)
	if err != nil {
		return "", fmt.Errorf("refine request: %w", err)
	}
	brief := strings.TrimSpace(out)
	if strings.HasPrefix(brief, rejectMarker) {
		slog.Warn("Request rejected", "answer", brief)
		return "", fmt.Errorf("%w: %s", ErrRejected, brief)
	}
	return brief, nil
}

// Design drafts the design document and saves it next to the artifact.
func (p *Planner) Design(ctx context.Context, brief string) (string, error) {
	refs, err := p.catalog.Lookup(ctx, brief)
	if err != nil {
		slog.Warn("Reference catalog unavailable", "error", err)
		refs = ""
	}
	user := "Request: " + brief
	if refs != "" {
		user = "Reference modules:\n" + refs + "\n\n" + user
	}
	doc, err := p.generator.Generate(ctx, designInstruction, user)
	if err != nil {
		return "", fmt.Errorf("draft design document: %w", err)
	}
	if p.designDoc != "" {
		if err := artifact.WriteFile(p.designDoc, doc); err != nil {
			return "", fmt.Errorf("save design document: %w", err)
		}
	}
	return doc, nil
}

func (p *Planner) Generate(ctx context.Context, design string) (string, error) {
	out, err := p.generator.Generate(ctx, generateInstruction, "Design document:\n"+design)
	if err != nil {
		return "", fmt.Errorf("generate program: %w", err)
	}
	source := artifact.CleanCode(out)
	if len(strings.TrimSpace(source)) < p.minChars {
		return "", ErrIncomplete
	}
	return source, nil
}

// Review asks for a static review pass. A failed or truncated review keeps the
// unreviewed source.
func (p *Planner) Review(ctx context.Context, design, source string) string {
	out, err := p.generator.Generate(ctx, reviewInstruction, "Design document:\n"+design+"\n\nProgram:\n"+source)
	if err != nil {
		slog.Warn("Review pass failed; keeping generated code", "error", err)
		return source
	}
	reviewed := artifact.CleanCode(out)
	if len(strings.TrimSpace(reviewed)) < p.minChars {
		slog.Warn("Review pass returned incomplete code; keeping generated code", "chars", len(reviewed))
		return source
	}
	return reviewed
}
