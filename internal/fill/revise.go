// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fill

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/docfill/internal/ledger"
	"github.com/pdiddy/docfill/internal/prompt"
	"github.com/pdiddy/docfill/internal/reference"
	"github.com/pdiddy/docfill/pkg/types"
)

// ReviseRequest selects one section of a recorded run.
type ReviseRequest struct {
	// RunID is the run to revise; empty selects the latest run.
	RunID string

	// Section is a sequence number or a case-insensitive title.
	Section string

	Feedback string
}

// Revise regenerates one section of a recorded run with reviewer feedback,
// stores it in the ledger and rewrites the run's output document. When
// generation fails the stored content is kept and the error is returned.
func (r *Runner) Revise(ctx context.Context, req ReviseRequest) (ledger.Section, error) {
	if r.ledger == nil {
		return ledger.Section{}, fmt.Errorf("revise requires the run ledger")
	}

	runID := req.RunID
	if runID == "" {
		latest, err := r.ledger.Latest(ctx)
		if err != nil {
			return ledger.Section{}, err
		}
		runID = latest.ID
	}

	run, sections, err := r.ledger.Run(ctx, runID)
	if err != nil {
		return ledger.Section{}, err
	}
	idx, err := findSection(sections, req.Section)
	if err != nil {
		return ledger.Section{}, fmt.Errorf("run %s: %w", runID, err)
	}
	section := sections[idx]

	refs := r.References()
	words := section.WordCount
	if words <= 0 {
		words = types.DefaultWordCount
	}
	text, err := prompt.Revise().Render(prompt.Params{
		Title:      section.Title,
		Level:      section.Level,
		WordCount:  words,
		References: reference.Format(refs.Lookup(section.Title)),
		Previous:   section.Content,
		Feedback:   req.Feedback,
	})
	if err != nil {
		return section, err
	}

	fmt.Fprintf(r.progress, "revising %s (level %d)\n", section.Title, section.Level)
	out, err := r.backend.Generate(ctx, text)
	if err == nil && strings.TrimSpace(out) == "" {
		err = fmt.Errorf("backend returned empty content: %w", types.ErrGenerationFailure)
	}
	if err != nil {
		return section, fmt.Errorf("revising %q: %w", section.Title, err)
	}

	if err := r.ledger.UpdateSection(ctx, run.ID, section.Seq, out, false); err != nil {
		return section, err
	}
	section.Content = out
	section.Sentinel = false
	sections[idx] = section

	if err := r.save(run.Format, run.Output, ledger.Records(sections)); err != nil {
		return section, err
	}
	r.log.Info("section revised", "run", run.ID, "section", section.Title, "output", run.Output)
	return section, nil
}

// findSection resolves sel as a sequence number first, then as a title.
func findSection(sections []ledger.Section, sel string) (int, error) {
	sel = strings.TrimSpace(sel)
	if seq, err := strconv.Atoi(sel); err == nil {
		for i, s := range sections {
			if s.Seq == seq {
				return i, nil
			}
		}
	}
	for i, s := range sections {
		if strings.EqualFold(s.Title, sel) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("section %q: %w", sel, types.ErrNotFound)
}
