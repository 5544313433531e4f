// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fill walks an outline, generates every section through a
// backend, and assembles the output document records in pre-order.
package fill

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/docfill/internal/backend"
	"github.com/pdiddy/docfill/internal/logger"
	"github.com/pdiddy/docfill/internal/outline"
	"github.com/pdiddy/docfill/internal/prompt"
	"github.com/pdiddy/docfill/internal/reference"
	"github.com/pdiddy/docfill/pkg/types"
)

// DefaultSentinel is the paragraph written when a section could not be
// generated. It is meant to be searched for by a human reviewer.
const DefaultSentinel = "(No content generated. Please complete this section manually.)"

// Options tune a Processor. Zero values pick the defaults.
type Options struct {
	// Template renders section prompts (default prompt.Default()).
	Template *prompt.Template

	// Sentinel replaces DefaultSentinel.
	Sentinel string

	// Workers > 1 generates sections concurrently. Records are still
	// emitted in pre-order.
	Workers int

	// Progress receives one line per section. Nil discards.
	Progress io.Writer

	Logger *log.Logger
}

// SectionResult is the outcome of one outline node.
type SectionResult struct {
	Title     string
	Level     int
	WordCount int
	Content   string
	Generated bool
}

// Summary counts the outcome of a Fill.
type Summary struct {
	Sections []SectionResult
}

// Generated returns the number of sections with generated text.
func (s Summary) Generated() int {
	n := 0
	for _, r := range s.Sections {
		if r.Generated {
			n++
		}
	}
	return n
}

// Failed returns the number of sections that fell back to the sentinel.
func (s Summary) Failed() int {
	return len(s.Sections) - s.Generated()
}

// FailedTitles lists the sentinel sections in document order.
func (s Summary) FailedTitles() []string {
	var titles []string
	for _, r := range s.Sections {
		if !r.Generated {
			titles = append(titles, r.Title)
		}
	}
	return titles
}

// Processor owns one reference set and shares one backend. It is not safe
// for concurrent Fill calls.
type Processor struct {
	backend  backend.Backend
	refs     *reference.Set
	tmpl     *prompt.Template
	sentinel string
	workers  int
	log      *log.Logger

	mu       sync.Mutex
	progress io.Writer
}

// NewProcessor returns a processor generating through b with context from
// refs. A nil refs behaves as an empty reference set.
func NewProcessor(b backend.Backend, refs *reference.Set, opts Options) *Processor {
	p := &Processor{
		backend:  b,
		refs:     refs,
		tmpl:     opts.Template,
		sentinel: opts.Sentinel,
		workers:  opts.Workers,
		progress: opts.Progress,
		log:      logger.OrDiscard(opts.Logger),
	}
	if p.tmpl == nil {
		p.tmpl = prompt.Default()
	}
	if p.sentinel == "" {
		p.sentinel = DefaultSentinel
	}
	if p.workers < 1 {
		p.workers = 1
	}
	if p.progress == nil {
		p.progress = io.Discard
	}
	return p
}

// Sentinel returns the placeholder text used for failed sections.
func (p *Processor) Sentinel() string {
	return p.sentinel
}

// Fill generates content for every node under root and returns the
// heading/paragraph records in pre-order. Generation failures never stop
// the walk; they produce the sentinel paragraph. The only error is context
// cancellation, checked between nodes, which returns the records emitted
// so far.
func (p *Processor) Fill(ctx context.Context, root *types.OutlineNode) ([]types.Record, Summary, error) {
	if p.workers > 1 {
		return p.fillConcurrent(ctx, root)
	}

	var (
		records []types.Record
		summary Summary
	)
	for _, child := range root.Children {
		if err := p.fillNode(ctx, child, &records, &summary); err != nil {
			return records, summary, err
		}
	}
	return records, summary, nil
}

// fillNode emits n's heading, generates and emits its paragraph, then
// recurses into the children.
func (p *Processor) fillNode(ctx context.Context, n *types.OutlineNode, records *[]types.Record, summary *Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	*records = append(*records, types.HeadingRecord(n.Title, n.Level))
	p.report(n)

	content, ok := p.generate(ctx, n)
	n.Content = content
	*records = append(*records, types.ParagraphRecord(content))
	summary.Sections = append(summary.Sections, sectionResult(n, ok))

	for _, child := range n.Children {
		if err := p.fillNode(ctx, child, records, summary); err != nil {
			return err
		}
	}
	return nil
}

// fillConcurrent generates every node with a bounded worker pool into
// per-node slots, then emits records in pre-order from this goroutine.
func (p *Processor) fillConcurrent(ctx context.Context, root *types.OutlineNode) ([]types.Record, Summary, error) {
	nodes := outline.Nodes(root)
	contents := make([]string, len(nodes))
	oks := make([]bool, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, n := range nodes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p.report(n)
			contents[i], oks[i] = p.generate(gctx, n)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	var (
		records []types.Record
		summary Summary
	)
	if err != nil {
		return records, summary, err
	}
	for i, n := range nodes {
		n.Content = contents[i]
		records = append(records, types.HeadingRecord(n.Title, n.Level), types.ParagraphRecord(contents[i]))
		summary.Sections = append(summary.Sections, sectionResult(n, oks[i]))
	}
	return records, summary, nil
}

func (p *Processor) report(n *types.OutlineNode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.progress, "generating %s (level %d)\n", n.Title, n.Level)
}

// generate builds the prompt for n and calls the backend. Any failure,
// including blank output, is logged and replaced by the sentinel.
func (p *Processor) generate(ctx context.Context, n *types.OutlineNode) (string, bool) {
	text, err := p.Prompt(n)
	if err != nil {
		p.log.Warn("prompt rendering failed, using placeholder", "section", n.Title, "err", err)
		return p.sentinel, false
	}

	out, err := p.backend.Generate(ctx, text)
	if err == nil && strings.TrimSpace(out) == "" {
		err = fmt.Errorf("backend returned empty content: %w", types.ErrGenerationFailure)
	}
	if err != nil {
		if !errors.Is(err, types.ErrGenerationFailure) {
			err = fmt.Errorf("%v: %w", err, types.ErrGenerationFailure)
		}
		p.log.Warn("generation failed, using placeholder", "section", n.Title, "err", err)
		return p.sentinel, false
	}
	return out, true
}

// Prompt renders the prompt for n from its title, level, word count and
// matching reference lines.
func (p *Processor) Prompt(n *types.OutlineNode) (string, error) {
	return p.tmpl.Render(prompt.Params{
		Title:      n.Title,
		Level:      n.Level,
		WordCount:  n.WordCount(),
		References: p.references(n.Title),
	})
}

func (p *Processor) references(title string) string {
	if p.refs == nil {
		return reference.NoReference
	}
	return reference.Format(p.refs.Lookup(title))
}

func sectionResult(n *types.OutlineNode, ok bool) SectionResult {
	return SectionResult{
		Title:     n.Title,
		Level:     n.Level,
		WordCount: n.RequestedWordCount,
		Content:   n.Content,
		Generated: ok,
	}
}
