// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fill

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/spf13/afero"

	"github.com/pdiddy/docfill/internal/backend"
	"github.com/pdiddy/docfill/internal/docio"
	"github.com/pdiddy/docfill/internal/ledger"
	"github.com/pdiddy/docfill/internal/logger"
	"github.com/pdiddy/docfill/internal/outline"
	"github.com/pdiddy/docfill/internal/prompt"
	"github.com/pdiddy/docfill/internal/reference"
	"github.com/pdiddy/docfill/pkg/types"
)

// RunnerOptions carries the collaborators of a Runner. Fs defaults to the
// OS filesystem; Ledger is optional.
type RunnerOptions struct {
	Backend  backend.Backend
	Fs       afero.Fs
	Ledger   *ledger.Ledger
	Logger   *log.Logger
	Progress io.Writer
}

// Runner executes the whole pipeline for one configuration: read, extract,
// generate, write and record.
type Runner struct {
	cfg      types.PipelineConfig
	backend  backend.Backend
	fs       afero.Fs
	ledger   *ledger.Ledger
	log      *log.Logger
	progress io.Writer
}

// RunResult describes a finished run.
type RunResult struct {
	ID      string
	Source  string
	Output  string
	Records []types.Record
	Summary Summary
}

// NewRunner returns a runner for cfg.
func NewRunner(cfg types.PipelineConfig, opts RunnerOptions) *Runner {
	r := &Runner{
		cfg:      cfg,
		backend:  opts.Backend,
		fs:       opts.Fs,
		ledger:   opts.Ledger,
		log:      logger.OrDiscard(opts.Logger),
		progress: opts.Progress,
	}
	if r.fs == nil {
		r.fs = afero.NewOsFs()
	}
	if r.progress == nil {
		r.progress = io.Discard
	}
	return r
}

// Run fills the outline of source and saves the output document. A missing
// source returns types.ErrNotFound and a source without headings returns
// types.ErrEmptyOutline; neither writes output. Save failures wrap
// types.ErrWriteFailure. Ledger failures are logged and never fail the run.
func (r *Runner) Run(ctx context.Context, source string) (RunResult, error) {
	started := time.Now()
	res := RunResult{ID: uuid.NewString(), Source: source}

	root, err := r.Outline(source)
	if err != nil {
		return res, err
	}

	tmpl, err := r.template()
	if err != nil {
		return res, err
	}

	refs := r.References()
	r.log.Info("generating document", "source", source, "sections", outline.Count(root), "references", refs.Len())

	proc := NewProcessor(r.backend, refs, Options{
		Template: tmpl,
		Sentinel: r.cfg.Generation.Sentinel,
		Workers:  r.cfg.Generation.Workers,
		Progress: r.progress,
		Logger:   r.log,
	})
	records, summary, err := proc.Fill(ctx, root)
	if err != nil {
		return res, fmt.Errorf("generating %s: %w", source, err)
	}
	res.Records = records
	res.Summary = summary

	res.Output = OutputPath(r.cfg.Output, source)
	if err := r.save(r.cfg.Output.Format, res.Output, records); err != nil {
		return res, err
	}

	r.log.Info("document written", "output", res.Output,
		"generated", summary.Generated(), "placeholders", summary.Failed())
	r.record(ctx, res, started)
	return res, nil
}

// Outline reads source and extracts its heading tree.
func (r *Runner) Outline(source string) (*types.OutlineNode, error) {
	paragraphs, err := docio.ReadSource(r.fs, source)
	if err != nil {
		return nil, err
	}
	root := outline.Extract(paragraphs)
	if len(root.Children) == 0 {
		return nil, fmt.Errorf("%s has no headings: %w", source, types.ErrEmptyOutline)
	}
	return root, nil
}

// References loads the configured primary file and auxiliary folder.
// Missing files are warnings.
func (r *Runner) References() *reference.Set {
	refs := reference.NewSet(r.fs, r.log)
	rc := r.cfg.References
	if rc.Primary != "" {
		refs.LoadPrimaryFile(rc.Primary)
	}
	if rc.AuxiliaryDir != "" {
		n := refs.LoadAuxiliaryDir(rc.AuxiliaryDir, rc.Pattern)
		r.log.Debug("auxiliary references loaded", "dir", rc.AuxiliaryDir, "files", n)
	}
	return refs
}

// template loads the configured prompt and renders it once so a broken
// template fails the run before any backend call.
func (r *Runner) template() (*prompt.Template, error) {
	tmpl, err := prompt.Load(r.fs, r.cfg.Generation.PromptTemplate, r.cfg.Generation.PromptFile)
	if err != nil {
		return nil, err
	}
	if _, err := tmpl.Render(prompt.Params{Title: "Section", Level: 1, WordCount: types.DefaultWordCount, References: reference.NoReference}); err != nil {
		return nil, fmt.Errorf("validating prompt template: %w", err)
	}
	return tmpl, nil
}

func (r *Runner) save(format types.OutputFormat, path string, records []types.Record) error {
	w, err := docio.NewWriter(r.fs, format)
	if err != nil {
		return err
	}
	docio.Apply(w, records)
	return w.Save(path)
}

func (r *Runner) record(ctx context.Context, res RunResult, started time.Time) {
	if r.ledger == nil {
		return
	}
	run := ledger.Run{
		ID:         res.ID,
		Source:     res.Source,
		Output:     res.Output,
		Format:     r.cfg.Output.Format,
		Model:      r.cfg.Backend.Model,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Generated:  res.Summary.Generated(),
		Failed:     res.Summary.Failed(),
	}
	sections := make([]ledger.Section, len(res.Summary.Sections))
	for i, s := range res.Summary.Sections {
		sections[i] = ledger.Section{
			Seq:       i,
			Title:     s.Title,
			Level:     s.Level,
			WordCount: s.WordCount,
			Content:   s.Content,
			Sentinel:  !s.Generated,
		}
	}
	if err := r.ledger.RecordRun(ctx, run, sections); err != nil {
		r.log.Warn("could not record run in ledger", "run", res.ID, "err", err)
		return
	}
	r.log.Debug("run recorded", "run", res.ID)
}

// OutputPath resolves where the filled document of source is written: the
// explicit path when set, otherwise <dir>/<slug>-filled.<ext>.
func OutputPath(cfg types.OutputConfig, source string) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	base := filepath.Base(source)
	name := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" {
		name = "document"
	}
	return filepath.Join(cfg.Dir, name+"-filled"+cfg.Format.Extension())
}
