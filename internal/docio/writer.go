// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package docio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pdiddy/docfill/pkg/types"
)

// Writer accumulates headings and paragraphs in call order and saves them
// as one document.
type Writer interface {
	AddHeading(text string, level int)
	AddParagraph(text string)
	Save(path string) error
}

// renderFunc turns the accumulated records into file bytes.
type renderFunc func(records []types.Record) ([]byte, error)

// docWriter is the shared Writer implementation; formats differ only in
// their render function.
type docWriter struct {
	fs      afero.Fs
	records []types.Record
	render  renderFunc
}

// NewWriter returns a writer for format that saves through fsys.
func NewWriter(fsys afero.Fs, format types.OutputFormat) (Writer, error) {
	var render renderFunc
	switch format {
	case types.OutputMarkdown, "":
		render = renderMarkdown
	case types.OutputLaTeX:
		render = renderLaTeX
	case types.OutputDocx:
		render = renderDocx
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return &docWriter{fs: fsys, render: render}, nil
}

func (w *docWriter) AddHeading(text string, level int) {
	w.records = append(w.records, types.HeadingRecord(text, level))
}

func (w *docWriter) AddParagraph(text string) {
	w.records = append(w.records, types.ParagraphRecord(text))
}

// Save renders the document and writes it to path, creating parent
// directories. Every failure wraps types.ErrWriteFailure.
func (w *docWriter) Save(path string) error {
	data, err := w.render(w.records)
	if err != nil {
		return fmt.Errorf("rendering %s: %v: %w", path, err, types.ErrWriteFailure)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %v: %w", dir, err, types.ErrWriteFailure)
		}
	}
	if err := afero.WriteFile(w.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %v: %w", path, err, types.ErrWriteFailure)
	}
	return nil
}

// Apply replays records into w in order.
func Apply(w Writer, records []types.Record) {
	for _, r := range records {
		switch r.Kind {
		case types.RecordHeading:
			w.AddHeading(r.Text, r.Level)
		case types.RecordParagraph:
			w.AddParagraph(r.Text)
		}
	}
}

func renderMarkdown(records []types.Record) ([]byte, error) {
	var b strings.Builder
	for _, r := range records {
		switch r.Kind {
		case types.RecordHeading:
			level := min(max(r.Level, 1), 6)
			fmt.Fprintf(&b, "%s %s\n\n", strings.Repeat("#", level), r.Text)
		case types.RecordParagraph:
			b.WriteString(strings.TrimSpace(r.Text))
			b.WriteString("\n\n")
		}
	}
	return []byte(b.String()), nil
}

// latexSections maps heading levels to sectioning commands; deeper levels
// reuse the last one.
var latexSections = []string{"section", "subsection", "subsubsection", "paragraph", "subparagraph"}

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

func renderLaTeX(records []types.Record) ([]byte, error) {
	var b strings.Builder
	b.WriteString("\\documentclass{article}\n\\usepackage[utf8]{inputenc}\n\n\\begin{document}\n\n")
	for _, r := range records {
		switch r.Kind {
		case types.RecordHeading:
			idx := min(max(r.Level, 1), len(latexSections)) - 1
			fmt.Fprintf(&b, "\\%s{%s}\n\n", latexSections[idx], latexEscaper.Replace(r.Text))
		case types.RecordParagraph:
			b.WriteString(latexEscaper.Replace(strings.TrimSpace(r.Text)))
			b.WriteString("\n\n")
		}
	}
	b.WriteString("\\end{document}\n")
	return []byte(b.String()), nil
}
