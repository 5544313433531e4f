// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompt renders the section generation prompt.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/afero"
)

// DefaultTemplate asks for one section of about WordCount words grounded in
// the matched reference lines.
const DefaultTemplate = `Write the section '{{ .Title }}' (heading level {{ .Level }}) of a longer document in about {{ .WordCount }} words.
Write plain paragraphs only. Do not repeat the heading.

Use the following reference material where it is relevant:
{{ .References }}
`

// ReviseTemplate rewrites an existing section according to reviewer
// feedback.
const ReviseTemplate = `Rewrite the section '{{ .Title }}' (heading level {{ .Level }}) in about {{ .WordCount }} words.

Current text:
{{ .Previous }}

Reviewer feedback:
{{ .Feedback }}

Reference material:
{{ .References }}
`

// Params is the fixed parameter set of a section prompt.
type Params struct {
	Title      string
	Level      int
	WordCount  int
	References string

	// Previous and Feedback are set only when revising a section.
	Previous string
	Feedback string
}

// Template is a parsed prompt template. It is safe for concurrent use.
type Template struct {
	tmpl *template.Template
}

// Parse compiles text as a prompt template with the sprig function set.
// Unknown fields are errors.
func Parse(name, text string) (*Template, error) {
	t, err := template.New(name).Option("missingkey=error").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template %s: %w", name, err)
	}
	return &Template{tmpl: t}, nil
}

// Load returns the template selected by configuration: file (read through
// fsys) wins over inline text, inline text over DefaultTemplate.
func Load(fsys afero.Fs, inline, file string) (*Template, error) {
	if file != "" {
		data, err := afero.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading prompt template: %w", err)
		}
		return Parse(file, string(data))
	}
	if inline != "" {
		return Parse("inline", inline)
	}
	return Default(), nil
}

// Default returns the built-in section template.
func Default() *Template {
	t, err := Parse("section", DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

// Revise returns the built-in revision template.
func Revise() *Template {
	t, err := Parse("revise", ReviseTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the template with p.
func (t *Template) Render(p Params) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	return buf.String(), nil
}
