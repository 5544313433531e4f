// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package docio reads source documents as heading/body paragraphs and
// writes filled documents as Markdown, LaTeX or Word (.docx).
package docio

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docfill/pkg/types"
)

// headingStylePattern matches Word heading style ids and names
// ("Heading1", "Heading 2", "heading 3").
var headingStylePattern = regexp.MustCompile(`(?i)^heading\s*([1-9])$`)

// ReadSource reads the document at path and returns its paragraphs in
// document order. The format follows the file extension: .md/.markdown,
// .docx, .yaml/.yml; anything else is read as Markdown. A missing file
// yields an error wrapping types.ErrNotFound.
func ReadSource(fsys afero.Fs, path string) ([]types.Paragraph, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source document %s: %w", path, types.ErrNotFound)
		}
		return nil, fmt.Errorf("reading source document %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx":
		return parseDocx(data)
	case ".yaml", ".yml":
		return parseOutlineYAML(data)
	default:
		return parseMarkdown(bytes.NewReader(data))
	}
}

// ReadText returns the non-blank text lines of the file at path. Word
// documents contribute one line per non-empty paragraph; every other file
// is read as plain text.
func ReadText(fsys afero.Fs, path string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		paragraphs, err := ReadSource(fsys, path)
		if err != nil {
			return nil, err
		}
		lines := make([]string, 0, len(paragraphs))
		for _, p := range paragraphs {
			lines = append(lines, p.Text)
		}
		return lines, nil
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, types.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// parseMarkdown treats ATX headings (# .. ######) as heading paragraphs and
// every other non-blank line as body text. Lines inside fenced code blocks
// are never headings.
func parseMarkdown(r io.Reader) ([]types.Paragraph, error) {
	var paragraphs []types.Paragraph
	inFence := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if trimmed == "" {
			continue
		}
		if !inFence {
			if level, text, ok := parseATXHeading(trimmed); ok {
				paragraphs = append(paragraphs, types.Paragraph{Level: level, Text: text})
				continue
			}
		}
		paragraphs = append(paragraphs, types.Paragraph{Text: trimmed})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning markdown: %w", err)
	}
	return paragraphs, nil
}

// parseATXHeading returns the level and text of "## Title" style lines.
// Closing hashes ("## Title ##") are dropped.
func parseATXHeading(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := line[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	text := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(rest), "#"))
	if text == "" {
		return 0, "", false
	}
	return level, text, true
}

// parseDocx reads word/document.xml from a .docx package. Paragraph
// styles Heading1..Heading9 set the heading level.
func parseDocx(data []byte) ([]types.Paragraph, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening docx package: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("docx package has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("opening document.xml: %w", err)
	}
	defer rc.Close()

	var (
		paragraphs []types.Paragraph
		text       strings.Builder
		style      string
		inPara     bool
		inText     bool
	)

	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				style = ""
				text.Reset()
			case "pStyle":
				for _, a := range t.Attr {
					if a.Name.Local == "val" {
						style = a.Value
					}
				}
			case "t":
				inText = true
			case "tab":
				if inPara {
					text.WriteByte('\t')
				}
			case "br":
				if inPara {
					text.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				inPara = false
				s := strings.TrimSpace(text.String())
				if s == "" {
					continue
				}
				paragraphs = append(paragraphs, types.Paragraph{Level: styleLevel(style), Text: s})
			}
		}
	}
	return paragraphs, nil
}

func styleLevel(style string) int {
	m := headingStylePattern.FindStringSubmatch(strings.TrimSpace(style))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// outlineFile is the YAML outline format: nested sections with optional
// word counts.
type outlineFile struct {
	Title    string           `yaml:"title"`
	Sections []outlineSection `yaml:"sections"`
}

type outlineSection struct {
	Title     string           `yaml:"title"`
	WordCount int              `yaml:"word_count"`
	Sections  []outlineSection `yaml:"sections"`
}

// parseOutlineYAML flattens a YAML outline into heading paragraphs in
// pre-order. Word counts are re-encoded as a "(N)" title suffix.
func parseOutlineYAML(data []byte) ([]types.Paragraph, error) {
	var f outlineFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing outline: %w", err)
	}

	var paragraphs []types.Paragraph
	var flatten func(sections []outlineSection, level int)
	flatten = func(sections []outlineSection, level int) {
		for _, s := range sections {
			title := strings.TrimSpace(s.Title)
			if s.WordCount > 0 {
				title = fmt.Sprintf("%s (%d)", title, s.WordCount)
			}
			paragraphs = append(paragraphs, types.Paragraph{Level: level, Text: title})
			flatten(s.Sections, level+1)
		}
	}
	flatten(f.Sections, 1)
	return paragraphs, nil
}
