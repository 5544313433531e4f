// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultWordCount is the target length used when a heading carries no
// requested word count.
const DefaultWordCount = 1000

// Paragraph is one paragraph of a source document in document order.
// Level is the heading depth (1 = top-level) or 0 for body text.
type Paragraph struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// IsHeading reports whether the paragraph is heading-styled.
func (p Paragraph) IsHeading() bool {
	return p.Level > 0
}

// OutlineNode is one heading of a document outline. The root node is
// synthetic: it has no title, level 0, and owns the top-level headings.
type OutlineNode struct {
	// Title is the heading text.
	Title string `json:"title" yaml:"title"`

	// Level is the heading depth; children normally sit one level deeper.
	Level int `json:"level" yaml:"level"`

	// RequestedWordCount is the target length; 0 means the default applies.
	RequestedWordCount int `json:"word_count,omitempty" yaml:"word_count,omitempty"`

	// Content is the generated text, empty until the node is filled.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Children are the subsections in document order.
	Children []*OutlineNode `json:"sections,omitempty" yaml:"sections,omitempty"`
}

// NewRoot returns an empty synthetic root node.
func NewRoot() *OutlineNode {
	return &OutlineNode{}
}

// IsRoot reports whether n is the synthetic root.
func (n *OutlineNode) IsRoot() bool {
	return n.Level == 0 && n.Title == ""
}

// WordCount returns the requested word count or DefaultWordCount.
func (n *OutlineNode) WordCount() int {
	if n.RequestedWordCount > 0 {
		return n.RequestedWordCount
	}
	return DefaultWordCount
}

// AddChild appends c to n's children and returns c.
func (n *OutlineNode) AddChild(c *OutlineNode) *OutlineNode {
	n.Children = append(n.Children, c)
	return c
}

// RecordKind distinguishes heading and paragraph records.
type RecordKind string

const (
	RecordHeading   RecordKind = "heading"
	RecordParagraph RecordKind = "paragraph"
)

// Record is one entry of the assembled output document. Heading records
// carry Level; paragraph records carry only Text.
type Record struct {
	Kind  RecordKind `json:"kind" yaml:"kind"`
	Text  string     `json:"text" yaml:"text"`
	Level int        `json:"level,omitempty" yaml:"level,omitempty"`
}

// HeadingRecord builds a heading record.
func HeadingRecord(title string, level int) Record {
	return Record{Kind: RecordHeading, Text: title, Level: level}
}

// ParagraphRecord builds a paragraph record.
func ParagraphRecord(text string) Record {
	return Record{Kind: RecordParagraph, Text: text}
}
