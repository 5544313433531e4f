// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package outline builds the heading tree of a source document.
package outline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/docfill/pkg/types"
)

// wordCountPattern matches a trailing requested length: "Title (2000)",
// with ASCII or full-width parentheses.
var wordCountPattern = regexp.MustCompile(`^(.*?)\s*[(（]\s*(\d+)\s*[)）]\s*$`)

// Extract builds the outline tree from paragraphs in document order. Body
// paragraphs are ignored. A heading that skips levels attaches to the
// nearest open ancestor with a lower level. The returned root has no
// children when the document has no headings.
func Extract(paragraphs []types.Paragraph) *types.OutlineNode {
	root := types.NewRoot()
	stack := []*types.OutlineNode{root}

	for _, p := range paragraphs {
		if !p.IsHeading() {
			continue
		}
		title := strings.TrimSpace(p.Text)
		if title == "" {
			continue
		}

		for len(stack) > 1 && stack[len(stack)-1].Level >= p.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]

		title, words := ParseWordCount(title)
		node := parent.AddChild(&types.OutlineNode{
			Title:              title,
			Level:              p.Level,
			RequestedWordCount: words,
		})
		stack = append(stack, node)
	}

	return root
}

// ParseWordCount splits a trailing "(N)" length request off a heading. It
// returns the bare title and N, or the title unchanged and 0.
func ParseWordCount(title string) (string, int) {
	m := wordCountPattern.FindStringSubmatch(title)
	if m == nil || strings.TrimSpace(m[1]) == "" {
		return title, 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n <= 0 {
		return title, 0
	}
	return strings.TrimSpace(m[1]), n
}

// Walk visits every non-root node in pre-order. It stops early when fn
// returns false.
func Walk(root *types.OutlineNode, fn func(n *types.OutlineNode) bool) {
	var visit func(n *types.OutlineNode) bool
	visit = func(n *types.OutlineNode) bool {
		for _, c := range n.Children {
			if !fn(c) || !visit(c) {
				return false
			}
		}
		return true
	}
	visit(root)
}

// Nodes returns the non-root nodes in pre-order.
func Nodes(root *types.OutlineNode) []*types.OutlineNode {
	var nodes []*types.OutlineNode
	Walk(root, func(n *types.OutlineNode) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// Titles returns the titles of the non-root nodes in pre-order.
func Titles(root *types.OutlineNode) []string {
	nodes := Nodes(root)
	titles := make([]string, len(nodes))
	for i, n := range nodes {
		titles[i] = n.Title
	}
	return titles
}

// Count returns the number of headings in the tree.
func Count(root *types.OutlineNode) int {
	return len(Nodes(root))
}

// Render prints the tree as an indented list, one heading per line, with
// the effective word count.
func Render(root *types.OutlineNode) string {
	var b strings.Builder
	Walk(root, func(n *types.OutlineNode) bool {
		b.WriteString(strings.Repeat("  ", max(n.Level-1, 0)))
		b.WriteString("- ")
		b.WriteString(n.Title)
		if n.RequestedWordCount > 0 {
			b.WriteString(" (" + strconv.Itoa(n.RequestedWordCount) + " words)")
		}
		b.WriteString("\n")
		return true
	})
	return b.String()
}
