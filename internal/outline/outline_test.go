// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docfill/pkg/types"
)

func headings(pairs ...any) []types.Paragraph {
	var ps []types.Paragraph
	for i := 0; i < len(pairs); i += 2 {
		ps = append(ps, types.Paragraph{Level: pairs[i].(int), Text: pairs[i+1].(string)})
	}
	return ps
}

func TestExtract_PreservesOrder(t *testing.T) {
	tests := []struct {
		name  string
		input []types.Paragraph
		want  []string
	}{
		{
			name:  "flat",
			input: headings(1, "A", 1, "B", 1, "C"),
			want:  []string{"A", "B", "C"},
		},
		{
			name:  "nested",
			input: headings(1, "Overview", 2, "Background", 2, "Goals", 1, "Plan", 2, "Phase 1", 3, "Tasks"),
			want:  []string{"Overview", "Background", "Goals", "Plan", "Phase 1", "Tasks"},
		},
		{
			name:  "body text ignored",
			input: headings(1, "Intro", 0, "some text", 2, "Detail", 0, "more text"),
			want:  []string{"Intro", "Detail"},
		},
		{
			name:  "level skip",
			input: headings(1, "Top", 3, "Deep", 2, "Mid"),
			want:  []string{"Top", "Deep", "Mid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := Extract(tt.input)
			assert.Equal(t, tt.want, Titles(root))
		})
	}
}

func TestExtract_Nesting(t *testing.T) {
	root := Extract(headings(1, "Overview", 2, "Background", 2, "Goals", 1, "Plan"))

	require.Len(t, root.Children, 2)
	overview := root.Children[0]
	assert.Equal(t, "Overview", overview.Title)
	assert.Equal(t, 1, overview.Level)
	require.Len(t, overview.Children, 2)
	assert.Equal(t, "Background", overview.Children[0].Title)
	assert.Equal(t, "Goals", overview.Children[1].Title)
	assert.Empty(t, root.Children[1].Children)
}

func TestExtract_LevelSkipAttachesToNearestAncestor(t *testing.T) {
	root := Extract(headings(1, "Top", 3, "Deep", 2, "Mid", 4, "Deeper"))

	require.Len(t, root.Children, 1)
	top := root.Children[0]
	require.Len(t, top.Children, 2)
	assert.Equal(t, "Deep", top.Children[0].Title)
	assert.Equal(t, "Mid", top.Children[1].Title)
	require.Len(t, top.Children[1].Children, 1)
	assert.Equal(t, "Deeper", top.Children[1].Children[0].Title)

	var check func(parent *types.OutlineNode)
	check = func(parent *types.OutlineNode) {
		for _, c := range parent.Children {
			assert.Greater(t, c.Level, parent.Level, "child %q must be deeper than parent", c.Title)
			check(c)
		}
	}
	check(root)
}

func TestExtract_StartsBelowLevelOne(t *testing.T) {
	root := Extract(headings(2, "Orphan", 1, "Top"))
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Orphan", root.Children[0].Title)
	assert.Equal(t, "Top", root.Children[1].Title)
}

func TestExtract_NoHeadings(t *testing.T) {
	root := Extract(headings(0, "just text", 0, "more text"))
	assert.Empty(t, root.Children)
	assert.Equal(t, 0, Count(root))
	assert.True(t, root.IsRoot())
}

func TestExtract_SkipsBlankHeadings(t *testing.T) {
	root := Extract(headings(1, "   ", 1, "Real"))
	assert.Equal(t, []string{"Real"}, Titles(root))
}

func TestExtract_WordCountSuffix(t *testing.T) {
	root := Extract(headings(1, "Budget (2500)", 2, "Costs"))
	budget := root.Children[0]
	assert.Equal(t, "Budget", budget.Title)
	assert.Equal(t, 2500, budget.RequestedWordCount)
	assert.Equal(t, 2500, budget.WordCount())
	assert.Equal(t, types.DefaultWordCount, budget.Children[0].WordCount())
}

func TestParseWordCount(t *testing.T) {
	tests := []struct {
		in        string
		wantTitle string
		wantCount int
	}{
		{"Introduction", "Introduction", 0},
		{"Introduction (1500)", "Introduction", 1500},
		{"Introduction(800)", "Introduction", 800},
		{"项目概述（2000）", "项目概述", 2000},
		{"(2000)", "(2000)", 0},
		{"Phase (one)", "Phase (one)", 0},
		{"Zero (0)", "Zero (0)", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			title, n := ParseWordCount(tt.in)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantCount, n)
		})
	}
}

func TestWalk_StopsEarly(t *testing.T) {
	root := Extract(headings(1, "A", 2, "A1", 1, "B"))
	var seen []string
	Walk(root, func(n *types.OutlineNode) bool {
		seen = append(seen, n.Title)
		return n.Title != "A1"
	})
	assert.Equal(t, []string{"A", "A1"}, seen)
}

func TestRender(t *testing.T) {
	root := Extract(headings(1, "Overview (300)", 2, "Background"))
	assert.Equal(t, "- Overview (300 words)\n  - Background\n", Render(root))
}
