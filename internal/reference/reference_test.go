// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reference

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
}

func TestLookup_CaseInsensitiveSubstring(t *testing.T) {
	s := NewSet(afero.NewMemMapFs(), nil)
	s.Load("notes", []string{"See INTRODUCTION section", "unrelated", "intro again"})

	assert.Equal(t, []string{"See INTRODUCTION section", "intro again"}, s.Lookup("Intro"))
	assert.Empty(t, s.Lookup("Budget"))
}

func TestLookup_PrimaryFirst(t *testing.T) {
	s := NewSet(afero.NewMemMapFs(), nil)
	s.Load("aux", []string{"Goals: stay lean"})
	s.LoadPrimary("main", []string{"Goals: grow revenue"})

	assert.Equal(t, []string{"Goals: grow revenue", "Goals: stay lean"}, s.Lookup("Goals"))
}

func TestLookup_AuxiliaryLoadOrder(t *testing.T) {
	s := NewSet(afero.NewMemMapFs(), nil)
	s.Load("b", []string{"plan b1", "plan b2"})
	s.Load("a", []string{"plan a1"})

	assert.Equal(t, []string{"plan b1", "plan b2", "plan a1"}, s.Lookup("plan"))
}

func TestLookup_EmptyTitle(t *testing.T) {
	s := NewSet(afero.NewMemMapFs(), nil)
	s.Load("x", []string{"anything"})
	assert.Nil(t, s.Lookup("  "))
}

func TestLoad_LastWriteWins(t *testing.T) {
	s := NewSet(afero.NewMemMapFs(), nil)
	s.Load("a", []string{"old line"})
	s.Load("b", []string{"b line"})
	s.Load("a", []string{"new line"})

	assert.Equal(t, []string{"a", "b"}, s.Names())
	assert.Equal(t, []string{"new line", "b line"}, s.Lookup("line"))
}

func TestLoad_CopiesInput(t *testing.T) {
	s := NewSet(afero.NewMemMapFs(), nil)
	lines := []string{"alpha"}
	s.Load("a", lines)
	lines[0] = "mutated"

	assert.Equal(t, []string{"alpha"}, s.Lookup("alpha"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, NoReference, Format(nil))
	assert.Equal(t, "a\nb", Format([]string{"a", "b"}))
}

func TestLoadPrimaryFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/refs/tender.txt", "Scope: build a hall\n\nGoals: grow revenue\n")

	s := NewSet(fsys, nil)
	require.True(t, s.LoadPrimaryFile("/refs/tender.txt"))
	assert.Equal(t, "tender.txt", s.Primary())
	assert.Equal(t, []string{"Goals: grow revenue"}, s.Lookup("goals"))
}

func TestLoadPrimaryFile_MissingWarns(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel})

	s := NewSet(afero.NewMemMapFs(), l)
	assert.False(t, s.LoadPrimaryFile("/refs/missing.txt"))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "", s.Primary())
	assert.Contains(t, buf.String(), "reference file not found")
}

func TestLoadAuxiliaryDir(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/aux/b.txt", "Goals: b\n")
	writeFile(t, fsys, "/aux/a.txt", "Goals: a\n")
	writeFile(t, fsys, "/aux/skip.md", "Goals: markdown\n")
	writeFile(t, fsys, "/aux/nested/c.txt", "Goals: nested\n")

	s := NewSet(fsys, nil)
	assert.Equal(t, 2, s.LoadAuxiliaryDir("/aux", ""))
	assert.Equal(t, []string{"a.txt", "b.txt"}, s.Names())
	assert.Equal(t, []string{"Goals: a", "Goals: b"}, s.Lookup("Goals"))
}

func TestLoadAuxiliaryDir_RecursivePattern(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/aux/a.txt", "Goals: a\n")
	writeFile(t, fsys, "/aux/nested/c.txt", "Goals: nested\n")

	s := NewSet(fsys, nil)
	assert.Equal(t, 2, s.LoadAuxiliaryDir("/aux", "**/*.txt"))
	assert.ElementsMatch(t, []string{"Goals: a", "Goals: nested"}, s.Lookup("Goals"))
}

func TestLoadAuxiliaryDir_Missing(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewWithOptions(&buf, log.Options{Level: log.WarnLevel})

	s := NewSet(afero.NewMemMapFs(), l)
	assert.Equal(t, 0, s.LoadAuxiliaryDir("/nowhere", ""))
	assert.Contains(t, buf.String(), "reference folder not found")
}

func TestPrimaryAndAuxiliaryFromFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/refs/main.txt", "Goals: grow revenue\n")
	writeFile(t, fsys, "/refs/aux/extra.txt", "Goals: stay lean\n")

	s := NewSet(fsys, nil)
	s.LoadAuxiliaryDir("/refs/aux", "")
	s.LoadPrimaryFile("/refs/main.txt")

	assert.Equal(t, []string{"Goals: grow revenue", "Goals: stay lean"}, s.Lookup("Goals"))
}
