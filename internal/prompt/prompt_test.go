package prompt

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Render(t *testing.T) {
	out, err := Default().Render(Params{Title: "Goals", Level: 2, WordCount: 1000, References: "Goals: grow revenue"})
	require.NoError(t, err)
	assert.Contains(t, out, "'Goals'")
	assert.Contains(t, out, "heading level 2")
	assert.Contains(t, out, "about 1000 words")
	assert.Contains(t, out, "Goals: grow revenue")
}

func TestRender_Deterministic(t *testing.T) {
	p := Params{Title: "Overview", Level: 1, WordCount: 300, References: "none"}
	a, err := Default().Render(p)
	require.NoError(t, err)
	b, err := Default().Render(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParse_SprigFunctions(t *testing.T) {
	tmpl, err := Parse("custom", `{{ .Title | upper }} {{ .WordCount | add 1 }} {{ .References | trunc 3 }}`)
	require.NoError(t, err)

	out, err := tmpl.Render(Params{Title: "goals", WordCount: 99, References: "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "GOALS 100 abc", out)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("bad", "{{ .Title ")
	assert.Error(t, err)
}

func TestRender_UnknownField(t *testing.T) {
	tmpl, err := Parse("unknown", "{{ .Missing }}")
	require.NoError(t, err)
	_, err = tmpl.Render(Params{})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	file := "prompts/section.tmpl"
	require.NoError(t, afero.WriteFile(fsys, file, []byte("from file: {{ .Title }}"), 0o644))

	tmpl, err := Load(fsys, "inline: {{ .Title }}", file)
	require.NoError(t, err)
	out, err := tmpl.Render(Params{Title: "X"})
	require.NoError(t, err)
	assert.Equal(t, "from file: X", out)

	tmpl, err = Load(fsys, "inline: {{ .Title }}", "")
	require.NoError(t, err)
	out, err = tmpl.Render(Params{Title: "X"})
	require.NoError(t, err)
	assert.Equal(t, "inline: X", out)

	_, err = Load(fsys, "", "prompts/missing.tmpl")
	assert.Error(t, err)

	tmpl, err = Load(fsys, "", "")
	require.NoError(t, err)
	out, err = tmpl.Render(Params{Title: "X", Level: 1, WordCount: 10, References: "r"})
	require.NoError(t, err)
	assert.Contains(t, out, "'X'")
}

func TestRevise_Render(t *testing.T) {
	out, err := Revise().Render(Params{Title: "Goals", Level: 1, WordCount: 500, Previous: "old text", Feedback: "shorter", References: "refs"})
	require.NoError(t, err)
	assert.Contains(t, out, "old text")
	assert.Contains(t, out, "shorter")
}
