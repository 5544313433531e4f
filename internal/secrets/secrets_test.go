// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, fsys afero.Fs)
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T, fsys afero.Fs) {
				writeFile(t, fsys, "openai-api-key", "  sk_abc123  \n")
				writeFile(t, fsys, "anthropic-api-key", "ak_xyz789")
			},
			want: Secrets{
				"openai-api-key":    "sk_abc123",
				"anthropic-api-key": "ak_xyz789",
			},
		},
		{
			name:  "missing directory",
			setup: func(*testing.T, afero.Fs) {},
			want:  Secrets{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T, fsys afero.Fs) {
				writeFile(t, fsys, "ollama-api-key", "valid-key")
				writeFile(t, fsys, "empty-key", "")
				writeFile(t, fsys, "whitespace-only", "   \n\t  ")
			},
			want: Secrets{"ollama-api-key": "valid-key"},
		},
		{
			name: "skips dotfiles and subdirectories",
			setup: func(t *testing.T, fsys afero.Fs) {
				writeFile(t, fsys, ".gitkeep", "")
				writeFile(t, fsys, ".hidden-key", "secret")
				writeFile(t, fsys, "sub/openai-api-key", "nested")
				writeFile(t, fsys, "openai-api-key", "sk_real")
			},
			want: Secrets{"openai-api-key": "sk_real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			tt.setup(t, fsys)
			got, err := Load(fsys, DefaultDir, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good-key"), []byte("value123"), 0o644))

	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(afero.NewOsFs(), dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestSecrets_APIKey(t *testing.T) {
	s := Secrets{"openai-api-key": "sk", "ollama-api-key": "ok"}

	assert.Equal(t, "sk", s.APIKey("openai"))
	assert.Equal(t, "sk", s.APIKey("OpenAI"))
	assert.Equal(t, "ok", s.APIKey(""))
	assert.Empty(t, s.APIKey("anthropic"))

	assert.Equal(t, "flag", s.Default("flag", "openai"))
	assert.Equal(t, "sk", s.Default("", "openai"))
	assert.Equal(t, []string{"ollama-api-key", "openai-api-key"}, s.Keys())
}

func writeFile(t *testing.T, fsys afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(DefaultDir, name), []byte(content), 0o644))
}
