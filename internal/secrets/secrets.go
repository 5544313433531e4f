// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend credentials from a directory of plain-text
// files. Each file is one secret: the filename is the key name and the
// trimmed contents are the value.
//
// Recognized key files: ollama-api-key, openai-api-key, anthropic-api-key.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/docfill/internal/logger"
)

// DefaultDir is the secrets directory relative to the working directory.
const DefaultDir = ".secrets"

// Secrets maps key file names to their values.
type Secrets map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty set. Unreadable files are logged and
// skipped.
func Load(fsys afero.Fs, dir string, l *log.Logger) (Secrets, error) {
	l = logger.OrDiscard(l)

	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := afero.ReadFile(fsys, filepath.Join(dir, name))
		if err != nil {
			l.Warn("could not read secret", "name", name, "err", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Keys returns the loaded key names in sorted order.
func (s Secrets) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// APIKey returns the key for a backend provider ("ollama", "openai",
// "anthropic"), or "" when none is stored.
func (s Secrets) APIKey(provider string) string {
	if provider == "" {
		provider = "ollama"
	}
	return s[strings.ToLower(provider)+"-api-key"]
}

// Default returns explicit when set, otherwise the provider key.
func (s Secrets) Default(explicit, provider string) string {
	if explicit != "" {
		return explicit
	}
	return s.APIKey(provider)
}
