// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reference holds background material and finds the lines that
// mention a section title.
package reference

import (
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/pdiddy/docfill/internal/docio"
	"github.com/pdiddy/docfill/internal/logger"
	"github.com/pdiddy/docfill/pkg/types"
)

// NoReference is returned by Format when no lines matched.
const NoReference = "No reference material."

// DefaultPattern selects auxiliary files when none is configured.
const DefaultPattern = "*.txt"

// Set maps source names to immutable line lists. One source may be marked
// primary; its lines are searched first.
type Set struct {
	fs      afero.Fs
	log     *log.Logger
	primary string
	order   []string
	entries map[string][]string
}

// NewSet returns an empty set reading files through fsys.
func NewSet(fsys afero.Fs, l *log.Logger) *Set {
	return &Set{
		fs:      fsys,
		log:     logger.OrDiscard(l),
		entries: make(map[string][]string),
	}
}

// Load registers lines under name. Loading a name again replaces its lines
// and keeps its original position.
func (s *Set) Load(name string, lines []string) {
	if _, ok := s.entries[name]; !ok {
		s.order = append(s.order, name)
	}
	s.entries[name] = append([]string(nil), lines...)
}

// LoadPrimary registers lines under name and marks name as the primary
// source.
func (s *Set) LoadPrimary(name string, lines []string) {
	s.Load(name, lines)
	s.primary = name
}

// Primary returns the primary source name, or "" when none is loaded.
func (s *Set) Primary() string {
	return s.primary
}

// Names returns the loaded source names in load order.
func (s *Set) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of loaded sources.
func (s *Set) Len() int {
	return len(s.order)
}

// LoadPrimaryFile reads path as the primary source. A missing or unreadable
// file logs a warning and leaves the set unchanged.
func (s *Set) LoadPrimaryFile(path string) bool {
	lines, ok := s.readFile(path)
	if !ok {
		return false
	}
	s.LoadPrimary(filepath.Base(path), lines)
	return true
}

// LoadAuxiliaryDir loads every file in dir matching pattern (default
// "*.txt") in lexical order and returns how many were loaded. A missing
// directory logs a warning and loads nothing.
func (s *Set) LoadAuxiliaryDir(dir, pattern string) int {
	if pattern == "" {
		pattern = DefaultPattern
	}

	info, err := s.fs.Stat(dir)
	if err != nil || !info.IsDir() {
		s.log.Warn("reference folder not found, continuing without it", "dir", dir, "err", types.ErrNotFound)
		return 0
	}

	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(s.fs, dir)), pattern)
	if err != nil {
		s.log.Warn("invalid reference pattern", "pattern", pattern, "err", err)
		return 0
	}
	sort.Strings(matches)

	loaded := 0
	for _, m := range matches {
		full := filepath.Join(dir, filepath.FromSlash(m))
		if fi, err := s.fs.Stat(full); err != nil || fi.IsDir() {
			continue
		}
		lines, ok := s.readFile(full)
		if !ok {
			continue
		}
		name := path.Clean(m)
		if name == s.primary {
			name = filepath.ToSlash(full)
		}
		s.Load(name, lines)
		loaded++
	}
	return loaded
}

func (s *Set) readFile(path string) ([]string, bool) {
	lines, err := docio.ReadText(s.fs, path)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("reference file not found, continuing without it", "path", path)
		} else {
			s.log.Warn("reference file unreadable, continuing without it", "path", path, "err", err)
		}
		return nil, false
	}
	return lines, true
}

// Lookup returns every line whose lowercase form contains the lowercase
// title. Primary lines come first, then each auxiliary source in load
// order, each in line order.
func (s *Set) Lookup(title string) []string {
	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil
	}

	var matches []string
	collect := func(name string) {
		for _, line := range s.entries[name] {
			if strings.Contains(strings.ToLower(line), needle) {
				matches = append(matches, line)
			}
		}
	}

	if s.primary != "" {
		collect(s.primary)
	}
	for _, name := range s.order {
		if name != s.primary {
			collect(name)
		}
	}
	return matches
}

// Format joins lines with newlines, or returns NoReference when empty.
func Format(lines []string) string {
	if len(lines) == 0 {
		return NoReference
	}
	return strings.Join(lines, "\n")
}
