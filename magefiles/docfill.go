package main

import (
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

func binPath() string {
	return filepath.Join(binDir, binName)
}

// Outline prints the heading outline of a source document.
func Outline(source string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "outline", source)
}

// Fill generates every section of a source document with the configured backend.
func Fill(source string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "generate", source)
}

// DryRun writes the prompts for a source document without calling a backend.
func DryRun(source string) error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "generate", "--dry-run", "--no-ledger", source)
}

// Status lists recorded runs.
func Status() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "status")
}
