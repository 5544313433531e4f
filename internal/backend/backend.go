// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend abstracts the text-completion service that writes each
// section. Implementations never decide on placeholder text: they return
// the generated text or an error wrapping types.ErrGenerationFailure, and
// the caller picks the degrade policy.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/pdiddy/docfill/pkg/types"
)

// Backend generates text for a rendered prompt. Implementations hold only
// immutable configuration and are safe to share across calls.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to Backend.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// DryRun returns a backend that echoes each prompt instead of calling a
// service. It lets a run be previewed without a model server.
func DryRun() Backend {
	return Func(func(_ context.Context, prompt string) (string, error) {
		return "[prompt]\n" + prompt, nil
	})
}

// New builds the backend selected by cfg.Kind.
func New(cfg types.BackendConfig, l *log.Logger) (Backend, error) {
	switch cfg.Kind {
	case types.BackendOllama, "":
		return NewOllama(cfg, nil), nil
	case types.BackendLangchain:
		b, err := NewLangchain(cfg, l)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported backend kind %q", cfg.Kind)
	}
}

// failure wraps err as a generation failure.
func failure(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), types.ErrGenerationFailure)
}

// nonEmpty turns blank output into a generation failure.
func nonEmpty(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", failure("backend returned empty content")
	}
	return text, nil
}
