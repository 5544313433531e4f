// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/docfill/internal/logger"
	"github.com/pdiddy/docfill/pkg/types"
)

// backoffBase controls the base duration for retry backoff. Tests override
// this to avoid real sleeps.
var backoffBase = time.Second

// LangchainBackend generates through a langchaingo model client.
type LangchainBackend struct {
	cfg   types.BackendConfig
	model llms.Model
	log   *log.Logger
}

// NewLangchain builds the langchaingo client for cfg.Provider.
func NewLangchain(cfg types.BackendConfig, l *log.Logger) (*LangchainBackend, error) {
	model, err := newModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewLangchainWithModel(cfg, model, l), nil
}

// NewLangchainWithModel wraps an existing model client.
func NewLangchainWithModel(cfg types.BackendConfig, model llms.Model, l *log.Logger) *LangchainBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &LangchainBackend{cfg: cfg, model: model, log: logger.OrDiscard(l)}
}

func newModel(cfg types.BackendConfig) (llms.Model, error) {
	switch cfg.Provider {
	case "ollama", "":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.Endpoint != "" {
			opts = append(opts, ollama.WithServerURL(cfg.Endpoint))
		}
		return ollama.New(opts...)
	case "openai":
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, openai.WithBaseURL(cfg.Endpoint))
		}
		return openai.New(opts...)
	case "anthropic":
		opts := []anthropic.Option{anthropic.WithModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, anthropic.WithToken(cfg.APIKey))
		}
		if cfg.Endpoint != "" {
			return nil, fmt.Errorf("anthropic provider does not support a custom endpoint")
		}
		return anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported langchain provider %q", cfg.Provider)
	}
}

// Generate runs the prompt with a per-call timeout, retrying failed calls
// up to cfg.MaxRetries times.
func (b *LangchainBackend) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	maxRetries := uint64(max(b.cfg.MaxRetries, 0))
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(backoffBase))

	var text string
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := llms.GenerateFromSinglePrompt(ctx, b.model, prompt)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return err
			}
			b.log.Debug("generation attempt failed", "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		text = out
		return nil
	})
	if err != nil {
		return "", failure("%s/%s: %v", b.cfg.Provider, b.cfg.Model, err)
	}
	return nonEmpty(text)
}
