// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pdiddy/docfill/internal/httputil"
	"github.com/pdiddy/docfill/pkg/types"
)

// DefaultOllamaEndpoint is the local Ollama generate endpoint.
const DefaultOllamaEndpoint = "http://localhost:11434/api/generate"

const defaultTimeout = 2 * time.Minute

// OllamaBackend posts {model, prompt} to an Ollama-compatible endpoint and
// reads the completion from the JSON reply.
type OllamaBackend struct {
	cfg    types.BackendConfig
	client *http.Client
}

// ollamaRequest is the request body for the generate endpoint. Stream is
// always false so the reply is one JSON object.
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaResponse accepts both the Ollama field (response) and the older
// completion-style field.
type ollamaResponse struct {
	Response   string `json:"response"`
	Completion string `json:"completion"`
	Error      string `json:"error"`
}

// NewOllama returns a backend for cfg. A nil client uses
// http.DefaultClient.
func NewOllama(cfg types.BackendConfig, client *http.Client) *OllamaBackend {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultOllamaEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaBackend{cfg: cfg, client: client}
}

// Generate sends one prompt. Timeouts, transport errors, non-200 replies,
// undecodable bodies and empty completions all return an error wrapping
// types.ErrGenerationFailure.
func (o *OllamaBackend) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(ollamaRequest{Model: o.cfg.Model, Prompt: prompt})
	if err != nil {
		return "", failure("marshaling request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", failure("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, o.client, req, o.cfg.MaxRetries)
	if err != nil {
		return "", failure("calling %s: %v", o.cfg.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", failure("%s returned %d: %s", o.cfg.Endpoint, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", failure("decoding response: %v", err)
	}
	if out.Error != "" {
		return "", failure("model error: %s", out.Error)
	}

	text := out.Response
	if text == "" {
		text = out.Completion
	}
	return nonEmpty(text)
}
