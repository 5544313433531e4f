// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/pdiddy/docfill/internal/httputil"
	"github.com/pdiddy/docfill/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	httputil.RetryBaseDelay = time.Millisecond
	os.Exit(m.Run())
}

func ollamaConfig(url string) types.BackendConfig {
	return types.BackendConfig{
		Kind:       types.BackendOllama,
		Model:      "llama3.2",
		Endpoint:   url,
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	}
}

// --- ollama ---

func TestOllama_Success(t *testing.T) {
	var got ollamaRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"llama3.2","response":"Generated text.","done":true}`))
	}))
	defer ts.Close()

	cfg := ollamaConfig(ts.URL)
	cfg.APIKey = "secret"
	text, err := NewOllama(cfg, ts.Client()).Generate(context.Background(), "write about goals")
	require.NoError(t, err)

	assert.Equal(t, "Generated text.", text)
	assert.Equal(t, "llama3.2", got.Model)
	assert.Equal(t, "write about goals", got.Prompt)
	assert.False(t, got.Stream)
}

func TestOllama_CompletionField(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"completion":"From completion."}`))
	}))
	defer ts.Close()

	text, err := NewOllama(ollamaConfig(ts.URL), ts.Client()).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "From completion.", text)
}

func TestOllama_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("boom"))
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"response":"   "}`))
			},
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
		{
			name: "model error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"error":"model not found"}`))
			},
		},
		{
			name: "rate limited past retries",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			text, err := NewOllama(ollamaConfig(ts.URL), ts.Client()).Generate(context.Background(), "p")
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrGenerationFailure))
			assert.Empty(t, text)
		})
	}
}

func TestOllama_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	cfg := ollamaConfig(ts.URL)
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxRetries = 0

	start := time.Now()
	_, err := NewOllama(cfg, ts.Client()).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGenerationFailure))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOllama_UnreachableEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewOllama(ollamaConfig(url), nil).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGenerationFailure))
}

func TestNewOllama_Defaults(t *testing.T) {
	o := NewOllama(types.BackendConfig{Model: "m"}, nil)
	assert.Equal(t, DefaultOllamaEndpoint, o.cfg.Endpoint)
	assert.Equal(t, defaultTimeout, o.cfg.Timeout)
	assert.Same(t, http.DefaultClient, o.client)
}

// --- langchain ---

// fakeModel is an llms.Model that fails a fixed number of times before
// answering.
type fakeModel struct {
	failures int32
	calls    int32
	answer   string
}

func (f *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	n := atomic.AddInt32(&f.calls, 1)
	if n <= f.failures {
		return nil, errors.New("connection reset")
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.answer}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func langchainConfig() types.BackendConfig {
	return types.BackendConfig{Kind: types.BackendLangchain, Provider: "ollama", Model: "m", Timeout: time.Second, MaxRetries: 2}
}

func TestLangchain_Success(t *testing.T) {
	m := &fakeModel{answer: "Section text."}
	text, err := NewLangchainWithModel(langchainConfig(), m, nil).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Section text.", text)
	assert.Equal(t, int32(1), m.calls)
}

func TestLangchain_RetriesTransientErrors(t *testing.T) {
	m := &fakeModel{failures: 2, answer: "ok"}
	text, err := NewLangchainWithModel(langchainConfig(), m, nil).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), m.calls)
}

func TestLangchain_ExhaustsRetries(t *testing.T) {
	m := &fakeModel{failures: 10, answer: "never"}
	_, err := NewLangchainWithModel(langchainConfig(), m, nil).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrGenerationFailure))
	assert.Equal(t, int32(3), m.calls)
}

func TestLangchain_EmptyAnswer(t *testing.T) {
	m := &fakeModel{answer: ""}
	_, err := NewLangchainWithModel(langchainConfig(), m, nil).Generate(context.Background(), "p")
	assert.True(t, errors.Is(err, types.ErrGenerationFailure))
}

// --- factory ---

func TestNew(t *testing.T) {
	b, err := New(types.BackendConfig{Kind: types.BackendOllama, Model: "m"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OllamaBackend{}, b)

	b, err = New(types.BackendConfig{Kind: types.BackendLangchain, Provider: "ollama", Model: "m"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LangchainBackend{}, b)

	_, err = New(types.BackendConfig{Kind: "bogus"}, nil)
	assert.Error(t, err)

	_, err = New(types.BackendConfig{Kind: types.BackendLangchain, Provider: "bogus", Model: "m"}, nil)
	assert.Error(t, err)
}

func TestDryRun(t *testing.T) {
	text, err := DryRun().Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "[prompt]\nhello", text)
}
