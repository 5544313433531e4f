// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for the generation backends.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 2

// retryableStatus reports whether a response status is worth another try:
// rate limiting and gateway/overload errors from a busy model server.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// DoWithRetry executes req and retries transport errors and retryable
// statuses (429, 502, 503, 504) with exponential backoff starting at
// RetryBaseDelay.
//
// When maxRetries is negative the default (2) is used; zero disables
// retries. The request body is rewound through req.GetBody on each attempt.
// After exhausting retries on a retryable status the last response is
// returned so the caller can inspect it. Context cancellation stops the
// loop and returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewExponential(RetryBaseDelay))

	var (
		resp    *http.Response
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		last := attempt > maxRetries

		r, err := cloneRequest(ctx, req)
		if err != nil {
			return err
		}
		got, err := client.Do(r)
		if err != nil {
			if ctx.Err() != nil || last {
				return err
			}
			return retry.RetryableError(err)
		}

		if retryableStatus(got.StatusCode) && !last {
			io.Copy(io.Discard, got.Body)
			got.Body.Close()
			return retry.RetryableError(fmt.Errorf("server returned %d", got.StatusCode))
		}

		resp = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	r := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
		r.Body = body
	}
	return r, nil
}
