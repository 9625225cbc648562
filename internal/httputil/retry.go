// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across pipeline stages.
package httputil

import (
	"context"
	"io"
	"math"
	"net/http"
	"sync"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// rate-limited responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 4

// DoWithRetry executes an HTTP request and retries on HTTP 429 (Too Many
// Requests) and HTTP 503 (the E-utilities overload response) with
// exponential backoff: 2 s, 4 s, 8 s, 16 s.
//
// When maxRetries is 0 the default (4) is used. On each retryable status
// the response body is drained and closed before sleeping. If the context
// is cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting retries the last response is returned so the caller can
// inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) {
			return resp, nil
		}

		// Exhausted retries — return the response as-is.
		if attempt >= maxRetries {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// Pacer enforces a minimum spacing between consecutive requests to one
// host. The zero value applies no spacing. Wait blocks until the spacing
// has elapsed since the previous call, or returns early with ctx.Err()
// when the context is cancelled.
//
// Pacer is safe for concurrent use so a future bounded worker pool can
// share one instance per host.
type Pacer struct {
	// Spacing is the minimum interval between requests.
	Spacing time.Duration

	mu   sync.Mutex
	last time.Time
}

// Wait blocks until at least Spacing has elapsed since the previous Wait
// returned, then records the current time.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.Spacing <= 0 {
		return nil
	}

	p.mu.Lock()
	sleep := p.Spacing - time.Since(p.last)
	// Reserve the slot before sleeping so concurrent callers queue up.
	if sleep > 0 {
		p.last = p.last.Add(p.Spacing)
	} else {
		p.last = time.Now()
		sleep = 0
	}
	p.mu.Unlock()

	if sleep == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}
