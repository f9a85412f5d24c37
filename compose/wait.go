package compose

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Readiness polling defaults, chosen for a stack whose search backend
// becomes reachable within seconds of compose up.
const (
	DefaultWaitInterval = 100 * time.Millisecond
	DefaultMaxWait      = 20 * time.Second
)

// TimeoutError reports that a dependent service never became reachable
// within the allowed wait. It wraps the last probe failure.
type TimeoutError struct {
	Wait time.Duration
	Last error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("service not reachable after %s: %v", e.Wait, e.Last)
}

func (e *TimeoutError) Unwrap() error {
	return e.Last
}

// WaitForService polls probe on a fixed interval until it succeeds, the
// deadline passes, or ctx is canceled. Exhausting the deadline surfaces a
// TimeoutError carrying the last probe failure.
func WaitForService(ctx context.Context, log *slog.Logger, probe func(context.Context) error, interval, maxWait time.Duration) error {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	deadline := time.Now().Add(maxWait)
	var last error
	for {
		if last = probe(ctx); last == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return &TimeoutError{Wait: maxWait, Last: last}
		}
		log.Debug("service not ready, retrying", "interval", interval, "error", last)

		select {
		case <-ctx.Done():
			return &TimeoutError{Wait: maxWait, Last: ctx.Err()}
		case <-time.After(interval):
		}
	}
}

// HTTPProbe returns a probe that succeeds once a GET against url answers
// with any status below 500. Certificate verification is disabled because
// local stacks commonly run with self-signed certificates.
func HTTPProbe(url string) func(context.Context) error {
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		return nil
	}
}
