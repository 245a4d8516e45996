package amocrm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ospect/amosheets/internal/common"
)

// requestTimeout bounds a single CRM exchange, not the whole retry cycle.
const requestTimeout = 30 * time.Second

// StatusError is a CRM response the executor refused to accept: a retryable
// status that survived every attempt, or a status the caller rejects.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("amocrm returned status %d: %s", e.Status, e.Body)
}

// response is one accepted CRM exchange. Callers still have to check
// Status: the executor only decides what is worth retrying, not what is a
// success.
type response struct {
	Status int
	Body   []byte
}

// executor sends CRM requests under the shared retry policy: up to five
// attempts, retrying 429, any 5xx and transport failures, with exponential
// backoff starting at half a second.
type executor struct {
	httpClient *http.Client
	token      string
	policy     common.Policy
}

func newExecutor(token string, httpClient *http.Client) *executor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &executor{
		httpClient: httpClient,
		token:      token,
		policy: common.Policy{
			MaxAttempts: 5,
			Delay:       common.ExponentialDelay(500 * time.Millisecond),
			Retryable:   retryable,
		},
	}
}

// retryable accepts rate limiting, server-side failures, and transport
// errors including single-request timeouts. Caller cancellation stops the
// cycle immediately.
func retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status == http.StatusTooManyRequests || statusErr.Status >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// do performs one CRM call. The payload, when non-nil, is JSON-encoded once
// and resent on every attempt.
func (e *executor) do(ctx context.Context, method, rawURL string, query url.Values, payload any) (*response, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = encoded
	}
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	var resp *response
	err := common.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+e.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		res, err := e.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()

		data, err := io.ReadAll(res.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return &StatusError{Status: res.StatusCode, Body: string(data)}
		}

		resp = &response{Status: res.StatusCode, Body: data}
		return nil
	}, e.policy)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
