// Package httpx is the retrying request client shared by every remote
// call in the pipeline. Connection-level failures and a fixed set of
// transient status codes are retried with exponential backoff; any
// other non-2xx response is returned immediately as a StatusError.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stream2text/internal/app/retry"
)

// Response carries the status code and fully-read body of a completed
// request.
type Response struct {
	StatusCode int
	Body       []byte
}

// StatusError reports a non-2xx response. Whether it was retried
// before being returned depends on the status code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Retryable reports whether err is worth another attempt: any
// transport-level failure, or a response in the transient status set.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return retryableStatus[se.Code]
	}
	return true
}

// Client wraps http.Client with the shared retry policy.
type Client struct {
	http   *http.Client
	policy retry.Policy
	log    *zap.Logger
}

func New(connectTimeout, readTimeout time.Duration, policy retry.Policy, log *zap.Logger) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: readTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		log: log,
	}
	if policy.OnRetry == nil {
		policy.OnRetry = func(attempt int, delay time.Duration, err error) {
			log.Warn("retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		}
	}
	c.policy = policy
	return c
}

// DoJSON issues a request with an optional JSON payload and returns
// the response body. Transient failures are retried per the client's
// policy; terminal statuses come back as *StatusError without retry.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, payload any) (*Response, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request payload: %w", err)
		}
	}

	var resp *Response
	err := retry.Do(ctx, c.policy, Retryable, func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return err
		}
		if httpResp.StatusCode >= 400 {
			return &StatusError{Code: httpResp.StatusCode, Body: string(data)}
		}
		resp = &Response{StatusCode: httpResp.StatusCode, Body: data}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
