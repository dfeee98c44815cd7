package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stream2text/internal/app/retry"
)

func testPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

func TestDoJSON_RetriesTransientStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := New(5*time.Second, 5*time.Second, testPolicy(), zap.NewNop())
	resp, err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, 3, calls)
}

func TestDoJSON_TerminalStatusNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(5*time.Second, 5*time.Second, testPolicy(), zap.NewNop())
	_, err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, 1, calls)
}

func TestDoJSON_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := New(5*time.Second, 5*time.Second, testPolicy(), zap.NewNop())
	_, err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestDoJSON_SendsPayloadAndHeaders(t *testing.T) {
	var gotBody string
	var gotHeader string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		gotHeader = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(5*time.Second, 5*time.Second, testPolicy(), zap.NewNop())
	payload := map[string]string{"locale": "he-IL"}
	headers := map[string]string{"Ocp-Apim-Subscription-Key": "secret"}

	resp, err := client.DoJSON(context.Background(), http.MethodPost, server.URL, headers, payload)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"locale":"he-IL"}`, gotBody)
	assert.Equal(t, "secret", gotHeader)
	assert.Equal(t, "application/json", gotContentType)
}

func TestDoJSON_ExhaustsAttemptsOnPersistentFailure(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	policy := testPolicy()
	client := New(5*time.Second, 5*time.Second, policy, zap.NewNop())
	_, err := client.DoJSON(context.Background(), http.MethodGet, server.URL, nil, nil)

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Equal(t, policy.MaxAttempts, calls)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"connection_error", assert.AnError, true},
		{"status_429", &StatusError{Code: 429}, true},
		{"status_500", &StatusError{Code: 500}, true},
		{"status_502", &StatusError{Code: 502}, true},
		{"status_503", &StatusError{Code: 503}, true},
		{"status_504", &StatusError{Code: 504}, true},
		{"status_400", &StatusError{Code: 400}, false},
		{"status_404", &StatusError{Code: 404}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}
