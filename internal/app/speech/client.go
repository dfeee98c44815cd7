// Package speech talks to the asynchronous batch transcription
// service: job submission, the status polling loop and result
// retrieval. All calls go through the retrying request client; this
// layer adds the job-level state machine on top.
package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stream2text/internal/app/httpx"
)

// Config holds the service settings the client needs.
type Config struct {
	BaseURL         string
	APIKey          string
	Locale          string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Client is the transcription job client.
type Client struct {
	http *httpx.Client
	cfg  Config
	log  *zap.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, hc *httpx.Client, log *zap.Logger) *Client {
	return &Client{
		http:  hc,
		cfg:   cfg,
		log:   log,
		sleep: realSleep,
	}
}

func realSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Ocp-Apim-Subscription-Key": c.cfg.APIKey}
}

// JobURL builds the canonical job URL for a known job ID. Used when
// collecting the transcript of a previously submitted job.
func (c *Client) JobURL(jobID string) string {
	return c.cfg.BaseURL + "/transcriptions/" + jobID
}

// Submit posts a new transcription job for the audio at contentURL and
// returns the canonical job reference. A short random suffix is added
// to jobBaseName so repeated submissions stay distinguishable.
func (c *Client) Submit(ctx context.Context, contentURL, jobBaseName string) (string, error) {
	displayName := fmt.Sprintf("%s_%s", jobBaseName, uuid.NewString()[:8])
	payload := submitRequest{
		ContentURLs: []string{contentURL},
		Locale:      c.cfg.Locale,
		DisplayName: displayName,
		Properties:  jobProperties{WordLevelTimestampsEnabled: true},
	}

	c.log.Info("submitting transcription job", zap.String("displayName", displayName))

	resp, err := c.http.DoJSON(ctx, http.MethodPost, c.cfg.BaseURL+"/transcriptions", c.headers(), payload)
	if err != nil {
		return "", fmt.Errorf("submit transcription job: %w", err)
	}

	var job Transcription
	if err := json.Unmarshal(resp.Body, &job); err != nil {
		return "", fmt.Errorf("decode job submission response: %w", err)
	}
	if job.Self == "" {
		c.log.Error("service accepted the job but returned no job reference",
			zap.ByteString("body", resp.Body))
		return "", errors.New("job submission response missing self reference")
	}

	c.log.Info("job submitted", zap.String("jobURL", job.Self))
	return job.Self, nil
}

// Poll drives the job status state machine until a terminal state.
// The loop never sleeps before the first check and issues at most
// MaxPollAttempts status checks; hitting the ceiling yields Timeout
// with no extra final check. A 404 stops immediately with NotFound.
// The last successfully fetched job resource is returned alongside
// the status, for failure diagnostics and result retrieval.
func (c *Client) Poll(ctx context.Context, jobURL string) (JobStatus, *Transcription) {
	c.log.Info("polling job status",
		zap.String("jobURL", jobURL),
		zap.Duration("interval", c.cfg.PollInterval),
		zap.Int("maxAttempts", c.cfg.MaxPollAttempts))

	var last *Transcription
	for attempt := 1; attempt <= c.cfg.MaxPollAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
				c.log.Warn("polling interrupted", zap.Error(err))
				return StatusPollingError, last
			}
		}

		resp, err := c.http.DoJSON(ctx, http.MethodGet, jobURL, c.headers(), nil)
		if err != nil {
			if httpx.IsNotFound(err) {
				c.log.Error("job not found while polling, stopping", zap.String("jobURL", jobURL))
				return StatusNotFound, last
			}
			c.log.Warn("poll attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
			if attempt >= c.cfg.MaxPollAttempts {
				return StatusPollingError, last
			}
			continue
		}

		var job Transcription
		if err := json.Unmarshal(resp.Body, &job); err != nil {
			c.log.Error("malformed job status response, stopping", zap.Error(err))
			return StatusPollingError, last
		}
		last = &job

		c.log.Info("job status",
			zap.Int("attempt", attempt),
			zap.String("status", job.Status))

		switch job.Status {
		case string(StatusSucceeded):
			return StatusSucceeded, last
		case string(StatusFailed):
			return StatusFailed, last
		}
	}

	c.log.Warn("polling attempt ceiling reached, job may still be running",
		zap.String("jobURL", jobURL))
	return StatusTimeout, last
}

// TranscriptFileURL fetches the job's file manifest and returns the
// content URL of the entry holding the transcription result.
func (c *Client) TranscriptFileURL(ctx context.Context, job *Transcription) (string, error) {
	if job == nil || job.Links.Files == "" {
		return "", errors.New("job resource carries no files link")
	}

	resp, err := c.http.DoJSON(ctx, http.MethodGet, job.Links.Files, c.headers(), nil)
	if err != nil {
		return "", fmt.Errorf("list job result files: %w", err)
	}

	var list fileList
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return "", fmt.Errorf("decode result file manifest: %w", err)
	}
	for _, f := range list.Values {
		if f.Kind == "Transcription" && f.Links.ContentURL != "" {
			return f.Links.ContentURL, nil
		}
	}
	return "", errors.New("no transcription entry in result file manifest")
}

// FetchResult downloads the transcript document at a signed result
// URL. The URL is self-authorizing, so no service headers are sent.
func (c *Client) FetchResult(ctx context.Context, url string) (*ResultPayload, error) {
	resp, err := c.http.DoJSON(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript content: %w", err)
	}

	var payload ResultPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, fmt.Errorf("decode transcript content: %w", err)
	}
	payload.Raw = resp.Body
	return &payload, nil
}
