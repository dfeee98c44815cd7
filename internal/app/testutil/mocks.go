// Package testutil provides hand-written mock collaborators for
// pipeline tests.
package testutil

import (
	"context"
	"os"
	"sync"
	"time"

	"stream2text/internal/app/speech"
)

// MockTranscoder records Convert calls and optionally fails them. On
// success it writes a small fake audio file at destPath so cleanup
// has something real to delete.
type MockTranscoder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func NewMockTranscoder() *MockTranscoder {
	return &MockTranscoder{}
}

func (m *MockTranscoder) WithError(err error) *MockTranscoder {
	m.err = err
	return m
}

func (m *MockTranscoder) Convert(ctx context.Context, sourceURL, destPath string) error {
	m.mu.Lock()
	m.calls = append(m.calls, sourceURL)
	m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	return os.WriteFile(destPath, []byte("fake audio content"), 0o644)
}

func (m *MockTranscoder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MockBlobStore records uploads, signed-URL issuance and removals.
type MockBlobStore struct {
	mu         sync.Mutex
	Uploaded   []string
	Removed    []string
	UploadErr  error
	PresignErr error
	RemoveErr  error
	SignedURL  string
}

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{SignedURL: "https://signed.example.com/blob"}
}

func (m *MockBlobStore) Upload(ctx context.Context, localPath, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return m.UploadErr
	}
	m.Uploaded = append(m.Uploaded, objectName)
	return nil
}

func (m *MockBlobStore) PresignedReadURL(ctx context.Context, objectName string, validity time.Duration) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	return m.SignedURL, nil
}

func (m *MockBlobStore) Remove(ctx context.Context, objectName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.Removed = append(m.Removed, objectName)
	return nil
}

// MockJobClient plays back configured job submission and polling
// outcomes.
type MockJobClient struct {
	mu          sync.Mutex
	SubmitCalls int
	PollCalls   int
	SubmitErr   error
	JobURL      string
	PollStatus  speech.JobStatus
	Job         *speech.Transcription
	FileURL     string
	FileErr     error
	Payload     *speech.ResultPayload
	FetchErr    error
}

func NewMockJobClient() *MockJobClient {
	return &MockJobClient{
		JobURL:     "https://service/transcriptions/abc123",
		PollStatus: speech.StatusSucceeded,
		Job: &speech.Transcription{
			Self:   "https://service/transcriptions/abc123",
			Status: string(speech.StatusSucceeded),
			Links:  speech.JobLinks{Files: "https://service/transcriptions/abc123/files"},
		},
		FileURL: "https://signed.example.com/result.json",
		Payload: &speech.ResultPayload{
			CombinedRecognizedPhrases: []speech.CombinedPhrase{{Lexical: "hello"}, {Lexical: "world"}},
		},
	}
}

func (m *MockJobClient) Submit(ctx context.Context, contentURL, jobBaseName string) (string, error) {
	m.mu.Lock()
	m.SubmitCalls++
	m.mu.Unlock()
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	return m.JobURL, nil
}

func (m *MockJobClient) Poll(ctx context.Context, jobURL string) (speech.JobStatus, *speech.Transcription) {
	m.mu.Lock()
	m.PollCalls++
	m.mu.Unlock()
	return m.PollStatus, m.Job
}

func (m *MockJobClient) TranscriptFileURL(ctx context.Context, job *speech.Transcription) (string, error) {
	if m.FileErr != nil {
		return "", m.FileErr
	}
	return m.FileURL, nil
}

func (m *MockJobClient) FetchResult(ctx context.Context, url string) (*speech.ResultPayload, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Payload, nil
}
