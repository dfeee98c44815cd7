package speech

import "encoding/json"

// JobStatus enumerates the polling state machine: Running plus five
// terminal states. Succeeded and Failed come from the service;
// NotFound, PollingError and Timeout are synthesized locally when the
// poll loop gives up.
type JobStatus string

const (
	StatusRunning      JobStatus = "Running"
	StatusSucceeded    JobStatus = "Succeeded"
	StatusFailed       JobStatus = "Failed"
	StatusNotFound     JobStatus = "NotFound"
	StatusPollingError JobStatus = "PollingError"
	StatusTimeout      JobStatus = "Timeout"
)

// Terminal reports whether the polling loop stops at this status.
func (s JobStatus) Terminal() bool {
	return s != StatusRunning
}

// Transcription mirrors the service's job resource. Self is the
// canonical job reference required by all later calls.
type Transcription struct {
	Self        string    `json:"self"`
	DisplayName string    `json:"displayName,omitempty"`
	Status      string    `json:"status,omitempty"`
	Links       JobLinks  `json:"links,omitempty"`
	Error       *APIError `json:"error,omitempty"`
}

// JobLinks carries the related-resource URLs of a job.
type JobLinks struct {
	Files string `json:"files,omitempty"`
}

// APIError is the service's structured job failure detail.
type APIError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type submitRequest struct {
	ContentURLs []string      `json:"contentUrls"`
	Locale      string        `json:"locale"`
	DisplayName string        `json:"displayName"`
	Properties  jobProperties `json:"properties"`
}

type jobProperties struct {
	WordLevelTimestampsEnabled bool `json:"wordLevelTimestampsEnabled"`
}

type fileList struct {
	Values []resultFile `json:"values"`
}

type resultFile struct {
	Kind  string    `json:"kind"`
	Links fileLinks `json:"links"`
}

type fileLinks struct {
	ContentURL string `json:"contentUrl"`
}

// ResultPayload is the transcript document fetched from the signed
// result URL. Raw retains the verbatim response body for the debug
// path when extraction fails.
type ResultPayload struct {
	CombinedRecognizedPhrases []CombinedPhrase `json:"combinedRecognizedPhrases,omitempty"`
	DisplayText               string           `json:"displayText,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// CombinedPhrase is one entry of the combined-phrase list.
type CombinedPhrase struct {
	Lexical string `json:"lexical,omitempty"`
	Display string `json:"display,omitempty"`
}
