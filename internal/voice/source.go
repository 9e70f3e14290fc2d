package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultVoicesURL is the public Edge read-aloud voice list.
	DefaultVoicesURL = "https://speech.platform.bing.com/consumer/speech/synthesize/readaloud/voices/list?trustedclienttoken=6A5AA1D4EAFF4E9FB37E23D68491D6F4"

	// DefaultTimeout for voice list requests.
	DefaultTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// ErrMalformedResponse is wrapped by FetchError when the voice list cannot be
// decoded into records.
var ErrMalformedResponse = errors.New("malformed voice list response")

// Record is one entry of the voice list as returned by the service.
type Record struct {
	ShortName    string `json:"ShortName"`
	FriendlyName string `json:"FriendlyName"`
	Locale       string `json:"Locale"`
	Gender       string `json:"Gender"`
}

// Source lists the voices offered by the remote service.
type Source interface {
	ListVoices(ctx context.Context) ([]Record, error)
}

// FetchError reports a failed voice list query.
type FetchError struct {
	Endpoint string
	Status   int // HTTP status, 0 when the request did not complete
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("voice: fetch %s: status %d: %v", e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("voice: fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPSource fetches the voice list over HTTP.
type HTTPSource struct {
	httpClient *http.Client
	url        string
}

// NewHTTPSource returns a source for url. An empty url selects DefaultVoicesURL
// and a non-positive timeout selects DefaultTimeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if url == "" {
		url = DefaultVoicesURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
	}
}

// ListVoices performs a GET on the voice list endpoint and decodes the records.
func (s *HTTPSource) ListVoices(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{Endpoint: s.url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Endpoint: s.url, Err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Endpoint: s.url, Status: resp.StatusCode, Err: fmt.Errorf("API error: %s", string(body))}
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &FetchError{Endpoint: s.url, Status: resp.StatusCode, Err: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return records, nil
}
