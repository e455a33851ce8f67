package candlebliss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"candlebliss-api/internal/config"
	"candlebliss-api/internal/metrics"
)

// maxBodyBytes bounds how much of a backend response is read
const maxBodyBytes = 10 << 20

// Service handles all CandleBliss backend API interactions
type Service struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

// NewService creates a new CandleBliss backend client
func NewService(cfg *config.Config, m *metrics.Metrics) *Service {
	return &Service{
		baseURL: cfg.BaseURL(),
		httpClient: &http.Client{
			Timeout: cfg.UpstreamTimeout,
			// 302 answers are inspected by decodeResponse, never followed
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		metrics: m,
	}
}

// call describes one backend request
type call struct {
	name   string // Metrics and log label
	method string
	path   string
	token  string
	body   interface{}
}

// doRequest performs the HTTP request and returns the decoded success body
func (s *Service) doRequest(ctx context.Context, c call) ([]byte, error) {
	var reader io.Reader
	if c.body != nil {
		payload, err := json.Marshal(c.body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, s.baseURL+c.path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.ObserveUpstream(c.name, 0, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, c.method, c.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	s.metrics.ObserveUpstream(c.name, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrNetwork, err)
	}

	return decodeResponse(c.name, resp.StatusCode, body)
}

// decodeResponse is the single place that decides whether a backend answer
// is a success. The backend answers some successful calls with 302 and a JSON
// body instead of 2xx; those are accepted here so no call site special-cases it.
func decodeResponse(endpoint string, status int, body []byte) ([]byte, error) {
	if status >= 200 && status < 300 {
		return body, nil
	}
	if status == http.StatusFound && looksLikeJSON(body) {
		log.Printf("[CandleBliss] %s answered 302 with a JSON body, treated as success", endpoint)
		return body, nil
	}
	return nil, &APIError{
		Endpoint:   endpoint,
		StatusCode: status,
		Message:    extractMessage(status, body),
	}
}

func looksLikeJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return false
	}
	return (trimmed[0] == '{' || trimmed[0] == '[') && gjson.ValidBytes(trimmed)
}

// extractMessage pulls a readable message out of an error body
func extractMessage(status int, body []byte) string {
	if looksLikeJSON(body) {
		parsed := gjson.ParseBytes(body)
		for _, path := range []string{"message", "error.message", "error", "errors.0.message"} {
			if v := parsed.Get(path); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
		// {"errors": {"email": "emailNotExists"}}
		if errs := parsed.Get("errors"); errs.IsObject() {
			var parts []string
			errs.ForEach(func(key, value gjson.Result) bool {
				parts = append(parts, key.String()+": "+value.String())
				return true
			})
			sort.Strings(parts)
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}

// listPaths are the envelopes a list may be wrapped in, most specific first
var listPaths = []string{"data.data", "data.items", "data", "items"}

// unwrapList finds the JSON array in a list response
func unwrapList(body []byte) (string, bool) {
	parsed := gjson.ParseBytes(body)
	if parsed.IsArray() {
		return parsed.Raw, true
	}
	for _, path := range listPaths {
		if v := parsed.Get(path); v.IsArray() {
			return v.Raw, true
		}
	}
	return "", false
}

// unwrapObject finds the JSON object in a single-record response
func unwrapObject(body []byte) (string, bool) {
	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return "", false
	}
	for _, path := range []string{"data.data", "data"} {
		if v := parsed.Get(path); v.IsObject() {
			return v.Raw, true
		}
	}
	return parsed.Raw, true
}

func decodeList[T any](endpoint string, body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []T{}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", ErrMalformedPayload, endpoint)
	}
	raw, ok := unwrapList(trimmed)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected a list", ErrMalformedPayload, endpoint)
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, endpoint, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// decodeObject decodes a single record; an empty body gives nil
func decodeObject[T any](endpoint string, body []byte) (*T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("%w: %s: invalid JSON", ErrMalformedPayload, endpoint)
	}
	raw, ok := unwrapObject(trimmed)
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected an object", ErrMalformedPayload, endpoint)
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, endpoint, err)
	}
	return &out, nil
}
