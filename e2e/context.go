package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext carries HTTP state across the steps of one scenario.
type TestContext struct {
	BaseURL      string
	HTTPClient   *http.Client
	AccessToken  string
	LastResponse *http.Response
	LastBody     []byte
	saved        map[string]string
}

func NewTestContext() *TestContext {
	baseURL := os.Getenv("E2E_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		saved:      map[string]string{},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.AccessToken = ""
	tc.LastResponse = nil
	tc.LastBody = nil
	tc.saved = map[string]string{}
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) PATCH(path string, headers map[string]string) error {
	return tc.do(http.MethodPatch, path, nil, headers)
}

func (tc *TestContext) do(method, path string, body interface{}, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if tc.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+tc.AccessToken)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.LastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.LastResponse = resp
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastBody
}

func (tc *TestContext) GetLastResponseHeader(name string) string {
	if tc.LastResponse == nil {
		return ""
	}
	return tc.LastResponse.Header.Get(name)
}

// GetResponseField reads a top-level field of the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(tc.LastBody, &body); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	v, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response %s", field, tc.LastBody)
	}
	return v, nil
}

func (tc *TestContext) GetAccessToken() string      { return tc.AccessToken }
func (tc *TestContext) SetAccessToken(token string) { tc.AccessToken = token }

func (tc *TestContext) Save(key, value string)  { tc.saved[key] = value }
func (tc *TestContext) Saved(key string) string { return tc.saved[key] }
