// Package testutil holds request builders and response assertions shared by
// handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ErrorBody mirrors the JSON error envelope written by httputil.WriteError.
type ErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewJSONRequest marshals body and sets the JSON content type.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err, "marshal request body")
	return NewRequestWithBody(t, method, path, string(raw))
}

// NewRequestWithBody sends body verbatim, for malformed-JSON cases.
func NewRequestWithBody(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the body without consuming the recorder, so a test
// can decode the same response more than once.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&out),
		"decode response %q", rr.Body.String())
	return &out
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status, body: %s", rr.Body.String())
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertStatusAndError checks the status and the envelope's error code. Internal
// errors must never carry a description.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	body := UnmarshalResponse[ErrorBody](t, rr)
	assert.Equal(t, expectedCode, body.Error, "unexpected error code")
	if expectedCode == "internal_error" {
		assert.Empty(t, body.ErrorDescription, "internal errors leak no detail")
	}
}

// AssertJSONContains checks one top-level field. Numbers decode as float64.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, expectedValue any) {
	t.Helper()
	fields := UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, expectedValue, (*fields)[key], "unexpected value for %q", key)
}
