// Package testutil holds request builders and envelope assertions shared by
// handler tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustlessid/pkg/platform/httputil"
)

// NewJSONRequest builds a request whose body is body encoded as JSON. A
// json.RawMessage is sent as is, which lets tests post malformed payloads.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var payload io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		payload = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "encode request body")
		payload = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// DoRequest serves req with handler and returns the recorded response.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// DecodeEnvelope unmarshals the response body as an envelope around T.
func DecodeEnvelope[T any](t *testing.T, rr *httptest.ResponseRecorder) httputil.Envelope[T] {
	t.Helper()
	var env httputil.Envelope[T]
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), "decode envelope")
	return env
}

// DecodeData asserts a success envelope and returns its payload.
func DecodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	env := DecodeEnvelope[T](t, rr)
	require.True(t, env.Success, "expected success envelope, got error %q", env.Error)
	require.NotNil(t, env.Data, "success envelope carries no data")
	return *env.Data
}

// AssertStatus asserts the response status code matches expected.
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status code")
}

// AssertStatusOK asserts the response status is 200 OK.
func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertFailure asserts a failure envelope with the given status and message.
// An empty message only checks that one is present.
func AssertFailure(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	t.Helper()
	AssertStatus(t, rr, expectedStatus)
	env := DecodeEnvelope[json.RawMessage](t, rr)
	assert.False(t, env.Success, "expected failure envelope")
	assert.Nil(t, env.Data, "failure envelope must not carry data")
	if expectedMessage == "" {
		assert.NotEmpty(t, env.Error)
		return
	}
	assert.Equal(t, expectedMessage, env.Error, "unexpected error message")
}
