package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustlessid/pkg/domain-errors"
)

type pingRequest struct {
	Name string `json:"name"`
}

func (r *pingRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func decode(t *testing.T, body string) (*pingRequest, bool, *httptest.ResponseRecorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	out, ok := DecodeAndPrepare[pingRequest](rr, req, logger, req.Context(), "req-1")
	return out, ok, rr
}

func envelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	env := envelope(t, rr)
	assert.Equal(t, true, env["success"])
	assert.Equal(t, map[string]any{"n": float64(1)}, env["data"])
	assert.NotContains(t, env, "error")
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "Credential not found"), http.StatusNotFound, "Credential not found"},
		{"validation", dErrors.New(dErrors.CodeValidation, "full name is required"), http.StatusBadRequest, "full name is required"},
		{"conflict", dErrors.New(dErrors.CodeInvalidState, "busy"), http.StatusConflict, "busy"},
		{"wrapped internal hides cause", dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed"), http.StatusInternalServerError, "internal server error"},
		{"uncoded", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)
			assert.Equal(t, tt.status, rr.Code)
			env := envelope(t, rr)
			assert.Equal(t, false, env["success"])
			assert.Equal(t, tt.message, env["error"])
			assert.NotContains(t, env, "data")
		})
	}
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("valid body is normalized", func(t *testing.T) {
		out, ok, _ := decode(t, `{"name":"  Alex "}`)
		require.True(t, ok)
		assert.Equal(t, "Alex", out.Name)
	})

	t.Run("malformed json is a bad request", func(t *testing.T) {
		_, ok, rr := decode(t, `{"name":`)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("empty body runs validation", func(t *testing.T) {
		_, ok, rr := decode(t, ``)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "name is required", envelope(t, rr)["error"])
	})
}
