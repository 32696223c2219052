package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriterBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "loud")
	logger.Debug().Msg("debug")
	logger.Info().Msg("info")

	assert.NotContains(t, buf.String(), "debug")
	assert.Contains(t, buf.String(), "info")
}

func TestRequestsLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info")
	h := middleware.RequestID(Requests(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/rpc/patients.get", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/rpc/patients.get", line["path"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.NotEmpty(t, line["request_id"])
}

func TestRequestsLogsTaggedCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info")
	h := Requests(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Tag(r.Context(), "patients.get", 42)
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/rpc/patients.get", nil))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "patients.get", line["procedure"])
	assert.Equal(t, float64(42), line["user_id"])
	assert.Contains(t, line, "latency")
}

func TestRecovererReturns500(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info")
	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "INTERNAL")
	assert.Contains(t, buf.String(), "panic recovered")
}
