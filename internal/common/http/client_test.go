package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestJSON_SendsBodyAndHeaders(t *testing.T) {
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "approved", body["status"])
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	resp, err := NewClient(time.Second).JSON(context.Background(), http.MethodPatch, url,
		map[string]string{"Authorization": "Bearer t"}, map[string]string{"status": "approved"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct{ Success bool }
	require.NoError(t, resp.Decode(&out))
	assert.True(t, out.Success)
}

func TestJSON_RetriesGatewayStatuses(t *testing.T) {
	var calls int32
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	resp, err := NewClient(time.Second).WithRetries(2, time.Millisecond).
		JSON(context.Background(), http.MethodPost, url, nil, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestJSON_ReturnsLastTransientReply(t *testing.T) {
	var calls int32
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"maintenance"}`))
	})

	resp, err := NewClient(time.Second).WithRetries(1, time.Millisecond).
		JSON(context.Background(), http.MethodGet, url, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.JSONEq(t, `{"error":"maintenance"}`, string(resp.Body))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestJSON_DoesNotRetryDecidedReplies(t *testing.T) {
	var calls int32
	url := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	resp, err := NewClient(time.Second).WithRetries(3, time.Millisecond).
		JSON(context.Background(), http.MethodGet, url, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
