package mail

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForward(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "s3cret", r.Header.Get(SecretHeader))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, "queued")
	}))
	defer srv.Close()

	relay := NewRelay(srv.URL, "s3cret", time.Second)
	resp, err := relay.Forward(context.Background(), Payload{
		Recipients: []string{"a@gvid.cz", "b@gvid.cz"},
		Subject:    "Platba",
		MonthKey:   "2026-03",
	})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusAccepted, resp.Status)
	assert.Equal(t, "queued", string(resp.Body))
	assert.Equal(t, []string{"a@gvid.cz", "b@gvid.cz"}, got.Recipients)
	assert.Equal(t, "2026-03", got.MonthKey)
}

func TestForward_UpstreamErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "quota exceeded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewRelay(srv.URL, "x", 0).Forward(context.Background(), Payload{Recipients: []string{"a@gvid.cz"}})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Contains(t, string(resp.Body), "quota exceeded")
	assert.Equal(t, int32(1), calls.Load())
}

func TestForward_NotConfigured(t *testing.T) {
	_, err := NewRelay("", "", 0).Forward(context.Background(), Payload{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestForward_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRelay(url, "x", time.Second).Forward(context.Background(), Payload{})
	assert.Error(t, err)
}
