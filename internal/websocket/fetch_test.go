package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestFetcher(t *testing.T, maxSize int64) *HTTPAudioFetcher {
	f := NewHTTPAudioFetcher(maxSize, zaptest.NewLogger(t))
	f.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return f
}

func TestHTTPAudioFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("RIFF"))
	}))
	defer server.Close()

	data, err := newTestFetcher(t, 0).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPAudioFetcher_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestFetcher(t, 0).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrAudioFetch)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPAudioFetcher_RejectsOversizedAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	}))
	defer server.Close()

	_, err := newTestFetcher(t, 32).Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrAudioFetch)
}
