package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestTTS(t *testing.T, baseURL string) *ElevenLabsTTS {
	t.Helper()
	tts, err := NewElevenLabsTTS(ElevenLabsConfig{
		APIKey:     "test-api-key",
		APIBaseURL: baseURL,
		ChunkSize:  4,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	tts.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return tts
}

func collect(ch <-chan []byte) []byte {
	var out []byte
	for chunk := range ch {
		out = append(out, chunk...)
	}
	return out
}

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewElevenLabsTTS(ElevenLabsConfig{}, logger)
	assert.Error(t, err, "API key is required")

	_, err = NewElevenLabsTTS(ElevenLabsConfig{APIKey: "key", Stability: 1.5}, logger)
	assert.Error(t, err)

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: "key"}, logger)
	require.NoError(t, err)
	assert.Equal(t, defaultVoiceID, tts.config.VoiceID)
	assert.Equal(t, defaultAPIBaseURL, tts.config.APIBaseURL)
	assert.Equal(t, defaultMaxAttempts, tts.config.MaxAttempts)
}

func TestElevenLabsTTS_ConvertTextToSpeech(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/pcm", r.Header.Get("Accept"))
		assert.True(t, strings.HasSuffix(r.URL.Path, "/text-to-speech/"+defaultVoiceID+"/stream"))

		var req ElevenLabsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Great answer.", req.Text)
		assert.Equal(t, defaultModelID, req.ModelID)

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	tts := newTestTTS(t, server.URL)
	audio, err := tts.ConvertTextToSpeech(context.Background(), "Great answer.")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), collect(audio))
}

func TestElevenLabsTTS_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("audio"))
	}))
	defer server.Close()

	tts := newTestTTS(t, server.URL)
	audio, err := tts.ConvertTextToSpeech(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), collect(audio))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestElevenLabsTTS_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	tts := newTestTTS(t, server.URL)
	_, err := tts.ConvertTextToSpeech(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestElevenLabsTTS_ConvertTextToSpeech_EmptyText(t *testing.T) {
	tts := newTestTTS(t, "http://127.0.0.1:0")

	_, err := tts.ConvertTextToSpeech(context.Background(), "")
	assert.Error(t, err)

	_, err = tts.ConvertTextToSpeech(context.Background(), "   ")
	assert.Error(t, err)
}

// Integration test - only runs if ELEVEN_LABS_API_KEY is set with real API key
func TestElevenLabsTTS_ConvertTextToSpeech_Integration(t *testing.T) {
	apiKey := os.Getenv("ELEVEN_LABS_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test - set ELEVEN_LABS_API_KEY environment variable with real API key")
	}

	tts, err := NewElevenLabsTTS(ElevenLabsConfig{APIKey: apiKey}, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	audio, err := tts.ConvertTextToSpeech(ctx, "Thank you for your answers. Here is your feedback.")
	require.NoError(t, err)
	assert.NotEmpty(t, collect(audio))
}
