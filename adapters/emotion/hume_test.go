package emotion

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/sikap/domain"
)

var upgrader = websocket.Upgrader{}

// newHumeServer answers every prediction request with reply
func newHumeServer(t *testing.T, reply func(req humeRequest) interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Hume-Api-Key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var req humeRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		conn.WriteJSON(reply(req))
	}))
}

func newTestRecognizer(t *testing.T, server *httptest.Server, apiKey string) *HumeRecognizer {
	t.Helper()
	h, err := NewHumeRecognizer(HumeConfig{
		APIKey: apiKey,
		URL:    "ws" + strings.TrimPrefix(server.URL, "http"),
	}, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	h.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return h
}

func TestHumeRecognizer_Recognize(t *testing.T) {
	server := newHumeServer(t, func(req humeRequest) interface{} {
		audio, err := base64.StdEncoding.DecodeString(req.Data)
		assert.NoError(t, err)
		assert.Equal(t, "RIFF", string(audio))
		_, ok := req.Models["prosody"]
		assert.True(t, ok)

		return map[string]interface{}{
			"prosody": map[string]interface{}{
				"predictions": []interface{}{
					map[string]interface{}{
						"emotions": []interface{}{
							map[string]interface{}{"name": "Calmness", "score": 0.42},
							map[string]interface{}{"name": "Interest", "score": 0.17},
						},
					},
				},
			},
		}
	})
	defer server.Close()

	h := newTestRecognizer(t, server, "test-key")
	scores, err := h.Recognize(context.Background(), []byte("RIFF"))
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "Calmness", scores[0].Name)
	assert.InDelta(t, 0.42, scores[0].Score, 1e-9)
}

func TestHumeRecognizer_NoSpeechWarning(t *testing.T) {
	var calls int32
	server := newHumeServer(t, func(req humeRequest) interface{} {
		atomic.AddInt32(&calls, 1)
		return map[string]interface{}{
			"prosody": map[string]interface{}{"warning": "No speech detected.", "code": humeNoSpeechCode},
		}
	})
	defer server.Close()

	h := newTestRecognizer(t, server, "test-key")
	_, err := h.Recognize(context.Background(), []byte("RIFF"))
	assert.True(t, errors.Is(err, domain.ErrAffectService))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "warnings are not retried")
}

func TestHumeRecognizer_ErrorResponse(t *testing.T) {
	server := newHumeServer(t, func(req humeRequest) interface{} {
		return map[string]interface{}{"error": "payload too large", "code": "E0202"}
	})
	defer server.Close()

	h := newTestRecognizer(t, server, "test-key")
	_, err := h.Recognize(context.Background(), []byte("RIFF"))
	assert.True(t, errors.Is(err, domain.ErrAffectService))
	assert.Contains(t, err.Error(), "payload too large")
}

func TestHumeRecognizer_DialFailureIsRetried(t *testing.T) {
	server := newHumeServer(t, func(req humeRequest) interface{} { return nil })
	defer server.Close()

	h := newTestRecognizer(t, server, "wrong-key")
	dialer := &countingDialer{}
	h.dialer = dialer

	_, err := h.Recognize(context.Background(), []byte("RIFF"))
	assert.True(t, errors.Is(err, domain.ErrAffectService))
	assert.Equal(t, int32(defaultMaxAttempts), atomic.LoadInt32(&dialer.calls))
}

func TestNewHumeRecognizer_RequiresKey(t *testing.T) {
	_, err := NewHumeRecognizer(HumeConfig{}, nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestMockRecognizer_Deterministic(t *testing.T) {
	m := NewMockRecognizer(zaptest.NewLogger(t))

	first, err := m.Recognize(context.Background(), []byte("clip one"))
	require.NoError(t, err)
	second, err := m.Recognize(context.Background(), []byte("clip one"))
	require.NoError(t, err)
	other, err := m.Recognize(context.Background(), []byte("clip two"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	for _, s := range first {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.Less(t, s.Score, 1.0)
	}
}

type countingDialer struct {
	calls int32
}

func (d *countingDialer) DialContext(ctx context.Context, urlStr string, header http.Header) (*websocket.Conn, *http.Response, error) {
	atomic.AddInt32(&d.calls, 1)
	return websocket.DefaultDialer.DialContext(ctx, urlStr, header)
}
