package emotion

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/domain/repositories"
)

const (
	defaultHumeURL     = "wss://api.hume.ai/v0/stream/models"
	defaultMaxAttempts = 3
	defaultTimeout     = 30 * time.Second

	// humeNoSpeechCode is the warning Hume attaches to clips without detectable speech.
	humeNoSpeechCode = "W0105"
)

// WebsocketDialer opens the streaming connection; *websocket.Dialer satisfies it
type WebsocketDialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// HumeConfig holds configuration for the Hume prosody adapter
type HumeConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	URL         string        `mapstructure:"url"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// HumeRecognizer implements EmotionRecognizer with Hume's streaming prosody model
type HumeRecognizer struct {
	config     HumeConfig
	dialer     WebsocketDialer
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

var _ repositories.EmotionRecognizer = (*HumeRecognizer)(nil)

type humeRequest struct {
	Data   string              `json:"data"`
	Models map[string]struct{} `json:"models"`
}

type humeResponse struct {
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Prosody *struct {
		Warning     string `json:"warning,omitempty"`
		Code        string `json:"code,omitempty"`
		Predictions []struct {
			Emotions []entities.EmotionScore `json:"emotions"`
		} `json:"predictions"`
	} `json:"prosody,omitempty"`
}

// NewHumeRecognizer creates a Hume client; a nil dialer uses websocket.DefaultDialer
func NewHumeRecognizer(config HumeConfig, dialer WebsocketDialer, logger *zap.Logger) (*HumeRecognizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("hume API key is required")
	}
	if config.MaxAttempts < 0 {
		return nil, fmt.Errorf("max attempts must be positive, got %d", config.MaxAttempts)
	}
	if config.URL == "" {
		config.URL = defaultHumeURL
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = defaultMaxAttempts
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	return &HumeRecognizer{
		config: config,
		dialer: dialer,
		logger: logger,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}, nil
}

// Recognize sends one WAV clip over a fresh connection and returns the reported emotions
func (h *HumeRecognizer) Recognize(ctx context.Context, wav []byte) ([]entities.EmotionScore, error) {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var scores []entities.EmotionScore
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		scores, err = h.recognizeOnce(ctx, wav)
		if err != nil {
			h.logger.Warn("Hume prosody request failed",
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(h.newBackOff(), uint64(h.config.MaxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAffectService, err)
	}

	h.logger.Debug("Hume prosody received", zap.Int("emotions", len(scores)))
	return scores, nil
}

func (h *HumeRecognizer) recognizeOnce(ctx context.Context, wav []byte) ([]entities.EmotionScore, error) {
	header := http.Header{}
	header.Set("X-Hume-Api-Key", h.config.APIKey)

	conn, _, err := h.dialer.DialContext(ctx, h.config.URL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Hume: %w", err)
	}
	defer conn.Close()

	// Unblock reads when the caller gives up
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		conn.SetReadDeadline(deadline)
	}

	request := humeRequest{
		Data:   base64.StdEncoding.EncodeToString(wav),
		Models: map[string]struct{}{"prosody": {}},
	}
	if err := conn.WriteJSON(request); err != nil {
		return nil, fmt.Errorf("failed to send audio: %w", err)
	}

	var response humeResponse
	if err := conn.ReadJSON(&response); err != nil {
		return nil, fmt.Errorf("failed to read prediction: %w", err)
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))

	return parseResponse(response)
}

func parseResponse(response humeResponse) ([]entities.EmotionScore, error) {
	if response.Error != "" {
		return nil, backoff.Permanent(fmt.Errorf("hume error %s: %s", response.Code, response.Error))
	}
	if response.Prosody == nil {
		return nil, backoff.Permanent(errors.New("response has no prosody result"))
	}
	if response.Prosody.Code == humeNoSpeechCode || response.Prosody.Warning != "" {
		return nil, backoff.Permanent(fmt.Errorf("hume warning %s: %s", response.Prosody.Code, response.Prosody.Warning))
	}
	if len(response.Prosody.Predictions) == 0 || len(response.Prosody.Predictions[0].Emotions) == 0 {
		return nil, backoff.Permanent(errors.New("response has no predictions"))
	}
	return response.Prosody.Predictions[0].Emotions, nil
}
