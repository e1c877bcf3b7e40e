package websocket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultFetchAttempts = 3
	defaultFetchTimeout  = 30 * time.Second
	defaultMaxAudioSize  = 32 << 20
)

// AudioFetcher downloads a recorded answer referenced by audio_url
type AudioFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPAudioFetcher fetches audio over HTTP, retrying transient failures
type HTTPAudioFetcher struct {
	client      *http.Client
	maxSize     int64
	maxAttempts int
	logger      *zap.Logger

	newBackOff func() backoff.BackOff
}

var _ AudioFetcher = (*HTTPAudioFetcher)(nil)

// NewHTTPAudioFetcher creates a fetcher. maxSize <= 0 uses a 32MB limit.
func NewHTTPAudioFetcher(maxSize int64, logger *zap.Logger) *HTTPAudioFetcher {
	if maxSize <= 0 {
		maxSize = defaultMaxAudioSize
	}
	return &HTTPAudioFetcher{
		client:      &http.Client{Timeout: defaultFetchTimeout},
		maxSize:     maxSize,
		maxAttempts: defaultFetchAttempts,
		logger:      logger,
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}
}

// Fetch downloads url. Client errors are not retried.
func (f *HTTPAudioFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	attempt := 0
	operation := func() error {
		attempt++
		body, err := f.get(ctx, url)
		if err != nil {
			f.logger.Warn("Audio download failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		data = body
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), uint64(f.maxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioFetch, err)
	}

	f.logger.Info("Audio downloaded", zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}

func (f *HTTPAudioFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("server returned status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, backoff.Permanent(fmt.Errorf("audio exceeds %d bytes", f.maxSize))
	}
	return body, nil
}
