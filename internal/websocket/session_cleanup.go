package websocket

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// InterviewExpirer removes interviews idle for longer than maxIdle
type InterviewExpirer interface {
	ExpireIdle(ctx context.Context, maxIdle time.Duration) (int, error)
}

// SessionCleanupService periodically drops idle interview sessions
type SessionCleanupService struct {
	interviews InterviewExpirer
	interval   time.Duration
	maxIdle    time.Duration
	logger     *zap.Logger
	stopChan   chan struct{}
	doneChan   chan struct{}
}

// NewSessionCleanupService creates a new session cleanup service
func NewSessionCleanupService(interviews InterviewExpirer, interval, maxIdle time.Duration, logger *zap.Logger) *SessionCleanupService {
	return &SessionCleanupService{
		interviews: interviews,
		interval:   interval,
		maxIdle:    maxIdle,
		logger:     logger,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started",
		zap.Duration("interval", s.interval),
		zap.Duration("maxIdle", s.maxIdle))
}

// Stop gracefully stops the cleanup service and waits for a running cleanup
func (s *SessionCleanupService) Stop() {
	close(s.stopChan)
	<-s.doneChan
	s.logger.Info("Session cleanup service stopped")
}

// cleanupLoop runs the cleanup process periodically
func (s *SessionCleanupService) cleanupLoop() {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// runCleanup performs the actual cleanup of idle interviews
func (s *SessionCleanupService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := s.interviews.ExpireIdle(ctx, s.maxIdle)
	if err != nil {
		s.logger.Error("Failed to expire interviews", zap.Error(err))
		return
	}

	if removed > 0 {
		s.logger.Info("Idle interviews expired", zap.Int("removed", removed))
	}
}
