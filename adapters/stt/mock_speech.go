package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/repositories"
)

// silenceThreshold is the smallest clip the mock treats as speech.
const silenceThreshold = 1000

// MockSpeechToText is a placeholder implementation for speech recognition
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) repositories.SpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	s.logger.Debug("Processing speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	// Mock transcription based on audio size
	switch {
	case len(audioData) > 100000:
		return "I led the migration of our billing system and kept the team focused on the deadline.", nil
	case len(audioData) > 10000:
		return "I kept the team focused on the deadline.", nil
	case len(audioData) > silenceThreshold:
		return "Thank you.", nil
	default:
		return "", domain.ErrNoSpeechDetected
	}
}
