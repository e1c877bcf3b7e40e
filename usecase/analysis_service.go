package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/domain/repositories"
	"github.com/satriahrh/sikap/internal/audio"
)

const (
	transcriptEncoding = "LINEAR16"
	// DefaultMaxSegments bounds the segment count of a single analysis unless configured otherwise.
	DefaultMaxSegments = 64
)

// AnalysisConfig controls how an answer is segmented and transcribed
type AnalysisConfig struct {
	Segments    int
	MaxSegments int
	Language    string
}

// AnalysisService splits an answer into segments and analyzes them concurrently
type AnalysisService struct {
	emotions     repositories.EmotionRecognizer
	speechToText repositories.SpeechToText
	config       AnalysisConfig
	logger       *zap.Logger
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	emotions repositories.EmotionRecognizer,
	stt repositories.SpeechToText,
	config AnalysisConfig,
	logger *zap.Logger,
) *AnalysisService {
	if config.Language == "" {
		config.Language = "en-US"
	}
	if config.MaxSegments <= 0 {
		config.MaxSegments = DefaultMaxSegments
	}
	return &AnalysisService{
		emotions:     emotions,
		speechToText: stt,
		config:       config,
		logger:       logger,
	}
}

// Segments returns the configured segment count
func (s *AnalysisService) Segments() int {
	return s.config.Segments
}

// Analyze splits the track into the configured number of segments
func (s *AnalysisService) Analyze(ctx context.Context, question string, track *audio.Track) (*entities.SessionResult, error) {
	return s.AnalyzeSegments(ctx, question, track, s.config.Segments)
}

// AnalyzeSegments runs emotion inference and transcription on each of n segments
// plus a transcription of the whole track. Collaborator failures are recorded in
// the result, never returned.
func (s *AnalysisService) AnalyzeSegments(ctx context.Context, question string, track *audio.Track, n int) (*entities.SessionResult, error) {
	if n > s.config.MaxSegments {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", domain.ErrInvalidSegmentCount, n, s.config.MaxSegments)
	}
	segments, err := track.Segments(n)
	if err != nil {
		return nil, err
	}

	n = len(segments)
	result := entities.NewSessionResult(question, n)
	failures := make([][]entities.SegmentFailure, n)
	var fullFailure []entities.SegmentFailure

	audioConfig := repositories.AudioConfig{
		SampleRate: track.SampleRate(),
		Channels:   track.Format().NumChannels,
		Encoding:   transcriptEncoding,
		Language:   s.config.Language,
	}

	s.logger.Info("Analyzing answer",
		zap.Int("segments", n),
		zap.Int("samples", track.Len()),
		zap.Int("sampleRate", track.SampleRate()))

	// Tasks only write their own slot and always return nil.
	var g errgroup.Group
	for _, segment := range segments {
		segment := segment
		g.Go(func() error {
			result.Emotions[segment.Index], result.Transcripts[segment.Index], failures[segment.Index] =
				s.analyzeSegment(ctx, track, segment, audioConfig)
			return nil
		})
	}
	g.Go(func() error {
		text, err := s.speechToText.TranscribeAudio(ctx, track.Bytes(), audioConfig)
		if err != nil {
			s.logTranscriptionFailure(entities.FullTrackIndex, err)
			fullFailure = []entities.SegmentFailure{newFailure(entities.FullTrackIndex, entities.FailureStageTranscription, err)}
			return nil
		}
		result.FullTranscript = entities.NewTranscript(text)
		return nil
	})
	g.Wait()

	for _, f := range failures {
		result.Failures = append(result.Failures, f...)
	}
	result.Failures = append(result.Failures, fullFailure...)

	s.logger.Info("Answer analyzed",
		zap.Int("segments", n),
		zap.Int("failures", len(result.Failures)),
		zap.Bool("fullTranscript", result.FullTranscript.Available))

	return result, nil
}

func (s *AnalysisService) analyzeSegment(
	ctx context.Context,
	track *audio.Track,
	segment entities.AudioSegment,
	audioConfig repositories.AudioConfig,
) (entities.EmotionVector, entities.TranscriptFragment, []entities.SegmentFailure) {
	clip, err := track.Encode(segment)
	if err != nil {
		s.logger.Error("Failed to encode segment", zap.Int("segment", segment.Index), zap.Error(err))
		return nil, entities.TranscriptFragment{}, []entities.SegmentFailure{
			newFailure(segment.Index, entities.FailureStageEmotion, err),
			newFailure(segment.Index, entities.FailureStageTranscription, err),
		}
	}

	var (
		vector        entities.EmotionVector
		transcript    entities.TranscriptFragment
		emotionErr    error
		transcriptErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		scores, err := s.emotions.Recognize(ctx, clip)
		if err != nil {
			emotionErr = err
			return nil
		}
		vector = entities.NewEmotionVector(scores)
		return nil
	})
	g.Go(func() error {
		text, err := s.speechToText.TranscribeAudio(ctx, clip, audioConfig)
		if err != nil {
			transcriptErr = err
			return nil
		}
		transcript = entities.NewTranscript(text)
		return nil
	})
	g.Wait()

	var failures []entities.SegmentFailure
	if emotionErr != nil {
		s.logger.Warn("Emotion inference failed",
			zap.Int("segment", segment.Index),
			zap.Error(emotionErr))
		failures = append(failures, newFailure(segment.Index, entities.FailureStageEmotion, emotionErr))
	}
	if transcriptErr != nil {
		s.logTranscriptionFailure(segment.Index, transcriptErr)
		failures = append(failures, newFailure(segment.Index, entities.FailureStageTranscription, transcriptErr))
	}

	return vector, transcript, failures
}

func (s *AnalysisService) logTranscriptionFailure(index int, err error) {
	if errors.Is(err, domain.ErrNoSpeechDetected) {
		s.logger.Info("No speech detected", zap.Int("segment", index))
		return
	}
	s.logger.Warn("Transcription failed", zap.Int("segment", index), zap.Error(err))
}

func newFailure(index int, stage entities.FailureStage, err error) entities.SegmentFailure {
	return entities.SegmentFailure{
		Index:  index,
		Stage:  stage,
		Reason: err.Error(),
	}
}
