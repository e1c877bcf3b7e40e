package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/sikap/adapters/emotion"
	"github.com/satriahrh/sikap/adapters/llm"
	"github.com/satriahrh/sikap/adapters/stt"
	"github.com/satriahrh/sikap/adapters/tts"
	"github.com/satriahrh/sikap/domain/repositories"
	"github.com/satriahrh/sikap/internal/config"
	"github.com/satriahrh/sikap/internal/traits"
	"github.com/satriahrh/sikap/usecase"
)

// services holds the wired pipeline and the adapters that need closing
type services struct {
	analysis *usecase.AnalysisService
	reports  *usecase.ReportService
	llm      repositories.LargeLanguageModel
	tts      repositories.TextToSpeech
	closers  []func() error
}

func (s *services) Close() {
	for _, c := range s.closers {
		c()
	}
}

func buildServices(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*services, error) {
	s := &services{}

	recognizer, err := newEmotionRecognizer(cfg, logger)
	if err != nil {
		return nil, err
	}

	speechToText, err := newSpeechToText(ctx, cfg, s, logger)
	if err != nil {
		return nil, err
	}

	s.llm, err = newLargeLanguageModel(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.TTS.Provider == config.ProviderElevenLabs {
		s.tts, err = tts.NewElevenLabsTTS(cfg.TTS.ElevenLabs, logger)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create text-to-speech: %w", err)
		}
	}

	catalog, err := traits.DefaultCatalog()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to load trait catalog: %w", err)
	}

	s.analysis = usecase.NewAnalysisService(recognizer, speechToText, usecase.AnalysisConfig{
		Segments:    cfg.Analysis.Segments,
		MaxSegments: cfg.Analysis.MaxSegments,
		Language:    cfg.Analysis.Language,
	}, logger)
	ranker := traits.NewRanker(traits.NewScorer(catalog), cfg.Analysis.TopN)
	s.reports = usecase.NewReportService(s.analysis, ranker, s.llm, logger)

	logger.Info("Providers configured",
		zap.String("emotion", cfg.Emotion.Provider),
		zap.String("stt", cfg.STT.Provider),
		zap.String("llm", cfg.LLM.Provider),
		zap.String("tts", cfg.TTS.Provider),
		zap.Strings("traits", catalog.Names()))

	return s, nil
}

func newEmotionRecognizer(cfg *config.Config, logger *zap.Logger) (repositories.EmotionRecognizer, error) {
	if cfg.Emotion.Provider == config.ProviderHume {
		recognizer, err := emotion.NewHumeRecognizer(cfg.Emotion.Hume, nil, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create emotion recognizer: %w", err)
		}
		return recognizer, nil
	}
	return emotion.NewMockRecognizer(logger), nil
}

func newSpeechToText(ctx context.Context, cfg *config.Config, s *services, logger *zap.Logger) (repositories.SpeechToText, error) {
	if cfg.STT.Provider == config.ProviderGoogle {
		client, err := stt.NewGoogleSpeechToText(ctx, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create speech-to-text: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		return client, nil
	}
	return stt.NewMockSpeechToText(logger), nil
}

func newLargeLanguageModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.LargeLanguageModel, error) {
	if cfg.LLM.Provider == config.ProviderGemini {
		model, err := llm.NewGeminiLLM(ctx, cfg.LLM.Gemini, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create language model: %w", err)
		}
		return model, nil
	}
	return llm.NewMockLLM(logger), nil
}
