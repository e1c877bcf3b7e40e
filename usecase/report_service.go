package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/domain/repositories"
	"github.com/satriahrh/sikap/internal/audio"
	"github.com/satriahrh/sikap/internal/traits"
)

const narrativeInstruction = "You have to judge the user's answer according to what they have spoken (text) and how they have spoken (emotions). " +
	"The user does not know that the text has been divided into segments so don't mention the segments, " +
	"but provide a comprehensive analysis of the user's answer citing from the text segments and emotions as well. " +
	"Give tips to the user about where and how they can improve."

// Report is the full analysis of one recorded answer
type Report struct {
	ID             string                  `json:"id"`
	Question       string                  `json:"question"`
	Segments       int                     `json:"segments"`
	Global         []entities.TraitScore   `json:"global"`
	PerSegment     [][]entities.TraitScore `json:"per_segment"`
	Result         *entities.SessionResult `json:"result"`
	Payload        string                  `json:"payload"`
	Narrative      string                  `json:"narrative"`
	NarrativeError string                  `json:"narrative_error,omitempty"`
}

// ReportService turns an analyzed answer into ranked traits and a narrative
type ReportService struct {
	analysis *AnalysisService
	ranker   *traits.Ranker
	llm      repositories.LargeLanguageModel
	logger   *zap.Logger
}

// NewReportService creates a new report service. A nil llm skips narrative generation.
func NewReportService(
	analysis *AnalysisService,
	ranker *traits.Ranker,
	llm repositories.LargeLanguageModel,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		analysis: analysis,
		ranker:   ranker,
		llm:      llm,
		logger:   logger,
	}
}

// Generate analyzes the track and builds its report
func (s *ReportService) Generate(ctx context.Context, question string, track *audio.Track) (*Report, error) {
	return s.GenerateSegments(ctx, question, track, s.analysis.Segments())
}

// GenerateSegments is Generate with an explicit segment count
func (s *ReportService) GenerateSegments(ctx context.Context, question string, track *audio.Track, n int) (*Report, error) {
	result, err := s.analysis.AnalyzeSegments(ctx, question, track, n)
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, result)
}

// Build ranks an existing session result and requests its narrative
func (s *ReportService) Build(ctx context.Context, result *entities.SessionResult) (*Report, error) {
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session result: %w", err)
	}

	global, err := s.ranker.Global(result.Emotions)
	if err != nil {
		return nil, err
	}
	perSegment, err := s.ranker.PerSegment(result.Emotions)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:         uuid.New().String(),
		Question:   result.Question,
		Segments:   result.Segments(),
		Global:     global,
		PerSegment: perSegment,
		Result:     result,
		Payload:    BuildPayload(result),
	}

	if s.llm != nil {
		narrative, err := s.llm.Generate(ctx, report.Payload)
		if err != nil {
			s.logger.Warn("Narrative generation failed", zap.String("reportID", report.ID), zap.Error(err))
			report.NarrativeError = err.Error()
		} else {
			report.Narrative = narrative
		}
	}

	s.logger.Info("Report generated",
		zap.String("reportID", report.ID),
		zap.Int("segments", report.Segments),
		zap.Bool("narrative", report.Narrative != ""))

	return report, nil
}

// BuildPayload renders the narrative prompt: the question, every available
// transcript in segment order and each segment's emotions.
func BuildPayload(result *entities.SessionResult) string {
	var sb strings.Builder

	sb.WriteString(narrativeInstruction)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "question : %s\n\n", result.Question)

	if result.FullTranscript.Available {
		fmt.Fprintf(&sb, "Complete answer: %s\n\n", result.FullTranscript.Text)
	}

	for i, t := range result.Transcripts {
		if t.Available {
			fmt.Fprintf(&sb, "Text for segment %d: %s\n", i, t.Text)
		}
	}
	sb.WriteString("\n")

	for i, v := range result.Emotions {
		fmt.Fprintf(&sb, "Top 3 emotions for segment %d: \n", i)
		for _, e := range v {
			fmt.Fprintf(&sb, "%s : %s\n", e.Name, strconv.FormatFloat(e.Score, 'f', -1, 64))
		}
	}

	return sb.String()
}
