package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/domain/repositories"
	"github.com/satriahrh/sikap/internal/audio"
	"github.com/satriahrh/sikap/internal/questions"
)

const feedbackInstruction = "Based on the following list of question-answer pairs, create an overall analysis of the person's performance. " +
	"Provide specific areas where they can improve. Offer constructive feedback in a professional tone, " +
	"focusing on actionable improvements in communication, technical understanding, or any other relevant aspects, " +
	"and give an example of how they could have answered the questions that were asked to them in a detailed and professional way. " +
	"The output should be written as feedback addressed to the person and the evaluation should be comprehensive."

const questionInstruction = "You are an interviewer who asks only formal and concise questions. " +
	"Based on the previous questions asked and their answers, create the next interview question. " +
	"Ask the question directly in less than 15 words, without any extra phrasing."

// InterviewConfig controls where interview questions come from
type InterviewConfig struct {
	// GenerateQuestions asks the language model for each question; otherwise the bank is used
	GenerateQuestions bool
}

// InterviewService keeps the question/answer log of an interview and evaluates it
type InterviewService struct {
	interviews repositories.InterviewRepository
	reports    *ReportService
	llm        repositories.LargeLanguageModel
	bank       *questions.Bank
	config     InterviewConfig
	logger     *zap.Logger
}

// NewInterviewService creates a new interview service
func NewInterviewService(
	interviews repositories.InterviewRepository,
	reports *ReportService,
	llm repositories.LargeLanguageModel,
	bank *questions.Bank,
	config InterviewConfig,
	logger *zap.Logger,
) *InterviewService {
	return &InterviewService{
		interviews: interviews,
		reports:    reports,
		llm:        llm,
		bank:       bank,
		config:     config,
		logger:     logger,
	}
}

// Start opens an interview with the given id
func (s *InterviewService) Start(ctx context.Context, id string) (*entities.Interview, error) {
	interview := entities.NewInterview(id)
	if err := s.interviews.Create(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}
	s.logger.Info("Interview started", zap.String("interviewID", interview.ID))
	return interview, nil
}

// AddQuestionAnswer appends a pair and returns the number of recorded answers
func (s *InterviewService) AddQuestionAnswer(ctx context.Context, id, question, answer string) (int, error) {
	interview, err := s.activeInterview(ctx, id)
	if err != nil {
		return 0, err
	}

	interview.AddAnswer(question, answer)
	if err := s.interviews.Update(ctx, interview); err != nil {
		return 0, fmt.Errorf("failed to update interview: %w", err)
	}
	return len(interview.Answers), nil
}

// RecordAnswer analyzes a spoken answer and stores its transcript as the answer text
func (s *InterviewService) RecordAnswer(ctx context.Context, id, question string, wav []byte) (*Report, error) {
	interview, err := s.activeInterview(ctx, id)
	if err != nil {
		return nil, err
	}

	track, err := audio.Decode(wav)
	if err != nil {
		return nil, err
	}

	report, err := s.reports.Generate(ctx, question, track)
	if err != nil {
		return nil, err
	}

	// A failed full-track transcription leaves an empty answer in the log
	interview.AddAnswer(question, report.Result.FullTranscript.Text)
	if err := s.interviews.Update(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to update interview: %w", err)
	}

	s.logger.Info("Answer recorded",
		zap.String("interviewID", id),
		zap.String("reportID", report.ID),
		zap.Int("answers", len(interview.Answers)))

	return report, nil
}

// Feedback asks the language model for an evaluation of the whole interview
func (s *InterviewService) Feedback(ctx context.Context, id string) (string, error) {
	interview, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if len(interview.Answers) == 0 {
		return "", domain.ErrNoAnswers
	}
	if s.llm == nil {
		return "", fmt.Errorf("no language model configured")
	}

	prompt, err := BuildFeedbackPrompt(interview.Answers)
	if err != nil {
		return "", err
	}

	feedback, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate feedback: %w", err)
	}

	s.logger.Info("Interview feedback generated",
		zap.String("interviewID", id),
		zap.Int("answers", len(interview.Answers)))

	return feedback, nil
}

// SetDifficulty changes the level of the questions that follow
func (s *InterviewService) SetDifficulty(ctx context.Context, id, level string) (entities.Difficulty, error) {
	difficulty, err := entities.ParseDifficulty(level)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidDifficulty, err)
	}

	interview, err := s.activeInterview(ctx, id)
	if err != nil {
		return "", err
	}

	interview.SetDifficulty(difficulty)
	if err := s.interviews.Update(ctx, interview); err != nil {
		return "", fmt.Errorf("failed to update interview: %w", err)
	}

	s.logger.Info("Difficulty set", zap.String("interviewID", id), zap.String("difficulty", string(difficulty)))
	return difficulty, nil
}

// NextQuestion asks the language model for a question that follows the recorded answers
// at the interview's difficulty. The bank serves when generation is off or fails.
func (s *InterviewService) NextQuestion(ctx context.Context, id string) (string, error) {
	interview, err := s.activeInterview(ctx, id)
	if err != nil {
		return "", err
	}

	if s.config.GenerateQuestions && s.llm != nil {
		question, err := s.generateQuestion(ctx, interview)
		if err == nil {
			return question, nil
		}
		if s.bank == nil {
			return "", err
		}
		s.logger.Warn("Question generation failed, using the question bank",
			zap.String("interviewID", id),
			zap.Error(err))
	}

	if s.bank == nil {
		return "", fmt.Errorf("no question source configured")
	}
	return s.bank.Random(), nil
}

func (s *InterviewService) generateQuestion(ctx context.Context, interview *entities.Interview) (string, error) {
	prompt, err := BuildQuestionPrompt(interview.Answers, interview.Difficulty)
	if err != nil {
		return "", err
	}

	reply, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate question: %w", err)
	}
	question := strings.TrimSpace(reply)
	if question == "" {
		return "", fmt.Errorf("failed to generate question: empty reply")
	}

	s.logger.Info("Question generated",
		zap.String("interviewID", interview.ID),
		zap.String("difficulty", string(interview.Difficulty)),
		zap.Int("answers", len(interview.Answers)))
	return question, nil
}

// Stop closes the interview; further answers are rejected
func (s *InterviewService) Stop(ctx context.Context, id string) error {
	interview, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		return err
	}

	interview.Stop()
	if err := s.interviews.Update(ctx, interview); err != nil {
		return fmt.Errorf("failed to update interview: %w", err)
	}

	s.logger.Info("Interview stopped", zap.String("interviewID", id))
	return nil
}

// Get returns the interview with the given id
func (s *InterviewService) Get(ctx context.Context, id string) (*entities.Interview, error) {
	return s.interviews.GetByID(ctx, id)
}

// ExpireIdle removes interviews with no activity for longer than maxIdle
func (s *InterviewService) ExpireIdle(ctx context.Context, maxIdle time.Duration) (int, error) {
	removed, err := s.interviews.DeleteIdle(ctx, time.Now().Add(-maxIdle))
	if err != nil {
		return 0, fmt.Errorf("failed to expire interviews: %w", err)
	}
	return removed, nil
}

// Remove drops the interview from the store
func (s *InterviewService) Remove(ctx context.Context, id string) error {
	return s.interviews.Delete(ctx, id)
}

func (s *InterviewService) activeInterview(ctx context.Context, id string) (*entities.Interview, error) {
	interview, err := s.interviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !interview.IsActive() {
		return nil, domain.ErrInterviewStopped
	}
	return interview, nil
}

// BuildFeedbackPrompt renders the evaluation prompt for a list of answers
func BuildFeedbackPrompt(answers []entities.QuestionAnswer) (string, error) {
	encoded, err := encodeAnswers(answers)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n\nQuestion-Answer pairs: %s\n", feedbackInstruction, encoded), nil
}

// BuildQuestionPrompt renders the prompt for the next question
func BuildQuestionPrompt(answers []entities.QuestionAnswer, difficulty entities.Difficulty) (string, error) {
	encoded, err := encodeAnswers(answers)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\nKeep the level of the question: %s\n\nPrevious question-answer pairs: %s\n",
		questionInstruction, difficulty, encoded), nil
}

func encodeAnswers(answers []entities.QuestionAnswer) ([]byte, error) {
	type pair struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	pairs := make([]pair, len(answers))
	for i, a := range answers {
		pairs[i] = pair{Question: a.Question, Answer: a.Answer}
	}

	encoded, err := json.MarshalIndent(pairs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	return encoded, nil
}
