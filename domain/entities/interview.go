package entities

import (
	"errors"
	"fmt"
	"time"
)

// InterviewStatus represents the status of an interview
type InterviewStatus string

const (
	InterviewStatusActive  InterviewStatus = "active"
	InterviewStatusStopped InterviewStatus = "stopped"
)

// Difficulty is the level of the questions asked in an interview
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts easy, medium or hard
func ParseDifficulty(level string) (Difficulty, error) {
	switch d := Difficulty(level); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", level)
	}
}

// QuestionAnswer is one answered interview question
type QuestionAnswer struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Interview is the question/answer log of one candidate session
type Interview struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	LastActiveAt time.Time        `json:"last_active_at"`
	Status       InterviewStatus  `json:"status"`
	Difficulty   Difficulty       `json:"difficulty"`
	Answers      []QuestionAnswer `json:"answers"`
}

// NewInterview creates an active interview
func NewInterview(id string) *Interview {
	now := time.Now()
	return &Interview{
		ID:           id,
		CreatedAt:    now,
		LastActiveAt: now,
		Status:       InterviewStatusActive,
		Difficulty:   DifficultyMedium,
		Answers:      make([]QuestionAnswer, 0),
	}
}

// AddAnswer appends a question/answer pair
func (i *Interview) AddAnswer(question, answer string) {
	i.Answers = append(i.Answers, QuestionAnswer{
		Question:   question,
		Answer:     answer,
		AnsweredAt: time.Now(),
	})
	i.LastActiveAt = time.Now()
}

// SetDifficulty changes the level of the following questions
func (i *Interview) SetDifficulty(d Difficulty) {
	i.Difficulty = d
	i.LastActiveAt = time.Now()
}

// Stop marks the interview as stopped
func (i *Interview) Stop() {
	i.Status = InterviewStatusStopped
	i.LastActiveAt = time.Now()
}

// IsActive reports whether answers can still be added
func (i *Interview) IsActive() bool {
	return i.Status == InterviewStatusActive
}

// Validate validates the interview data
func (i *Interview) Validate() error {
	if i.ID == "" {
		return errors.New("id is required")
	}
	if i.Status != InterviewStatusActive && i.Status != InterviewStatusStopped {
		return errors.New("invalid interview status")
	}
	if _, err := ParseDifficulty(string(i.Difficulty)); err != nil {
		return err
	}
	return nil
}
