package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/domain/repositories"
)

// MemoryInterviewRepository is an in-memory implementation of InterviewRepository.
// Interviews live only as long as the process.
type MemoryInterviewRepository struct {
	mu         sync.RWMutex
	interviews map[string]*entities.Interview // id -> interview mapping
}

var _ repositories.InterviewRepository = (*MemoryInterviewRepository)(nil)

// NewMemoryInterviewRepository creates a new in-memory interview repository
func NewMemoryInterviewRepository() *MemoryInterviewRepository {
	return &MemoryInterviewRepository{
		interviews: make(map[string]*entities.Interview),
	}
}

// Create implements InterviewRepository interface
func (m *MemoryInterviewRepository) Create(ctx context.Context, interview *entities.Interview) error {
	if interview == nil {
		return errors.New("interview cannot be nil")
	}

	// Generate ID if not provided
	if interview.ID == "" {
		interview.ID = uuid.New().String()
	}

	if err := interview.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.interviews[interview.ID]; exists {
		return errors.New("interview with this id already exists")
	}

	m.interviews[interview.ID] = clone(interview)
	return nil
}

// GetByID implements InterviewRepository interface
func (m *MemoryInterviewRepository) GetByID(ctx context.Context, id string) (*entities.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	interview, exists := m.interviews[id]
	if !exists {
		return nil, domain.ErrInterviewNotFound
	}

	return clone(interview), nil
}

// Update implements InterviewRepository interface
func (m *MemoryInterviewRepository) Update(ctx context.Context, interview *entities.Interview) error {
	if interview == nil {
		return errors.New("interview cannot be nil")
	}

	if err := interview.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.interviews[interview.ID]; !exists {
		return domain.ErrInterviewNotFound
	}

	m.interviews[interview.ID] = clone(interview)
	return nil
}

// Delete implements InterviewRepository interface
func (m *MemoryInterviewRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.interviews[id]; !exists {
		return domain.ErrInterviewNotFound
	}

	delete(m.interviews, id)
	return nil
}

// DeleteIdle implements InterviewRepository interface
func (m *MemoryInterviewRepository) DeleteIdle(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, interview := range m.interviews {
		if interview.LastActiveAt.Before(before) {
			delete(m.interviews, id)
			removed++
		}
	}
	return removed, nil
}

// clone keeps callers from mutating stored interviews without Update
func clone(interview *entities.Interview) *entities.Interview {
	c := *interview
	c.Answers = append([]entities.QuestionAnswer(nil), interview.Answers...)
	return &c
}
