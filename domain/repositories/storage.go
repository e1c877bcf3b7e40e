package repositories

import (
	"context"
	"time"

	"github.com/satriahrh/sikap/domain/entities"
)

// InterviewRepository defines data access methods for interviews
type InterviewRepository interface {
	Create(ctx context.Context, interview *entities.Interview) error
	GetByID(ctx context.Context, id string) (*entities.Interview, error)
	Update(ctx context.Context, interview *entities.Interview) error
	Delete(ctx context.Context, id string) error
	// DeleteIdle removes interviews last active before the cutoff and returns how many were removed
	DeleteIdle(ctx context.Context, before time.Time) (int, error)
}

