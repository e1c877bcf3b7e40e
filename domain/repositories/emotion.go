package repositories

import (
	"context"

	"github.com/satriahrh/sikap/domain/entities"
)

// EmotionRecognizer abstracts vocal emotion inference services
type EmotionRecognizer interface {
	// Recognize returns every emotion the service detected in a WAV clip.
	// The order is the service's own; callers rank it.
	Recognize(ctx context.Context, wav []byte) ([]entities.EmotionScore, error)
}
