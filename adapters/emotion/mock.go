package emotion

import (
	"context"
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain/entities"
	"github.com/satriahrh/sikap/domain/repositories"
)

var mockEmotions = []string{
	"Calmness", "Concentration", "Determination", "Interest", "Pride",
	"Anxiety", "Doubt", "Excitement", "Contemplation", "Satisfaction",
}

// MockRecognizer derives stable pseudo scores from the clip bytes
type MockRecognizer struct {
	logger *zap.Logger
}

// NewMockRecognizer creates a new mock emotion recognizer
func NewMockRecognizer(logger *zap.Logger) repositories.EmotionRecognizer {
	return &MockRecognizer{logger: logger}
}

// Recognize implements repositories.EmotionRecognizer
func (m *MockRecognizer) Recognize(ctx context.Context, wav []byte) ([]entities.EmotionScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h := fnv.New64a()
	h.Write(wav)
	seed := h.Sum64()

	scores := make([]entities.EmotionScore, len(mockEmotions))
	for i, name := range mockEmotions {
		// xorshift keeps each score reproducible for the same clip
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		scores[i] = entities.EmotionScore{Name: name, Score: float64(seed%1000) / 1000}
	}

	m.logger.Debug("Mock emotions generated", zap.Int("clipSize", len(wav)))
	return scores, nil
}
