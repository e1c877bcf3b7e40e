package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/satriahrh/sikap/domain/repositories"
)

// MockLLM is a placeholder implementation for narrative generation
type MockLLM struct {
	logger *zap.Logger
}

// NewMockLLM creates a new mock LLM
func NewMockLLM(logger *zap.Logger) repositories.LargeLanguageModel {
	return &MockLLM{logger: logger}
}

// Generate implements repositories.LargeLanguageModel
func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.logger.Info("Generating mock response", zap.Int("promptLength", len(prompt)))

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("The answer was delivered clearly and with steady composure. (%d characters reviewed)", len(prompt)), nil
}
