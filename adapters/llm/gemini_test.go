package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"
)

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content}},
	}
}

func newTestGemini(t *testing.T, generate generateFunc) *GeminiLLM {
	g := newGeminiLLM(generate, GeminiConfig{APIKey: "test"}, zaptest.NewLogger(t))
	g.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return g
}

func TestValidateGeminiConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  GeminiConfig
		wantErr bool
	}{
		{"valid", GeminiConfig{APIKey: "key"}, false},
		{"missing key", GeminiConfig{}, true},
		{"temperature too high", GeminiConfig{APIKey: "key", Temperature: 1.5}, true},
		{"negative topP", GeminiConfig{APIKey: "key", TopP: -0.1}, true},
		{"negative topK", GeminiConfig{APIKey: "key", TopK: -1}, true},
		{"negative timeout", GeminiConfig{APIKey: "key", TimeoutSeconds: -1}, true},
		{"negative attempts", GeminiConfig{APIKey: "key", MaxAttempts: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGeminiConfig(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGeminiLLM_Generate(t *testing.T) {
	var gotModel string
	var gotPrompt string
	g := newTestGemini(t, func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel = model
		gotPrompt = contents[0].Parts[0].Text
		assert.Equal(t, int32(defaultMaxTokens), config.MaxOutputTokens)
		return textResponse("Strong ", "answer."), nil
	})

	text, err := g.Generate(context.Background(), "question : why?")
	require.NoError(t, err)
	assert.Equal(t, "Strong answer.", text)
	assert.Equal(t, defaultModel, gotModel)
	assert.Equal(t, "question : why?", gotPrompt)
}

func TestGeminiLLM_GenerateRetries(t *testing.T) {
	calls := 0
	g := newTestGemini(t, func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("unavailable")
		}
		return textResponse("ok"), nil
	})

	text, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, calls)
}

func TestGeminiLLM_GenerateGivesUp(t *testing.T) {
	calls := 0
	g := newTestGemini(t, func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, errors.New("unavailable")
	})

	_, err := g.Generate(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Equal(t, defaultMaxAttempts, calls)
}

func TestGeminiLLM_GenerateEmptyResponse(t *testing.T) {
	g := newTestGemini(t, func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}, nil
	})

	_, err := g.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}
