package questions

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBank []byte

// Bank is a fixed list of interview questions
type Bank struct {
	Questions []string `yaml:"questions"`

	pick func(n int) int
}

// DefaultBank returns the built-in question bank
func DefaultBank() (*Bank, error) {
	return LoadBank(defaultBank)
}

// LoadBank parses a YAML question bank. Blank entries are dropped.
func LoadBank(data []byte) (*Bank, error) {
	var bank Bank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}

	questions := bank.Questions[:0]
	for _, q := range bank.Questions {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return nil, errors.New("question bank is empty")
	}
	bank.Questions = questions
	bank.pick = rand.IntN
	return &bank, nil
}

// Random returns a uniformly chosen question
func (b *Bank) Random() string {
	return b.Questions[b.pick(len(b.Questions))]
}
