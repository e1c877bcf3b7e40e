package entities

// EmotionWeight weighs one emotion inside a trait definition
type EmotionWeight struct {
	Emotion string  `json:"emotion" yaml:"emotion"`
	Weight  float64 `json:"weight" yaml:"weight"`
}

// NegativeGroup is a named set of emotions that count against a trait
type NegativeGroup struct {
	Name    string          `json:"name" yaml:"name"`
	Weights []EmotionWeight `json:"weights" yaml:"weights"`
}

// Combination is a synergy (positive weight) or antagonism (negative weight) between two emotions
type Combination struct {
	A      string  `json:"a" yaml:"a"`
	B      string  `json:"b" yaml:"b"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Trait is a soft-skill signal derived from emotion data
type Trait struct {
	Name         string          `json:"name" yaml:"name"`
	Base         []EmotionWeight `json:"base" yaml:"base"`
	Negative     *NegativeGroup  `json:"negative,omitempty" yaml:"negative,omitempty"`
	Volatility   []EmotionWeight `json:"volatility" yaml:"volatility"`
	Combinations []Combination   `json:"combinations" yaml:"combinations"`
}

// TrendEmotions lists the base entries, in declaration order, checked for an improving trend.
// The negative group takes part under its own name.
func (t Trait) TrendEmotions() []string {
	names := make([]string, 0, len(t.Base)+1)
	for _, w := range t.Base {
		names = append(names, w.Emotion)
	}
	if t.Negative != nil {
		names = append(names, t.Negative.Name)
	}
	return names
}

// TraitScore is the score of one trait for one computation
type TraitScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}
