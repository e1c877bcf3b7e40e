package entities

import "sort"

// TopEmotions is the number of emotions kept per segment.
const TopEmotions = 3

// EmotionScore is a single emotion reported by the inference service
type EmotionScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// EmotionVector holds the strongest emotions of one segment, highest first.
// An empty vector marks a segment whose emotion inference failed.
type EmotionVector []EmotionScore

// NewEmotionVector keeps the top 3 scores. Ties keep the order in which the service reported them.
func NewEmotionVector(scores []EmotionScore) EmotionVector {
	sorted := make([]EmotionScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if len(sorted) > TopEmotions {
		sorted = sorted[:TopEmotions]
	}
	return EmotionVector(sorted)
}

// Get returns the score of an emotion and whether the segment reported it
func (v EmotionVector) Get(name string) (float64, bool) {
	for _, e := range v {
		if e.Name == name {
			return e.Score, true
		}
	}
	return 0, false
}

// IsEmpty reports whether the segment carries no emotion data
func (v EmotionVector) IsEmpty() bool {
	return len(v) == 0
}
