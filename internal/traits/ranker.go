package traits

import (
	"sort"

	"github.com/satriahrh/sikap/domain/entities"
)

// DefaultTopN is the number of traits kept in a ranking
const DefaultTopN = 5

// Ranker turns trait scores into top-N rankings
type Ranker struct {
	scorer *Scorer
	topN   int
}

// NewRanker creates a ranker; topN below 1 falls back to DefaultTopN
func NewRanker(scorer *Scorer, topN int) *Ranker {
	if topN < 1 {
		topN = DefaultTopN
	}
	return &Ranker{scorer: scorer, topN: topN}
}

// Global ranks the traits of the whole session
func (r *Ranker) Global(vectors []entities.EmotionVector) ([]entities.TraitScore, error) {
	agg, err := Aggregate(vectors)
	if err != nil {
		return nil, err
	}
	return Top(r.scorer.Score(agg), r.topN), nil
}

// PerSegment ranks each segment as if it were a session on its own
func (r *Ranker) PerSegment(vectors []entities.EmotionVector) ([][]entities.TraitScore, error) {
	rankings := make([][]entities.TraitScore, len(vectors))
	for i, v := range vectors {
		ranking, err := r.Global([]entities.EmotionVector{v})
		if err != nil {
			return nil, err
		}
		rankings[i] = ranking
	}
	return rankings, nil
}

// Top returns the n highest scores. Equal scores keep their input order.
func Top(scores []entities.TraitScore, n int) []entities.TraitScore {
	ranked := make([]entities.TraitScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
