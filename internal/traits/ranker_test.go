package traits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/sikap/domain/entities"
)

func TestTop_SortsAndKeepsCatalogOrderOnTies(t *testing.T) {
	scores := []entities.TraitScore{
		{Name: "A", Score: 0.1},
		{Name: "B", Score: 0.3},
		{Name: "C", Score: 0.1},
		{Name: "D", Score: 0.3},
		{Name: "E", Score: 0.2},
		{Name: "F", Score: 0.0},
	}

	top := Top(scores, 5)
	require.Len(t, top, 5)
	assert.Equal(t, []string{"B", "D", "E", "A", "C"}, names(top))
	assert.Equal(t, "A", scores[0].Name, "input must not be reordered")
}

func TestRanker_Global(t *testing.T) {
	r := NewRanker(newTestScorer(t), DefaultTopN)

	ranking, err := r.Global([]entities.EmotionVector{
		vec(e("Determination", 0.9), e("Pride", 0.6), e("Fear", 0.3)),
	})
	require.NoError(t, err)
	require.Len(t, ranking, 5)

	assert.Equal(t, "Leadership Potential", ranking[0].Name)
	for i := 1; i < len(ranking); i++ {
		assert.GreaterOrEqual(t, ranking[i-1].Score, ranking[i].Score)
	}
}

func TestRanker_PerSegmentMatchesSingleSegmentSession(t *testing.T) {
	r := NewRanker(newTestScorer(t), DefaultTopN)
	vectors := []entities.EmotionVector{
		vec(e("Calmness", 0.7), e("Interest", 0.5), e("Joy", 0.2)),
		vec(),
		vec(e("Determination", 0.6), e("Desire", 0.4), e("Excitement", 0.3)),
	}

	perSegment, err := r.PerSegment(vectors)
	require.NoError(t, err)
	require.Len(t, perSegment, 3)

	for i, v := range vectors {
		alone, err := r.Global([]entities.EmotionVector{v})
		require.NoError(t, err)
		assert.Equal(t, alone, perSegment[i], "segment %d", i)
	}
}

func TestRanker_ZeroSegments(t *testing.T) {
	r := NewRanker(newTestScorer(t), 0)

	_, err := r.Global(nil)
	assert.Error(t, err)

	perSegment, err := r.PerSegment(nil)
	require.NoError(t, err)
	assert.Empty(t, perSegment)
}

func names(scores []entities.TraitScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Name
	}
	return out
}
