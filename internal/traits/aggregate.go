package traits

import (
	"math"

	"github.com/satriahrh/sikap/domain"
	"github.com/satriahrh/sikap/domain/entities"
)

// Aggregation summarizes the emotion vectors of one session
type Aggregation struct {
	// Average is the mean intensity per observed emotion; segments missing an emotion count as 0.
	Average map[string]float64
	// Volatility is the mean absolute change between consecutive segments.
	Volatility map[string]float64

	vectors []entities.EmotionVector
}

// Aggregate computes averages and volatility over the union of observed emotions
func Aggregate(vectors []entities.EmotionVector) (*Aggregation, error) {
	n := len(vectors)
	if n == 0 {
		return nil, domain.ErrZeroSegments
	}

	agg := &Aggregation{
		Average:    make(map[string]float64),
		Volatility: make(map[string]float64),
		vectors:    vectors,
	}

	for _, v := range vectors {
		for _, e := range v {
			agg.Average[e.Name] += e.Score
		}
	}
	for name := range agg.Average {
		agg.Average[name] /= float64(n)
	}

	for name := range agg.Average {
		if n <= 1 {
			agg.Volatility[name] = 0
			continue
		}
		var total float64
		for i := 0; i < n-1; i++ {
			total += math.Abs(score(vectors[i+1], name) - score(vectors[i], name))
		}
		agg.Volatility[name] = total / float64(n-1)
	}

	return agg, nil
}

// Segments returns the number of aggregated segments
func (a *Aggregation) Segments() int {
	return len(a.vectors)
}

// Sequence returns the per-segment scores of an emotion, 0 where it was not reported
func (a *Aggregation) Sequence(name string) []float64 {
	seq := make([]float64, len(a.vectors))
	for i, v := range a.vectors {
		seq[i] = score(v, name)
	}
	return seq
}

func score(v entities.EmotionVector, name string) float64 {
	s, _ := v.Get(name)
	return s
}
