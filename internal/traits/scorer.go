package traits

import (
	"math"

	"github.com/satriahrh/sikap/domain/entities"
)

const (
	// unobservedIntensity stands in for an emotion the session never reported.
	unobservedIntensity = 0.1
	trendMultiplier     = 1.1
	// trendMinSegments is the smallest session length eligible for the trend bonus.
	trendMinSegments = 3

	MinScore = 0.0
	MaxScore = 0.5
)

// Scorer evaluates every catalog trait against an aggregation
type Scorer struct {
	catalog *Catalog
}

// NewScorer creates a scorer over a validated catalog
func NewScorer(catalog *Catalog) *Scorer {
	return &Scorer{catalog: catalog}
}

// Catalog returns the scorer's catalog
func (s *Scorer) Catalog() *Catalog {
	return s.catalog
}

// Score returns one score per catalog trait, in catalog order
func (s *Scorer) Score(agg *Aggregation) []entities.TraitScore {
	scores := make([]entities.TraitScore, len(s.catalog.Traits))
	for i, trait := range s.catalog.Traits {
		scores[i] = entities.TraitScore{
			Name:  trait.Name,
			Score: scoreTrait(trait, agg),
		}
	}
	return scores
}

func scoreTrait(trait entities.Trait, agg *Aggregation) float64 {
	var total float64

	for _, w := range trait.Base {
		total += lookup(agg.Average, w.Emotion) * w.Weight
	}
	if trait.Negative != nil {
		for _, w := range trait.Negative.Weights {
			total += lookup(agg.Average, w.Emotion) * w.Weight
		}
	}

	for _, w := range trait.Volatility {
		total += lookup(agg.Volatility, w.Emotion) * w.Weight
	}

	for _, c := range trait.Combinations {
		total += math.Min(lookup(agg.Average, c.A), lookup(agg.Average, c.B)) * c.Weight
	}

	if agg.Segments() >= trendMinSegments {
		for _, name := range trait.TrendEmotions() {
			if nonDecreasing(agg.Sequence(name)) {
				total *= trendMultiplier
			}
		}
	}

	return math.Max(MinScore, math.Min(MaxScore, total))
}

func lookup(m map[string]float64, name string) float64 {
	if v, ok := m[name]; ok {
		return v
	}
	return unobservedIntensity
}

func nonDecreasing(seq []float64) bool {
	for i := 1; i < len(seq); i++ {
		if seq[i] < seq[i-1] {
			return false
		}
	}
	return true
}
