package lottery

import (
	"math"

	"golang.org/x/xerrors"
)

// Source is a source of uniformly distributed values in [0, 1). *rand.Rand
// satisfies it; tests may inject fixed sequences.
type Source interface {
	Float64() float64
}

// Select picks one entity from the given population with probability
// proportional to its weight.
//
// The cumulative weight is computed in the given order, a value is drawn
// uniformly from [0, totalWeight), and the first entity whose cumulative weight
// strictly exceeds the draw is returned. When two entities share a cumulative
// boundary, i.e. the later has zero weight, the earlier one wins. Entities
// with zero weight are therefore never selected.
//
// Select fails with ErrInvalidWeight if entities is empty, any weight is
// negative or not finite, or no weight is positive. No value is drawn from src
// in that case.
func Select(entities []Entity, src Source) (Entity, error) {
	total, err := totalWeight(entities)
	if err != nil {
		return Entity{}, err
	}
	draw := src.Float64() * total
	var cumulative float64
	for _, e := range entities {
		cumulative += e.Weight
		if cumulative > draw {
			return e, nil
		}
	}
	// Floating point accumulation may leave the final boundary a hair below
	// total. Fall back to the last entity that has any weight.
	for i := len(entities) - 1; i >= 0; i-- {
		if entities[i].Weight > 0 {
			return entities[i], nil
		}
	}
	panic("unreachable: population has positive total weight")
}

func totalWeight(entities []Entity) (float64, error) {
	if len(entities) == 0 {
		return 0, xerrors.Errorf("empty population: %w", ErrInvalidWeight)
	}
	var total float64
	for _, e := range entities {
		switch {
		case math.IsNaN(e.Weight), math.IsInf(e.Weight, 0):
			return 0, xerrors.Errorf("entity %s has non-finite weight %v: %w", e.ID, e.Weight, ErrInvalidWeight)
		case e.Weight < 0:
			return 0, xerrors.Errorf("entity %s has negative weight %v: %w", e.ID, e.Weight, ErrInvalidWeight)
		}
		total += e.Weight
	}
	if total <= 0 {
		return 0, xerrors.Errorf("population of %d has zero total weight: %w", len(entities), ErrInvalidWeight)
	}
	if math.IsInf(total, 0) {
		return 0, xerrors.Errorf("population total weight overflows: %w", ErrInvalidWeight)
	}
	return total, nil
}
