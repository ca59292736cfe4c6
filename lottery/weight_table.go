package lottery

import (
	"maps"
	"slices"
	"sort"

	"golang.org/x/xerrors"
)

// WeightTable is a static population with precomputed cumulative weights, so
// that repeated draws cost O(log n) instead of O(n).
//
// Entries keep the order in which they were given; the order is significant
// for tie-breaking, see Select.
type WeightTable struct {
	Entries    []Entity
	Cumulative []float64        // Cumulative[i] is the sum of weights of Entries[0..i].
	Lookup     map[EntityID]int // Maps EntityID to the index of the associated entry in Entries
	Total      float64
}

// NewWeightTable validates the given population and precomputes its
// cumulative weights. The population must satisfy the same constraints as
// Select, and must not contain duplicate IDs.
func NewWeightTable(entities []Entity) (*WeightTable, error) {
	if _, err := totalWeight(entities); err != nil {
		return nil, err
	}
	wt := &WeightTable{
		Entries:    slices.Clone(entities),
		Cumulative: make([]float64, len(entities)),
		Lookup:     make(map[EntityID]int, len(entities)),
	}
	for i, e := range wt.Entries {
		if _, found := wt.Lookup[e.ID]; found {
			return nil, xerrors.Errorf("entity %s at index %d: %w", e.ID, i, ErrDuplicateEntity)
		}
		wt.Lookup[e.ID] = i
		wt.Total += e.Weight
		wt.Cumulative[i] = wt.Total
	}
	return wt, nil
}

// Len returns the number of entries in this table.
func (wt *WeightTable) Len() int {
	return len(wt.Entries)
}

// Entity returns the entity at the given index.
func (wt *WeightTable) Entity(i int) Entity {
	return wt.Entries[i]
}

// IndexOf returns the index of the entity with the given ID, if present.
func (wt *WeightTable) IndexOf(id EntityID) (int, bool) {
	i, found := wt.Lookup[id]
	return i, found
}

// Share returns the fraction of the total weight held by the given entity, or
// zero if it is not present in the table.
func (wt *WeightTable) Share(id EntityID) float64 {
	if i, found := wt.Lookup[id]; found {
		return wt.Entries[i].Weight / wt.Total
	}
	return 0
}

// Select draws one entity with probability proportional to its weight. It is
// equivalent to calling Select with the table entries, consuming exactly one
// value from src.
func (wt *WeightTable) Select(src Source) Entity {
	draw := src.Float64() * wt.Total
	i := sort.Search(len(wt.Cumulative), func(i int) bool { return wt.Cumulative[i] > draw })
	if i == len(wt.Cumulative) {
		// See Select for why this can happen.
		i = slices.IndexFunc(wt.Cumulative, func(c float64) bool { return c == wt.Cumulative[len(wt.Cumulative)-1] })
	}
	return wt.Entries[i]
}

// Copy creates a deep copy of this WeightTable.
func (wt *WeightTable) Copy() *WeightTable {
	return &WeightTable{
		Entries:    slices.Clone(wt.Entries),
		Cumulative: slices.Clone(wt.Cumulative),
		Lookup:     maps.Clone(wt.Lookup),
		Total:      wt.Total,
	}
}
