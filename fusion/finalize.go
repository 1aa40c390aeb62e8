package fusion

import (
	"math"
	"sort"
)

// accumulator collects per-identifier contributions across input lists.
// Each fusion call owns exactly one accumulator; it is discarded after
// finalization, so there is no shared or cached state between calls.
type accumulator[I comparable] struct {
	buckets map[I]*bucket
	order   []I // first-seen order, the deterministic tie-break
}

type bucket struct {
	score    float64
	lists    int // number of distinct input lists containing the id
	lastList int
}

func newAccumulator[I comparable](capacity int) *accumulator[I] {
	return &accumulator[I]{
		buckets: make(map[I]*bucket, capacity),
		order:   make([]I, 0, capacity),
	}
}

// add accumulates a contribution for id coming from input list index list.
func (a *accumulator[I]) add(id I, contribution float64, list int) {
	b, ok := a.buckets[id]
	if !ok {
		b = &bucket{lastList: -1}
		a.buckets[id] = b
		a.order = append(a.order, id)
	}
	b.score += contribution
	if b.lastList != list {
		b.lists++
		b.lastList = list
	}
}

// finalize collects the accumulated map into a slice sorted by score
// descending under a total, NaN-safe ordering and truncates it to topK.
func (a *accumulator[I]) finalize(topK int) []Scored[I] {
	results := make([]Scored[I], 0, len(a.order))
	for _, id := range a.order {
		results = append(results, Scored[I]{ID: id, Score: a.buckets[id].score})
	}
	sortByScore(results)
	return Truncate(results, topK)
}

// finalizeMNZ is finalize with the CombMNZ overlap multiplier: each
// identifier's sum is scaled by the number of lists it appeared in.
func (a *accumulator[I]) finalizeMNZ(topK int) []Scored[I] {
	results := make([]Scored[I], 0, len(a.order))
	for _, id := range a.order {
		b := a.buckets[id]
		results = append(results, Scored[I]{ID: id, Score: b.score * float64(b.lists)})
	}
	sortByScore(results)
	return Truncate(results, topK)
}

// sortByScore sorts results by score descending. The sort is stable over
// the accumulator's first-seen order, so ties (and NaN runs) resolve
// identically across repeated calls with the same input.
func sortByScore[I comparable](results []Scored[I]) {
	sort.SliceStable(results, func(i, j int) bool {
		return scoreGreater(results[i].Score, results[j].Score)
	})
}

// scoreGreater is a total ordering on float64 scores: higher first, NaN
// after every non-NaN value. Using an explicit total order keeps sort
// output deterministic even for adversarial inputs.
func scoreGreater(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	}
	return a > b
}

// Truncate applies a top-k cap to an already-sorted result. Negative topK
// means unbounded; 0 yields an empty result; a cap beyond the natural size
// returns the input unchanged.
func Truncate[I comparable](results []Scored[I], topK int) []Scored[I] {
	if topK < 0 || topK >= len(results) {
		return results
	}
	return results[:topK]
}
