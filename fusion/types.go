package fusion

// Scored is one entry of a ranked list: an identifier with its score.
// A ranked list is a []Scored ordered best-first; the slice index is the
// 0-based rank. Duplicate identifiers within one list are legal and each
// occurrence contributes independently during aggregation.
type Scored[I comparable] struct {
	ID    I       `json:"id"`
	Score float64 `json:"score"`
}

// Pair is a convenience constructor for a Scored entry.
func Pair[I comparable](id I, score float64) Scored[I] {
	return Scored[I]{ID: id, Score: score}
}

// totalLen returns the summed length of all lists, used to size accumulators.
func totalLen[I comparable](lists [][]Scored[I]) int {
	n := 0
	for _, list := range lists {
		n += len(list)
	}
	return n
}
