package fusion

import "math"

// epsilon below which a score range, variance, or weight sum is treated
// as zero.
const epsilon = 1e-9

// Normalization selects a per-list score normalization strategy. Every
/// strategy is a pure function of a single list: it never looks across
// lists and never fails, mapping degenerate inputs (empty list, single
// element, zero variance) to well-defined fallback values.
type Normalization string

const (
	// NormMinMax scales scores to [0,1] via (s - min) / (max - min).
	// When the range is ~0 the raw scores pass through unchanged.
	NormMinMax Normalization = "minmax"

	// NormZScore standardizes scores to (s - mean) / stddev, clipped to a
	// configured range. Zero variance maps every element to 0.
	NormZScore Normalization = "zscore"

	// NormSum divides each score by the list's score sum. A ~0 sum maps
	// every element to 0.
	NormSum Normalization = "sum"

	// NormRank discards score values and substitutes 1/(rank+1).
	NormRank Normalization = "rank"

	// NormNone passes scores through unchanged.
	NormNone Normalization = "none"
)

// ParseNormalization converts a strategy name into a Normalization tag.
func ParseNormalization(s string) (Normalization, error) {
	switch Normalization(s) {
	case NormMinMax, NormZScore, NormSum, NormRank, NormNone:
		return Normalization(s), nil
	}
	return "", ErrUnknownNormalization
}

// Normalize applies a normalization strategy to one ranked list and returns
// the transformed scores aligned with the list's indices. clipMin and
// clipMax only apply to NormZScore.
func Normalize[I comparable](list []Scored[I], strategy Normalization, clipMin, clipMax float64) []float64 {
	out := make([]float64, len(list))

	switch strategy {
	case NormZScore:
		mean, std := meanStd(list)
		if std < epsilon {
			return out // all zero
		}
		for i, r := range list {
			out[i] = clamp((r.Score-mean)/std, clipMin, clipMax)
		}

	case NormSum:
		var total float64
		for _, r := range list {
			total += r.Score
		}
		if math.Abs(total) < epsilon {
			return out // all zero
		}
		for i, r := range list {
			out[i] = r.Score / total
		}

	case NormRank:
		for i := range list {
			out[i] = 1 / float64(i+1)
		}

	case NormNone:
		for i, r := range list {
			out[i] = r.Score
		}

	default: // NormMinMax
		scale, offset := minMaxParams(list)
		for i, r := range list {
			out[i] = (r.Score - offset) * scale
		}
	}

	return out
}

// minMaxParams returns (scale, offset) such that (s - offset) * scale maps
// the list's scores onto [0,1]. When the range is smaller than epsilon
// (all scores effectively equal, including single-element lists) it returns
// the identity transform so raw scores pass through rather than collapsing
// to a constant or dividing by zero.
func minMaxParams[I comparable](list []Scored[I]) (scale, offset float64) {
	if len(list) == 0 {
		return 1, 0
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range list {
		lo = math.Min(lo, r.Score)
		hi = math.Max(hi, r.Score)
	}
	if hi-lo < epsilon {
		return 1, 0
	}
	return 1 / (hi - lo), lo
}

// meanStd returns the mean and population standard deviation of the list's
// scores. Empty lists return (0, 0).
func meanStd[I comparable](list []Scored[I]) (mean, std float64) {
	if len(list) == 0 {
		return 0, 0
	}
	n := float64(len(list))
	for _, r := range list {
		mean += r.Score
	}
	mean /= n

	var variance float64
	for _, r := range list {
		d := r.Score - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}

// clamp bounds x to [lo, hi]. NaN passes through untouched so non-finite
// inputs stay visible to validation instead of being masked.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// normalizeWeights scales a weight vector so it sums to 1. Returns
// ErrZeroWeights when the sum is ~0 and cannot be normalized.
func normalizeWeights(weights []float64) ([]float64, error) {
	var total float64
	for _, w := range weights {
		total += w
	}
	if math.Abs(total) < epsilon {
		return nil, ErrZeroWeights
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / total
	}
	return out, nil
}
