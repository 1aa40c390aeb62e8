package fusion

import "math"

// Rank-based fusion family. These methods ignore the score component of
// the input pairs entirely: two lists with identical orderings but
// different score magnitudes fuse identically.

// RRFMulti fuses any number of ranked lists with Reciprocal Rank Fusion.
//
// An identifier at 0-indexed rank r in a list contributes 1/(k + r);
// contributions sum across lists. For the top item with k=60 that is
// 1/60 ≈ 0.0167, and an identifier ranked first in both of two lists
// scores at most 2/k.
func RRFMulti[I comparable](lists [][]Scored[I], cfg RRFConfig) ([]Scored[I], error) {
	if cfg.K < 1 {
		return nil, ErrInvalidK
	}
	k := float64(cfg.K)
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		for rank, r := range list {
			acc.add(r.ID, 1/(k+float64(rank)), li)
		}
	}
	return acc.finalize(cfg.TopK), nil
}

// RRF is the two-list convenience form of RRFMulti. An invalid smoothing
// constant (k < 1) yields an empty result instead of an error.
func RRF[I comparable](a, b []Scored[I], cfg RRFConfig) []Scored[I] {
	out, err := RRFMulti([][]Scored[I]{a, b}, cfg)
	if err != nil {
		return nil
	}
	return out
}

// RRFWeightedMulti is RRF with per-list weights. Weights are normalized by
// their sum before accumulation, so only their relative magnitudes matter.
// Fails with ErrZeroWeights when the weights sum to ~0 and with
// ErrWeightCount when the weight vector does not match the list count.
func RRFWeightedMulti[I comparable](lists [][]Scored[I], weights []float64, cfg RRFConfig) ([]Scored[I], error) {
	if cfg.K < 1 {
		return nil, ErrInvalidK
	}
	if len(weights) != len(lists) {
		return nil, ErrWeightCount
	}
	if len(lists) == 0 {
		return nil, nil
	}
	wn, err := normalizeWeights(weights)
	if err != nil {
		return nil, err
	}
	k := float64(cfg.K)
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		for rank, r := range list {
			acc.add(r.ID, wn[li]/(k+float64(rank)), li)
		}
	}
	return acc.finalize(cfg.TopK), nil
}

// RRFWeighted is the two-list convenience form of RRFWeightedMulti.
func RRFWeighted[I comparable](a, b []Scored[I], weightA, weightB float64, cfg RRFConfig) ([]Scored[I], error) {
	return RRFWeightedMulti([][]Scored[I]{a, b}, []float64{weightA, weightB}, cfg)
}

// ISRMulti fuses ranked lists with Inverse Square Rank: contributions are
// 1/sqrt(k + r), a steeper decay than RRF that rewards top-rank agreement
// more strongly. The default smoothing constant is 1.
func ISRMulti[I comparable](lists [][]Scored[I], cfg RRFConfig) ([]Scored[I], error) {
	if cfg.K < 1 {
		return nil, ErrInvalidK
	}
	k := float64(cfg.K)
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		for rank, r := range list {
			acc.add(r.ID, 1/math.Sqrt(k+float64(rank)), li)
		}
	}
	return acc.finalize(cfg.TopK), nil
}

// ISR is the two-list convenience form of ISRMulti. An invalid smoothing
// constant yields an empty result instead of an error.
func ISR[I comparable](a, b []Scored[I], cfg RRFConfig) []Scored[I] {
	out, err := ISRMulti([][]Scored[I]{a, b}, cfg)
	if err != nil {
		return nil
	}
	return out
}

// BordaMulti fuses ranked lists with Borda count: an identifier at rank r
// in a list of length N contributes N - r points, rewarding positional
// consensus irrespective of score scale.
func BordaMulti[I comparable](lists [][]Scored[I], cfg FusionConfig) []Scored[I] {
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		n := float64(len(list))
		for rank, r := range list {
			acc.add(r.ID, n-float64(rank), li)
		}
	}
	return acc.finalize(cfg.TopK)
}

// Borda is the two-list convenience form of BordaMulti.
func Borda[I comparable](a, b []Scored[I], cfg FusionConfig) []Scored[I] {
	return BordaMulti([][]Scored[I]{a, b}, cfg)
}
