package fusion

// Score-based fusion family. These methods use the (normalized) score
// values of the input pairs. Non-finite scores do not panic; they flow
// through the arithmetic deterministically and the remaining output stays
// sorted and duplicate-free.

// CombSUMMulti fuses ranked lists by min-max normalizing each list's
// scores to [0,1] and summing per identifier across lists.
func CombSUMMulti[I comparable](lists [][]Scored[I], cfg FusionConfig) []Scored[I] {
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		scale, offset := minMaxParams(list)
		for _, r := range list {
			acc.add(r.ID, (r.Score-offset)*scale, li)
		}
	}
	return acc.finalize(cfg.TopK)
}

// CombSUM is the two-list convenience form of CombSUMMulti.
func CombSUM[I comparable](a, b []Scored[I], cfg FusionConfig) []Scored[I] {
	return CombSUMMulti([][]Scored[I]{a, b}, cfg)
}

// CombMNZMulti is CombSUMMulti with an overlap multiplier: each
// identifier's normalized sum is scaled by the number of lists containing
// it, so an identifier in 2 of 3 lists is boosted 2x rather than diluted.
func CombMNZMulti[I comparable](lists [][]Scored[I], cfg FusionConfig) []Scored[I] {
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		scale, offset := minMaxParams(list)
		for _, r := range list {
			acc.add(r.ID, (r.Score-offset)*scale, li)
		}
	}
	return acc.finalizeMNZ(cfg.TopK)
}

// CombMNZ is the two-list convenience form of CombMNZMulti.
func CombMNZ[I comparable](a, b []Scored[I], cfg FusionConfig) []Scored[I] {
	return CombMNZMulti([][]Scored[I]{a, b}, cfg)
}

// WeightedMulti combines per-list scores as Σ (weight_i / Σweight) × s_i.
// When normalize is true each list is min-max normalized first. Fails with
// ErrZeroWeights when the weights sum to ~0 and ErrWeightCount on a
// mismatched weight vector; it never silently returns a zeroed result.
func WeightedMulti[I comparable](lists [][]Scored[I], weights []float64, normalize bool, topK int) ([]Scored[I], error) {
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
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		scale, offset := 1.0, 0.0
		if normalize {
			scale, offset = minMaxParams(list)
		}
		for _, r := range list {
			acc.add(r.ID, wn[li]*(r.Score-offset)*scale, li)
		}
	}
	return acc.finalize(topK), nil
}

// Weighted is the two-list convenience form of WeightedMulti.
func Weighted[I comparable](a, b []Scored[I], cfg WeightedConfig) ([]Scored[I], error) {
	return WeightedMulti(
		[][]Scored[I]{a, b},
		[]float64{cfg.WeightA, cfg.WeightB},
		cfg.Normalize,
		cfg.TopK,
	)
}

// DBSFMulti is distribution-based score fusion: each list is z-score
// normalized with a fixed [-3, 3] clip and the standardized scores are
// summed per identifier. More robust than min-max when lists have
// different score shapes or outliers.
func DBSFMulti[I comparable](lists [][]Scored[I], cfg FusionConfig) []Scored[I] {
	return standardize(lists, DefaultClipMin, DefaultClipMax, cfg.TopK)
}

// DBSF is the two-list convenience form of DBSFMulti.
func DBSF[I comparable](a, b []Scored[I], cfg FusionConfig) []Scored[I] {
	return DBSFMulti([][]Scored[I]{a, b}, cfg)
}

// StandardizedMulti generalizes DBSF with a caller-configurable clip
// range for tuning outlier sensitivity. A reversed range is swapped.
func StandardizedMulti[I comparable](lists [][]Scored[I], cfg StandardizedConfig) []Scored[I] {
	lo, hi := cfg.ClipMin, cfg.ClipMax
	if lo > hi {
		lo, hi = hi, lo
	}
	return standardize(lists, lo, hi, cfg.TopK)
}

// Standardized is the two-list convenience form of StandardizedMulti.
func Standardized[I comparable](a, b []Scored[I], cfg StandardizedConfig) []Scored[I] {
	return StandardizedMulti([][]Scored[I]{a, b}, cfg)
}

func standardize[I comparable](lists [][]Scored[I], clipMin, clipMax float64, topK int) []Scored[I] {
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		normalized := Normalize(list, NormZScore, clipMin, clipMax)
		for i, r := range list {
			acc.add(r.ID, normalized[i], li)
		}
	}
	return acc.finalize(topK)
}

// AdditiveMultiTaskMulti combines task-specific signal lists as a weighted
// sum with a selectable per-list normalization strategy, for tasks whose
// natural scales differ (e.g., click-through vs conversion scores).
// Z-score normalization uses the default [-3, 3] clip range.
func AdditiveMultiTaskMulti[I comparable](lists [][]Scored[I], weights []float64, norm Normalization, topK int) ([]Scored[I], error) {
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
	acc := newAccumulator[I](totalLen(lists))
	for li, list := range lists {
		normalized := Normalize(list, norm, DefaultClipMin, DefaultClipMax)
		for i, r := range list {
			acc.add(r.ID, wn[li]*normalized[i], li)
		}
	}
	return acc.finalize(topK), nil
}

// AdditiveMultiTask is the two-list convenience form of
// AdditiveMultiTaskMulti.
func AdditiveMultiTask[I comparable](a, b []Scored[I], cfg AdditiveConfig) ([]Scored[I], error) {
	return AdditiveMultiTaskMulti(
		[][]Scored[I]{a, b},
		[]float64{cfg.WeightA, cfg.WeightB},
		cfg.Normalization,
		cfg.TopK,
	)
}
