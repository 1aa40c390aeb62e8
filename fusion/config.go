package fusion

// Defaults shared by the configuration types.
const (
	// DefaultRRFK is the standard RRF smoothing constant. Higher values
	// reduce the impact of rank position differences.
	DefaultRRFK = 60

	// DefaultISRK is the default ISR smoothing constant. ISR already decays
	// steeply, so it defaults to the minimum legal value.
	DefaultISRK = 1

	// DefaultClipMin and DefaultClipMax bound z-score normalization.
	// DBSF always uses this range; standardized fusion makes it tunable.
	DefaultClipMin = -3.0
	DefaultClipMax = 3.0

	// NoLimit disables the top-k result cap.
	NoLimit = -1
)

// RRFConfig configures the rank-based fusion family (RRF and ISR).
type RRFConfig struct {
	// K is the smoothing constant. Must be >= 1; the fallible entry points
	// reject 0 with ErrInvalidK.
	K int

	// TopK caps the number of returned results. Negative means unbounded,
	// 0 yields an empty result.
	TopK int
}

// DefaultRRFConfig returns the standard RRF configuration (k=60, no cap).
func DefaultRRFConfig() RRFConfig {
	return RRFConfig{K: DefaultRRFK, TopK: NoLimit}
}

// DefaultISRConfig returns the standard ISR configuration (k=1, no cap).
func DefaultISRConfig() RRFConfig {
	return RRFConfig{K: DefaultISRK, TopK: NoLimit}
}

// FusionConfig configures the methods without tunable parameters
// (Borda, CombSUM, CombMNZ, DBSF).
type FusionConfig struct {
	// TopK caps the number of returned results. Negative means unbounded,
	// 0 yields an empty result.
	TopK int
}

// DefaultFusionConfig returns an unbounded configuration.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{TopK: NoLimit}
}

// WeightedConfig configures two-list weighted score fusion.
type WeightedConfig struct {
	// WeightA and WeightB set the per-list influence. They are normalized
	// by their sum internally; if both are ~0 the call fails with
	// ErrZeroWeights.
	WeightA float64
	WeightB float64

	// Normalize enables min-max normalization of each list before
	// weighting (default true).
	Normalize bool

	// TopK caps the number of returned results. Negative means unbounded,
	// 0 yields an empty result.
	TopK int
}

// DefaultWeightedConfig returns equal weights with normalization enabled.
func DefaultWeightedConfig() WeightedConfig {
	return WeightedConfig{WeightA: 0.5, WeightB: 0.5, Normalize: true, TopK: NoLimit}
}

// StandardizedConfig configures standardized (z-score) fusion. It
// generalizes DBSF by making the clip range tunable.
type StandardizedConfig struct {
	// ClipMin and ClipMax bound each list's z-scores before summation.
	ClipMin float64
	ClipMax float64

	// TopK caps the number of returned results. Negative means unbounded,
	// 0 yields an empty result.
	TopK int
}

// DefaultStandardizedConfig returns the DBSF-equivalent [-3, 3] clip range.
func DefaultStandardizedConfig() StandardizedConfig {
	return StandardizedConfig{ClipMin: DefaultClipMin, ClipMax: DefaultClipMax, TopK: NoLimit}
}

// AdditiveConfig configures additive multi-task fusion: a weighted sum of
// task-specific signals (e.g., click-through and conversion scores) whose
// natural scales may differ wildly.
type AdditiveConfig struct {
	// WeightA and WeightB set the per-task influence. Normalized by their
	// sum internally; both ~0 fails with ErrZeroWeights.
	WeightA float64
	WeightB float64

	// Normalization selects the per-list normalization strategy applied
	// before weighting (default min-max).
	Normalization Normalization

	// TopK caps the number of returned results. Negative means unbounded,
	// 0 yields an empty result.
	TopK int
}

// DefaultAdditiveConfig returns equal task weights with min-max
// normalization.
func DefaultAdditiveConfig() AdditiveConfig {
	return AdditiveConfig{WeightA: 1, WeightB: 1, Normalization: NormMinMax, TopK: NoLimit}
}
