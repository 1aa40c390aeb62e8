package fusion

// Method tags one of the fusion algorithm families for generic dispatch.
// The tag values double as the wire names used by callers that select an
// algorithm at runtime.
type Method string

const (
	MethodRRF          Method = "rrf"
	MethodRRFWeighted  Method = "rrf_weighted"
	MethodISR          Method = "isr"
	MethodBorda        Method = "borda"
	MethodCombSUM      Method = "combsum"
	MethodCombMNZ      Method = "combmnz"
	MethodWeighted     Method = "weighted"
	MethodDBSF         Method = "dbsf"
	MethodStandardized Method = "standardized"
	MethodAdditive     Method = "additive_multi_task"
)

// Methods lists every dispatchable fusion method.
func Methods() []Method {
	return []Method{
		MethodRRF, MethodRRFWeighted, MethodISR, MethodBorda,
		MethodCombSUM, MethodCombMNZ, MethodWeighted, MethodDBSF,
		MethodStandardized, MethodAdditive,
	}
}

// ParseMethod converts a method name into a Method tag.
func ParseMethod(s string) (Method, error) {
	m := Method(s)
	for _, known := range Methods() {
		if m == known {
			return m, nil
		}
	}
	return "", ErrUnknownMethod
}

// Options is the union of per-family tunables consumed by Fuse. Fields
// irrelevant to the selected method are ignored. Build it with
// DefaultOptions to get the documented per-method defaults.
type Options struct {
	// K is the smoothing constant for RRF/ISR.
	K int

	// Weights are the per-list weights for the weighted families. Nil
	// means equal weights.
	Weights []float64

	// Normalize enables min-max pre-normalization for MethodWeighted.
	Normalize bool

	// ClipMin and ClipMax bound z-scores for MethodStandardized.
	ClipMin float64
	ClipMax float64

	// Normalization selects the strategy for MethodAdditive.
	Normalization Normalization

	// TopK caps the number of returned results. Negative means unbounded,
	// 0 yields an empty result.
	TopK int
}

// DefaultOptions returns the documented defaults for a method:
// k=60 for RRF and weighted RRF, k=1 for ISR, equal weights, min-max
// normalization enabled where it applies, clip range [-3, 3], and no
// result cap.
func DefaultOptions(m Method) Options {
	opts := Options{
		K:             DefaultRRFK,
		Normalize:     true,
		ClipMin:       DefaultClipMin,
		ClipMax:       DefaultClipMax,
		Normalization: NormMinMax,
		TopK:          NoLimit,
	}
	if m == MethodISR {
		opts.K = DefaultISRK
	}
	return opts
}

// Fuse dispatches N ranked lists to the selected fusion method. It is the
// single entry point for callers that choose the algorithm at runtime;
// the per-method functions remain available for callers that know their
// algorithm statically.
func Fuse[I comparable](lists [][]Scored[I], m Method, opts Options) ([]Scored[I], error) {
	switch m {
	case MethodRRF:
		return RRFMulti(lists, RRFConfig{K: opts.K, TopK: opts.TopK})
	case MethodRRFWeighted:
		return RRFWeightedMulti(lists, equalIfNil(opts.Weights, len(lists)), RRFConfig{K: opts.K, TopK: opts.TopK})
	case MethodISR:
		return ISRMulti(lists, RRFConfig{K: opts.K, TopK: opts.TopK})
	case MethodBorda:
		return BordaMulti(lists, FusionConfig{TopK: opts.TopK}), nil
	case MethodCombSUM:
		return CombSUMMulti(lists, FusionConfig{TopK: opts.TopK}), nil
	case MethodCombMNZ:
		return CombMNZMulti(lists, FusionConfig{TopK: opts.TopK}), nil
	case MethodWeighted:
		return WeightedMulti(lists, equalIfNil(opts.Weights, len(lists)), opts.Normalize, opts.TopK)
	case MethodDBSF:
		return DBSFMulti(lists, FusionConfig{TopK: opts.TopK}), nil
	case MethodStandardized:
		return StandardizedMulti(lists, StandardizedConfig{ClipMin: opts.ClipMin, ClipMax: opts.ClipMax, TopK: opts.TopK}), nil
	case MethodAdditive:
		return AdditiveMultiTaskMulti(lists, equalIfNil(opts.Weights, len(lists)), opts.Normalization, opts.TopK)
	}
	return nil, ErrUnknownMethod
}

func equalIfNil(weights []float64, n int) []float64 {
	if weights != nil {
		return weights
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
