package fusion

import "errors"

// Typed errors returned by the fallible N-ary entry points. The two-list
// convenience forms that cannot propagate an error degrade to a documented
// empty result instead (see the individual function docs).
var (
	// ErrInvalidK is returned when a rank-based method is configured with
	// a smoothing constant below 1, which would divide by zero at rank 0.
	ErrInvalidK = errors.New("fusion: k must be >= 1")

	// ErrZeroWeights is returned when the weights of a weighted aggregation
	// sum to approximately zero and cannot be normalized.
	ErrZeroWeights = errors.New("fusion: weights sum to zero")

	// ErrWeightCount is returned when the number of weights does not match
	// the number of input lists.
	ErrWeightCount = errors.New("fusion: weight count must match list count")

	// ErrUnknownMethod is returned by Fuse for an unrecognized method tag.
	ErrUnknownMethod = errors.New("fusion: unknown fusion method")

	// ErrUnknownNormalization is returned for an unrecognized
	// normalization name.
	ErrUnknownNormalization = errors.New("fusion: unknown normalization strategy")
)
