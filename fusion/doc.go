// Package fusion combines independently ranked result lists into a single
// consensus ranking.
//
// It implements the rank fusion algorithms commonly used in hybrid search
// and recommendation pipelines (e.g., merging BM25 and dense-vector results
// in a RAG stack):
//
//   - RRF / weighted RRF — Reciprocal Rank Fusion, robust to score
//     distribution differences between retrievers
//   - ISR — Inverse Square Rank, steeper decay than RRF
//   - Borda — rank-based voting
//   - CombSUM / CombMNZ — score-based combination with overlap rewards
//   - Weighted — configurable score weighting with min-max normalization
//   - DBSF / Standardized — z-score based fusion for mismatched
//     score distributions
//   - Additive multi-task — weighted combination of task signals with a
//     selectable normalization strategy
//
// Every algorithm has a two-list convenience form and an N-ary form; the
// two-list form produces bit-for-bit the same output as the N-ary form
// called with the same two lists. All functions are pure: each call owns
// its accumulation state, nothing is cached between calls, and concurrent
// use from multiple goroutines is safe.
//
// Identifiers are generic over any comparable type. Scores are float64 and
// are not assumed to be finite; degenerate inputs (empty lists, all-equal
// scores, NaN) produce well-defined output rather than panics.
package fusion
