// Package validate provides post-hoc checks over fused results. The checks
// apply to any (id, score) sequence, not only this engine's output, and
// are advisory: failures are reported, never thrown, and the caller
// decides whether to reject the result.
package validate

import (
	"fmt"
	"math"

	"github.com/rankfuse/rankfuse/fusion"
)

// Result reports the outcome of one or more validation checks. Errors are
// hard failures that mark the result invalid; warnings are soft advisories
// that never do.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func valid() Result {
	return Result{Valid: true}
}

func invalid(errs []string) Result {
	return Result{Valid: false, Errors: errs}
}

// Sorted checks that scores are non-increasing along the sequence,
// reporting every adjacent violation with positions and values.
func Sorted[I comparable](results []fusion.Scored[I]) Result {
	var errs []string
	for i := 0; i+1 < len(results); i++ {
		if results[i].Score < results[i+1].Score {
			errs = append(errs, fmt.Sprintf(
				"results not sorted: position %d has score %v < position %d has score %v",
				i, results[i].Score, i+1, results[i+1].Score))
		}
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return valid()
}

// NoDuplicates checks that no identifier appears twice, reporting each
// duplicate's position.
func NoDuplicates[I comparable](results []fusion.Scored[I]) Result {
	seen := make(map[I]struct{}, len(results))
	var errs []string
	for i, r := range results {
		if _, ok := seen[r.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate identifier at position %d: %v", i, r.ID))
			continue
		}
		seen[r.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return valid()
}

// FiniteScores checks that every score is finite, flagging NaN and
// Infinity with position and identifier.
func FiniteScores[I comparable](results []fusion.Scored[I]) Result {
	var errs []string
	for i, r := range results {
		if math.IsNaN(r.Score) || math.IsInf(r.Score, 0) {
			errs = append(errs, fmt.Sprintf(
				"non-finite score at position %d for identifier %v: %v", i, r.ID, r.Score))
		}
	}
	if len(errs) > 0 {
		return invalid(errs)
	}
	return valid()
}

// NonNegativeScores warns on negative scores. Warning-only: several valid
// fusion methods (z-score based ones in particular) legitimately produce
// negative scores.
func NonNegativeScores[I comparable](results []fusion.Scored[I]) Result {
	negative := 0
	for _, r := range results {
		if r.Score < 0 {
			negative++
		}
	}
	out := valid()
	if negative > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"found %d negative scores (may be expected for some algorithms)", negative))
	}
	return out
}

// Bounds warns when the result exceeds an expected maximum count.
// maxResults < 0 means no limit.
func Bounds[I comparable](results []fusion.Scored[I], maxResults int) Result {
	out := valid()
	if maxResults >= 0 && len(results) > maxResults {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"results exceed expected maximum: %d > %d", len(results), maxResults))
	}
	return out
}

// Check runs every validation over a fused output and merges the
// outcomes: sortedness, duplicates, and score finiteness as hard errors;
// non-negativity (when requested) and bounds as warnings. maxResults < 0
// disables the bounds check.
func Check[I comparable](results []fusion.Scored[I], checkNonNegative bool, maxResults int) Result {
	var errs, warnings []string

	for _, r := range []Result{Sorted(results), NoDuplicates(results), FiniteScores(results)} {
		errs = append(errs, r.Errors...)
	}
	if checkNonNegative {
		warnings = append(warnings, NonNegativeScores(results).Warnings...)
	}
	warnings = append(warnings, Bounds(results, maxResults).Warnings...)

	return Result{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}
