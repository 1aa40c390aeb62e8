package validate

import (
	"math"
	"strings"
	"testing"

	"github.com/rankfuse/rankfuse/fusion"
)

func scored(pairs ...float64) []fusion.Scored[string] {
	out := make([]fusion.Scored[string], len(pairs))
	for i, s := range pairs {
		out[i] = fusion.Scored[string]{ID: string(rune('a' + i)), Score: s}
	}
	return out
}

func TestSorted(t *testing.T) {
	tests := []struct {
		name    string
		results []fusion.Scored[string]
		valid   bool
		errs    int
	}{
		{"descending", scored(3, 2, 1), true, 0},
		{"single", scored(1), true, 0},
		{"empty", nil, true, 0},
		{"ties allowed", scored(2, 2, 1), true, 0},
		{"one violation", scored(1, 2, 0), false, 1},
		{"every adjacent violation reported", scored(1, 2, 3), false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sorted(tt.results)
			if got.Valid != tt.valid {
				t.Errorf("Valid = %v, want %v", got.Valid, tt.valid)
			}
			if len(got.Errors) != tt.errs {
				t.Errorf("errors = %v, want %d", got.Errors, tt.errs)
			}
		})
	}
}

func TestSorted_ErrorNamesPositions(t *testing.T) {
	got := Sorted(scored(1, 2))
	if len(got.Errors) != 1 || !strings.Contains(got.Errors[0], "position 0") {
		t.Errorf("error = %v, want positions in the message", got.Errors)
	}
}

func TestNoDuplicates(t *testing.T) {
	clean := []fusion.Scored[string]{{ID: "d1", Score: 2}, {ID: "d2", Score: 1}}
	if got := NoDuplicates(clean); !got.Valid {
		t.Errorf("unexpected errors: %v", got.Errors)
	}

	dup := []fusion.Scored[string]{{ID: "d1", Score: 2}, {ID: "d1", Score: 1}, {ID: "d1", Score: 0}}
	got := NoDuplicates(dup)
	if got.Valid {
		t.Fatal("expected invalid result for duplicates")
	}
	if len(got.Errors) != 2 {
		t.Errorf("errors = %v, want one per repeated occurrence", got.Errors)
	}
}

func TestFiniteScores(t *testing.T) {
	if got := FiniteScores(scored(1, 0, -5)); !got.Valid {
		t.Errorf("unexpected errors: %v", got.Errors)
	}

	bad := []fusion.Scored[string]{
		{ID: "d1", Score: 1},
		{ID: "d2", Score: math.NaN()},
		{ID: "d3", Score: math.Inf(1)},
		{ID: "d4", Score: math.Inf(-1)},
	}
	got := FiniteScores(bad)
	if got.Valid {
		t.Fatal("expected invalid result for non-finite scores")
	}
	if len(got.Errors) != 3 {
		t.Errorf("errors = %v, want 3", got.Errors)
	}
}

func TestNonNegativeScores(t *testing.T) {
	got := NonNegativeScores(scored(1, -2, -3))
	if !got.Valid {
		t.Error("negative scores are a warning, not an error")
	}
	if len(got.Warnings) != 1 || !strings.Contains(got.Warnings[0], "2 negative") {
		t.Errorf("warnings = %v, want a single count of 2", got.Warnings)
	}

	if got := NonNegativeScores(scored(1, 0)); len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
}

func TestBounds(t *testing.T) {
	results := scored(3, 2, 1)

	if got := Bounds(results, 3); len(got.Warnings) != 0 {
		t.Errorf("within bounds: unexpected warnings %v", got.Warnings)
	}
	if got := Bounds(results, 2); !got.Valid || len(got.Warnings) != 1 {
		t.Errorf("over bounds: Valid=%v warnings=%v, want valid with one warning", got.Valid, got.Warnings)
	}
	if got := Bounds(results, -1); len(got.Warnings) != 0 {
		t.Errorf("negative max disables the check, got warnings %v", got.Warnings)
	}
}

func TestCheck(t *testing.T) {
	// Unsorted with a duplicate, a NaN, and a negative score.
	results := []fusion.Scored[string]{
		{ID: "d1", Score: 1},
		{ID: "d2", Score: 2},
		{ID: "d2", Score: math.NaN()},
		{ID: "d3", Score: -1},
	}

	got := Check(results, true, 2)

	if got.Valid {
		t.Fatal("expected invalid result")
	}
	// One sorting violation, one duplicate, one non-finite score.
	if len(got.Errors) != 3 {
		t.Errorf("errors = %v, want 3", got.Errors)
	}
	// Negative-score warning plus bounds warning.
	if len(got.Warnings) != 2 {
		t.Errorf("warnings = %v, want 2", got.Warnings)
	}
}

func TestCheck_CleanOutput(t *testing.T) {
	fused := fusion.RRF(
		[]fusion.Scored[string]{{ID: "d1", Score: 0.9}, {ID: "d2", Score: 0.5}},
		[]fusion.Scored[string]{{ID: "d2", Score: 0.8}, {ID: "d3", Score: 0.3}},
		fusion.DefaultRRFConfig(),
	)

	got := Check(fused, true, -1)
	if !got.Valid || len(got.Errors) != 0 || len(got.Warnings) != 0 {
		t.Errorf("engine output failed validation: %+v", got)
	}
}
