package explain

import (
	"math"
	"testing"

	"github.com/rankfuse/rankfuse/fusion"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ranked(ids ...string) []fusion.Scored[string] {
	out := make([]fusion.Scored[string], len(ids))
	for i, id := range ids {
		out[i] = fusion.Scored[string]{ID: id, Score: 1.0 - float64(i)*0.1}
	}
	return out
}

func TestRRFExplain_TwoRetrievers(t *testing.T) {
	bm25 := []fusion.Scored[string]{{ID: "d1", Score: 12.5}, {ID: "d2", Score: 8.1}}
	dense := []fusion.Scored[string]{{ID: "d2", Score: 0.93}, {ID: "d3", Score: 0.71}}

	results, err := RRFExplain(
		[][]fusion.Scored[string]{bm25, dense},
		[]RetrieverID{"bm25", "dense"},
		fusion.DefaultRRFConfig(),
	)
	if err != nil {
		t.Fatalf("RRFExplain() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	top := results[0]
	if top.ID != "d2" {
		t.Fatalf("expected d2 first, got %s", top.ID)
	}
	if top.Rank != 0 {
		t.Errorf("top rank = %d, want 0", top.Rank)
	}
	if !approx(top.Score, 1.0/60+1.0/61) {
		t.Errorf("d2 score = %v, want %v", top.Score, 1.0/60+1.0/61)
	}
	if top.Explanation.Method != "rrf" {
		t.Errorf("method = %q, want rrf", top.Explanation.Method)
	}
	if !approx(top.Explanation.ConsensusScore, 1.0) {
		t.Errorf("consensus = %v, want 1", top.Explanation.ConsensusScore)
	}

	if len(top.Explanation.Sources) != 2 {
		t.Fatalf("d2 sources = %d, want 2", len(top.Explanation.Sources))
	}
	bm25Src := top.Explanation.Sources[0]
	if bm25Src.RetrieverID != "bm25" {
		t.Errorf("first source = %s, want bm25 (retriever order)", bm25Src.RetrieverID)
	}
	if bm25Src.OriginalRank == nil || *bm25Src.OriginalRank != 1 {
		t.Errorf("bm25 original rank = %v, want 1", bm25Src.OriginalRank)
	}
	if bm25Src.OriginalScore == nil || !approx(*bm25Src.OriginalScore, 8.1) {
		t.Errorf("bm25 original score = %v, want 8.1", bm25Src.OriginalScore)
	}
	if bm25Src.NormalizedScore != nil {
		t.Errorf("rank-based method should carry no normalized score, got %v", *bm25Src.NormalizedScore)
	}
	if !approx(bm25Src.Contribution, 1.0/61) {
		t.Errorf("bm25 contribution = %v, want %v", bm25Src.Contribution, 1.0/61)
	}
}

func TestExplain_SingleSourceConsensus(t *testing.T) {
	bm25 := []fusion.Scored[string]{{ID: "doc_123", Score: 87.5}}
	dense := []fusion.Scored[string]{}

	results, err := RRFExplain(
		[][]fusion.Scored[string]{bm25, dense},
		[]RetrieverID{"bm25", "dense"},
		fusion.DefaultRRFConfig(),
	)
	if err != nil {
		t.Fatalf("RRFExplain() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	exp := results[0].Explanation
	if len(exp.Sources) != 1 {
		t.Fatalf("sources = %d, want 1 (absent retrievers omitted)", len(exp.Sources))
	}
	if exp.Sources[0].RetrieverID != "bm25" {
		t.Errorf("source = %s, want bm25", exp.Sources[0].RetrieverID)
	}
	if !approx(exp.ConsensusScore, 0.5) {
		t.Errorf("consensus = %v, want 0.5", exp.ConsensusScore)
	}
}

func TestExplain_RetrieverCountMismatch(t *testing.T) {
	lists := [][]fusion.Scored[string]{ranked("d1"), ranked("d2")}
	ids := []RetrieverID{"only-one"}

	if _, err := RRFExplain(lists, ids, fusion.DefaultRRFConfig()); err != ErrRetrieverCount {
		t.Errorf("RRFExplain error = %v, want ErrRetrieverCount", err)
	}
	if _, err := CombSUMExplain(lists, ids, fusion.DefaultFusionConfig()); err != ErrRetrieverCount {
		t.Errorf("CombSUMExplain error = %v, want ErrRetrieverCount", err)
	}
	if _, err := CombMNZExplain(lists, ids, fusion.DefaultFusionConfig()); err != ErrRetrieverCount {
		t.Errorf("CombMNZExplain error = %v, want ErrRetrieverCount", err)
	}
	if _, err := DBSFExplain(lists, ids, fusion.DefaultFusionConfig()); err != ErrRetrieverCount {
		t.Errorf("DBSFExplain error = %v, want ErrRetrieverCount", err)
	}
}

func TestRRFExplain_InvalidK(t *testing.T) {
	lists := [][]fusion.Scored[string]{ranked("d1")}
	if _, err := RRFExplain(lists, []RetrieverID{"a"}, fusion.RRFConfig{K: 0}); err != fusion.ErrInvalidK {
		t.Errorf("error = %v, want ErrInvalidK", err)
	}
}

func TestExplain_ContributionsSumToScore(t *testing.T) {
	a := []fusion.Scored[string]{{ID: "d1", Score: 1.0}, {ID: "d2", Score: 0.5}, {ID: "d3", Score: 0.2}}
	b := []fusion.Scored[string]{{ID: "d2", Score: 0.9}, {ID: "d1", Score: 0.4}, {ID: "d4", Score: 0.1}}
	c := []fusion.Scored[string]{{ID: "d4", Score: 7.0}, {ID: "d2", Score: 3.0}}
	lists := [][]fusion.Scored[string]{a, b, c}
	ids := []RetrieverID{"r1", "r2", "r3"}

	type run struct {
		name    string
		results []FusedResult[string]
	}
	var runs []run

	rrf, err := RRFExplain(lists, ids, fusion.DefaultRRFConfig())
	if err != nil {
		t.Fatalf("RRFExplain() error = %v", err)
	}
	runs = append(runs, run{"rrf", rrf})

	sum, err := CombSUMExplain(lists, ids, fusion.DefaultFusionConfig())
	if err != nil {
		t.Fatalf("CombSUMExplain() error = %v", err)
	}
	runs = append(runs, run{"combsum", sum})

	mnz, err := CombMNZExplain(lists, ids, fusion.DefaultFusionConfig())
	if err != nil {
		t.Fatalf("CombMNZExplain() error = %v", err)
	}
	runs = append(runs, run{"combmnz", mnz})

	dbsf, err := DBSFExplain(lists, ids, fusion.DefaultFusionConfig())
	if err != nil {
		t.Fatalf("DBSFExplain() error = %v", err)
	}
	runs = append(runs, run{"dbsf", dbsf})

	for _, r := range runs {
		for _, fr := range r.results {
			total := 0.0
			for _, s := range fr.Explanation.Sources {
				total += s.Contribution
			}
			if !approx(total, fr.Score) {
				t.Errorf("%s: %s contributions sum to %v, fused score %v", r.name, fr.ID, total, fr.Score)
			}
		}
	}
}

func TestExplain_MatchesScalarEngine(t *testing.T) {
	a := []fusion.Scored[string]{{ID: "d1", Score: 0.9}, {ID: "d2", Score: 0.5}}
	b := []fusion.Scored[string]{{ID: "d2", Score: 0.8}, {ID: "d3", Score: 0.3}}
	lists := [][]fusion.Scored[string]{a, b}

	scalar := fusion.CombSUMMulti(lists, fusion.DefaultFusionConfig())
	explained, err := CombSUMExplain(lists, []RetrieverID{"a", "b"}, fusion.DefaultFusionConfig())
	if err != nil {
		t.Fatalf("CombSUMExplain() error = %v", err)
	}

	if len(scalar) != len(explained) {
		t.Fatalf("sizes differ: scalar %d vs explained %d", len(scalar), len(explained))
	}
	for i := range scalar {
		if scalar[i].ID != explained[i].ID || !approx(scalar[i].Score, explained[i].Score) {
			t.Errorf("position %d: scalar %v vs explained {%s %v}",
				i, scalar[i], explained[i].ID, explained[i].Score)
		}
	}
}

func TestCombMNZExplain_MultiplierScaling(t *testing.T) {
	lists := [][]fusion.Scored[string]{
		ranked("d1"),
		ranked("d1"),
		ranked("d1"),
	}

	results, err := CombMNZExplain(lists, []RetrieverID{"r1", "r2", "r3"}, fusion.DefaultFusionConfig())
	if err != nil {
		t.Fatalf("CombMNZExplain() error = %v", err)
	}

	// Single-element lists pass raw 1.0 through; sum 3, multiplier 3.
	if !approx(results[0].Score, 9) {
		t.Errorf("score = %v, want 9", results[0].Score)
	}
	for _, s := range results[0].Explanation.Sources {
		if !approx(s.Contribution, 3) {
			t.Errorf("%s contribution = %v, want 3", s.RetrieverID, s.Contribution)
		}
	}
}

func TestDBSFExplain_NormalizedScoreRecorded(t *testing.T) {
	a := []fusion.Scored[string]{{ID: "d1", Score: 1.0}, {ID: "d2", Score: 0.0}}

	results, err := DBSFExplain([][]fusion.Scored[string]{a}, []RetrieverID{"dense"}, fusion.DefaultFusionConfig())
	if err != nil {
		t.Fatalf("DBSFExplain() error = %v", err)
	}

	src := results[0].Explanation.Sources[0]
	if src.NormalizedScore == nil || !approx(*src.NormalizedScore, 1) {
		t.Errorf("normalized score = %v, want 1 (z-score of the top of a two-element list)", src.NormalizedScore)
	}
	if src.OriginalScore == nil || !approx(*src.OriginalScore, 1.0) {
		t.Errorf("original score = %v, want 1.0", src.OriginalScore)
	}
}

func TestExplain_TopK(t *testing.T) {
	a := ranked("d1", "d2", "d3", "d4")

	results, err := RRFExplain([][]fusion.Scored[string]{a}, []RetrieverID{"a"}, fusion.RRFConfig{K: 60, TopK: 2})
	if err != nil {
		t.Fatalf("RRFExplain() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "d1" || results[1].ID != "d2" {
		t.Errorf("expected the two highest [d1 d2], got %v %v", results[0].ID, results[1].ID)
	}
	if results[0].Rank != 0 || results[1].Rank != 1 {
		t.Errorf("ranks = %d %d, want 0 1", results[0].Rank, results[1].Rank)
	}
}

func TestAnalyzeConsensus(t *testing.T) {
	// d1 appears in both lists; d2 only in the first; d3 appears in both
	// but at wildly different ranks.
	a := ranked("d1", "d2", "d3")
	filler := []fusion.Scored[string]{
		{ID: "d1", Score: 0.9},
		{ID: "f1", Score: 0.8}, {ID: "f2", Score: 0.7}, {ID: "f3", Score: 0.6},
		{ID: "f4", Score: 0.5}, {ID: "f5", Score: 0.4}, {ID: "f6", Score: 0.3},
		{ID: "d3", Score: 0.2},
	}

	results, err := RRFExplain(
		[][]fusion.Scored[string]{a, filler},
		[]RetrieverID{"a", "b"},
		fusion.DefaultRRFConfig(),
	)
	if err != nil {
		t.Fatalf("RRFExplain() error = %v", err)
	}

	report := AnalyzeConsensus(results)

	if !containsID(report.HighConsensus, "d1") || !containsID(report.HighConsensus, "d3") {
		t.Errorf("high consensus = %v, want d1 and d3", report.HighConsensus)
	}
	if containsID(report.HighConsensus, "d2") {
		t.Errorf("d2 is single-source, must not be high consensus")
	}
	if !containsID(report.SingleSource, "d2") {
		t.Errorf("single source = %v, want d2 included", report.SingleSource)
	}

	// d3: rank 2 in list a, rank 7 in filler — spread 5 hits the threshold.
	found := false
	for _, rs := range report.RankDisagreement {
		if rs.ID == "d3" {
			found = true
			if len(rs.Ranks) != 2 {
				t.Errorf("d3 ranks = %v, want 2 entries", rs.Ranks)
			}
		}
		if rs.ID == "d1" {
			t.Errorf("d1 spread is 0, must not be a disagreement")
		}
	}
	if !found {
		t.Errorf("rank disagreement = %v, want d3 included", report.RankDisagreement)
	}
}

func TestAttributeTopK(t *testing.T) {
	a := ranked("d1", "d2")
	b := []fusion.Scored[string]{{ID: "d1", Score: 0.9}, {ID: "d3", Score: 0.4}}

	results, err := RRFExplain(
		[][]fusion.Scored[string]{a, b},
		[]RetrieverID{"a", "b"},
		fusion.DefaultRRFConfig(),
	)
	if err != nil {
		t.Fatalf("RRFExplain() error = %v", err)
	}

	stats := AttributeTopK(results, 10) // beyond size covers everything

	sa, ok := stats["a"]
	if !ok {
		t.Fatalf("no stats for retriever a")
	}
	if sa.TopKCount != 2 {
		t.Errorf("a top-k count = %d, want 2", sa.TopKCount)
	}
	if sa.UniqueDocs != 1 { // d2 found only by a
		t.Errorf("a unique docs = %d, want 1", sa.UniqueDocs)
	}

	sb := stats["b"]
	if sb.TopKCount != 2 {
		t.Errorf("b top-k count = %d, want 2", sb.TopKCount)
	}
	if sb.UniqueDocs != 1 { // d3 found only by b
		t.Errorf("b unique docs = %d, want 1", sb.UniqueDocs)
	}

	// a contributed 1/60 to d1 and 1/61 to d2.
	wantAvg := (1.0/60 + 1.0/61) / 2
	if !approx(sa.AvgContribution, wantAvg) {
		t.Errorf("a avg contribution = %v, want %v", sa.AvgContribution, wantAvg)
	}
}

func TestAttributeTopK_WindowLimitsScope(t *testing.T) {
	a := ranked("d1", "d2", "d3")

	results, err := RRFExplain([][]fusion.Scored[string]{a}, []RetrieverID{"a"}, fusion.DefaultRRFConfig())
	if err != nil {
		t.Fatalf("RRFExplain() error = %v", err)
	}

	stats := AttributeTopK(results, 1)
	if stats["a"].TopKCount != 1 {
		t.Errorf("top-1 count = %d, want 1", stats["a"].TopKCount)
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
