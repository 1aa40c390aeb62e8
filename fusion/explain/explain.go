// Package explain is the attribution layer over the fusion engine: it runs
// the same accumulation pass as the scalar entry points but retains
// per-source provenance, so callers can reconstruct why an identifier
// received its fused position.
package explain

import (
	"errors"
	"math"
	"sort"

	"github.com/rankfuse/rankfuse/fusion"
)

// ErrRetrieverCount is returned when the retriever identifier slice does
// not match the number of input lists.
var ErrRetrieverCount = errors.New("explain: retriever ids must match list count")

// RetrieverID labels one source of a ranked list (e.g., "bm25", "dense").
type RetrieverID string

// SourceContribution records what one retriever contributed to a fused
// identifier. Optional fields are nil when they do not apply (rank-based
// methods carry no normalized score).
type SourceContribution struct {
	RetrieverID RetrieverID `json:"retriever_id"`

	// OriginalRank is the 0-indexed rank of the identifier's first
	// occurrence in this retriever's list.
	OriginalRank *int `json:"original_rank,omitempty"`

	// OriginalScore is the raw score at that occurrence.
	OriginalScore *float64 `json:"original_score,omitempty"`

	// NormalizedScore is the value actually used in aggregation, when the
	// method normalizes scores.
	NormalizedScore *float64 `json:"normalized_score,omitempty"`

	// Contribution is the scalar amount this retriever added to the fused
	// score. Contributions across an identifier's sources sum to its
	// total fused score.
	Contribution float64 `json:"contribution"`
}

// Explanation describes how one fused identifier got its score.
type Explanation struct {
	// Sources holds exactly one entry per retriever in which the
	// identifier appeared, in retriever order. Absent retrievers are
	// omitted, not zero-filled.
	Sources []SourceContribution `json:"sources"`

	// Method names the fusion formula that produced the score.
	Method string `json:"method"`

	// ConsensusScore is the fraction of retrievers containing the
	// identifier, in [0, 1].
	ConsensusScore float64 `json:"consensus_score"`
}

// FusedResult is one entry of an explained fusion output.
type FusedResult[I comparable] struct {
	ID          I           `json:"id"`
	Score       float64     `json:"score"`
	Rank        int         `json:"rank"` // 0-based fused position
	Explanation Explanation `json:"explanation"`
}

// tracer mirrors the engine's accumulator but keeps per-retriever
// provenance alongside the running total. One tracer per call; discarded
// after finalization.
type tracer[I comparable] struct {
	entries    map[I]*traced
	order      []I
	retrievers []RetrieverID
}

type traced struct {
	total float64
	srcs  []sourceAgg // indexed by retriever position
}

type sourceAgg struct {
	present      bool
	firstRank    int
	firstScore   float64
	normalized   float64
	hasNorm      bool
	contribution float64
}

func newTracer[I comparable](retrievers []RetrieverID, capacity int) *tracer[I] {
	return &tracer[I]{
		entries:    make(map[I]*traced, capacity),
		order:      make([]I, 0, capacity),
		retrievers: retrievers,
	}
}

// add accumulates one occurrence of id from retriever ri at the given
// 0-indexed rank. normalized is only recorded when hasNorm is true.
func (t *tracer[I]) add(id I, ri, rank int, rawScore, normalized float64, hasNorm bool, contribution float64) {
	e, ok := t.entries[id]
	if !ok {
		e = &traced{srcs: make([]sourceAgg, len(t.retrievers))}
		t.entries[id] = e
		t.order = append(t.order, id)
	}
	e.total += contribution

	s := &e.srcs[ri]
	if !s.present {
		s.present = true
		s.firstRank = rank
		s.firstScore = rawScore
	}
	if hasNorm {
		s.normalized += normalized
		s.hasNorm = true
	}
	s.contribution += contribution
}

// finalize sorts under the same total ordering as the scalar engine and
// materializes explanations. scale multiplies both the total and every
// contribution (the CombMNZ overlap multiplier); for other methods the
// caller passes a scale func returning 1.
func (t *tracer[I]) finalize(method string, topK int, scale func(*traced) float64) []FusedResult[I] {
	totalRetrievers := len(t.retrievers)

	scored := make([]fusion.Scored[I], 0, len(t.order))
	for _, id := range t.order {
		e := t.entries[id]
		scored = append(scored, fusion.Scored[I]{ID: id, Score: e.total * scale(e)})
	}
	sortByScore(scored)
	scored = fusion.Truncate(scored, topK)

	results := make([]FusedResult[I], 0, len(scored))
	for rank, sc := range scored {
		e := t.entries[sc.ID]
		mult := scale(e)

		sources := make([]SourceContribution, 0, totalRetrievers)
		present := 0
		for ri := range e.srcs {
			s := &e.srcs[ri]
			if !s.present {
				continue
			}
			present++
			origRank, origScore := s.firstRank, s.firstScore
			contrib := SourceContribution{
				RetrieverID:   t.retrievers[ri],
				OriginalRank:  &origRank,
				OriginalScore: &origScore,
				Contribution:  s.contribution * mult,
			}
			if s.hasNorm {
				norm := s.normalized
				contrib.NormalizedScore = &norm
			}
			sources = append(sources, contrib)
		}

		consensus := 0.0
		if totalRetrievers > 0 {
			consensus = float64(present) / float64(totalRetrievers)
		}

		results = append(results, FusedResult[I]{
			ID:    sc.ID,
			Score: sc.Score,
			Rank:  rank,
			Explanation: Explanation{
				Sources:        sources,
				Method:         method,
				ConsensusScore: consensus,
			},
		})
	}
	return results
}

// distinctLists counts the retrievers containing the identifier, the
// CombMNZ overlap multiplier.
func distinctLists(e *traced) float64 {
	n := 0
	for i := range e.srcs {
		if e.srcs[i].present {
			n++
		}
	}
	return float64(n)
}

func unitScale[I comparable](*traced) float64 { return 1 }

// sortByScore matches the engine's deterministic ordering: score
// descending, NaN last, first-seen order breaking ties.
func sortByScore[I comparable](results []fusion.Scored[I]) {
	sort.SliceStable(results, func(i, j int) bool {
		return scoreGreater(results[i].Score, results[j].Score)
	})
}

func scoreGreater(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	}
	return a > b
}

// RRFExplain fuses N lists with Reciprocal Rank Fusion and returns, per
// fused identifier, the scalar result plus its explanation. retrievers
// must parallel lists one-to-one.
func RRFExplain[I comparable](lists [][]fusion.Scored[I], retrievers []RetrieverID, cfg fusion.RRFConfig) ([]FusedResult[I], error) {
	if len(lists) != len(retrievers) {
		return nil, ErrRetrieverCount
	}
	if cfg.K < 1 {
		return nil, fusion.ErrInvalidK
	}
	k := float64(cfg.K)
	t := newTracer[I](retrievers, capacityOf(lists))
	for ri, list := range lists {
		for rank, r := range list {
			t.add(r.ID, ri, rank, r.Score, 0, false, 1/(k+float64(rank)))
		}
	}
	return t.finalize(string(fusion.MethodRRF), cfg.TopK, unitScale[I]), nil
}

// CombSUMExplain is the explained form of CombSUM: min-max normalized
// scores summed across retrievers, with the normalized value recorded per
// source.
func CombSUMExplain[I comparable](lists [][]fusion.Scored[I], retrievers []RetrieverID, cfg fusion.FusionConfig) ([]FusedResult[I], error) {
	if len(lists) != len(retrievers) {
		return nil, ErrRetrieverCount
	}
	t := newTracer[I](retrievers, capacityOf(lists))
	addNormalized(t, lists, fusion.NormMinMax)
	return t.finalize(string(fusion.MethodCombSUM), cfg.TopK, unitScale[I]), nil
}

// CombMNZExplain is the explained form of CombMNZ. Source contributions
// are scaled by the overlap multiplier so they still sum to the fused
// score.
func CombMNZExplain[I comparable](lists [][]fusion.Scored[I], retrievers []RetrieverID, cfg fusion.FusionConfig) ([]FusedResult[I], error) {
	if len(lists) != len(retrievers) {
		return nil, ErrRetrieverCount
	}
	t := newTracer[I](retrievers, capacityOf(lists))
	addNormalized(t, lists, fusion.NormMinMax)
	return t.finalize(string(fusion.MethodCombMNZ), cfg.TopK, distinctLists), nil
}

// DBSFExplain is the explained form of DBSF: z-score normalization with
// the fixed [-3, 3] clip, summed across retrievers.
func DBSFExplain[I comparable](lists [][]fusion.Scored[I], retrievers []RetrieverID, cfg fusion.FusionConfig) ([]FusedResult[I], error) {
	if len(lists) != len(retrievers) {
		return nil, ErrRetrieverCount
	}
	t := newTracer[I](retrievers, capacityOf(lists))
	addNormalized(t, lists, fusion.NormZScore)
	return t.finalize(string(fusion.MethodDBSF), cfg.TopK, unitScale[I]), nil
}

func addNormalized[I comparable](t *tracer[I], lists [][]fusion.Scored[I], norm fusion.Normalization) {
	for ri, list := range lists {
		normalized := fusion.Normalize(list, norm, fusion.DefaultClipMin, fusion.DefaultClipMax)
		for rank, r := range list {
			t.add(r.ID, ri, rank, r.Score, normalized[rank], true, normalized[rank])
		}
	}
}

func capacityOf[I comparable](lists [][]fusion.Scored[I]) int {
	n := 0
	for _, list := range lists {
		n += len(list)
	}
	return n
}
