package explain

// Higher-level analysis over an explained fusion output: consensus
// bucketing and per-retriever attribution.

// rankSpreadThreshold is the minimum difference between an identifier's
// best and worst original rank for it to count as a rank disagreement.
const rankSpreadThreshold = 5

// RetrieverRank pairs a retriever with the 0-indexed rank it assigned.
type RetrieverRank struct {
	RetrieverID RetrieverID `json:"retriever_id"`
	Rank        int         `json:"rank"`
}

// RankSpread records an identifier whose per-retriever ranks diverge.
type RankSpread[I comparable] struct {
	ID    I               `json:"id"`
	Ranks []RetrieverRank `json:"ranks"`
}

// ConsensusReport buckets an explained output by source agreement.
type ConsensusReport[I comparable] struct {
	// HighConsensus holds identifiers present in every retriever.
	HighConsensus []I `json:"high_consensus"`

	// SingleSource holds identifiers present in exactly one retriever.
	SingleSource []I `json:"single_source"`

	// RankDisagreement holds identifiers whose per-retriever ranks spread
	// by at least rankSpreadThreshold positions.
	RankDisagreement []RankSpread[I] `json:"rank_disagreement"`
}

// AnalyzeConsensus groups an explained fusion output into high-consensus,
// single-source, and rank-disagreement buckets. Output order follows the
// fused ranking, so the report is deterministic.
func AnalyzeConsensus[I comparable](results []FusedResult[I]) ConsensusReport[I] {
	var report ConsensusReport[I]

	for _, r := range results {
		if r.Explanation.ConsensusScore >= 1 && len(r.Explanation.Sources) > 0 {
			report.HighConsensus = append(report.HighConsensus, r.ID)
		}
		if len(r.Explanation.Sources) == 1 {
			report.SingleSource = append(report.SingleSource, r.ID)
		}

		best, worst := -1, -1
		var ranks []RetrieverRank
		for _, s := range r.Explanation.Sources {
			if s.OriginalRank == nil {
				continue
			}
			rank := *s.OriginalRank
			ranks = append(ranks, RetrieverRank{RetrieverID: s.RetrieverID, Rank: rank})
			if best == -1 || rank < best {
				best = rank
			}
			if rank > worst {
				worst = rank
			}
		}
		if len(ranks) > 1 && worst-best >= rankSpreadThreshold {
			report.RankDisagreement = append(report.RankDisagreement, RankSpread[I]{ID: r.ID, Ranks: ranks})
		}
	}

	return report
}

// RetrieverStats summarizes one retriever's footprint in a top-K window.
type RetrieverStats struct {
	// TopKCount is how many of the window's results this retriever
	// contributed to.
	TopKCount int `json:"top_k_count"`

	// AvgContribution is the mean scalar contribution across those
	// results.
	AvgContribution float64 `json:"avg_contribution"`

	// UniqueDocs counts window results found only by this retriever.
	UniqueDocs int `json:"unique_docs"`
}

// AttributeTopK summarizes, over the top k fused results, how much each
// retriever contributed. k beyond the result size covers everything.
func AttributeTopK[I comparable](results []FusedResult[I], k int) map[RetrieverID]RetrieverStats {
	if k > len(results) || k < 0 {
		k = len(results)
	}
	window := results[:k]

	totals := make(map[RetrieverID]float64)
	stats := make(map[RetrieverID]RetrieverStats)

	for _, r := range window {
		for _, s := range r.Explanation.Sources {
			st := stats[s.RetrieverID]
			st.TopKCount++
			if len(r.Explanation.Sources) == 1 {
				st.UniqueDocs++
			}
			stats[s.RetrieverID] = st
			totals[s.RetrieverID] += s.Contribution
		}
	}

	for id, st := range stats {
		if st.TopKCount > 0 {
			st.AvgContribution = totals[id] / float64(st.TopKCount)
			stats[id] = st
		}
	}
	return stats
}
