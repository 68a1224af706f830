package search

import (
	"math"
	"sort"

	"github.com/museumlab/artsearch/internal/domain/search/result"
	"github.com/museumlab/artsearch/internal/domain/search/source"
)

// weightedList pairs one ranked list with its fusion weight.
type weightedList struct {
	list   result.RankedList
	weight float64
}

// fuseRRF merges ranked lists via weighted Reciprocal Rank Fusion.
// score(d) = sum over lists of weight_i / (k + rank_i(d) + 1), rank 0-based.
// Equal fused scores break on keyword rank (documents the keyword engine
// ranked higher win), then on artwork id, so identical inputs always
// produce identical output.
func fuseRRF(lists []weightedList, rrfK float64, topK int) result.FusionResult {
	type scored struct {
		hit         result.Hit
		score       float64
		sources     []string
		keywordRank int
	}

	merged := make(map[string]*scored)

	for _, wl := range lists {
		if wl.weight <= 0 {
			continue
		}
		isKeyword := wl.list.Source().Kind() == source.KindKeyword
		for rank, h := range wl.list.Hits() {
			contrib := wl.weight / (rrfK + float64(rank) + 1)
			s, ok := merged[h.ID()]
			if !ok {
				s = &scored{hit: h, keywordRank: math.MaxInt}
				merged[h.ID()] = s
			}
			s.score += contrib
			s.sources = append(s.sources, wl.list.Source().Key())
			if isKeyword && rank < s.keywordRank {
				s.keywordRank = rank
			}
		}
	}

	fused := make([]*scored, 0, len(merged))
	for _, s := range merged {
		fused = append(fused, s)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		if fused[i].keywordRank != fused[j].keywordRank {
			return fused[i].keywordRank < fused[j].keywordRank
		}
		return fused[i].hit.ID() < fused[j].hit.ID()
	})

	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}

	hits := make([]result.FusedHit, 0, len(fused))
	for _, s := range fused {
		sort.Strings(s.sources)
		hits = append(hits, result.NewFusedHit(s.hit, s.score, s.sources))
	}

	return result.NewFusionResult(hits)
}

// applyThreshold drops hits whose native score is below min, preserving
// order. min <= 0 keeps everything.
func applyThreshold(list result.RankedList, min float64) result.RankedList {
	if min <= 0 {
		return list
	}
	kept := make([]result.Hit, 0, list.Len())
	for _, h := range list.Hits() {
		if h.Score() >= min {
			kept = append(kept, h)
		}
	}
	return result.NewRankedList(list.Source(), kept)
}
