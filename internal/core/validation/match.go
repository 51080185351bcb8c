package validation

import (
	"sort"

	"github.com/facturaflow/validator/internal/core/domain"
)

// Match pairs canonical primary items against one related document's
// items. Three passes, in order of precedence:
//
//  1. exact-code: identical non-empty codes, greedy by ascending primary
//     lineIndex, confidence 1.0;
//  2. fuzzy-description: highest similarity above the policy threshold
//     first, ties broken by ascending primary then related lineIndex;
//  3. residual: everything left becomes an unmatched pair.
//
// The output fully partitions both inputs and is deterministic for
// identical (or identically-reordered-by-equal-key) inputs.
func Match(primary, related []domain.LineItem, policy Policy) []domain.MatchPair {
	policy = policy.normalize()

	pOrder := sortedByLineIndex(primary)
	rOrder := sortedByLineIndex(related)

	pairs := make([]domain.MatchPair, 0, len(primary)+len(related))
	pUsed := make([]bool, len(primary))
	rUsed := make([]bool, len(related))

	// Exact-code pass.
	for _, pi := range pOrder {
		code := primary[pi].Code
		if code == "" {
			continue
		}
		for _, ri := range rOrder {
			if rUsed[ri] || related[ri].Code != code {
				continue
			}
			pairs = append(pairs, pair(&primary[pi], &related[ri], domain.MatchExactCode, 1.0))
			pUsed[pi] = true
			rUsed[ri] = true
			break
		}
	}

	// Fuzzy-description pass over the leftovers. O(n*m) by design:
	// documents carry tens of lines, not thousands.
	type candidate struct {
		pi, ri int
		score  float64
	}
	var candidates []candidate
	for _, pi := range pOrder {
		if pUsed[pi] {
			continue
		}
		for _, ri := range rOrder {
			if rUsed[ri] {
				continue
			}
			score := descriptionSimilarity(primary[pi].DescriptionFolded, related[ri].DescriptionFolded)
			if score >= policy.FuzzyThreshold {
				candidates = append(candidates, candidate{pi: pi, ri: ri, score: score})
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if primary[candidates[i].pi].LineIndex != primary[candidates[j].pi].LineIndex {
			return primary[candidates[i].pi].LineIndex < primary[candidates[j].pi].LineIndex
		}
		return related[candidates[i].ri].LineIndex < related[candidates[j].ri].LineIndex
	})
	for _, c := range candidates {
		if pUsed[c.pi] || rUsed[c.ri] {
			continue
		}
		pairs = append(pairs, pair(&primary[c.pi], &related[c.ri], domain.MatchFuzzyDescription, c.score))
		pUsed[c.pi] = true
		rUsed[c.ri] = true
	}

	// Residual pass.
	for _, pi := range pOrder {
		if !pUsed[pi] {
			pairs = append(pairs, pair(&primary[pi], nil, domain.MatchUnmatchedPrimary, 0))
		}
	}
	for _, ri := range rOrder {
		if !rUsed[ri] {
			pairs = append(pairs, pair(nil, &related[ri], domain.MatchUnmatchedRelated, 0))
		}
	}
	return pairs
}

func pair(p, r *domain.LineItem, kind domain.MatchKind, confidence float64) domain.MatchPair {
	mp := domain.MatchPair{Kind: kind, Confidence: confidence}
	if p != nil {
		cp := *p
		mp.Primary = &cp
	}
	if r != nil {
		cr := *r
		mp.Related = &cr
	}
	return mp
}

// sortedByLineIndex returns item positions ordered by lineIndex; the
// original position is the final tie-break so equal-key reorderings of
// the input cannot change the outcome.
func sortedByLineIndex(items []domain.LineItem) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].LineIndex < items[order[b]].LineIndex
	})
	return order
}
