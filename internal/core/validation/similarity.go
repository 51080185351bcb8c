package validation

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// descriptionSimilarity scores two folded descriptions in [0, 1].
//
// It takes the better of two signals: a normalized Levenshtein ratio
// (1 - distance/maxRuneLen) and a token overlap coefficient
// (|shared tokens| / |smaller token set|). The overlap coefficient keeps
// "Tóner HP LaserJet" close to "Tóner HP LaserJet Pro M404/M428", where
// raw edit distance would punish the longer model suffix.
func descriptionSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	ratio := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)

	if overlap := tokenOverlap(a, b); overlap > ratio {
		return overlap
	}
	return ratio
}

func tokenOverlap(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(tokensA))
	for _, tok := range tokensA {
		set[tok] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(tokensB))
	for _, tok := range tokensB {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		if _, ok := set[tok]; ok {
			shared++
		}
	}

	smaller := len(set)
	if len(seen) < smaller {
		smaller = len(seen)
	}
	return float64(shared) / float64(smaller)
}
