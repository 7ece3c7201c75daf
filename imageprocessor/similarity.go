package imageprocessor

import (
	"imagesync/types"
)

// FamilyScores returns the per-family comparison of two fingerprint sets.
// Families missing from either side, or whose bit lengths differ, are
// reported with Scored set to false.
func FamilyScores(a, b map[string]types.Fingerprint) []types.FamilyScore {
	scores := make([]types.FamilyScore, 0, len(Families))
	for _, family := range Families {
		score := types.FamilyScore{Family: family}

		fa, okA := a[family]
		fb, okB := b[family]
		if okA && okB {
			score.Bits = fa.Bits
			if dist, err := fa.Distance(fb); err == nil && !fa.Empty() {
				score.Distance = dist
				score.Similarity = 1 - float64(dist)/float64(fa.Bits)
				score.Scored = true
			}
		}
		scores = append(scores, score)
	}
	return scores
}

// Score returns the mean similarity over every scored family together with
// the number of families that contributed
func Score(a, b map[string]types.Fingerprint) (float64, int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}

	var sum float64
	scored := 0
	for _, s := range FamilyScores(a, b) {
		if s.Scored {
			sum += s.Similarity
			scored++
		}
	}
	if scored == 0 {
		return 0, 0
	}
	return sum / float64(scored), scored
}

// Similar reports whether two fingerprint sets match at the threshold.
// No comparable family means not similar.
func Similar(a, b map[string]types.Fingerprint, threshold float64) bool {
	mean, scored := Score(a, b)
	return scored > 0 && mean >= threshold
}

// IsExactMatch reports whether both records carry the same non-empty content hash
func IsExactMatch(a, b *types.ImageRecord) bool {
	return a.ExactHash != "" && a.ExactHash == b.ExactHash
}
