// Package similarity scores pairs of canonical token sequences. The primary
// metric is longest-common-subsequence length normalised by the longer
// sequence, which is order-sensitive and cannot be inflated by padding one
// side with unrelated tokens.
package similarity

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/deobf-eval/trace-analysis/internal/canonical"
	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

// LCSLength computes the longest-common-subsequence length over token
// equality. The full DP table is never materialised: traces can run to
// thousands of entries and only the length is needed, so the computation
// rolls two rows sized by the shorter sequence.
func LCSLength(a, b []canonical.Token) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Keep the row dimension as the shorter sequence. LCS is symmetric.
	if len(b) > len(a) {
		a, b = b, a
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		ai := a[i-1]
		for j := 1; j <= len(b); j++ {
			if ai == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Score returns the normalised LCS similarity in [0, 1].
//
// Two empty sequences are vacuously identical (1.0): absence of behaviour is
// treated as agreement, which matters when obfuscator wrapper frames are the
// only content of both traces. Exactly one empty sequence scores 0.0.
func Score(a, b []canonical.Token) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	s := float64(LCSLength(a, b)) / float64(max(len(a), len(b)))
	return clamp01(s)
}

// ComparePair scores an ordered pair of token sequences, producing the
// serialisable result used in comparison reports.
func ComparePair(a, b []canonical.Token) comparisonrun.PairwiseResult {
	return comparisonrun.PairwiseResult{
		Similarity: Score(a, b),
		LenA:       len(a),
		LenB:       len(b),
		LCSLength:  LCSLength(a, b),
		EditRatio:  editRatio(a, b),
	}
}

// editRatio computes a Levenshtein ratio over the two token sequences, with
// each distinct token interned to a single rune so whole tokens are the unit
// of edit. Substitution counts as two operations, matching the library
// default. Reported alongside the LCS score as a secondary signal.
func editRatio(a, b []canonical.Token) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	interned := make(map[canonical.Token]rune)
	intern := func(seq []canonical.Token) []rune {
		runes := make([]rune, len(seq))
		for i, t := range seq {
			r, ok := interned[t]
			if !ok {
				// Private use area, one code point per distinct token.
				r = rune(0xE000 + len(interned))
				interned[t] = r
			}
			runes[i] = r
		}
		return runes
	}

	return clamp01(levenshtein.RatioForStrings(intern(a), intern(b), levenshtein.DefaultOptions))
}

func clamp01(x float64) float64 {
	switch {
	case x < 0.0:
		return 0.0
	case x > 1.0:
		return 1.0
	default:
		return x
	}
}
