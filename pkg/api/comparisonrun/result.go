package comparisonrun

import (
	"github.com/deobf-eval/trace-analysis/internal/execution"
	"github.com/deobf-eval/trace-analysis/pkg/valuecounts"
)

// Record is the top-level struct which is serialised to produce JSON results
// files for a comparison run.
type Record struct {
	Case             Key   `json:"Case"`
	CreatedTimestamp int64 `json:"CreatedTimestamp"`
	Comparison       any   `json:"Comparison"`
}

// PairwiseResult holds the similarity scores for one ordered pair of
// canonical token sequences.
//
// Similarity is the LCS length normalised by the longer sequence, in [0, 1].
// EditRatio is a supplementary Levenshtein ratio over the same token
// sequences; it is reported for diagnostics and never feeds into Similarity.
type PairwiseResult struct {
	Similarity float64 `json:"similarity"`
	LenA       int     `json:"len_a"`
	LenB       int     `json:"len_b"`
	LCSLength  int     `json:"lcs_length"`
	EditRatio  float64 `json:"edit_ratio"`
}

// ComparisonReport is the durable per-case output artifact.
//
// TraceLengths counts raw trace records per variant (0 for an absent
// variant). Pairwise always contains all three fixed pair names.
type ComparisonReport struct {
	Case         string                       `json:"case"`
	TraceLengths map[Variant]int              `json:"traces"`
	Statuses     map[Variant]execution.Status `json:"statuses"`
	Pairwise     map[PairName]PairwiseResult  `json:"pairwise"`
}

// RunSummary aggregates pairwise scores across all cases processed in one
// invocation. Min/Max/Mean are taken over every observed pairwise similarity;
// they are zero when ScoresObserved is zero. TraceLengths is the distribution
// of raw trace lengths over every variant execution in the run.
type RunSummary struct {
	CreatedTimestamp int64                   `json:"created_timestamp"`
	CasesProcessed   int                     `json:"cases_processed"`
	ScoresObserved   int                     `json:"scores_observed"`
	MinSimilarity    float64                 `json:"min_similarity"`
	MaxSimilarity    float64                 `json:"max_similarity"`
	MeanSimilarity   float64                 `json:"mean_similarity"`
	TraceLengths     valuecounts.ValueCounts `json:"trace_lengths"`
}
