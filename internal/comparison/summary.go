package comparison

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"

	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
	"github.com/deobf-eval/trace-analysis/pkg/valuecounts"
)

// SummaryBuilder accumulates run-level statistics over pairwise scores as
// cases complete. It is an explicit value threaded through the run rather
// than module state, and is safe for concurrent Add calls.
type SummaryBuilder struct {
	mu      sync.Mutex
	cases   int
	scores  int
	sum     float64
	min     float64
	max     float64
	lengths valuecounts.ValueCounts
}

func NewSummaryBuilder() *SummaryBuilder {
	return &SummaryBuilder{
		lengths: valuecounts.New(),
	}
}

// Add folds one completed case's pairwise scores and trace lengths into the
// running summary.
func (b *SummaryBuilder) Add(report comparisonrun.ComparisonReport) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cases++
	for _, variant := range comparisonrun.AllVariants() {
		b.lengths.Add(report.TraceLengths[variant])
	}
	for _, pair := range comparisonrun.AllPairs() {
		s := report.Pairwise[pair].Similarity
		if b.scores == 0 || s < b.min {
			b.min = s
		}
		if b.scores == 0 || s > b.max {
			b.max = s
		}
		b.sum += s
		b.scores++
	}
}

// Summary snapshots the accumulated statistics.
func (b *SummaryBuilder) Summary() comparisonrun.RunSummary {
	b.mu.Lock()
	defer b.mu.Unlock()

	summary := comparisonrun.RunSummary{
		CreatedTimestamp: time.Now().UTC().Unix(),
		CasesProcessed:   b.cases,
		ScoresObserved:   b.scores,
		TraceLengths:     maps.Clone(b.lengths),
	}
	if b.scores > 0 {
		summary.MinSimilarity = b.min
		summary.MaxSimilarity = b.max
		summary.MeanSimilarity = b.sum / float64(b.scores)
	}
	return summary
}
