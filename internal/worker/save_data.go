package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deobf-eval/trace-analysis/internal/comparison"
	"github.com/deobf-eval/trace-analysis/internal/featureflags"
	"github.com/deobf-eval/trace-analysis/internal/resultstore"
	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

// ResultStores holds ResultStore instances for saving each kind of run data.
// They can be nil, in which case the associated save is a no-op.
type ResultStores struct {
	// Reports receives per-case comparison reports and the run summary.
	Reports *resultstore.ResultStore

	// RawTraces receives per-(case, variant) trace dumps.
	RawTraces *resultstore.ResultStore
}

// SaveCaseData saves the report for one completed case, and the raw trace
// dumps when enabled. If any save fails, the rest are aborted.
func SaveCaseData(ctx context.Context, logger *slog.Logger, dest ResultStores, result *comparison.CaseResult) error {
	if dest.Reports != nil {
		if err := dest.Reports.SaveCaseReport(ctx, logger, result.Key, result.Report); err != nil {
			return fmt.Errorf("failed to save comparison report to %s: %w", dest.Reports, err)
		}
	}

	if dest.RawTraces != nil && featureflags.SaveRawTraces.Enabled() {
		for _, variant := range comparisonrun.AllVariants() {
			records, ok := result.RawTraces[variant]
			if !ok {
				continue
			}
			if err := dest.RawTraces.SaveRawTrace(ctx, logger, result.Key, variant, records); err != nil {
				return fmt.Errorf("failed to save raw trace to %s: %w", dest.RawTraces, err)
			}
		}
	}

	return nil
}

// SaveRunSummary saves the run summary to the reports store, if configured.
func SaveRunSummary(ctx context.Context, logger *slog.Logger, dest ResultStores, summary comparisonrun.RunSummary) error {
	if dest.Reports == nil {
		return nil
	}
	if err := dest.Reports.SaveRunSummary(ctx, logger, summary); err != nil {
		return fmt.Errorf("failed to save run summary to %s: %w", dest.Reports, err)
	}
	return nil
}
