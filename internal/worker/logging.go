package worker

import (
	"context"
	"log/slog"

	"github.com/deobf-eval/trace-analysis/internal/comparison"
	"github.com/deobf-eval/trace-analysis/internal/execution"
	"github.com/deobf-eval/trace-analysis/internal/log"
	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

/*
NOTE: These strings are referenced externally by dashboards for reporting /
metrics purposes, and so should be changed with care.
*/
const (
	caseCompleteLogMsg = "Comparison completed"
	caseDegradedLogMsg = "Comparison completed with absent variants"
	gotRequestLogMsg   = "Got request"
)

// LogRequest records that a comparison request was received by the worker.
func LogRequest(ctx context.Context, logger *slog.Logger, caseName, sourcesBucket, resultsBucketOverride string) {
	logger.InfoContext(ctx, gotRequestLogMsg,
		log.LabelAttr("case", caseName),
		log.LabelAttr("sources_bucket", sourcesBucket),
		log.LabelAttr("results_bucket_override", resultsBucketOverride),
	)
}

// LogCaseResult records the outcome of one completed case: the three
// pairwise scores, and which variants (if any) were scored as absent.
func LogCaseResult(ctx context.Context, logger *slog.Logger, result *comparison.CaseResult) {
	attrs := []any{
		log.LabelAttr("case", result.Key.Case),
	}
	for _, pair := range comparisonrun.AllPairs() {
		attrs = append(attrs, slog.Float64(pair.String(), result.Report.Pairwise[pair].Similarity))
	}

	degraded := false
	for _, variant := range comparisonrun.AllVariants() {
		status := result.Report.Statuses[variant]
		if status != execution.StatusCompleted {
			degraded = true
			attrs = append(attrs, slog.String(variant.String()+"_status", string(status)))
		}
	}

	if degraded {
		logger.WarnContext(ctx, caseDegradedLogMsg, attrs...)
	} else {
		logger.InfoContext(ctx, caseCompleteLogMsg, attrs...)
	}
}
