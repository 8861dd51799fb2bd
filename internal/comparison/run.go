// Package comparison orchestrates multi-variant trace comparison: it pairs
// source units into cases, executes each case's variants, canonicalizes the
// resulting traces and scores the three fixed pairwise similarities.
package comparison

import (
	"context"
	"log/slog"
	"sync"

	"github.com/deobf-eval/trace-analysis/internal/canonical"
	"github.com/deobf-eval/trace-analysis/internal/execution"
	"github.com/deobf-eval/trace-analysis/internal/log"
	"github.com/deobf-eval/trace-analysis/internal/similarity"
	"github.com/deobf-eval/trace-analysis/internal/trace"
	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

// Executor obtains the trace for one variant's source unit. It is satisfied
// by *execution.Adapter; tests substitute a fake.
type Executor interface {
	Execute(ctx context.Context, logger *slog.Logger, srcPath string, input string) ([]trace.Record, execution.Status, error)
}

// CaseResult is the complete outcome of one processed case. Report is the
// durable artifact; RawTraces backs the optional per-variant trace dumps.
type CaseResult struct {
	Key       comparisonrun.Key
	Report    comparisonrun.ComparisonReport
	RawTraces map[comparisonrun.Variant][]trace.Record
}

type Runner struct {
	executor Executor
	tokens   canonical.Config
	inputs   InputProvider
}

func NewRunner(executor Executor, tokens canonical.Config, inputs InputProvider) *Runner {
	if inputs == nil {
		inputs = DefaultInput()
	}
	return &Runner{
		executor: executor,
		tokens:   tokens,
		inputs:   inputs,
	}
}

/*
RunCase processes a single case to completion: each present variant is
executed exactly once, each resulting trace is canonicalized, and all three
pairwise similarities are computed.

Absent variants (missing source, timeout, runtime fault) contribute an empty
token sequence, so every report carries all three pair keys and downstream
aggregation never special-cases missing pairs. A non-nil error is returned
only for faults that make the tool unusable, and aborts the run.
*/
func (r *Runner) RunCase(ctx context.Context, logger *slog.Logger, c Case) (*CaseResult, error) {
	logger = logger.With(log.LabelAttr("case", c.Key.Case))
	input := r.inputs.Input(c.Key.Case)

	result := &CaseResult{
		Key: c.Key,
		Report: comparisonrun.ComparisonReport{
			Case:         c.Key.Case,
			TraceLengths: make(map[comparisonrun.Variant]int),
			Statuses:     make(map[comparisonrun.Variant]execution.Status),
			Pairwise:     make(map[comparisonrun.PairName]comparisonrun.PairwiseResult),
		},
		RawTraces: make(map[comparisonrun.Variant][]trace.Record),
	}

	tokens := make(map[comparisonrun.Variant][]canonical.Token)
	for _, variant := range comparisonrun.AllVariants() {
		srcPath, present := c.Paths[variant]
		if !present {
			logger.InfoContext(ctx, "Variant source not found", "variant", variant.String())
			result.Report.Statuses[variant] = execution.StatusMissingVariant
			result.Report.TraceLengths[variant] = 0
			tokens[variant] = nil
			continue
		}

		records, status, err := r.executor.Execute(ctx, logger.With("variant", variant.String()), srcPath, input)
		if err != nil {
			return nil, err
		}
		result.Report.Statuses[variant] = status
		result.Report.TraceLengths[variant] = len(records)
		result.RawTraces[variant] = records
		tokens[variant] = canonical.Sequence(records, r.tokens)
	}

	for _, pair := range comparisonrun.AllPairs() {
		a, b := pair.Variants()
		pr := similarity.ComparePair(tokens[a], tokens[b])
		result.Report.Pairwise[pair] = pr
		logger.InfoContext(ctx, "Pairwise similarity computed",
			"pair", pair.String(),
			"similarity", pr.Similarity,
			"len_a", pr.LenA,
			"len_b", pr.LenB,
			"lcs_length", pr.LCSLength)
	}

	return result, nil
}

/*
RunAll processes the given cases with up to concurrency cases in flight and
returns the aggregated run summary. handle is invoked once per completed case
(typically to persist the report) before its scores are folded into the
summary; handle may be called concurrently.

Cases share no state, so processing order is irrelevant. Cancelling ctx stops
scheduling of remaining cases; already-handled reports are durable and the
summary covers exactly the cases that completed.
*/
func (r *Runner) RunAll(ctx context.Context, logger *slog.Logger, cases []Case, concurrency int, handle func(context.Context, *CaseResult) error) (comparisonrun.RunSummary, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	abort := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	summary := NewSummaryBuilder()
	sem := make(chan struct{}, concurrency)

	for _, c := range cases {
		if runCtx.Err() != nil {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(c Case) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := r.RunCase(runCtx, logger, c)
			if err != nil {
				logger.ErrorContext(runCtx, "Case processing aborted the run",
					log.LabelAttr("case", c.Key.Case),
					"error", err)
				abort(err)
				return
			}
			if handle != nil {
				if err := handle(runCtx, result); err != nil {
					abort(err)
					return
				}
			}
			summary.Add(result.Report)
		}(c)
	}
	wg.Wait()

	return summary.Summary(), firstErr
}
