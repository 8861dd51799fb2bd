// Package worker glues the comparison pipeline together for the two
// binaries: it builds the execution stack from configuration, drives runs,
// and persists their artifacts.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/deobf-eval/trace-analysis/internal/canonical"
	"github.com/deobf-eval/trace-analysis/internal/comparison"
	"github.com/deobf-eval/trace-analysis/internal/execution"
	"github.com/deobf-eval/trace-analysis/internal/sandbox"
	"github.com/deobf-eval/trace-analysis/internal/trace"
	"github.com/deobf-eval/trace-analysis/pkg/api/comparisonrun"
)

// Config collects everything needed to run comparisons.
type Config struct {
	// InstrumenterPath is the path to the external instrumenter script.
	InstrumenterPath string

	// InterpreterBin runs both the instrumenter and the instrumented
	// programs. Empty means "node".
	InterpreterBin string

	// Timeout is the hard wall-clock limit per variant execution.
	Timeout time.Duration

	// InputDir optionally holds per-case stdin payloads (<case>.txt).
	InputDir string

	// IncludeLineInToken appends @L<line> to canonical tokens. Off by
	// default; materially changes similarity outcomes.
	IncludeLineInToken bool

	// FirstTraceArrayOnly keeps only the first parsed trace array per
	// execution instead of merging all recognised arrays.
	FirstTraceArrayOnly bool

	// Concurrency bounds the number of cases processed in flight.
	Concurrency int
}

// NewRunner assembles the comparison runner for the given config. It fails
// only when the instrumenter script cannot be found, which makes the tool
// unusable.
func NewRunner(cfg Config) (*comparison.Runner, error) {
	interpreter := cfg.InterpreterBin
	if interpreter == "" {
		interpreter = "node"
	}

	instrumenter, err := execution.NewInstrumenter(cfg.InstrumenterPath, interpreter)
	if err != nil {
		return nil, err
	}

	sbOpts := []sandbox.Option{sandbox.Interpreter(interpreter)}
	if cfg.Timeout > 0 {
		sbOpts = append(sbOpts, sandbox.Timeout(cfg.Timeout))
	}

	adapter := execution.NewAdapter(
		instrumenter,
		sandbox.New(sbOpts...),
		trace.Options{FirstArrayOnly: cfg.FirstTraceArrayOnly},
	)

	var inputs comparison.InputProvider
	if cfg.InputDir != "" {
		inputs = comparison.DirInput(cfg.InputDir)
	}

	return comparison.NewRunner(adapter, canonical.Config{IncludeLine: cfg.IncludeLineInToken}, inputs), nil
}

// RunComparison processes every case and persists artifacts as each case
// completes, then saves the run summary. Reports written before a failure or
// cancellation remain durable.
func RunComparison(ctx context.Context, logger *slog.Logger, runner *comparison.Runner, cases []comparison.Case, concurrency int, stores ResultStores) (comparisonrun.RunSummary, error) {
	summary, err := runner.RunAll(ctx, logger, cases, concurrency, func(ctx context.Context, result *comparison.CaseResult) error {
		LogCaseResult(ctx, logger, result)
		return SaveCaseData(ctx, logger, stores, result)
	})
	if err != nil {
		return summary, err
	}

	if err := SaveRunSummary(ctx, logger, stores, summary); err != nil {
		return summary, err
	}
	return summary, nil
}
