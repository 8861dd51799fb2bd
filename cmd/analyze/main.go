package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/deobf-eval/trace-analysis/internal/comparison"
	"github.com/deobf-eval/trace-analysis/internal/featureflags"
	"github.com/deobf-eval/trace-analysis/internal/log"
	"github.com/deobf-eval/trace-analysis/internal/resultstore"
	"github.com/deobf-eval/trace-analysis/internal/worker"
)

var (
	originalDir     = flag.String("original", "original", "directory of original source files")
	obfuscatedDir   = flag.String("obfuscated", "obfuscated", "directory of obfuscated counterparts")
	deobfuscatedDir = flag.String("deobfuscated", "deobfuscated", "directory of deobfuscated counterparts")
	instrumenter    = flag.String("instrumenter", "instrument.js", "path to the trace instrumenter script")
	interpreter     = flag.String("interpreter", "node", "interpreter used to run the instrumenter and instrumented programs")
	inputDir        = flag.String("input-dir", "", "directory of per-case stdin payloads (<case>.txt)")
	timeout         = flag.Duration("timeout", 50*time.Second, "hard wall-clock limit per variant execution")
	includeLines    = flag.Bool("include-lines", false, "append @L<line> to canonical tokens (changes similarity outcomes)")
	firstTraceOnly  = flag.Bool("first-trace-only", false, "keep only the first parsed trace array per execution instead of merging all")
	concurrency     = flag.Int("concurrency", 1, "number of cases to process in flight")
	resultsBucket   = flag.String("results", "", "bucket URL for uploading comparison reports and the run summary (e.g. file:///tmp/results)")
	traceBucket     = flag.String("trace-dumps", "", "bucket URL for uploading raw trace dumps")
	features        = flag.String("features", "", "override features that are enabled/disabled by default")
	listFeatures    = flag.Bool("list-features", false, "list available features that can be toggled")
	help            = flag.Bool("help", false, "print help on available options")
)

func printFeatureFlags() {
	fmt.Printf("Feature List\n\n")
	fmt.Printf("%-30s %s\n", "Name", "Default")
	fmt.Printf("----------------------------------------\n")

	// print features in sorted order
	state := featureflags.State()
	sortedFeatures := maps.Keys(state)
	slices.Sort(sortedFeatures)

	// print Off/On rather than 'false' and 'true'
	stateStrings := map[bool]string{false: "Off", true: "On"}
	for _, feature := range sortedFeatures {
		fmt.Printf("%-30s %s\n", feature, stateStrings[state[feature]])
	}

	fmt.Println()
}

func makeResultStores() worker.ResultStores {
	rs := worker.ResultStores{}
	if *resultsBucket != "" {
		rs.Reports = resultstore.New(*resultsBucket, resultstore.ConstructPath())
	}
	if *traceBucket != "" {
		rs.RawTraces = resultstore.New(*traceBucket, resultstore.ConstructPath())
	}
	return rs
}

func run(ctx context.Context, logger *slog.Logger) error {
	runner, err := worker.NewRunner(worker.Config{
		InstrumenterPath:    *instrumenter,
		InterpreterBin:      *interpreter,
		Timeout:             *timeout,
		InputDir:            *inputDir,
		IncludeLineInToken:  *includeLines,
		FirstTraceArrayOnly: *firstTraceOnly,
	})
	if err != nil {
		return err
	}

	cases, err := comparison.DiscoverCases(*originalDir, *obfuscatedDir, *deobfuscatedDir)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("no source files found in %s", *originalDir)
	}
	logger.InfoContext(ctx, "Starting comparison run",
		"cases", len(cases),
		"concurrency", *concurrency)

	summary, err := worker.RunComparison(ctx, logger, runner, cases, *concurrency, makeResultStores())
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Comparison run finished",
		"cases_processed", summary.CasesProcessed,
		"scores_observed", summary.ScoresObserved,
		"min_similarity", summary.MinSimilarity,
		"max_similarity", summary.MaxSimilarity,
		"mean_similarity", summary.MeanSimilarity)
	return nil
}

func main() {
	logger := log.Initialize(os.Getenv("LOGGER_ENV"))
	flag.Parse()

	if err := featureflags.Update(*features); err != nil {
		logger.Error("Failed to parse -features", "error", err)
		os.Exit(1)
	}

	if *help {
		flag.Usage()
		return
	}
	if *listFeatures {
		printFeatureFlags()
		return
	}

	if err := run(context.Background(), logger); err != nil {
		logger.Error("Comparison run failed", "error", err)
		os.Exit(1)
	}
}
