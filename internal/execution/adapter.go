// Package execution obtains a single variant's trace: it instruments a source
// unit, runs the result under the sandboxed process host with a hard timeout,
// and parses the captured diagnostic output. Each attempt is made exactly
// once; any failure is reported as trace absence, never as a partial trace.
package execution

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/deobf-eval/trace-analysis/internal/featureflags"
	"github.com/deobf-eval/trace-analysis/internal/sandbox"
	"github.com/deobf-eval/trace-analysis/internal/trace"
	"github.com/deobf-eval/trace-analysis/internal/utils"
)

// autoWrapDirective is appended to every instrumented unit. It asks the
// program's own runtime to wrap functions attached to well-known export and
// global surfaces, extending traced coverage to callback-style code the
// static instrumentation pass cannot see structurally. The call is guarded so
// that programs running without the probe runtime are unaffected.
const autoWrapDirective = "\n// auto-wrap exported functions to catch object-attached callbacks\n" +
	"try { if (globalThis && globalThis.__wrapObjectFunctions) " +
	"globalThis.__wrapObjectFunctions((typeof module!=='undefined' && module.exports) ? module.exports : globalThis, 'root'); } catch (e) {}\n"

// Adapter drives one variant execution end to end. It is safe for concurrent
// use: all per-execution state is staged in uniquely named temp files.
type Adapter struct {
	instrumenter *Instrumenter
	sb           *sandbox.Sandbox
	parseOpts    trace.Options
}

func NewAdapter(instrumenter *Instrumenter, sb *sandbox.Sandbox, parseOpts trace.Options) *Adapter {
	return &Adapter{
		instrumenter: instrumenter,
		sb:           sb,
		parseOpts:    parseOpts,
	}
}

/*
Execute obtains the trace for the source unit at srcPath, feeding input on the
program's stdin.

The returned status records how the attempt ended; for any status other than
StatusCompleted the returned records are nil and the variant is scored as
absent. A non-nil error is returned only for faults that make the tool itself
unusable (the process host cannot be invoked at all); per-variant failures,
including instrumentation failures and timeouts, are statuses, not errors.
*/
func (a *Adapter) Execute(ctx context.Context, logger *slog.Logger, srcPath string, input string) ([]trace.Record, Status, error) {
	instrumented, err := a.instrumenter.Instrument(ctx, logger, srcPath)
	if err != nil {
		logger.WarnContext(ctx, "Instrumentation failed", "src", srcPath, "error", err)
		return nil, StatusErrorInstrument, nil
	}

	if featureflags.AutoWrapExports.Enabled() {
		instrumented += autoWrapDirective
	}

	scriptFile, err := os.CreateTemp("", "trace-analysis-run-*.js")
	if err != nil {
		return nil, StatusErrorOther, fmt.Errorf("failed to stage instrumented source: %w", err)
	}
	scriptPath := scriptFile.Name()
	scriptFile.Close()
	defer os.Remove(scriptPath)

	if err := utils.WriteFile(scriptPath, []byte(instrumented), false); err != nil {
		return nil, StatusErrorOther, fmt.Errorf("failed to stage instrumented source: %w", err)
	}

	result, err := a.sb.Run(ctx, logger, scriptPath, input)
	if err != nil {
		// Host-level fault; the whole run should stop, not just this case.
		return nil, StatusErrorOther, err
	}

	status := StatusForRunResult(result)
	if status != StatusCompleted {
		// Timeout or runtime fault: discard partial output for trace
		// purposes and report absence.
		logger.WarnContext(ctx, "Variant execution did not complete",
			"src", srcPath,
			"status", string(status))
		return nil, status, nil
	}

	records, err := trace.Parse(ctx, bytes.NewReader(result.Stderr()), logger, a.parseOpts)
	if err != nil {
		return nil, StatusErrorOther, fmt.Errorf("trace parsing failed: %w", err)
	}
	return records, StatusCompleted, nil
}
