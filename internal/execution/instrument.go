package execution

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// Instrumenter invokes the external source-to-source instrumentation step
// (a Node.js AST rewriter) that injects trace-emitting probes into a program.
// The instrumented program reports each entered function as a JSON array of
// {function, line} records on stderr, flushed at normal termination and from
// a fallback deadline timer.
type Instrumenter struct {
	scriptPath     string
	interpreterBin string
}

// NewInstrumenter validates that the instrumenter script exists. A missing
// script means the tool is unusable, so this is checked once up front rather
// than surfacing per case.
func NewInstrumenter(scriptPath, interpreterBin string) (*Instrumenter, error) {
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("instrumenter script not found: %w", err)
	}
	return &Instrumenter{
		scriptPath:     scriptPath,
		interpreterBin: interpreterBin,
	}, nil
}

// Instrument runs the instrumenter on the source unit at srcPath and returns
// the instrumented source text. Intermediate files live in a uniquely named
// temporary directory that is removed on every exit path, so concurrent
// instrumentations never collide.
func (in *Instrumenter) Instrument(ctx context.Context, logger *slog.Logger, srcPath string) (string, error) {
	workingDir, err := os.MkdirTemp("", "trace-analysis-instrument-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp working directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workingDir); err != nil {
			logger.ErrorContext(ctx, "could not remove working directory", "path", workingDir, "error", err)
		}
	}()

	outFilePath := filepath.Join(workingDir, "instrumented.js")

	cmd := exec.CommandContext(ctx, in.interpreterBin, in.scriptPath, srcPath, outFilePath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("instrumenter failed on %s: %w (output: %s)", srcPath, err, output)
	}

	instrumented, err := os.ReadFile(outFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to read instrumenter output: %w", err)
	}
	return string(instrumented), nil
}
