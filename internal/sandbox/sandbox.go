// Package sandbox runs instrumented programs under an external interpreter
// with a hard wall-clock timeout, capturing their output channels. It offers
// no isolation guarantees beyond forced termination at the deadline.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/deobf-eval/trace-analysis/internal/log"
)

const (
	defaultInterpreterBin = "node"
	defaultTimeout        = 50 * time.Second

	// grace period between the deadline kill signal and abandoning Wait.
	waitDelay = 5 * time.Second
)

type RunStatus uint8

const (
	// RunStatusUnknown is used when some other issue occurred that prevented
	// an attempt to run the program.
	RunStatusUnknown RunStatus = iota

	// RunStatusSuccess is used to indicate that the program exited cleanly.
	RunStatusSuccess

	// RunStatusFailure is used to indicate that the program exited with some
	// failure.
	RunStatusFailure

	// RunStatusTimeout is used to indicate that the program failed to complete
	// within the allowed timeout and was forcibly terminated.
	RunStatusTimeout
)

func (s RunStatus) String() string {
	switch s {
	case RunStatusSuccess:
		return "success"
	case RunStatusFailure:
		return "failure"
	case RunStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// RunResult holds the outcome of a single program execution. Stdout and
// Stderr are fully buffered; for trace purposes callers read Stderr, which is
// the diagnostic channel instrumentation probes write to.
type RunResult struct {
	status RunStatus
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func (r *RunResult) Status() RunStatus {
	return r.status
}

func (r *RunResult) Stdout() []byte {
	return r.stdout.Bytes()
}

func (r *RunResult) Stderr() []byte {
	return r.stderr.Bytes()
}

// Sandbox executes scripts under the configured interpreter. A single Sandbox
// is safe for concurrent use; each Run owns all of its per-execution state.
type Sandbox struct {
	interpreterBin string
	timeout        time.Duration
}

type Option interface{ set(*Sandbox) }
type option func(*Sandbox)       // option implements Option.
func (o option) set(sb *Sandbox) { o(sb) }

// Interpreter overrides the interpreter binary used to run scripts.
func Interpreter(bin string) Option {
	return option(func(sb *Sandbox) { sb.interpreterBin = bin })
}

// Timeout sets the hard wall-clock limit for each Run.
func Timeout(d time.Duration) Option {
	return option(func(sb *Sandbox) { sb.timeout = d })
}

func New(options ...Option) *Sandbox {
	sb := &Sandbox{
		interpreterBin: defaultInterpreterBin,
		timeout:        defaultTimeout,
	}
	for _, o := range options {
		o.set(sb)
	}
	return sb
}

// ErrHostUnavailable indicates the interpreter binary itself could not be
// invoked. This is an environment problem, not a property of the script, and
// callers treat it as fatal to the whole run.
var ErrHostUnavailable = errors.New("process host unavailable")

// Run executes the script at scriptPath, feeding input on its stdin. The
// program is killed once the sandbox timeout elapses; its exit is then
// reported as RunStatusTimeout and the caller is expected to discard any
// partial output for trace purposes.
//
// A non-nil error is returned only when the execution attempt itself could
// not be made. Program-level failure is reported through RunResult.Status.
func (s *Sandbox) Run(ctx context.Context, logger *slog.Logger, scriptPath string, input string) (*RunResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.interpreterBin, scriptPath)
	cmd.WaitDelay = waitDelay
	cmd.Stdin = strings.NewReader(input)

	result := &RunResult{}

	logOut := log.NewWriter(ctx, logger, slog.LevelDebug)
	defer logOut.Close()
	cmd.Stdout = io.MultiWriter(&result.stdout, logOut)
	cmd.Stderr = &result.stderr

	startTime := time.Now()
	err := cmd.Run()
	duration := time.Since(startTime)

	switch {
	case err == nil:
		result.status = RunStatusSuccess
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.status = RunStatusTimeout
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.status = RunStatusFailure
		} else {
			// The interpreter never ran (missing binary, fork failure).
			result.status = RunStatusUnknown
			return result, errors.Join(ErrHostUnavailable, err)
		}
	}

	logger.DebugContext(ctx, "Sandboxed execution finished",
		"script", scriptPath,
		"status", result.status,
		"duration", duration)
	return result, nil
}
