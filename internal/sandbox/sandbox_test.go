package sandbox_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deobf-eval/trace-analysis/internal/sandbox"
)

var nopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func writeScript(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte(contents), 0o666); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSuccess(t *testing.T) {
	script := writeScript(t, "echo out\necho >&2 diag\n")
	sb := sandbox.New(sandbox.Interpreter("sh"))

	result, err := sb.Run(context.Background(), nopLogger, script, "")
	if err != nil {
		t.Fatalf("Run() error = %v; want nil", err)
	}
	if got := result.Status(); got != sandbox.RunStatusSuccess {
		t.Errorf("Status() = %v; want %v", got, sandbox.RunStatusSuccess)
	}
	if got := string(result.Stdout()); got != "out\n" {
		t.Errorf("Stdout() = %q; want %q", got, "out\n")
	}
	if got := string(result.Stderr()); got != "diag\n" {
		t.Errorf("Stderr() = %q; want %q", got, "diag\n")
	}
}

func TestRunStdin(t *testing.T) {
	script := writeScript(t, "read line\necho >&2 \"$line\"\n")
	sb := sandbox.New(sandbox.Interpreter("sh"))

	result, err := sb.Run(context.Background(), nopLogger, script, "12 34\n")
	if err != nil {
		t.Fatalf("Run() error = %v; want nil", err)
	}
	if got := string(result.Stderr()); got != "12 34\n" {
		t.Errorf("Stderr() = %q; want %q", got, "12 34\n")
	}
}

func TestRunFailure(t *testing.T) {
	script := writeScript(t, "echo >&2 partial\nexit 3\n")
	sb := sandbox.New(sandbox.Interpreter("sh"))

	result, err := sb.Run(context.Background(), nopLogger, script, "")
	if err != nil {
		t.Fatalf("Run() error = %v; want nil", err)
	}
	if got := result.Status(); got != sandbox.RunStatusFailure {
		t.Errorf("Status() = %v; want %v", got, sandbox.RunStatusFailure)
	}
	// Output produced before the failure is still captured.
	if got := string(result.Stderr()); got != "partial\n" {
		t.Errorf("Stderr() = %q; want %q", got, "partial\n")
	}
}

func TestRunTimeout(t *testing.T) {
	script := writeScript(t, "sleep 10\n")
	sb := sandbox.New(sandbox.Interpreter("sh"), sandbox.Timeout(200*time.Millisecond))

	result, err := sb.Run(context.Background(), nopLogger, script, "")
	if err != nil {
		t.Fatalf("Run() error = %v; want nil", err)
	}
	if got := result.Status(); got != sandbox.RunStatusTimeout {
		t.Errorf("Status() = %v; want %v", got, sandbox.RunStatusTimeout)
	}
}

func TestRunMissingInterpreter(t *testing.T) {
	script := writeScript(t, "echo hi\n")
	sb := sandbox.New(sandbox.Interpreter("definitely-not-a-real-interpreter"))

	result, err := sb.Run(context.Background(), nopLogger, script, "")
	if !errors.Is(err, sandbox.ErrHostUnavailable) {
		t.Fatalf("Run() error = %v; want %v", err, sandbox.ErrHostUnavailable)
	}
	if got := result.Status(); got != sandbox.RunStatusUnknown {
		t.Errorf("Status() = %v; want %v", got, sandbox.RunStatusUnknown)
	}
}

func TestRunStatusString(t *testing.T) {
	tests := []struct {
		status sandbox.RunStatus
		want   string
	}{
		{sandbox.RunStatusUnknown, "unknown"},
		{sandbox.RunStatusSuccess, "success"},
		{sandbox.RunStatusFailure, "failure"},
		{sandbox.RunStatusTimeout, "timeout"},
	}
	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			if got := test.status.String(); got != test.want {
				t.Errorf("String() = %q; want %q", got, test.want)
			}
		})
	}
}
