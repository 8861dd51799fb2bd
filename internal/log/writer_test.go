package log_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/deobf-eval/trace-analysis/internal/log"
)

// recordingHandler captures every record handled, in order.
type recordingHandler struct {
	slog.Handler

	level   slog.Level
	records []slog.Record
}

func (h *recordingHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level
}

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) messages() []string {
	var msgs []string
	for _, r := range h.records {
		msgs = append(msgs, r.Message)
	}
	return msgs
}

func newRecordingLogger(level slog.Level) (*slog.Logger, *recordingHandler) {
	h := &recordingHandler{level: level}
	return slog.New(h), h
}

func TestNewWriter_SingleLine(t *testing.T) {
	logger, h := newRecordingLogger(slog.LevelDebug)
	w := log.NewWriter(context.Background(), logger, slog.LevelInfo)

	want := "this is the log message"

	_, err := io.Copy(w, strings.NewReader(want))
	w.Close()

	if err != nil {
		t.Fatalf("Writing failed: %v", err)
	}
	if got := len(h.records); got != 1 {
		t.Fatalf("Got %d log entries; want 1", got)
	}
	if got := h.records[0].Message; got != want {
		t.Errorf("Got %v entry; want %v", got, want)
	}
}

func TestNewWriter_MultiLine(t *testing.T) {
	logger, h := newRecordingLogger(slog.LevelDebug)
	w := log.NewWriter(context.Background(), logger, slog.LevelInfo)

	want := []string{
		"one",
		"two",
		"three",
		"four",
	}

	_, err := io.Copy(w, strings.NewReader(strings.Join(want, "\n")))
	w.Close()

	if err != nil {
		t.Fatalf("Writing failed: %v", err)
	}
	if got := h.messages(); !slices.Equal(got, want) {
		t.Errorf("Got log entries = %v; want %v", got, want)
	}
}

func TestNewWriter_LevelSuppress(t *testing.T) {
	logger, h := newRecordingLogger(slog.LevelWarn)
	w := log.NewWriter(context.Background(), logger, slog.LevelInfo)

	_, err := io.Copy(w, strings.NewReader("this is the log message"))
	w.Close()

	if err != nil {
		t.Fatalf("Writing failed: %v", err)
	}
	if got := len(h.records); got != 0 {
		t.Fatalf("Got %d log entries; want none", got)
	}
}

func TestNewWriter_MultiWithEmptyLine(t *testing.T) {
	logger, h := newRecordingLogger(slog.LevelDebug)
	w := log.NewWriter(context.Background(), logger, slog.LevelInfo)

	in := []string{"one", "two", "", "four"}
	want := []string{"one", "two", "four"}

	_, err := io.Copy(w, strings.NewReader(strings.Join(in, "\n")))
	w.Close()

	if err != nil {
		t.Fatalf("Writing failed: %v", err)
	}
	if got := h.messages(); !slices.Equal(got, want) {
		t.Errorf("Got log entries = %v; want %v", got, want)
	}
}

func TestNewWriter_MultiWithTrailingSpaces(t *testing.T) {
	logger, h := newRecordingLogger(slog.LevelDebug)
	w := log.NewWriter(context.Background(), logger, slog.LevelInfo)

	in := []string{"one    ", "two \t \f \v \r", "\t\t\t\t", "four"}
	want := []string{"one", "two", "four"}

	_, err := io.Copy(w, strings.NewReader(strings.Join(in, "\n")))
	w.Close()

	if err != nil {
		t.Fatalf("Writing failed: %v", err)
	}
	if got := h.messages(); !slices.Equal(got, want) {
		t.Errorf("Got log entries = %v; want %v", got, want)
	}
}

func TestNewWriter_CloseFlushesPartialLine(t *testing.T) {
	logger, h := newRecordingLogger(slog.LevelDebug)
	w := log.NewWriter(context.Background(), logger, slog.LevelInfo)

	if _, err := io.WriteString(w, "no trailing newline"); err != nil {
		t.Fatalf("Writing failed: %v", err)
	}
	if got := len(h.records); got != 0 {
		t.Fatalf("Got %d log entries before Close; want none", got)
	}
	w.Close()

	want := []string{"no trailing newline"}
	if got := h.messages(); !slices.Equal(got, want) {
		t.Errorf("Got log entries = %v; want %v", got, want)
	}
}
