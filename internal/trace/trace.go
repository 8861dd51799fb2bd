package trace

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Record is one observed execution event reported by an instrumented program.
// It is immutable once parsed.
type Record struct {
	// Function is the identifier reported by the instrumentation probe. It may
	// be empty or machine-generated; values of other JSON types are coerced to
	// their string form rather than rejected.
	Function string `json:"function"`

	// Line is the source line of the event, or nil if the probe did not
	// report a usable (non-negative integer) line number.
	Line *int `json:"line,omitempty"`
}

// Options controls how diagnostic output is turned into trace records.
type Options struct {
	// FirstArrayOnly keeps only the first successfully parsed trace array
	// rather than concatenating every recognised array in line order.
	// Merging is the default: instrumented programs flush traces both on
	// normal exit and from a fallback deadline timer, and dropping the
	// later flushes loses data.
	FirstArrayOnly bool
}

// scanner line buffer; instrumented programs emit a whole trace array on one
// line, which can run to megabytes for loop-heavy programs.
const maxLineBytes = 16 * 1024 * 1024

/*
Parse recovers trace records from raw line-oriented diagnostic output.

Each line is attempted as a standalone JSON parse and qualifies only if it
decodes to an array whose every element is an object. Anything else on the
stream (interpreter warnings, stack traces, partial JSON from a killed
process) is skipped without aborting the parse of subsequent lines.

The returned error reflects only read failures on r; malformed content never
produces an error.
*/
func Parse(ctx context.Context, r io.Reader, logger *slog.Logger, opts Options) ([]Record, error) {
	var records []Record
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line, ok := parseLine(scanner.Bytes())
		if !ok {
			skipped++
			continue
		}
		records = append(records, line...)
		if opts.FirstArrayOnly {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diagnostic output: %w", err)
	}

	if skipped > 0 {
		logger.DebugContext(ctx, "Skipped non-trace diagnostic lines", "lines", skipped)
	}
	return records, nil
}

// parseLine decodes a single line as a trace array. The second return value
// is false if the line is not valid JSON, not an array, or contains any
// element that is not an object.
func parseLine(line []byte) ([]Record, bool) {
	var elements []json.RawMessage
	if err := json.Unmarshal(line, &elements); err != nil {
		return nil, false
	}

	entries := make([]map[string]any, 0, len(elements))
	for _, e := range elements {
		var entry map[string]any
		if err := json.Unmarshal(e, &entry); err != nil {
			return nil, false
		}
		entries = append(entries, entry)
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, recordFromEntry(entry))
	}
	return records, true
}

// recordFromEntry is total: every JSON object maps to a Record, however
// malformed its fields are. Probes report the name under "function"; older
// instrumenter builds used "event".
func recordFromEntry(entry map[string]any) Record {
	r := Record{Function: coerceString(firstPresent(entry, "function", "event"))}

	if line, ok := entry["line"].(float64); ok {
		if line >= 0 && line == math.Trunc(line) && line <= math.MaxInt32 {
			n := int(line)
			r.Line = &n
		}
	}
	return r
}

func firstPresent(entry map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := entry[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
