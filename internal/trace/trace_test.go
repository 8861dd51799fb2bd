package trace_test

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/deobf-eval/trace-analysis/internal/trace"
)

var nopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func parse(t *testing.T, input string, opts trace.Options) []trace.Record {
	t.Helper()
	records, err := trace.Parse(context.Background(), strings.NewReader(input), nopLogger, opts)
	if err != nil {
		t.Fatalf(`Parse(%q) error = %v, want nil`, input, err)
	}
	return records
}

func intPtr(n int) *int {
	return &n
}

func TestParseSingleArray(t *testing.T) {
	input := `[{"function":"main","line":1},{"function":"main","line":2}]`
	want := []trace.Record{
		{Function: "main", Line: intPtr(1)},
		{Function: "main", Line: intPtr(2)},
	}
	if got := parse(t, input, trace.Options{}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Parse() = %v, want %v`, got, want)
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	input := "[{\"function\":\"main\"\n" + // truncated JSON
		`[{"function":"run","line":3}]`
	want := []trace.Record{{Function: "run", Line: intPtr(3)}}
	if got := parse(t, input, trace.Options{}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Parse() = %v, want %v`, got, want)
	}
}

func TestParseSkipsNonRecordArrays(t *testing.T) {
	input := "[1,2,3]\n" +
		`["a","b"]` + "\n" +
		`{"function":"notanarray"}` + "\n" +
		"42\n" +
		`[{"function":"keep"}]`
	want := []trace.Record{{Function: "keep"}}
	if got := parse(t, input, trace.Options{}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Parse() = %v, want %v`, got, want)
	}
}

// A mixed array is rejected as a whole: one non-object element disqualifies
// the line, it does not salvage the object elements around it.
func TestParseRejectsMixedArray(t *testing.T) {
	input := `[{"function":"a"}, 7, {"function":"b"}]`
	if got := parse(t, input, trace.Options{}); len(got) != 0 {
		t.Errorf(`Parse() = %v, want empty`, got)
	}
}

func TestParseMergesAllArraysInLineOrder(t *testing.T) {
	input := `[{"function":"first"}]` + "\n" +
		"interpreter warning: something\n" +
		`[{"function":"second"},{"function":"third"}]`
	want := []trace.Record{
		{Function: "first"},
		{Function: "second"},
		{Function: "third"},
	}
	if got := parse(t, input, trace.Options{}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Parse() = %v, want %v`, got, want)
	}
}

func TestParseFirstArrayOnly(t *testing.T) {
	input := `[{"function":"first"}]` + "\n" +
		`[{"function":"second"}]`
	want := []trace.Record{{Function: "first"}}
	if got := parse(t, input, trace.Options{FirstArrayOnly: true}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Parse() = %v, want %v`, got, want)
	}
}

func TestParseCoercesFunctionField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"number", `[{"function":42}]`, "42"},
		{"bool", `[{"function":true}]`, "true"},
		{"null", `[{"function":null}]`, ""},
		{"missing", `[{"line":1}]`, ""},
		{"event fallback", `[{"event":"tick"}]`, "tick"},
		{"function preferred over event", `[{"function":"f","event":"e"}]`, "f"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			records := parse(t, test.input, trace.Options{})
			if len(records) != 1 {
				t.Fatalf(`Parse() returned %d records, want 1`, len(records))
			}
			if got := records[0].Function; got != test.want {
				t.Errorf(`Function = %q, want %q`, got, test.want)
			}
		})
	}
}

func TestParseLineField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *int
	}{
		{"valid", `[{"function":"f","line":12}]`, intPtr(12)},
		{"zero", `[{"function":"f","line":0}]`, intPtr(0)},
		{"negative", `[{"function":"f","line":-1}]`, nil},
		{"fractional", `[{"function":"f","line":1.5}]`, nil},
		{"string", `[{"function":"f","line":"7"}]`, nil},
		{"missing", `[{"function":"f"}]`, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			records := parse(t, test.input, trace.Options{})
			if len(records) != 1 {
				t.Fatalf(`Parse() returned %d records, want 1`, len(records))
			}
			if got := records[0].Line; !reflect.DeepEqual(got, test.want) {
				t.Errorf(`Line = %v, want %v`, got, test.want)
			}
		})
	}
}

func TestParseEmptyInput(t *testing.T) {
	if got := parse(t, "", trace.Options{}); len(got) != 0 {
		t.Errorf(`Parse("") = %v, want empty`, got)
	}
}
