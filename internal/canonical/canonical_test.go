package canonical

import (
	"reflect"
	"testing"

	"github.com/deobf-eval/trace-analysis/internal/trace"
)

func record(function string) trace.Record {
	return trace.Record{Function: function}
}

func recordAt(function string, line int) trace.Record {
	return trace.Record{Function: function, Line: &line}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		want Token
	}{
		// obfuscator-generated identifier shapes
		{"_0x4f2a81", TokenWrapper},
		{"_0x", TokenWrapper},
		{"a0_0x12ab", TokenWrapper},
		{"0x1f", TokenWrapper},
		// handlers
		{"process.on('data')", TokenHandler},
		{"data_handler", TokenHandler},
		{"onData", TokenHandler},
		{"HANDLER", TokenHandler},
		// module roots
		{"global", TokenGlobal},
		{"<module>", TokenGlobal},
		{"Root", TokenGlobal},
		// builtins
		{"parseInt", TokenParseInt},
		{"my_parse_int_helper", TokenParseInt},
		{"toString", TokenToString},
		{"num_to_string", TokenToString},
		{"console.log", TokenConsoleLog},
		{"logResult", TokenConsoleLog},
		// anonymous
		{"anonymous", TokenAnonFn},
		{"<anonymous>", TokenAnonFn},
		// escape class
		{"main", Token("FN:main")},
		{"compute$value", Token("FN:compute_value")},
		{"  spaced  ", Token("FN:spaced")},
		{"", Token("FN:FN_UNKNOWN")},
		{"???", Token("FN:___")},
	}
	for _, test := range tests {
		if got := Canonicalize(record(test.name)); got != test.want {
			t.Errorf(`Canonicalize(%q) = %q, want %q`, test.name, got, test.want)
		}
	}
}

// Rule order is a designed tie-break: a wrapper-shaped name containing "log"
// is still a wrapper, and a handler spelling containing "log" is a handler.
func TestCanonicalizeRuleOrder(t *testing.T) {
	if got := Canonicalize(record("_0xlog")); got != TokenWrapper {
		t.Errorf(`Canonicalize("_0xlog") = %q, want %q`, got, TokenWrapper)
	}
	if got := Canonicalize(record("process.on log")); got != TokenHandler {
		t.Errorf(`Canonicalize("process.on log") = %q, want %q`, got, TokenHandler)
	}
	// "parseIntToString" hits the earlier parse-int rule.
	if got := Canonicalize(record("parseIntToString")); got != TokenParseInt {
		t.Errorf(`Canonicalize("parseIntToString") = %q, want %q`, got, TokenParseInt)
	}
}

func TestSequenceDropsWrappers(t *testing.T) {
	records := []trace.Record{
		record("_0xabc123"),
		record("main"),
		record("a0_0x99"),
		record("main"),
	}
	want := []Token{"FN:main", "FN:main"}
	if got := Sequence(records, Config{}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Sequence() = %v, want %v`, got, want)
	}
}

// A trace consisting solely of wrapper frames canonicalizes to an empty
// sequence, which the similarity engine scores as agreement with another
// empty sequence.
func TestSequenceAllWrappers(t *testing.T) {
	records := []trace.Record{
		record("_0xabc123"),
		record("_0xdef456"),
	}
	if got := Sequence(records, Config{}); len(got) != 0 {
		t.Errorf(`Sequence() = %v, want empty`, got)
	}
}

func TestSequencePreservesOrderAndRepeats(t *testing.T) {
	records := []trace.Record{
		record("a"), record("b"), record("a"), record("a"),
	}
	want := []Token{"FN:a", "FN:b", "FN:a", "FN:a"}
	if got := Sequence(records, Config{}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Sequence() = %v, want %v`, got, want)
	}
}

func TestSequenceIncludeLine(t *testing.T) {
	records := []trace.Record{
		recordAt("main", 3),
		record("main"),
		recordAt("_0xabc", 9),
	}
	want := []Token{"FN:main@L3", "FN:main"}
	if got := Sequence(records, Config{IncludeLine: true}); !reflect.DeepEqual(got, want) {
		t.Errorf(`Sequence(IncludeLine) = %v, want %v`, got, want)
	}
}

// Canonicalize is total: adversarial names map to some token, never panic.
func TestCanonicalizeTotality(t *testing.T) {
	names := []string{
		"", " ", "\x00", "日本語", "a b c", "_0x;drop table", "\\u0041",
		"function(){}", "🙂", "-", "....", "_",
	}
	for _, name := range names {
		got := Canonicalize(record(name))
		if got == "" {
			t.Errorf(`Canonicalize(%q) = "", want a token`, name)
		}
	}
}
