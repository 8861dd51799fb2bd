// Package canonical maps raw trace records onto a small, obfuscation-resistant
// token vocabulary. Canonicalization keeps the comparison invariant to
// identifier renaming while staying sensitive to genuine behavioural
// divergence such as changed call counts or lost logging.
package canonical

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/deobf-eval/trace-analysis/internal/trace"
	"github.com/deobf-eval/trace-analysis/internal/utils"
)

// Token is a normalised label standing in for a raw trace event. Apart from
// the FN:<name> escape class, the vocabulary is closed.
type Token string

const (
	// TokenWrapper marks frames inserted by the obfuscator itself. They have
	// no analog in the original program and are dropped from sequences before
	// comparison; keeping them would deflate every score mechanically.
	TokenWrapper = Token("OBFUSCATOR_WRAPPER")

	TokenHandler    = Token("HANDLER")
	TokenGlobal     = Token("GLOBAL")
	TokenParseInt   = Token("PARSE_INT")
	TokenToString   = Token("TO_STRING")
	TokenConsoleLog = Token("CONSOLE_LOG")
	TokenAnonFn     = Token("ANON_FN")

	fnPrefix       = "FN:"
	fnUnknown      = Token(fnPrefix + "FN_UNKNOWN")
	lineSuffixMark = "@L"
)

var (
	// Shapes of machine-generated identifiers produced by common JS
	// obfuscators, e.g. _0x4f2a81 or a0_0x12ab. Matched case-sensitively
	// against the name as reported, before any other rule.
	wrapperName = utils.CombineRegexp(
		regexp.MustCompile(`^a0_0x[0-9a-fA-F_]*`),
		regexp.MustCompile(`^_0x[0-9a-fA-F_]*`),
		regexp.MustCompile(`^0x[0-9a-fA-F_]*`),
	)

	nonWordChar = regexp.MustCompile(`[^0-9a-zA-Z_]`)
)

// handlerNames are known spellings of stdin data-handler callbacks.
var handlerNames = map[string]bool{
	"data_handler": true,
	"data":         true,
	"handler":      true,
	"ondata":       true,
	"on_data":      true,
}

// rootNames are top-level / module-root markers across instrumenter versions.
var rootNames = map[string]bool{
	"global":   true,
	"<module>": true,
	"root":     true,
}

// rule is one step of the canonicalization chain. Rules are evaluated in
// fixed priority order and the first match wins; the ordering is a designed
// tie-break, not incidental (e.g. a wrapper-shaped name that happens to
// contain "log" must still be classified as a wrapper).
type rule struct {
	token Token

	// matches receives the name with surrounding space trimmed, and its
	// lower-cased form. All rules except the wrapper rule match on lower.
	matches func(name, lower string) bool
}

var rules = []rule{
	{TokenWrapper, func(name, _ string) bool {
		return wrapperName.MatchString(name)
	}},
	{TokenHandler, func(_, lower string) bool {
		return strings.Contains(lower, "process.on") || handlerNames[lower]
	}},
	{TokenGlobal, func(_, lower string) bool {
		return rootNames[lower]
	}},
	{TokenParseInt, func(_, lower string) bool {
		return strings.Contains(lower, "parseint") || strings.Contains(lower, "parse_int")
	}},
	{TokenToString, func(_, lower string) bool {
		return strings.Contains(lower, "to_string") || strings.Contains(lower, "tostring")
	}},
	{TokenConsoleLog, func(_, lower string) bool {
		return strings.Contains(lower, "console") || strings.Contains(lower, "log")
	}},
	{TokenAnonFn, func(_, lower string) bool {
		return strings.HasPrefix(lower, "anonymous") || strings.HasPrefix(lower, "<anonymous>")
	}},
}

// Canonicalize maps a trace record to exactly one token. It is total: every
// record, including ones with empty or adversarial names, produces a token.
func Canonicalize(r trace.Record) Token {
	name := strings.TrimSpace(r.Function)
	lower := strings.ToLower(name)

	for _, rule := range rules {
		if rule.matches(name, lower) {
			return rule.token
		}
	}

	cleaned := nonWordChar.ReplaceAllString(name, "_")
	if cleaned == "" {
		return fnUnknown
	}
	return Token(fnPrefix + cleaned)
}

// Config controls sequence-level canonicalization behaviour.
type Config struct {
	// IncludeLine appends "@L<line>" to every token whose record carries a
	// usable line number. This increases discrimination but makes scores
	// sensitive to trivial reformatting, so it is off by default.
	IncludeLine bool
}

// Sequence converts raw records into an ordered token sequence. Temporal
// order is preserved and duplicates are kept: repetition (loop iterations,
// repeated handler invocations) is comparison-relevant signal. Wrapper frames
// are dropped entirely.
func Sequence(records []trace.Record, cfg Config) []Token {
	tokens := make([]Token, 0, len(records))
	for _, r := range records {
		token := Canonicalize(r)
		if token == TokenWrapper {
			continue
		}
		if cfg.IncludeLine && r.Line != nil {
			token += Token(lineSuffixMark + strconv.Itoa(*r.Line))
		}
		tokens = append(tokens, token)
	}
	return tokens
}
