// Package scrub detects and masks secret material in text and in arbitrary
// nested values before anything reaches a log line, an error message, or the
// terminal. Scrubbing is deterministic and non-reversible: matched secrets
// are replaced with fixed sentinels, inputs are never mutated, and internal
// failures degrade to a sentinel rather than passing original text through.
package scrub

import (
	"reflect"
	"regexp"
	"strings"
)

// Sentinels emitted in place of secret material.
const (
	Redacted           = "[REDACTED]"
	RedactedJWT        = "[REDACTED:JWT]"
	RedactedPrivateKey = "[REDACTED:PRIVATE_KEY]"
	Circular           = "[CIRCULAR]"
	InputTooLarge      = "[SCRUBBING_FAILED:INPUT_TOO_LARGE]"
	ScrubbingFailed    = "[SCRUBBING_FAILED]"
)

// MaxScanSize is the largest input RedactText will scan. Anything longer is
// answered with InputTooLarge instead of a partial scan, which bounds regex
// cost and cannot half-leak a truncated match.
const MaxScanSize = 50000

// Detector order matters: unambiguous full-value formats first (PEM blocks,
// JWT triples), then assignments, then URL-embedded credentials.
var (
	pemBlockRe = regexp.MustCompile(`-----BEGIN (?:[A-Z]+ )*PRIVATE KEY-----[\s\S]*?-----END (?:[A-Z]+ )*PRIVATE KEY-----`)

	jwtRe = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]{4,}\.[A-Za-z0-9_-]{4,}\b`)

	// Whole-line KEY=value assignments, .env style. The value runs to end of
	// line so unquoted values with spaces are fully covered.
	lineAssignRe = regexp.MustCompile(`(?m)^[ \t]*(?:export[ \t]+)?([A-Za-z_][A-Za-z0-9_]*)[ \t]*=(.+)$`)

	// KEY=value occurrences embedded mid-text (log lines, query strings).
	// Quoted values may contain spaces, so they are matched as whole quoted
	// spans; unquoted values run to the next whitespace or quote.
	inlineAssignRe = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)=("(?:[^"\\]|\\.)*"|'[^']*'|[^\s"']+)`)

	urlCredRe = regexp.MustCompile(`([A-Za-z][A-Za-z0-9+.-]*://[^:/@\s]+):([^@\s]+)@`)
)

// Scrubber masks secrets in text and structured values. One Scrubber is
// built per invocation from config; it is safe for repeated use within a
// single run.
type Scrubber struct {
	whitelist         map[string]struct{}
	whitelistPatterns []*regexp.Regexp
	secretPatterns    []*regexp.Regexp
	cache             *Cache
}

// Options configures a Scrubber. All fields are optional.
type Options struct {
	// Whitelist adds exact-or-wildcard key names that must never be
	// redacted, on top of the built-in defaults.
	Whitelist []string

	// SecretPatterns adds exact-or-wildcard key names classified as secrets
	// by IsSecretKey, on top of the built-in token list.
	SecretPatterns []string

	// CacheSize bounds the RedactText memo cache. Zero uses
	// DefaultCacheSize.
	CacheSize int
}

// New creates a Scrubber with the default whitelist plus any user additions.
func New(opts Options) *Scrubber {
	wl := make(map[string]struct{}, len(defaultWhitelist)+len(opts.Whitelist))
	for _, k := range defaultWhitelist {
		wl[k] = struct{}{}
	}
	var wildcards []string
	for _, k := range opts.Whitelist {
		if k == "" {
			continue
		}
		if strings.Contains(k, "*") {
			wildcards = append(wildcards, k)
			continue
		}
		wl[strings.ToLower(k)] = struct{}{}
	}

	return &Scrubber{
		whitelist:         wl,
		whitelistPatterns: compilePatterns(wildcards),
		secretPatterns:    compilePatterns(opts.SecretPatterns),
		cache:             NewCache(opts.CacheSize),
	}
}

// Cache exposes the scrub cache so the invocation context can clear it on
// exit.
func (s *Scrubber) Cache() *Cache {
	return s.cache
}

// RedactText returns input with all detected secrets replaced by sentinels.
// Key names of KEY=value assignments are preserved so audit output stays
// useful; only values are masked. Whitelisted keys pass through untouched.
func (s *Scrubber) RedactText(input string) (out string) {
	// Scrubbing must never surface unredacted text, even on a pathological
	// input that breaks a detector.
	defer func() {
		if r := recover(); r != nil {
			out = ScrubbingFailed
		}
	}()

	if len(input) > MaxScanSize {
		return InputTooLarge
	}
	if cached, ok := s.cache.Get(input); ok {
		return cached
	}

	out = pemBlockRe.ReplaceAllString(input, RedactedPrivateKey)
	out = jwtRe.ReplaceAllString(out, RedactedJWT)
	out = s.redactAssignments(out, lineAssignRe)
	out = s.redactAssignments(out, inlineAssignRe)
	out = urlCredRe.ReplaceAllString(out, "$1:"+Redacted+"@")

	s.cache.Put(input, out)
	return out
}

// redactAssignments masks the value span of each KEY=value match whose key
// is not whitelisted. Both assignment regexes capture the value as the final
// group ending at the match boundary.
func (s *Scrubber) redactAssignments(text string, re *regexp.Regexp) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		sub := re.FindStringSubmatch(m)
		if sub == nil {
			return m
		}
		key, value := sub[1], sub[2]
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || s.IsWhitelisted(key) {
			return m
		}
		// A value that is exactly a sentinel was already handled by an
		// earlier detector. Anything more than the sentinel (trailing
		// text around a replaced span) is still masked in full.
		if isSentinel(trimmed) {
			return m
		}
		return m[:len(m)-len(value)] + Redacted
	})
}

// isSentinel reports whether v is exactly one of the fixed output sentinels.
func isSentinel(v string) bool {
	switch v {
	case Redacted, RedactedJWT, RedactedPrivateKey, Circular, InputTooLarge, ScrubbingFailed:
		return true
	}
	return false
}

// RedactValue walks an arbitrary nested value and returns a redacted copy.
// The input is never mutated. Strings are scrubbed with RedactText; values
// under secret-like keys are replaced wholesale; maps and slices are rebuilt
// recursively; anything else (times, numbers, opaque types) passes through
// unchanged rather than being guessed at.
//
// Cycles are detected with an identity set of containers currently on the
// walk stack: a revisited container becomes the Circular sentinel. A shared
// but non-cyclic reference is off the stack by the time it is reached again,
// so each occurrence is redacted independently.
func (s *Scrubber) RedactValue(v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = ScrubbingFailed
		}
	}()
	return s.redactValue(v, make(map[uintptr]struct{}))
}

func (s *Scrubber) redactValue(v any, onStack map[uintptr]struct{}) any {
	switch val := v.(type) {
	case nil:
		return nil

	case string:
		return s.RedactText(val)

	case map[string]any:
		id := reflect.ValueOf(val).Pointer()
		if _, visiting := onStack[id]; visiting {
			return Circular
		}
		onStack[id] = struct{}{}
		defer delete(onStack, id)

		out := make(map[string]any, len(val))
		for k, item := range val {
			if s.IsSecretKey(k) {
				out[k] = Redacted
				continue
			}
			out[k] = s.redactValue(item, onStack)
		}
		return out

	case []any:
		id := reflect.ValueOf(val).Pointer()
		if _, visiting := onStack[id]; visiting {
			return Circular
		}
		onStack[id] = struct{}{}
		defer delete(onStack, id)

		out := make([]any, len(val))
		for i, item := range val {
			out[i] = s.redactValue(item, onStack)
		}
		return out

	default:
		return v
	}
}
