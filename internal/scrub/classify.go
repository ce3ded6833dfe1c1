package scrub

import (
	"regexp"
	"strings"
)

// secretTokens classifies a key as secret-like by substring containment.
// Evaluated only after the whitelist; the default for keys matching nothing
// is not-secret.
var secretTokens = []string{
	"key",
	"secret",
	"password",
	"passwd",
	"token",
	"credential",
	"auth",
	"private",
	"cert",
	"signature",
}

// defaultWhitelist holds exact key names (compared case-insensitively) that
// are never redacted even though they may superficially resemble a secret
// pattern: configuration and option fields, audit column identifiers, and
// timeout settings. User additions are merged in at construction.
var defaultWhitelist = []string{
	"debug",
	"verbose",
	"no_color",
	"non_interactive",
	"log_level",
	"node_env",
	"app_env",
	"environment",
	"env",
	"port",
	"host",
	"hostname",
	"region",
	"timeout",
	"timeout_ms",
	"retention",
	"retention_count",
	"trust_manifest",
	"source_file",
	"updated_at",
	"public_key",
}

// IsWhitelisted reports whether key is exempt from redaction. Matching is
// case-insensitive; user-supplied entries may carry a '*' wildcard.
func (s *Scrubber) IsWhitelisted(key string) bool {
	k := strings.ToLower(key)
	if _, ok := s.whitelist[k]; ok {
		return true
	}
	for _, re := range s.whitelistPatterns {
		if re.MatchString(k) {
			return true
		}
	}
	return false
}

// IsSecretKey is the per-property classification used by RedactValue. The
// rules run in fixed order: exact whitelist match wins, then substring
// containment of a secret token, then user-supplied patterns; anything else
// is not a secret.
func (s *Scrubber) IsSecretKey(key string) bool {
	k := strings.ToLower(key)
	if s.IsWhitelisted(k) {
		return false
	}
	for _, tok := range secretTokens {
		if strings.Contains(k, tok) {
			return true
		}
	}
	for _, re := range s.secretPatterns {
		if re.MatchString(k) {
			return true
		}
	}
	return false
}

// compilePatterns turns user-supplied exact-or-wildcard strings into anchored
// case-insensitive regexps. Invalid patterns are dropped rather than allowed
// to break scrubbing.
func compilePatterns(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		expr := "^" + strings.ReplaceAll(regexp.QuoteMeta(strings.ToLower(p)), `\*`, ".*") + "$"
		re, err := regexp.Compile(expr)
		if err != nil {
			continue
		}
		out = append(out, re)
	}
	return out
}
