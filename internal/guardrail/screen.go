// Package guardrail screens generated debate turns before they are stored.
//
// A turn goes through two stages. FastScreen is a local check on length
// and a small set of disallowed patterns. When it fails, the text is either
// replaced with Placeholder or, if the safety rewrite is enabled, sent back
// to the generator once to be rewritten in a milder tone.
package guardrail

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLen is the hard cap on a stored turn, in code points.
const MaxLen = 1200

// Placeholder replaces text that could not be salvaged.
const Placeholder = "(Content adjusted to keep things PG-13. Let’s keep it friendly.)"

const (
	ReasonEmpty      = "empty"
	ReasonNotText    = "not_text"
	ReasonTooLong    = "too_long"
	ReasonDisallowed = "disallowed_term"
)

// DefaultPatterns is the built-in disallowed list. Keep it tight.
var DefaultPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bkill yourself\b`),
	regexp.MustCompile(`(?i)\bsuicide\b`),
	regexp.MustCompile(`(?i)\bnsfw\b`),
	regexp.MustCompile(`(?i)\bexplicit\b`),
	regexp.MustCompile(`(?i)\bgraphic\b`),
	regexp.MustCompile(`(?i)\b(dox|doxx)\w*`),
}

// Result is the outcome of FastScreen. Reason is empty when OK is true.
type Result struct {
	OK     bool
	Text   string
	Reason string
}

// FastScreen runs the local checks in order: empty, encoding, length,
// patterns. Over-long text comes back truncated to MaxLen so the rewrite
// stage never sees more than that.
func FastScreen(text string, patterns []*regexp.Regexp) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Text: "…", Reason: ReasonEmpty}
	}
	if !utf8.ValidString(text) {
		return Result{Text: strings.ToValidUTF8(text, ""), Reason: ReasonNotText}
	}
	if utf8.RuneCountInString(text) > MaxLen {
		return Result{Text: truncate(text, MaxLen), Reason: ReasonTooLong}
	}
	for _, rx := range patterns {
		if rx.MatchString(text) {
			return Result{Text: text, Reason: ReasonDisallowed}
		}
	}
	return Result{OK: true, Text: text}
}

func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// CompilePatterns turns configured expressions into case-insensitive
// matchers appended to DefaultPatterns.
func CompilePatterns(extra []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(DefaultPatterns)+len(extra))
	out = append(out, DefaultPatterns...)
	for _, expr := range extra {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		rx, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("guardrail: bad pattern %q: %w", expr, err)
		}
		out = append(out, rx)
	}
	return out, nil
}
