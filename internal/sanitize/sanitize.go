// Package sanitize strips wrapper text that generative models put around
// JSON payloads. It never validates the result; parsing is the caller's job.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// CleanAIResponse removes a leading code fence (with an optional language
// tag such as "json") and a trailing fence, then trims whitespace. Text
// without fences comes back trimmed and otherwise unchanged. Applying it
// to its own output is a no-op.
func CleanAIResponse(raw string) string {
	s := strings.TrimSpace(raw)
	for {
		next := strings.TrimSpace(trailingFence.ReplaceAllString(leadingFence.ReplaceAllString(s, ""), ""))
		if next == s {
			return s
		}
		s = next
	}
}

// ExtractJSONObject returns the first balanced {...} object in s, skipping
// braces inside string literals. When no balanced object exists the trimmed
// input is returned so the parse step reports the real problem.
func ExtractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return s
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s
}

// Preview truncates s to at most n runes for error responses and logs.
func Preview(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
