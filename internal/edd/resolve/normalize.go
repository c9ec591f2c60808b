// Package resolve maps free-text parameter and outfall names from EDD rows to
// stable identities using learned aliases with a fuzzy fallback.
package resolve

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ParameterKey normalizes a raw parameter name for alias lookup: NFKC folding
// (so "µg" and non-breaking spaces compare equal), lowercase, trimmed, with
// internal whitespace collapsed.
func ParameterKey(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.ToLower(s)
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// ignoredParameters are placeholder values that mark a row as not a result.
var ignoredParameters = map[string]bool{
	"":     true,
	"txt":  true,
	"n/a":  true,
	"none": true,
}

// IsIgnoredParameter reports whether a normalized key means "skip this row".
func IsIgnoredParameter(key string) bool {
	return ignoredParameters[key]
}

// permitKey normalizes a permit number for map lookups.
func permitKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// aliasKey normalizes raw outfall text for alias lookups.
func aliasKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// outfallExact trims, lowercases and drops a trailing ".0" left behind by
// spreadsheet tools that store outfall numbers as floats.
func outfallExact(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSuffix(s, ".0")
}

// stripZeros removes leading zeros, keeping a lone "0".
func stripZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" && s != "" {
		return "0"
	}
	return t
}

// digitsOnly keeps only ASCII digits.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
