// Package strings holds list helpers for comma-separated configuration values.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value into trimmed, non-empty entries.
// Repeated entries are kept once, first occurrence wins.
//
//	SplitList(" a@x.io, b@x.io,,a@x.io ") // []string{"a@x.io", "b@x.io"}
func SplitList(raw string) []string {
	return dedupe(strings.Split(raw, ","), false)
}

// SplitListLower is SplitList with case folding, for lists compared
// case-insensitively such as email allow-lists.
func SplitListLower(raw string) []string {
	return dedupe(strings.Split(raw, ","), true)
}

func dedupe(values []string, fold bool) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
