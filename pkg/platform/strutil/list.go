// Package strutil provides string helpers shared by config parsing.
package strutil

import "strings"

// SplitList splits raw on sep, trims each element and drops empty and
// repeated elements. Order of first occurrence is preserved. An input with
// no usable elements yields nil.
func SplitList(raw, sep string) []string {
	var out []string
	seen := make(map[string]struct{})
	for part := range strings.SplitSeq(raw, sep) {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
