// Package source loads candidate lists from outside the engine and
// prepares them for a draw.
package source

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the comparison key for a label: trimmed, NFC
// composed, and Unicode case folded. "José", "JOSÉ " and "josé"
// share one key.
func Normalize(label string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(label)))
}

// FoldDuplicates drops labels whose Normalize key was already seen,
// keeping the first spelling of each. Kept labels are trimmed and NFC
// composed; blank labels are dropped.
func FoldDuplicates(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		key := Normalize(label)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, norm.NFC.String(strings.TrimSpace(label)))
	}
	return out
}

// NearDuplicate is a pair of distinct labels that look like typos of each
// other.
type NearDuplicate struct {
	A, B     string
	Distance int
}

// NearDuplicates reports label pairs whose normalized forms differ by at
// least one and at most maxDistance edits, in input order. Exact
// duplicates are left to FoldDuplicates.
func NearDuplicates(labels []string, maxDistance int) []NearDuplicate {
	if maxDistance < 1 {
		return nil
	}

	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = Normalize(l)
	}

	var out []NearDuplicate
	for i := range keys {
		for j := i + 1; j < len(keys); j++ {
			if keys[i] == "" || keys[j] == "" || keys[i] == keys[j] {
				continue
			}
			// Distances operate on runes, so multi-byte labels compare fairly.
			if d := levenshtein.ComputeDistance(keys[i], keys[j]); d <= maxDistance {
				out = append(out, NearDuplicate{A: labels[i], B: labels[j], Distance: d})
			}
		}
	}
	return out
}
