// Package match scores keyword containment for ranking search candidates.
package match

import (
	"strings"
	"unicode/utf8"
)

// Score reports how well the given keywords occur inside haystack.
//
// The score accumulates the character length of every non-blank keyword that
// is contained in haystack as a case-insensitive substring. Summing lengths
// instead of counting hits makes one long, specific match outweigh several
// short coincidental ones.
//
// Returns 0 when haystack is empty or no keyword matches. Blank keywords are
// skipped. Adding a matching keyword never decreases the score.
func Score(haystack string, keywords ...string) int {
	if haystack == "" || len(keywords) == 0 {
		return 0
	}
	feed := strings.ToLower(haystack)
	score := 0
	for _, keyword := range keywords {
		w := strings.ToLower(strings.TrimSpace(keyword))
		if w == "" {
			continue
		}
		if strings.Contains(feed, w) {
			// Character length, not byte length, so multi-byte keywords
			// are not overweighted against ASCII ones.
			score += utf8.RuneCountInString(w)
		}
	}
	return score
}
