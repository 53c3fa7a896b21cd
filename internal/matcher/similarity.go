package matcher

import (
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// indel counts only insertions and deletions; a substitution costs one of each.
var indel = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 2,
	Matches: levenshtein.IdenticalRunes,
}

// TokenSortRatio scores a and b in [0, 100] after lowercasing, splitting on
// whitespace and sorting the tokens, so word order never changes the score.
// The score is the indel similarity of the two sorted token strings.
func TokenSortRatio(a, b string) float64 {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if sa == "" && sb == "" {
		return 100
	}
	return 100 * levenshtein.RatioForStrings([]rune(sa), []rune(sb), indel)
}

func sortedTokens(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
