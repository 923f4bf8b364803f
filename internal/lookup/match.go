package lookup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// MatchScore rates how closely a business name resembles the queried name,
// from 0 (unrelated) to 1 (identical after normalisation). It averages a
// character-level Levenshtein similarity with a word-level accuracy
// (1 - word error rate of the query against the business name), so both
// "Tipsy Cow" vs "Tipsy Cow Burger Bar" and "Cactus" vs "Cactvs" score
// reasonably.
func MatchScore(query, name string) float64 {
	q := normalizeName(query)
	n := normalizeName(name)
	if q == "" && n == "" {
		return 1
	}
	if q == "" || n == "" {
		return 0
	}

	longest := utf8.RuneCountInString(q)
	if l := utf8.RuneCountInString(n); l > longest {
		longest = l
	}
	charSim := 1 - float64(levenshtein.Distance(q, n))/float64(longest)

	wordRate, _ := wer.WER(strings.Fields(n), strings.Fields(q))
	if wordRate > 1 {
		wordRate = 1
	}
	wordSim := 1 - wordRate

	return clamp01((charSim + wordSim) / 2)
}

func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
