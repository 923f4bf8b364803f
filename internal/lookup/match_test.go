package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchScore(t *testing.T) {
	assert.Equal(t, 1.0, MatchScore("Cactus", "Cactus"))
	assert.Equal(t, 1.0, MatchScore("the matador", "The Matador!"))
	assert.Equal(t, 1.0, MatchScore("", ""))
	assert.Equal(t, 0.0, MatchScore("Cactus", ""))

	near := MatchScore("Tipsy Cow", "Tipsy Cow Burger Bar")
	far := MatchScore("Tipsy Cow", "Sura Korean BBQ")
	assert.Greater(t, near, far)
	assert.GreaterOrEqual(t, near, lowMatchScore)
	assert.Less(t, far, lowMatchScore)
}

func TestMatchScore_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"a", "completely different words here"},
		{"korea house restaurant", "k"},
		{"Baekjeong KBBQ", "Baekjeong Korean BBQ - Lynnwood"},
	}
	for _, p := range pairs {
		s := MatchScore(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "the matador", normalizeName("  The   Matador! "))
	assert.Equal(t, "sura korean bbq", normalizeName("sura-korean-bbq"))
}
