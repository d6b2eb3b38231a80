package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitleApostrophes(t *testing.T) {
	// The same title arrives with straight, smart, grave and acute
	// apostrophes depending on the provider.
	variants := []string{
		"'Round Midnight",
		"’Round Midnight",
		"`Round Midnight",
		"´Round Midnight",
		"‘Round Midnight",
	}
	want := NormalizeTitle(variants[0])
	for _, v := range variants {
		assert.Equal(t, want, NormalizeTitle(v), "input %q", v)
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"'Round Midnight",
		"The Girl from Ipanema",
		"A  Night   in Tunisia",
		"Straight — No Chaser",
		"",
	}
	for _, s := range inputs {
		once := NormalizeTitle(s)
		assert.Equal(t, once, NormalizeTitle(once), "input %q", s)
	}
}

func TestNormalizeTitleArticlesAndDashes(t *testing.T) {
	assert.Equal(t, "girl from ipanema", NormalizeTitle("The Girl from Ipanema"))
	assert.Equal(t, "night in tunisia", NormalizeTitle("A Night in Tunisia"))
	assert.Equal(t, "straight - no chaser", NormalizeTitle("Straight – No Chaser"))
	assert.Equal(t, "straight - no chaser", NormalizeTitle("Straight — No Chaser"))
}

func TestTitleVariants(t *testing.T) {
	variants := TitleVariants("Take the 'A' Train (1941 version), Part 1")
	// Full normalized form first.
	assert.Equal(t, NormalizeTitle("Take the 'A' Train (1941 version), Part 1"), variants[0])
	// Parenthetical-free and pre-comma forms are present.
	assert.Contains(t, variants, "take the ’a’ train, part 1")
	assert.Contains(t, variants, "take the ’a’ train (1941 version)")
}

func TestTitleVariantsSpacesRemoved(t *testing.T) {
	// The spaces-removed variant equates "Stardust" with "Star Dust".
	a := TitleVariants("Star Dust")
	b := TitleVariants("Stardust")
	assert.Contains(t, a, "stardust")
	assert.Contains(t, b, "stardust")
}

func TestCoreName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ahmad Jamal Trio", "ahmad jamal"},
		{"The Dave Brubeck Quartet", "dave brubeck"},
		{"Count Basie Orchestra", "count basie"},
		{"Duke Ellington and His Orchestra", "duke ellington"},
		{"Benny Goodman & His Big Band", "benny goodman"},
		{"Art Blakey's Jazz Messengers Big Band", "art blakey’s jazz messengers"},
		{"Miles Davis", "miles davis"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoreName(tt.in), "input %q", tt.in)
	}
}

func TestScoreExactAfterNormalization(t *testing.T) {
	assert.Equal(t, 100, Score("'Round Midnight", "’Round Midnight"))
	assert.Equal(t, 100, Score("The Girl from Ipanema", "Girl From Ipanema"))
}

func TestScoreTokenOrderInsensitive(t *testing.T) {
	// Token sort makes reordered names score high.
	score := Score("Davis, Miles", "Miles Davis,")
	assert.GreaterOrEqual(t, score, 85)
}

func TestScoreDissimilar(t *testing.T) {
	assert.Less(t, Score("Take Five", "Giant Steps"), 50)
}

func TestStreamingMatchSubstring(t *testing.T) {
	// Substring containment accepts reissues at any score.
	assert.True(t, StreamingMatch("Kind of Blue", "Kind of Blue (Legacy Edition)", 60))
	assert.True(t, StreamingMatch("Kind of Blue (Legacy Edition)", "Kind of Blue", 60))
	assert.False(t, StreamingMatch("Kind of Blue", "Sketches of Spain", 60))
}

func TestStreamingMatchScoreThreshold(t *testing.T) {
	assert.True(t, StreamingMatch("Time Out", "Time Out!", 60))
	assert.False(t, StreamingMatch("Time Out", "Entirely Different", 60))
}
