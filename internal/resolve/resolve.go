// Package resolve normalizes the duplicate-prone titles and artist names
// coming back from the providers and scores candidate matches against rows
// already in the store. All lookup tables are immutable package data.
package resolve

import (
	"regexp"
	"sort"
	"strings"
)

// Apostrophe and dash variants folded during normalization. Titles like
// "'Round Midnight" arrive with at least four different apostrophes across
// the providers.
var (
	apostrophes = map[rune]rune{
		'\'':     '’', // U+0027 apostrophe
		'`':      '’', // U+0060 grave accent
		'´': '’', // acute accent
		'‘': '’', // left single quote
		'‛': '’', // reversed single quote
	}
	dashes = map[rune]rune{
		'–': '-', // en dash
		'—': '-', // em dash
		'−': '-', // minus sign
	}
)

var leadingArticles = []string{"the ", "a ", "an "}

// NormalizeTitle lowercases, folds apostrophe and dash variants, strips a
// leading article and collapses whitespace. It is idempotent.
func NormalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if mapped, ok := apostrophes[r]; ok {
			return mapped
		}
		if mapped, ok := dashes[r]; ok {
			return mapped
		}
		return r
	}, s)
	for stripped := true; stripped; {
		stripped = false
		for _, article := range leadingArticles {
			if strings.HasPrefix(s, article) {
				s = s[len(article):]
				stripped = true
				break
			}
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

var (
	parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)`)
)

// TitleVariants generates the lookup forms used when matching a title
// against an external list: the normalized title, the title without
// parenthetical content, the part before the first comma, and the
// spaces-removed form (so "Stardust" equates with "Star Dust"). Duplicates
// are removed, order preserved.
func TitleVariants(s string) []string {
	norm := NormalizeTitle(s)

	var variants []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	add(norm)
	add(NormalizeTitle(parentheticalRe.ReplaceAllString(norm, "")))
	if idx := strings.Index(norm, ","); idx > 0 {
		add(NormalizeTitle(norm[:idx]))
	}
	add(strings.ReplaceAll(norm, " ", ""))
	return variants
}

// ──────────────────── Artist names ────────────────────

// Ensemble suffixes stripped to derive an artist's core name. Ordered so
// multi-word suffixes are tried before their last word alone.
var ensembleSuffixes = []string{
	"big band",
	"jazz orchestra",
	"trio",
	"quartet",
	"quintet",
	"sextet",
	"septet",
	"octet",
	"nonet",
	"orchestra",
	"ensemble",
	"band",
	"group",
	"all-stars",
	"all stars",
}

// "X and His Orchestra", "X & Her Trio", "X and their band" …
var possessiveEnsembleRe = regexp.MustCompile(`\s+(?:and|&)\s+(?:his|her|their)\s+[a-z -]+$`)

// CoreName strips ensemble suffixes from an artist credit. It is the basis
// of group-leader derivation: if the core of "Ahmad Jamal Trio" equals an
// individual performer's name, that performer is the leader.
func CoreName(s string) string {
	name := NormalizeTitle(s)
	name = possessiveEnsembleRe.ReplaceAllString(name, "")
	for {
		stripped := false
		for _, suffix := range ensembleSuffixes {
			if strings.HasSuffix(name, " "+suffix) {
				name = strings.TrimSpace(strings.TrimSuffix(name, " "+suffix))
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return name
}

// ──────────────────── Fuzzy scoring ────────────────────

// Score rates how likely two titles or names refer to the same thing, in
// [0,100]. Exact normalized equality is 100; otherwise a token-sort ratio.
func Score(a, b string) int {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}
	return ratio(tokenSort(na), tokenSort(nb))
}

// StreamingMatch applies the looser rule used when pairing releases with
// catalog entries: the score threshold is low, and substring containment in
// either direction also accepts ("Kind of Blue" vs "Kind of Blue (Legacy
// Edition)").
func StreamingMatch(a, b string, minScore int) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return Score(a, b) >= minScore
}

func tokenSort(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func ratio(a, b string) int {
	if a == b {
		return 100
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein(a, b)
	return (longest - dist) * 100 / longest
}

// levenshtein computes edit distance over runes with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
