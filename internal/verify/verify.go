// Package verify scores whether an external reference page actually
// describes the performer or song it is claimed to describe. It is the gate
// in front of persisting user-contributed and pipeline-discovered links into
// external_references.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/provider"
)

type Confidence string

const (
	ConfidenceVeryLow Confidence = "very_low"
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
	ConfidenceCertain Confidence = "certain"
)

// Context carries the known facts about the entity the page should mention.
type Context struct {
	BirthDate    *string // YYYY or YYYY-MM-DD
	DeathDate    *string
	SampleTitles []string
}

type Result struct {
	Valid      bool
	Confidence Confidence
	Reason     string
	Score      int
}

// validThreshold is the score at which a reference is accepted.
const validThreshold = 50

// Keyword sets. Specific terms are strong evidence the page is about a jazz
// musician; generic terms barely move the score on their own.
var specificKeywords = []string{
	"jazz", "bebop", "hard bop", "swing", "big band", "bandleader",
	"saxophonist", "pianist", "trumpeter", "drummer", "bassist",
	"trombonist", "clarinetist", "vibraphonist", "guitarist", "vocalist",
	"composer", "arranger", "sideman", "quartet", "quintet", "improvisation",
}

var genericKeywords = []string{
	"music", "musician", "song", "album", "record", "performance", "band",
}

// Professions whose appearance as a heading parenthetical marks the page as
// being about someone else with the same name.
var nonMusicianProfessions = []string{
	"basketball", "baseball", "footballer", "football", "cricketer",
	"politician", "actor", "actress", "painter", "author", "novelist",
	"boxer", "golfer", "businessman", "economist", "physicist",
}

const (
	specificWeight    = 15
	genericWeight     = 3
	yearWeight        = 20
	sampleTitleWeight = 15
	headingWeight     = 10
)

type Verifier struct {
	doer  *provider.Doer
	cache cache.Store
}

func New(store cache.Store, contact string) *Verifier {
	d := provider.NewDoer("reference", time.Second, 15*time.Second)
	d.UserAgent = fmt.Sprintf("JazzVault/1.0 (%s)", contact)
	return &Verifier{doer: d, cache: store}
}

// VerifyReference fetches pageURL and scores how likely it describes the
// named entity.
func (v *Verifier) VerifyReference(ctx context.Context, name, pageURL string, vc Context) (*Result, error) {
	body, err := provider.FetchCached(ctx, v.doer, v.cache, "pages", pageURL, pageURL, provider.TTLWebPage, nil)
	if err != nil {
		return nil, err
	}

	page, err := parsePage(string(body))
	if err != nil {
		return nil, fmt.Errorf("verify: parse %s: %w", pageURL, err)
	}
	result := Evaluate(name, page, vc)
	return &result, nil
}

// Page is the parsed view of a reference page that scoring works on.
type Page struct {
	Heading       string
	Text          string
	EarlyListRows []string
}

func parsePage(raw string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var sawList bool
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "h1":
			if page.Heading == "" {
				page.Heading = strings.TrimSpace(textOf(n))
			}
		case "ul":
			if sawList {
				return
			}
			sawList = true
			for li := n.FirstChild; li != nil; li = li.NextSibling {
				if li.Type == html.ElementNode && li.Data == "li" {
					page.EarlyListRows = append(page.EarlyListRows, textOf(li))
				}
			}
		}
	})
	page.Text = textOf(doc)
	return page, nil
}

// Evaluate is the pure scoring function; VerifyReference wraps it with the
// fetch. Split out so scoring is testable without a server.
func Evaluate(name string, page *Page, vc Context) Result {
	// Hard negatives first: a disambiguation landing or a same-named person
	// in another profession invalidates regardless of other signals.
	if reason, ok := disambiguationReason(name, page); ok {
		return Result{Valid: false, Confidence: ConfidenceHigh, Reason: reason}
	}
	if profession, ok := headingProfession(page.Heading); ok {
		return Result{
			Valid:      false,
			Confidence: ConfidenceHigh,
			Reason:     fmt.Sprintf("page heading identifies a %s, not a musician", profession),
		}
	}

	score := 0
	var reasons []string

	lower := strings.ToLower(page.Text)
	for _, kw := range specificKeywords {
		if containsWord(lower, kw) {
			score += specificWeight
			reasons = append(reasons, "mentions "+kw)
		}
	}
	for _, kw := range genericKeywords {
		if containsWord(lower, kw) {
			score += genericWeight
		}
	}

	if y := yearOf(vc.BirthDate); y != "" && strings.Contains(page.Text, y) {
		score += yearWeight
		reasons = append(reasons, "birth year "+y+" present")
	}
	if y := yearOf(vc.DeathDate); y != "" && strings.Contains(page.Text, y) {
		score += yearWeight
		reasons = append(reasons, "death year "+y+" present")
	}

	for _, title := range vc.SampleTitles {
		if title != "" && containsWord(lower, strings.ToLower(title)) {
			score += sampleTitleWeight
			reasons = append(reasons, "mentions "+title)
			break
		}
	}

	if headingMatches(name, page.Heading) {
		score += headingWeight
		reasons = append(reasons, "heading matches name")
	}

	if score > 100 {
		score = 100
	}
	return Result{
		Valid:      score >= validThreshold,
		Confidence: confidenceFor(score),
		Reason:     strings.Join(reasons, "; "),
		Score:      score,
	}
}

func confidenceFor(score int) Confidence {
	switch {
	case score >= 90:
		return ConfidenceCertain
	case score >= 70:
		return ConfidenceHigh
	case score >= validThreshold:
		return ConfidenceMedium
	case score >= 30:
		return ConfidenceLow
	default:
		return ConfidenceVeryLow
	}
}

// ──────────────────── Signals ────────────────────

var yearParenRe = regexp.MustCompile(`\((?:18|19|20)\d{2}`)

func disambiguationReason(name string, page *Page) (string, bool) {
	heading := strings.ToLower(page.Heading)
	if strings.HasSuffix(heading, "(disambiguation)") {
		return "disambiguation page", true
	}
	if strings.Contains(strings.ToLower(page.Text), strings.ToLower(name)+" may refer to:") {
		return "disambiguation page", true
	}
	// A landing page listing several same-named people shows as a run of
	// "(YYYY" birth-year entries in its first list.
	hits := 0
	for _, row := range page.EarlyListRows {
		if yearParenRe.MatchString(row) {
			hits++
		}
	}
	if hits >= 3 {
		return "disambiguation page", true
	}
	return "", false
}

// headingProfession reports the non-musician profession named in the
// heading's parenthetical, if any.
func headingProfession(heading string) (string, bool) {
	open := strings.Index(heading, "(")
	end := strings.Index(heading, ")")
	if open < 0 || end < open {
		return "", false
	}
	paren := strings.ToLower(heading[open+1 : end])
	for _, p := range nonMusicianProfessions {
		if containsWord(paren, p) {
			return p, true
		}
	}
	return "", false
}

func headingMatches(name, heading string) bool {
	if heading == "" {
		return false
	}
	// Strip a parenthetical like "(musician)" before comparing.
	if idx := strings.Index(heading, "("); idx > 0 {
		heading = heading[:idx]
	}
	return strings.EqualFold(strings.TrimSpace(heading), strings.TrimSpace(name))
}

// containsWord reports a word-boundary match, so "opera" does not match
// inside "operating".
func containsWord(haystack, word string) bool {
	re, err := wordRegexp(word)
	if err != nil {
		return false
	}
	return re.MatchString(haystack)
}

var (
	wordRegexpMu    sync.Mutex
	wordRegexpCache = map[string]*regexp.Regexp{}
)

func wordRegexp(word string) (*regexp.Regexp, error) {
	wordRegexpMu.Lock()
	defer wordRegexpMu.Unlock()
	if re, ok := wordRegexpCache[word]; ok {
		return re, nil
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return nil, err
	}
	wordRegexpCache[word] = re
	return re, nil
}

func yearOf(date *string) string {
	if date == nil || len(*date) < 4 {
		return ""
	}
	return (*date)[:4]
}

// ──────────────────── HTML helpers ────────────────────

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteString(" ")
		}
	})
	return strings.TrimSpace(sb.String())
}
