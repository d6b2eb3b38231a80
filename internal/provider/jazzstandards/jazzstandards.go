// Package jazzstandards scrapes the editorial jazz-standards site: the
// paginated top-1000 index and the per-song pages with composer, year,
// description and recommended recordings. The markup is hand-maintained and
// inconsistent, so parsing is tolerant and field-by-field best-effort.
package jazzstandards

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/provider"
)

const (
	defaultBaseURL = "https://www.jazzstandards.com"
	indexPages     = 10
)

type SongRef struct {
	Title string
	URL   string
}

type RecommendedRecording struct {
	Artist string
	Album  string
	Year   *int
}

type SongPage struct {
	Composer    string
	Year        *int
	Description string
	Recommended []RecommendedRecording
}

type Client struct {
	baseURL string
	doer    *provider.Doer
	cache   cache.Store
}

func New(store cache.Store) *Client {
	d := provider.NewDoer("jazzstandards", time.Second, 15*time.Second)
	d.UserAgent = "JazzVault/1.0"
	return &Client{baseURL: defaultBaseURL, doer: d, cache: store}
}

// SetBaseURL points the client at a different server; used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// ListAll walks the ten index pages and returns every song link found.
// A 404 on a page past the first ends the walk early.
func (c *Client) ListAll(ctx context.Context) ([]SongRef, error) {
	var refs []SongRef
	for page := 1; page <= indexPages; page++ {
		pageRefs, err := c.indexPage(ctx, page)
		if errors.Is(err, provider.ErrNotFound) && page > 1 {
			break
		}
		if err != nil {
			return nil, err
		}
		refs = append(refs, pageRefs...)
	}
	return refs, nil
}

func (c *Client) indexPage(ctx context.Context, page int) ([]SongRef, error) {
	reqURL := fmt.Sprintf("%s/compositions-%d.htm", c.baseURL, page)

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "pages", fmt.Sprintf("index-%d", page), reqURL, provider.TTLWebPage, nil)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("jazzstandards: parse index %d: %w", page, err)
	}

	var refs []SongRef
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" || !insideTable(n) {
			return
		}
		href := attr(n, "href")
		title := strings.TrimSpace(textOf(n))
		if href == "" || title == "" {
			return
		}
		refs = append(refs, SongRef{Title: title, URL: c.resolve(href)})
	})
	return refs, nil
}

// SongDetail fetches and parses one song page.
func (c *Client) SongDetail(ctx context.Context, pageURL string) (*SongPage, error) {
	body, err := provider.FetchCached(ctx, c.doer, c.cache, "songs", pageURL, pageURL, provider.TTLWebPage, nil)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("jazzstandards: parse song page: %w", err)
	}

	page := &SongPage{
		Composer:    findComposer(doc),
		Year:        findYear(doc),
		Description: findDescription(doc),
	}
	page.Recommended = recordingsBySection(doc)
	if len(page.Recommended) == 0 {
		// Older pages have no recordings heading; the entries are just
		// bolded lines in the body text.
		page.Recommended = recordingsByBoldScan(doc)
	}
	return page, nil
}

func (c *Client) resolve(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}

// ──────────────────── Page parsing ────────────────────

var (
	composerRe = regexp.MustCompile(`(?i)(?:music|composed|written)\s+by\s+([^,.\n(]+)`)
	yearRe     = regexp.MustCompile(`\b(18|19|20)\d{2}\b`)
	// "Artist - Album (1959)"; the dash may be hyphen, en or em.
	recordingRe = regexp.MustCompile(`^(.+?)\s+[-\x{2013}\x{2014}]\s+(.+?)(?:\s+\((\d{4})\))?$`)
)

func findComposer(doc *html.Node) string {
	if m := composerRe.FindStringSubmatch(textOf(doc)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// findYear takes the first plausible year near the "Year" label, falling
// back to the first year anywhere in the page text.
func findYear(doc *html.Node) *int {
	text := textOf(doc)
	search := text
	if idx := strings.Index(strings.ToLower(text), "year"); idx >= 0 {
		search = text[idx:]
	}
	m := yearRe.FindString(search)
	if m == "" {
		return nil
	}
	y := 0
	fmt.Sscanf(m, "%d", &y)
	if y == 0 {
		return nil
	}
	return &y
}

// findDescription takes the first substantial paragraph.
func findDescription(doc *html.Node) string {
	var desc string
	walk(doc, func(n *html.Node) {
		if desc != "" || n.Type != html.ElementNode || n.Data != "p" {
			return
		}
		text := strings.TrimSpace(textOf(n))
		if len(text) >= 80 {
			desc = text
		}
	})
	return desc
}

// recordingsBySection looks for a heading mentioning recommended recordings
// and parses the list items that follow it.
func recordingsBySection(doc *html.Node) []RecommendedRecording {
	var recs []RecommendedRecording
	var inSection bool
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "h1", "h2", "h3", "h4":
			heading := strings.ToLower(textOf(n))
			inSection = strings.Contains(heading, "recommended") && strings.Contains(heading, "recording")
		case "li":
			if !inSection {
				return
			}
			if rec, ok := parseRecordingLine(textOf(n)); ok {
				recs = append(recs, rec)
			}
		}
	})
	return recs
}

// recordingsByBoldScan parses every bold element that looks like an
// "Artist - Album (Year)" line.
func recordingsByBoldScan(doc *html.Node) []RecommendedRecording {
	var recs []RecommendedRecording
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || (n.Data != "b" && n.Data != "strong") {
			return
		}
		if rec, ok := parseRecordingLine(textOf(n)); ok {
			recs = append(recs, rec)
		}
	})
	return recs
}

func parseRecordingLine(line string) (RecommendedRecording, bool) {
	line = strings.TrimSpace(strings.Join(strings.Fields(line), " "))
	m := recordingRe.FindStringSubmatch(line)
	if m == nil {
		return RecommendedRecording{}, false
	}
	rec := RecommendedRecording{
		Artist: strings.TrimSpace(m[1]),
		Album:  strings.TrimSpace(m[2]),
	}
	if m[3] != "" {
		y := 0
		fmt.Sscanf(m[3], "%d", &y)
		if y > 0 {
			rec.Year = &y
		}
	}
	return rec, true
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

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func insideTable(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "table" {
			return true
		}
	}
	return false
}
