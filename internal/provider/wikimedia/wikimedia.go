// Package wikimedia fetches performer portraits from the Wikimedia Commons
// API, with the license and attribution fields the artist_images table
// requires. Only images whose license normalizes into the accepted set are
// returned with a known license; everything else is marked unknown and left
// for manual review.
package wikimedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider"
)

const defaultBaseURL = "https://commons.wikimedia.org/w/api.php"

type Portrait struct {
	Title       string
	URL         string
	ThumbURL    string
	SourcePage  string
	License     models.ImageLicense
	Attribution string
}

type Client struct {
	baseURL string
	doer    *provider.Doer
	cache   cache.Store
}

func New(store cache.Store, contact string) *Client {
	d := provider.NewDoer("wikimedia", 500*time.Millisecond, 15*time.Second)
	d.UserAgent = fmt.Sprintf("JazzVault/1.0 (%s)", contact)
	return &Client{baseURL: defaultBaseURL, doer: d, cache: store}
}

// SetBaseURL points the client at a different server; used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SearchPortraits searches the File namespace for images of a performer and
// resolves each hit's imageinfo.
func (c *Client) SearchPortraits(ctx context.Context, performerName string, limit int) ([]Portrait, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{
		"action":    {"query"},
		"format":    {"json"},
		"generator": {"search"},
		"gsrsearch": {performerName},
		// namespace 6 is File:
		"gsrnamespace": {"6"},
		"gsrlimit":     {fmt.Sprint(limit)},
		"prop":         {"imageinfo"},
		"iiprop":       {"url|extmetadata"},
		"iiurlwidth":   {"512"},
	}
	reqURL := c.baseURL + "?" + params.Encode()

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "searches", "portrait|"+performerName, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Query struct {
			Pages map[string]struct {
				Title     string `json:"title"`
				ImageInfo []struct {
					URL            string `json:"url"`
					ThumbURL       string `json:"thumburl"`
					DescriptionURL string `json:"descriptionurl"`
					ExtMetadata    struct {
						LicenseShortName struct {
							Value string `json:"value"`
						} `json:"LicenseShortName"`
						Artist struct {
							Value string `json:"value"`
						} `json:"Artist"`
					} `json:"extmetadata"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("wikimedia: decode search: %w", err)
	}

	var portraits []Portrait
	for _, page := range result.Query.Pages {
		if len(page.ImageInfo) == 0 {
			continue
		}
		info := page.ImageInfo[0]
		portraits = append(portraits, Portrait{
			Title:       page.Title,
			URL:         info.URL,
			ThumbURL:    info.ThumbURL,
			SourcePage:  info.DescriptionURL,
			License:     NormalizeLicense(info.ExtMetadata.LicenseShortName.Value),
			Attribution: stripTags(info.ExtMetadata.Artist.Value),
		})
	}
	return portraits, nil
}

// NormalizeLicense folds the free-text license names Commons reports into
// the closed set the database enum accepts. CC BY-SA must be checked before
// CC BY.
func NormalizeLicense(raw string) models.ImageLicense {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return models.LicenseUnknown
	case strings.Contains(s, "public domain") || strings.HasPrefix(s, "pd"):
		return models.LicensePublicDomain
	case strings.Contains(s, "cc0"):
		return models.LicenseCC0
	case strings.Contains(s, "by-sa") || strings.Contains(s, "by sa"):
		return models.LicenseCCBYSA
	case strings.Contains(s, "cc by") || strings.Contains(s, "cc-by"):
		return models.LicenseCCBY
	case strings.Contains(s, "gfdl"):
		return models.LicenseGFDL
	default:
		return models.LicenseUnknown
	}
}

// The Artist metadata value often arrives as an HTML fragment.
var tagRe = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}
