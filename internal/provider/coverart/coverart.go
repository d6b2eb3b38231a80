// Package coverart fetches release imagery from the Cover Art Archive.
// The archive is keyed by MusicBrainz release id; a 404 is the definitive
// "this release has been checked and has no art", which callers must record
// so the release is not polled again.
package coverart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/provider"
)

const defaultBaseURL = "https://coverartarchive.org"

// Image is one archive entry, already filtered to the front/back types the
// imagery table stores.
type Image struct {
	SourceID  string
	SourceURL string
	Front     bool
	Back      bool
	SmallURL  string
	MediumURL string
	LargeURL  string
}

// Result distinguishes "checked, no art" from "has art". Checked is always
// true on a non-error return; it exists so callers can stamp the release as
// polled even when Images is empty.
type Result struct {
	Checked bool
	Images  []Image
}

type Client struct {
	baseURL string
	doer    *provider.Doer
	cache   cache.Store
}

func New(store cache.Store) *Client {
	d := provider.NewDoer("coverart", 500*time.Millisecond, 15*time.Second)
	d.RateLimitStatuses = append(d.RateLimitStatuses, 503)
	return &Client{baseURL: defaultBaseURL, doer: d, cache: store}
}

// SetBaseURL points the client at a different server; used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// ReleaseImages lists the archive's images for a release. The archive
// answers with a 307 to an index.json, which the HTTP client follows. A 404
// returns Checked=true with no images rather than an error.
func (c *Client) ReleaseImages(ctx context.Context, releaseID string) (*Result, error) {
	reqURL := fmt.Sprintf("%s/release/%s/", c.baseURL, releaseID)

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "releases", releaseID, reqURL, provider.TTLMetadata, nil)
	if errors.Is(err, provider.ErrNotFound) {
		return &Result{Checked: true}, nil
	}
	if err != nil {
		return nil, err
	}

	var result struct {
		Images []struct {
			ID         json.Number `json:"id"`
			Image      string      `json:"image"`
			Types      []string    `json:"types"`
			Thumbnails struct {
				Small string `json:"small"`
				P250  string `json:"250"`
				P500  string `json:"500"`
				Large string `json:"large"`
			} `json:"thumbnails"`
		} `json:"images"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("coverart: decode release %s: %w", releaseID, err)
	}

	out := &Result{Checked: true}
	for _, img := range result.Images {
		entry := Image{
			SourceID:  img.ID.String(),
			SourceURL: httpsURL(img.Image),
			SmallURL:  httpsURL(img.Thumbnails.Small),
			MediumURL: httpsURL(firstNonEmpty(img.Thumbnails.P500, img.Thumbnails.Large)),
			LargeURL:  httpsURL(firstNonEmpty(img.Thumbnails.Large, img.Image)),
		}
		for _, t := range img.Types {
			switch t {
			case "Front":
				entry.Front = true
			case "Back":
				entry.Back = true
			}
		}
		if !entry.Front && !entry.Back {
			continue
		}
		out.Images = append(out.Images, entry)
	}
	return out, nil
}

// httpsURL upgrades the archive's http URLs; the JSON still carries http
// links for older entries.
func httpsURL(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
