// Package itunes searches the iTunes catalog for albums and tracks. The API
// needs no auth but throttles aggressively, answering bursts with 403, so
// the client treats 403 as a rate-limit signal.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/provider"
)

const defaultBaseURL = "https://itunes.apple.com"

type Album struct {
	CollectionID  int64
	Title         string
	ArtistName    string
	URL           string
	Year          *int
	ArtworkSmall  string
	ArtworkMedium string
	ArtworkLarge  string
}

type Track struct {
	TrackID      int64
	CollectionID int64
	Title        string
	ArtistName   string
	AlbumTitle   string
	URL          string
}

type Client struct {
	baseURL string
	doer    *provider.Doer
	cache   cache.Store
}

func New(store cache.Store) *Client {
	d := provider.NewDoer("itunes", 500*time.Millisecond, 10*time.Second)
	d.RateLimitStatuses = append(d.RateLimitStatuses, http.StatusForbidden)
	return &Client{baseURL: defaultBaseURL, doer: d, cache: store}
}

// SetBaseURL points the client at a different server; used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SearchAlbums searches the catalog for album entries matching term.
func (c *Client) SearchAlbums(ctx context.Context, term string) ([]Album, error) {
	reqURL := fmt.Sprintf("%s/search?term=%s&entity=album&limit=10", c.baseURL, url.QueryEscape(term))

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "searches", "album|"+term, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}
	return decodeAlbums(body)
}

// SearchTracks searches the catalog for song entries matching term.
func (c *Client) SearchTracks(ctx context.Context, term string) ([]Track, error) {
	reqURL := fmt.Sprintf("%s/search?term=%s&entity=song&limit=25", c.baseURL, url.QueryEscape(term))

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "searches", "song|"+term, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Results []struct {
			TrackID        int64  `json:"trackId"`
			CollectionID   int64  `json:"collectionId"`
			TrackName      string `json:"trackName"`
			ArtistName     string `json:"artistName"`
			CollectionName string `json:"collectionName"`
			TrackViewURL   string `json:"trackViewUrl"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("itunes: decode track search: %w", err)
	}

	var tracks []Track
	for _, r := range result.Results {
		if r.TrackID == 0 {
			continue
		}
		tracks = append(tracks, Track{
			TrackID:      r.TrackID,
			CollectionID: r.CollectionID,
			Title:        r.TrackName,
			ArtistName:   r.ArtistName,
			AlbumTitle:   r.CollectionName,
			URL:          r.TrackViewURL,
		})
	}
	return tracks, nil
}

// LookupAlbum fetches one album by its collection id.
func (c *Client) LookupAlbum(ctx context.Context, collectionID int64) (*Album, error) {
	reqURL := fmt.Sprintf("%s/lookup?id=%d&entity=album", c.baseURL, collectionID)

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "albums", fmt.Sprint(collectionID), reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	albums, err := decodeAlbums(body)
	if err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		return nil, provider.ErrNotFound
	}
	return &albums[0], nil
}

func decodeAlbums(body []byte) ([]Album, error) {
	var result struct {
		Results []struct {
			WrapperType       string `json:"wrapperType"`
			CollectionID      int64  `json:"collectionId"`
			CollectionName    string `json:"collectionName"`
			ArtistName        string `json:"artistName"`
			CollectionViewURL string `json:"collectionViewUrl"`
			ArtworkURL100     string `json:"artworkUrl100"`
			ReleaseDate       string `json:"releaseDate"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("itunes: decode albums: %w", err)
	}

	var albums []Album
	for _, r := range result.Results {
		if r.CollectionID == 0 {
			continue
		}
		a := Album{
			CollectionID: r.CollectionID,
			Title:        r.CollectionName,
			ArtistName:   r.ArtistName,
			URL:          r.CollectionViewURL,
		}
		if len(r.ReleaseDate) >= 4 {
			y := 0
			fmt.Sscanf(r.ReleaseDate[:4], "%d", &y)
			if y > 0 {
				a.Year = &y
			}
		}
		a.ArtworkSmall, a.ArtworkMedium, a.ArtworkLarge = artworkSizes(r.ArtworkURL100)
		albums = append(albums, a)
	}
	return albums, nil
}

// artworkSizes derives the size family from the 100x100 artwork URL the API
// returns. The small URL is the original; medium and large are produced by
// the documented size substitution.
func artworkSizes(url100 string) (small, medium, large string) {
	if url100 == "" {
		return "", "", ""
	}
	small = url100
	medium = strings.Replace(url100, "100x100", "500x500", 1)
	large = strings.Replace(url100, "100x100", "600x600", 1)
	return small, medium, large
}
