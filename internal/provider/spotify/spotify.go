// Package spotify searches the Spotify catalog for track and album links.
// Auth is an OAuth2 client-credentials grant; the token is cached in memory
// and refreshed shortly before expiry. The client is optional: without
// credentials the importer simply skips this service.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/provider"
)

const (
	defaultBaseURL = "https://api.spotify.com"
	defaultAuthURL = "https://accounts.spotify.com/api/token"

	// Refresh the token when it is this close to expiring.
	tokenSlack = 60 * time.Second
)

type Track struct {
	ID         string
	Title      string
	ArtistName string
	AlbumTitle string
	AlbumID    string
	URL        string
}

type Album struct {
	ID          string
	Title       string
	ArtistName  string
	URL         string
	Year        *int
	ImageSmall  string
	ImageMedium string
	ImageLarge  string
}

type Client struct {
	baseURL      string
	authURL      string
	clientID     string
	clientSecret string

	doer       *provider.Doer
	cache      cache.Store
	authClient *http.Client

	token       string
	tokenExpiry time.Time
}

func New(store cache.Store, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		authURL:      defaultAuthURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		doer:         provider.NewDoer("spotify", 200*time.Millisecond, 10*time.Second),
		cache:        store,
		authClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURLs points the client at different servers; used by tests.
func (c *Client) SetBaseURLs(base, auth string) {
	c.baseURL = base
	c.authURL = auth
}

// ──────────────────── Token management ────────────────────

// bearer returns a usable access token, fetching or refreshing as needed.
func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.token != "" && time.Until(c.tokenExpiry) > tokenSlack {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.authClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("spotify: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", provider.ErrAuthFailed
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("spotify: decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", provider.ErrAuthFailed
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.token, nil
}

// get performs an authenticated, cached GET. A 401 clears the cached token
// so the next call re-authenticates.
func (c *Client) get(ctx context.Context, kind, key, reqURL string) ([]byte, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	body, err := provider.FetchCached(ctx, c.doer, c.cache, kind, key, reqURL, provider.TTLMetadata,
		map[string]string{"Authorization": "Bearer " + token})
	if errors.Is(err, provider.ErrAuthFailed) {
		c.token = ""
		c.tokenExpiry = time.Time{}
	}
	return body, err
}

// ──────────────────── Search ────────────────────

// SearchTrack runs progressively looser queries until one returns results:
// title+artist+album first, then title+artist, then a free-text fallback.
func (c *Client) SearchTrack(ctx context.Context, title, artist, album string) ([]Track, error) {
	queries := trackQueries(title, artist, album)
	for _, q := range queries {
		tracks, err := c.searchTracks(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(tracks) > 0 {
			return tracks, nil
		}
	}
	return nil, nil
}

func trackQueries(title, artist, album string) []string {
	var qs []string
	if artist != "" && album != "" {
		qs = append(qs, fmt.Sprintf(`track:"%s" artist:"%s" album:"%s"`, title, artist, album))
	}
	if artist != "" {
		qs = append(qs, fmt.Sprintf(`track:"%s" artist:"%s"`, title, artist))
	}
	if artist != "" {
		qs = append(qs, fmt.Sprintf(`%s %s`, title, artist))
	}
	qs = append(qs, title)
	return qs
}

func (c *Client) searchTracks(ctx context.Context, query string) ([]Track, error) {
	reqURL := fmt.Sprintf("%s/v1/search?q=%s&type=track&limit=10", c.baseURL, url.QueryEscape(query))

	body, err := c.get(ctx, "searches", "track|"+query, reqURL)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tracks struct {
			Items []struct {
				ID           string `json:"id"`
				Name         string `json:"name"`
				ExternalURLs struct {
					Spotify string `json:"spotify"`
				} `json:"external_urls"`
				Artists []struct {
					Name string `json:"name"`
				} `json:"artists"`
				Album struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"album"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("spotify: decode track search: %w", err)
	}

	var tracks []Track
	for _, item := range result.Tracks.Items {
		tr := Track{
			ID:         item.ID,
			Title:      item.Name,
			AlbumTitle: item.Album.Name,
			AlbumID:    item.Album.ID,
			URL:        item.ExternalURLs.Spotify,
		}
		if len(item.Artists) > 0 {
			tr.ArtistName = item.Artists[0].Name
		}
		tracks = append(tracks, tr)
	}
	return tracks, nil
}

// SearchAlbums searches albums by title and artist.
func (c *Client) SearchAlbums(ctx context.Context, title, artist string) ([]Album, error) {
	query := title
	if artist != "" {
		query = fmt.Sprintf(`album:"%s" artist:"%s"`, title, artist)
	}
	reqURL := fmt.Sprintf("%s/v1/search?q=%s&type=album&limit=10", c.baseURL, url.QueryEscape(query))

	body, err := c.get(ctx, "searches", "album|"+query, reqURL)
	if err != nil {
		return nil, err
	}

	var result struct {
		Albums struct {
			Items []rawAlbum `json:"items"`
		} `json:"albums"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("spotify: decode album search: %w", err)
	}

	var albums []Album
	for _, item := range result.Albums.Items {
		albums = append(albums, item.normalize())
	}
	return albums, nil
}

// AlbumDetail fetches one album, mainly for its artwork URLs.
func (c *Client) AlbumDetail(ctx context.Context, albumID string) (*Album, error) {
	reqURL := fmt.Sprintf("%s/v1/albums/%s", c.baseURL, albumID)

	body, err := c.get(ctx, "albums", albumID, reqURL)
	if err != nil {
		return nil, err
	}

	var raw rawAlbum
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("spotify: decode album %s: %w", albumID, err)
	}
	a := raw.normalize()
	return &a, nil
}

// ──────────────────── Wire helpers ────────────────────

type rawAlbum struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Images []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
}

func (r rawAlbum) normalize() Album {
	a := Album{
		ID:    r.ID,
		Title: r.Name,
		URL:   r.ExternalURLs.Spotify,
	}
	if len(r.Artists) > 0 {
		a.ArtistName = r.Artists[0].Name
	}
	if len(r.ReleaseDate) >= 4 {
		y := 0
		fmt.Sscanf(r.ReleaseDate[:4], "%d", &y)
		if y > 0 {
			a.Year = &y
		}
	}
	// The images array is ordered largest first.
	for _, img := range r.Images {
		switch {
		case a.ImageLarge == "":
			a.ImageLarge = img.URL
		case a.ImageMedium == "":
			a.ImageMedium = img.URL
		default:
			a.ImageSmall = img.URL
		}
	}
	if a.ImageMedium == "" {
		a.ImageMedium = a.ImageLarge
	}
	if a.ImageSmall == "" {
		a.ImageSmall = a.ImageMedium
	}
	return a
}
