// Package musicbrainz reads works, recordings, releases and artists from
// the MusicBrainz web service. MusicBrainz allows one request per second and
// requires a descriptive User-Agent with contact information.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/provider"
)

const defaultBaseURL = "https://musicbrainz.org/ws/2"

// ──────────────────── Normalized vocabulary ────────────────────

type WorkRef struct {
	ID    string
	Title string
	Score int
}

type Work struct {
	ID         string
	Title      string
	Recordings []RecordingRef
}

type RecordingRef struct {
	ID    string
	Title string
}

type ArtistRef struct {
	ID   string
	Name string
}

// ArtistRelation is one artist-rel on a recording or release. For
// instrument relations, Instruments holds the relation's attributes.
type ArtistRelation struct {
	Type        string
	Artist      ArtistRef
	Instruments []string
}

type ReleaseRef struct {
	ID           string
	Title        string
	Year         *int
	ArtistCredit string
	DiscNumber   *int
	TrackNumber  *int
	TrackTitle   *string
}

type Recording struct {
	ID           string
	Title        string
	Year         *int
	Date         *string
	ArtistCredit []ArtistRef
	Releases     []ReleaseRef
	Relations    []ArtistRelation
}

type Release struct {
	ID           string
	Title        string
	Year         *int
	ArtistCredit string
	Relations    []ArtistRelation
}

type Artist struct {
	ID             string
	Name           string
	SortName       string
	Disambiguation string
	Type           string
	BirthDate      *string
	DeathDate      *string
	Score          int
}

// ──────────────────── Client ────────────────────

type Client struct {
	baseURL string
	doer    *provider.Doer
	cache   cache.Store
}

// New builds a MusicBrainz client. contact goes into the User-Agent as
// required by the MusicBrainz API policy.
func New(store cache.Store, contact string) *Client {
	d := provider.NewDoer("musicbrainz", time.Second, 15*time.Second)
	d.UserAgent = fmt.Sprintf("JazzVault/1.0 (%s)", contact)
	d.RateLimitStatuses = append(d.RateLimitStatuses, http.StatusServiceUnavailable)
	return &Client{baseURL: defaultBaseURL, doer: d, cache: store}
}

// SetBaseURL points the client at a different server; used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SearchWorks searches works by title, optionally constrained by composer
// (matched against the work's artist relation in the search index).
func (c *Client) SearchWorks(ctx context.Context, title, composer string) ([]WorkRef, error) {
	query := fmt.Sprintf(`work:"%s"`, title)
	if composer != "" {
		query += fmt.Sprintf(` AND artist:"%s"`, composer)
	}
	reqURL := fmt.Sprintf("%s/work/?query=%s&fmt=json&limit=25", c.baseURL, url.QueryEscape(query))

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "searches", "work|"+query, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Works []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Score int    `json:"score"`
		} `json:"works"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode work search: %w", err)
	}

	var refs []WorkRef
	for _, w := range result.Works {
		refs = append(refs, WorkRef{ID: w.ID, Title: w.Title, Score: w.Score})
	}
	return refs, nil
}

// WorkRecordings fetches a work with its recording relations.
func (c *Client) WorkRecordings(ctx context.Context, workID string) (*Work, error) {
	reqURL := fmt.Sprintf("%s/work/%s?inc=recording-rels&fmt=json", c.baseURL, workID)

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "works", workID, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Relations []struct {
			Type      string `json:"type"`
			Recording struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"recording"`
		} `json:"relations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode work %s: %w", workID, err)
	}

	work := &Work{ID: result.ID, Title: result.Title}
	for _, rel := range result.Relations {
		if rel.Recording.ID == "" {
			continue
		}
		work.Recordings = append(work.Recordings, RecordingRef{ID: rel.Recording.ID, Title: rel.Recording.Title})
	}
	return work, nil
}

// RecordingDetail fetches one recording with its releases, artist credit and
// artist relations. Instruments come from the attributes of relations with
// type "instrument".
func (c *Client) RecordingDetail(ctx context.Context, recordingID string) (*Recording, error) {
	reqURL := fmt.Sprintf("%s/recording/%s?inc=artist-credits+releases+artist-rels+media&fmt=json", c.baseURL, recordingID)

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "recordings", recordingID, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID               string `json:"id"`
		Title            string `json:"title"`
		FirstReleaseDate string `json:"first-release-date"`
		ArtistCredit     []struct {
			Name   string `json:"name"`
			Artist struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"artist-credit"`
		Releases []struct {
			ID           string `json:"id"`
			Title        string `json:"title"`
			Date         string `json:"date"`
			ArtistCredit []struct {
				Name   string `json:"name"`
				Artist struct {
					Name string `json:"name"`
				} `json:"artist"`
			} `json:"artist-credit"`
			Media []struct {
				Position int `json:"position"`
				Tracks   []struct {
					Title  string `json:"title"`
					Number string `json:"number"`
				} `json:"tracks"`
			} `json:"media"`
		} `json:"releases"`
		Relations []rawRelation `json:"relations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode recording %s: %w", recordingID, err)
	}

	rec := &Recording{
		ID:    result.ID,
		Title: result.Title,
		Year:  yearFrom(result.FirstReleaseDate),
	}
	if result.FirstReleaseDate != "" {
		d := result.FirstReleaseDate
		rec.Date = &d
	}
	for _, ac := range result.ArtistCredit {
		name := ac.Name
		if ac.Artist.Name != "" {
			name = ac.Artist.Name
		}
		rec.ArtistCredit = append(rec.ArtistCredit, ArtistRef{ID: ac.Artist.ID, Name: name})
	}
	for _, r := range result.Releases {
		ref := ReleaseRef{
			ID:           r.ID,
			Title:        r.Title,
			Year:         yearFrom(r.Date),
			ArtistCredit: creditString(r.ArtistCredit),
		}
		// The media block inside a recording's release list carries only the
		// track that holds this recording.
		for _, m := range r.Media {
			if len(m.Tracks) == 0 {
				continue
			}
			disc := m.Position
			ref.DiscNumber = &disc
			if n := atoiSafe(m.Tracks[0].Number); n > 0 {
				ref.TrackNumber = &n
			}
			if t := m.Tracks[0].Title; t != "" {
				ref.TrackTitle = &t
			}
			break
		}
		rec.Releases = append(rec.Releases, ref)
	}
	rec.Relations = normalizeRelations(result.Relations)
	return rec, nil
}

// ReleaseDetail fetches a release with artist credit and artist relations.
// The importer falls back to it when a recording carries no artist-rels.
func (c *Client) ReleaseDetail(ctx context.Context, releaseID string) (*Release, error) {
	reqURL := fmt.Sprintf("%s/release/%s?inc=artist-credits+artist-rels+recording-level-rels&fmt=json", c.baseURL, releaseID)

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "releases", releaseID, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		ID           string `json:"id"`
		Title        string `json:"title"`
		Date         string `json:"date"`
		ArtistCredit []struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"artist-credit"`
		Relations []rawRelation `json:"relations"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode release %s: %w", releaseID, err)
	}

	return &Release{
		ID:           result.ID,
		Title:        result.Title,
		Year:         yearFrom(result.Date),
		ArtistCredit: creditString(result.ArtistCredit),
		Relations:    normalizeRelations(result.Relations),
	}, nil
}

// SearchArtists searches artists by name.
func (c *Client) SearchArtists(ctx context.Context, name string) ([]Artist, error) {
	reqURL := fmt.Sprintf("%s/artist/?query=%s&fmt=json&limit=10", c.baseURL, url.QueryEscape(name))

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "searches", "artist|"+name, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Artists []rawArtist `json:"artists"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode artist search: %w", err)
	}

	var artists []Artist
	for _, a := range result.Artists {
		artists = append(artists, a.normalize())
	}
	return artists, nil
}

// ArtistDetail fetches one artist by id.
func (c *Client) ArtistDetail(ctx context.Context, artistID string) (*Artist, error) {
	reqURL := fmt.Sprintf("%s/artist/%s?fmt=json", c.baseURL, artistID)

	body, err := provider.FetchCached(ctx, c.doer, c.cache, "artists", artistID, reqURL, provider.TTLMetadata, nil)
	if err != nil {
		return nil, err
	}

	var raw rawArtist
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("musicbrainz: decode artist %s: %w", artistID, err)
	}
	a := raw.normalize()
	return &a, nil
}

// ──────────────────── Wire helpers ────────────────────

type rawRelation struct {
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
	Artist     struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"artist"`
}

func normalizeRelations(raws []rawRelation) []ArtistRelation {
	var rels []ArtistRelation
	for _, r := range raws {
		if r.Artist.ID == "" && r.Artist.Name == "" {
			continue
		}
		rel := ArtistRelation{
			Type:   r.Type,
			Artist: ArtistRef{ID: r.Artist.ID, Name: r.Artist.Name},
		}
		if r.Type == "instrument" {
			rel.Instruments = r.Attributes
		}
		rels = append(rels, rel)
	}
	return rels
}

type rawArtist struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	SortName       string `json:"sort-name"`
	Disambiguation string `json:"disambiguation"`
	Type           string `json:"type"`
	Score          int    `json:"score"`
	LifeSpan       struct {
		Begin string `json:"begin"`
		End   string `json:"end"`
	} `json:"life-span"`
}

func (r rawArtist) normalize() Artist {
	a := Artist{
		ID:             r.ID,
		Name:           r.Name,
		SortName:       r.SortName,
		Disambiguation: r.Disambiguation,
		Type:           r.Type,
		Score:          r.Score,
	}
	if r.LifeSpan.Begin != "" {
		b := r.LifeSpan.Begin
		a.BirthDate = &b
	}
	if r.LifeSpan.End != "" {
		e := r.LifeSpan.End
		a.DeathDate = &e
	}
	return a
}

func creditString(credit []struct {
	Name   string `json:"name"`
	Artist struct {
		Name string `json:"name"`
	} `json:"artist"`
}) string {
	out := ""
	for i, ac := range credit {
		name := ac.Name
		if ac.Artist.Name != "" {
			name = ac.Artist.Name
		}
		if i > 0 {
			out += ", "
		}
		out += name
	}
	return out
}

func yearFrom(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y := 0
	fmt.Sscanf(date[:4], "%d", &y)
	if y == 0 {
		return nil
	}
	return &y
}

func atoiSafe(s string) int {
	n := 0
	fmt.Sscanf(s, "%d", &n)
	return n
}
