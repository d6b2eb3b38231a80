// Package importer orchestrates enrichment for one seed song: resolve the
// song and its encyclopedia work id, walk the work's recordings, and write
// releases, performers, instruments, link tables, imagery and streaming
// links through the data store. All writes are idempotent upserts; each
// recording is wrapped in its own transaction so a mid-recording failure
// never leaves a partial recording behind.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider"
	"github.com/jazzvault/JazzVault/internal/provider/coverart"
	"github.com/jazzvault/JazzVault/internal/provider/itunes"
	"github.com/jazzvault/JazzVault/internal/provider/jazzstandards"
	"github.com/jazzvault/JazzVault/internal/provider/musicbrainz"
	"github.com/jazzvault/JazzVault/internal/provider/spotify"
	"github.com/jazzvault/JazzVault/internal/provider/wikimedia"
	"github.com/jazzvault/JazzVault/internal/resolve"
)

// ──────────────────── Provider surfaces ────────────────────

// Encyclopedia is the music-metadata source driving the import.
type Encyclopedia interface {
	SearchWorks(ctx context.Context, title, composer string) ([]musicbrainz.WorkRef, error)
	WorkRecordings(ctx context.Context, workID string) (*musicbrainz.Work, error)
	RecordingDetail(ctx context.Context, recordingID string) (*musicbrainz.Recording, error)
	ReleaseDetail(ctx context.Context, releaseID string) (*musicbrainz.Release, error)
	SearchArtists(ctx context.Context, name string) ([]musicbrainz.Artist, error)
	ArtistDetail(ctx context.Context, artistID string) (*musicbrainz.Artist, error)
}

// Editorial is the jazz-standards site used to seed new songs.
type Editorial interface {
	ListAll(ctx context.Context) ([]jazzstandards.SongRef, error)
	SongDetail(ctx context.Context, pageURL string) (*jazzstandards.SongPage, error)
}

// CoverSource is the cover-art archive.
type CoverSource interface {
	ReleaseImages(ctx context.Context, releaseID string) (*coverart.Result, error)
}

// AlbumCatalog is the unauthenticated consumer catalog (iTunes).
type AlbumCatalog interface {
	SearchAlbums(ctx context.Context, term string) ([]itunes.Album, error)
	SearchTracks(ctx context.Context, term string) ([]itunes.Track, error)
}

// TrackCatalog is the OAuth consumer catalog (Spotify); may be absent.
type TrackCatalog interface {
	SearchTrack(ctx context.Context, title, artist, album string) ([]spotify.Track, error)
	SearchAlbums(ctx context.Context, title, artist string) ([]spotify.Album, error)
}

// PortraitSource finds licensed performer portraits (Wikimedia Commons).
type PortraitSource interface {
	SearchPortraits(ctx context.Context, performerName string, limit int) ([]wikimedia.Portrait, error)
}

// ──────────────────── Importer ────────────────────

type Options struct {
	AutoMatchMinScore int
	StreamingMinScore int
	DefaultLimit      int
	Debug             bool
}

type Importer struct {
	store        DataStore
	editorial    Editorial
	encyclopedia Encyclopedia
	covers       CoverSource
	itunes       AlbumCatalog
	spotify      TrackCatalog   // nil when credentials are not configured
	portraits    PortraitSource // nil disables portrait backfill
	opts         Options
}

func New(store DataStore, editorial Editorial, encyclopedia Encyclopedia, covers CoverSource, albums AlbumCatalog, tracks TrackCatalog, portraits PortraitSource, opts Options) *Importer {
	if opts.AutoMatchMinScore == 0 {
		opts.AutoMatchMinScore = 85
	}
	if opts.StreamingMinScore == 0 {
		opts.StreamingMinScore = 60
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = 25
	}
	return &Importer{
		store:        store,
		editorial:    editorial,
		encyclopedia: encyclopedia,
		covers:       covers,
		itunes:       albums,
		spotify:      tracks,
		portraits:    portraits,
		opts:         opts,
	}
}

// Request selects the seed and bounds for one import run.
type Request struct {
	SongID        *uuid.UUID
	Title         string
	Limit         int
	DryRun        bool
	WithStreaming bool
}

type Stats struct {
	Found    int `json:"found"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

// Summary is the structured result of a seed run.
type Summary struct {
	Success   bool      `json:"success"`
	SongID    uuid.UUID `json:"song_id"`
	SongTitle string    `json:"song_title"`
	Stats     Stats     `json:"stats"`
	Errors    []string  `json:"errors,omitempty"`
}

// ImportSong runs the full enrichment pipeline for one seed. Per-recording
// failures are recorded and skipped; a provider-wide failure (rate-limit
// cooldown exhausted) aborts the seed.
func (i *Importer) ImportSong(ctx context.Context, req Request) (*Summary, error) {
	if req.Limit <= 0 {
		req.Limit = i.opts.DefaultLimit
	}
	summary := &Summary{}

	song, err := i.locateSong(ctx, req)
	if err != nil {
		return summary, err
	}
	summary.SongID = song.ID
	summary.SongTitle = song.Title

	workID, err := i.resolveWorkID(ctx, song, req.DryRun)
	if err != nil {
		return summary, err
	}
	if workID == "" {
		summary.Errors = append(summary.Errors, "no encyclopedia work found for song")
		summary.Stats.Errors++
		return summary, nil
	}

	work, err := i.encyclopedia.WorkRecordings(ctx, workID)
	if err != nil {
		return summary, fmt.Errorf("fetch work %s: %w", workID, err)
	}
	summary.Stats.Found = len(work.Recordings)

	var imported []importedRecording
	for _, ref := range work.Recordings {
		if summary.Stats.Imported >= req.Limit {
			break
		}
		result, err := i.importRecording(ctx, song, ref, req.DryRun)
		if err != nil {
			if isSeedFatal(err) {
				summary.Errors = append(summary.Errors, err.Error())
				summary.Stats.Errors++
				return summary, err
			}
			log.Printf("Import: recording %s failed: %v", ref.ID, err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("recording %s: %v", ref.ID, err))
			summary.Stats.Errors++
			continue
		}
		switch {
		case result == nil:
			summary.Stats.Skipped++
		default:
			summary.Stats.Imported++
			imported = append(imported, *result)
			if !req.DryRun {
				if err := i.pollCovers(ctx, result.Releases); err != nil {
					log.Printf("Import: cover polling for recording %s: %v", ref.ID, err)
					summary.Errors = append(summary.Errors, fmt.Sprintf("covers for %s: %v", ref.ID, err))
					summary.Stats.Errors++
				}
			}
		}
	}

	if req.WithStreaming && !req.DryRun {
		for _, rec := range imported {
			if err := i.matchStreaming(ctx, song, rec); err != nil {
				if isSeedFatal(err) {
					summary.Errors = append(summary.Errors, err.Error())
					summary.Stats.Errors++
					return summary, err
				}
				log.Printf("Import: streaming match for recording %s: %v", rec.Recording.ID, err)
				summary.Errors = append(summary.Errors, fmt.Sprintf("streaming for %s: %v", rec.Recording.ID, err))
				summary.Stats.Errors++
			}
		}
	}

	summary.Success = true
	return summary, nil
}

// locateSong finds the seed song, creating a stub from the editorial site
// when the seed is a title the store has never seen.
func (i *Importer) locateSong(ctx context.Context, req Request) (*models.Song, error) {
	if req.SongID != nil {
		song, err := i.store.FindSongByID(*req.SongID)
		if err != nil {
			return nil, err
		}
		if song == nil {
			return nil, fmt.Errorf("song %s not found", *req.SongID)
		}
		return song, nil
	}

	if req.Title == "" {
		return nil, errors.New("either a song id or a title is required")
	}
	song, err := i.store.FindSongByTitle(req.Title)
	if err != nil {
		return nil, err
	}
	if song != nil {
		return i.enrichSong(ctx, song, req.DryRun)
	}

	song = &models.Song{ID: uuid.New(), Title: req.Title}
	if page := i.editorialLookup(ctx, req.Title); page != nil {
		if page.Composer != "" {
			song.Composer = &page.Composer
		}
		song.Year = page.Year
		if page.Description != "" {
			song.Description = &page.Description
		}
	}

	// The seed may be an alternate spelling of a song already in the store
	// ("Star Dust" vs "Stardust"); the encyclopedia work id is the
	// authority on identity, so resolve it before creating a stub.
	workID, err := i.searchWorkID(ctx, song)
	if err != nil {
		return nil, err
	}
	if workID != "" {
		existing, err := i.store.FindSongByWorkID(workID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			log.Printf("Import: %q is already in the store as %q", req.Title, existing.Title)
			return existing, nil
		}
		song.ExternalWorkID = &workID
	}

	if req.DryRun {
		return song, nil
	}
	if err := i.store.CreateSong(song); err != nil {
		return nil, fmt.Errorf("create song %q: %w", req.Title, err)
	}
	return song, nil
}

// enrichSong backfills editorial fields on songs that predate their
// editorial page (manually created rows, early stubs).
func (i *Importer) enrichSong(ctx context.Context, song *models.Song, dryRun bool) (*models.Song, error) {
	if song.Composer != nil {
		return song, nil
	}
	page := i.editorialLookup(ctx, song.Title)
	if page == nil || page.Composer == "" {
		return song, nil
	}
	song.Composer = &page.Composer
	if song.Year == nil {
		song.Year = page.Year
	}
	if song.Description == nil && page.Description != "" {
		song.Description = &page.Description
	}
	if dryRun {
		return song, nil
	}
	if err := i.store.UpdateSong(song); err != nil {
		return nil, fmt.Errorf("enrich song %q: %w", song.Title, err)
	}
	return song, nil
}

// editorialLookup finds the song's page in the editorial index and scrapes
// it. Failures are logged, not fatal; the editorial site is a bonus source.
func (i *Importer) editorialLookup(ctx context.Context, title string) *jazzstandards.SongPage {
	if i.editorial == nil {
		return nil
	}
	refs, err := i.editorial.ListAll(ctx)
	if err != nil {
		log.Printf("Import: editorial index unavailable: %v", err)
		return nil
	}

	wanted := resolve.TitleVariants(title)
	for _, ref := range refs {
		got := resolve.TitleVariants(ref.Title)
		if !variantsIntersect(wanted, got) {
			continue
		}
		page, err := i.editorial.SongDetail(ctx, ref.URL)
		if err != nil {
			log.Printf("Import: editorial page %s: %v", ref.URL, err)
			return nil
		}
		return page
	}
	return nil
}

// resolveWorkID returns the song's encyclopedia work id, searching for and
// persisting it when missing.
func (i *Importer) resolveWorkID(ctx context.Context, song *models.Song, dryRun bool) (string, error) {
	if song.ExternalWorkID != nil {
		return *song.ExternalWorkID, nil
	}

	workID, err := i.searchWorkID(ctx, song)
	if err != nil || workID == "" {
		return "", err
	}
	song.ExternalWorkID = &workID
	if !dryRun {
		if err := i.store.SetSongWorkID(song.ID, workID); err != nil {
			return "", err
		}
	}
	return workID, nil
}

// searchWorkID scores work candidates against the song title and returns
// the best id when it clears the auto-match threshold, else "".
func (i *Importer) searchWorkID(ctx context.Context, song *models.Song) (string, error) {
	composer := ""
	if song.Composer != nil {
		composer = *song.Composer
	}
	works, err := i.encyclopedia.SearchWorks(ctx, song.Title, composer)
	if err != nil {
		if errors.Is(err, provider.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("work search: %w", err)
	}

	best := ""
	bestScore := 0
	for _, w := range works {
		score := resolve.Score(song.Title, w.Title)
		if score > bestScore {
			best, bestScore = w.ID, score
		}
	}
	if best == "" || bestScore < i.opts.AutoMatchMinScore {
		return "", nil
	}
	return best, nil
}

func variantsIntersect(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// isSeedFatal reports whether an error should abort the whole seed rather
// than skip one recording.
func isSeedFatal(err error) bool {
	var rl *provider.RateLimitError
	return errors.As(err, &rl) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
