package importer

import (
	"context"
	"fmt"
	"log"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider/itunes"
	"github.com/jazzvault/JazzVault/internal/resolve"
)

// matchStreaming links a freshly imported recording's releases and tracks to
// the consumer catalogs. Matching is fuzzy and conservative: no link is
// written unless both the album title and the artist clear the threshold,
// and manually curated links are never replaced (the store enforces that).
func (i *Importer) matchStreaming(ctx context.Context, song *models.Song, rec importedRecording) error {
	for _, rel := range rec.Releases {
		artist := rec.LeaderName
		if rel.ArtistCredit != nil && *rel.ArtistCredit != "" {
			artist = *rel.ArtistCredit
		}

		if err := i.matchITunesRelease(ctx, song, rec, rel, artist, models.MatchFuzzySearch); err != nil {
			return err
		}
		if i.spotify != nil {
			if err := i.matchSpotifyRelease(ctx, song, rec, rel, artist, models.MatchFuzzySearch); err != nil {
				return err
			}
		}
	}
	return nil
}

// ──────────────────── iTunes ────────────────────

func (i *Importer) matchITunesRelease(ctx context.Context, song *models.Song, rec importedRecording, rel *models.Release, artist string, method models.MatchMethod) error {
	// The catalog indexes compilations under the label's credit rather
	// than the leader, so a combined title+artist term can come back
	// empty. Retry on the bare title and let the score filter sort it out.
	terms := []string{rel.Title}
	if artist != "" {
		terms = []string{rel.Title + " " + artist, rel.Title}
	}

	var albums []itunes.Album
	for _, term := range terms {
		var err error
		albums, err = i.itunes.SearchAlbums(ctx, term)
		if err != nil {
			return fmt.Errorf("itunes album search %q: %w", term, err)
		}
		if len(albums) > 0 {
			break
		}
	}

	min := i.opts.StreamingMinScore
	for _, album := range albums {
		if !resolve.StreamingMatch(rel.Title, album.Title, min) {
			continue
		}
		if artist != "" && !resolve.StreamingMatch(artist, album.ArtistName, min) {
			continue
		}

		link := &models.ReleaseStreamingLink{
			ReleaseID:   rel.ID,
			Service:     models.ServiceITunes,
			ServiceID:   fmt.Sprint(album.CollectionID),
			MatchMethod: method,
		}
		if album.URL != "" {
			link.ServiceURL = &album.URL
		}
		if _, err := i.store.UpsertReleaseStreamingLink(link); err != nil {
			return err
		}

		// The catalog's artwork doubles as secondary cover imagery.
		if album.ArtworkLarge != "" {
			row := &models.ReleaseImagery{
				ReleaseID: rel.ID,
				Source:    models.ImagerySourceITunes,
				Type:      models.ImageryTypeFront,
			}
			if album.ArtworkSmall != "" {
				row.SmallURL = &album.ArtworkSmall
			}
			if album.ArtworkMedium != "" {
				row.MediumURL = &album.ArtworkMedium
			}
			row.LargeURL = &album.ArtworkLarge
			if _, err := i.store.UpsertImagery(row); err != nil {
				return err
			}
		}

		if song != nil {
			if err := i.matchITunesTrack(ctx, song, rec, rel, album.Title, artist, method); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (i *Importer) matchITunesTrack(ctx context.Context, song *models.Song, rec importedRecording, rel *models.Release, albumTitle, artist string, method models.MatchMethod) error {
	rr, err := i.store.FindRecordingRelease(rec.Recording.ID, rel.ID)
	if err != nil || rr == nil {
		return err
	}
	trackTitle := song.Title
	if rr.TrackTitle != nil && *rr.TrackTitle != "" {
		trackTitle = *rr.TrackTitle
	}

	term := trackTitle
	if artist != "" {
		term = trackTitle + " " + artist
	}
	tracks, err := i.itunes.SearchTracks(ctx, term)
	if err != nil {
		return fmt.Errorf("itunes track search %q: %w", term, err)
	}

	min := i.opts.StreamingMinScore
	for _, track := range tracks {
		if !resolve.StreamingMatch(trackTitle, track.Title, min) {
			continue
		}
		if !resolve.StreamingMatch(albumTitle, track.AlbumTitle, min) {
			continue
		}

		link := &models.TrackStreamingLink{
			RecordingReleaseID: rr.ID,
			Service:            models.ServiceITunes,
			ServiceID:          fmt.Sprint(track.TrackID),
			MatchMethod:        method,
		}
		if track.URL != "" {
			link.ServiceURL = &track.URL
		}
		_, err := i.store.UpsertTrackStreamingLink(link)
		return err
	}
	return nil
}

// ──────────────────── Spotify ────────────────────

func (i *Importer) matchSpotifyRelease(ctx context.Context, song *models.Song, rec importedRecording, rel *models.Release, artist string, method models.MatchMethod) error {
	albums, err := i.spotify.SearchAlbums(ctx, rel.Title, artist)
	if err != nil {
		return fmt.Errorf("spotify album search %q: %w", rel.Title, err)
	}

	min := i.opts.StreamingMinScore
	for _, album := range albums {
		if !resolve.StreamingMatch(rel.Title, album.Title, min) {
			continue
		}
		if artist != "" && !resolve.StreamingMatch(artist, album.ArtistName, min) {
			continue
		}

		link := &models.ReleaseStreamingLink{
			ReleaseID:   rel.ID,
			Service:     models.ServiceSpotify,
			ServiceID:   album.ID,
			MatchMethod: method,
		}
		if album.URL != "" {
			link.ServiceURL = &album.URL
		}
		if _, err := i.store.UpsertReleaseStreamingLink(link); err != nil {
			return err
		}

		if song != nil {
			if err := i.matchSpotifyTrack(ctx, song, rec, rel, album.Title, artist, method); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func (i *Importer) matchSpotifyTrack(ctx context.Context, song *models.Song, rec importedRecording, rel *models.Release, albumTitle, artist string, method models.MatchMethod) error {
	rr, err := i.store.FindRecordingRelease(rec.Recording.ID, rel.ID)
	if err != nil || rr == nil {
		return err
	}
	trackTitle := song.Title
	if rr.TrackTitle != nil && *rr.TrackTitle != "" {
		trackTitle = *rr.TrackTitle
	}

	tracks, err := i.spotify.SearchTrack(ctx, trackTitle, artist, albumTitle)
	if err != nil {
		return fmt.Errorf("spotify track search %q: %w", trackTitle, err)
	}

	min := i.opts.StreamingMinScore
	for _, track := range tracks {
		if !resolve.StreamingMatch(trackTitle, track.Title, min) {
			continue
		}

		link := &models.TrackStreamingLink{
			RecordingReleaseID: rr.ID,
			Service:            models.ServiceSpotify,
			ServiceID:          track.ID,
			MatchMethod:        method,
		}
		if track.URL != "" {
			link.ServiceURL = &track.URL
		}
		_, err := i.store.UpsertTrackStreamingLink(link)
		return err
	}
	return nil
}

// ──────────────────── Repair ────────────────────

// StreamingRepair walks releases that have no link for the given service and
// retries album matching. Links it writes are marked repair_script so they
// can be told apart from import-time matches.
func (i *Importer) StreamingRepair(ctx context.Context, service models.StreamingService, limit int) (*Stats, error) {
	if limit <= 0 {
		limit = 100
	}
	if service == models.ServiceSpotify && i.spotify == nil {
		return nil, fmt.Errorf("spotify credentials not configured")
	}

	releases, err := i.store.ListReleasesWithoutStreamingLink(service, limit)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Found: len(releases)}
	for _, rel := range releases {
		artist := ""
		if rel.ArtistCredit != nil {
			artist = *rel.ArtistCredit
		}

		var matchErr error
		switch service {
		case models.ServiceITunes:
			matchErr = i.matchITunesRelease(ctx, nil, importedRecording{}, rel, artist, models.MatchRepairScript)
		case models.ServiceSpotify:
			matchErr = i.matchSpotifyRelease(ctx, nil, importedRecording{}, rel, artist, models.MatchRepairScript)
		default:
			return nil, fmt.Errorf("unknown streaming service %q", service)
		}
		if matchErr != nil {
			if isSeedFatal(matchErr) {
				return stats, matchErr
			}
			log.Printf("Streaming: release %s: %v", rel.ID, matchErr)
			stats.Errors++
			continue
		}
		stats.Updated++
	}
	return stats, nil
}
