package importer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider/coverart"
	"github.com/jazzvault/JazzVault/internal/provider/itunes"
	"github.com/jazzvault/JazzVault/internal/provider/jazzstandards"
	"github.com/jazzvault/JazzVault/internal/provider/musicbrainz"
	"github.com/jazzvault/JazzVault/internal/provider/spotify"
	"github.com/jazzvault/JazzVault/internal/provider/wikimedia"
)

// fakeStore is an in-memory DataStore for pipeline tests.
type fakeStore struct {
	songs         []*models.Song
	recordings    []*models.Recording
	releases      []*models.Release
	performers    []*models.Performer
	instruments   []*models.Instrument
	recReleases   []*models.RecordingRelease
	recPerformers []*models.RecordingPerformer
	imagery       []*models.ReleaseImagery
	releaseLinks  []*models.ReleaseStreamingLink
	trackLinks    []*models.TrackStreamingLink
	images        []*models.Image
	artistImages  []models.ArtistImage
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (f *fakeStore) FindSongByID(id uuid.UUID) (*models.Song, error) {
	for _, s := range f.songs {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindSongByTitle(title string) (*models.Song, error) {
	for _, s := range f.songs {
		if strings.EqualFold(s.Title, title) {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindSongByWorkID(workID string) (*models.Song, error) {
	for _, s := range f.songs {
		if s.ExternalWorkID != nil && *s.ExternalWorkID == workID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateSong(s *models.Song) error {
	f.songs = append(f.songs, s)
	return nil
}

func (f *fakeStore) UpdateSong(s *models.Song) error {
	for idx, existing := range f.songs {
		if existing.ID == s.ID {
			f.songs[idx] = s
		}
	}
	return nil
}

func (f *fakeStore) SetSongWorkID(id uuid.UUID, workID string) error {
	for _, s := range f.songs {
		if s.ID == id {
			s.ExternalWorkID = &workID
		}
	}
	return nil
}

func (f *fakeStore) FindRecordingByExternalID(externalID string) (*models.Recording, error) {
	for _, r := range f.recordings {
		if r.ExternalRecordingID != nil && *r.ExternalRecordingID == externalID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpsertRecording(rec *models.Recording) (*models.Recording, error) {
	if rec.ExternalRecordingID != nil {
		if existing, _ := f.FindRecordingByExternalID(*rec.ExternalRecordingID); existing != nil {
			return existing, nil
		}
	}
	f.recordings = append(f.recordings, rec)
	return rec, nil
}

func (f *fakeStore) SetDefaultRelease(recordingID, releaseID uuid.UUID) error {
	for _, r := range f.recordings {
		if r.ID == recordingID {
			id := releaseID
			r.DefaultReleaseID = &id
		}
	}
	return nil
}

func (f *fakeStore) UpsertRelease(rel *models.Release) (*models.Release, error) {
	if rel.ExternalReleaseID != nil {
		for _, existing := range f.releases {
			if existing.ExternalReleaseID != nil && *existing.ExternalReleaseID == *rel.ExternalReleaseID {
				return existing, nil
			}
		}
	}
	f.releases = append(f.releases, rel)
	return rel, nil
}

func (f *fakeStore) MarkReleaseCoverChecked(id uuid.UUID) error {
	for _, r := range f.releases {
		if r.ID == id {
			now := time.Now()
			r.CoverArtCheckedAt = &now
		}
	}
	return nil
}

func (f *fakeStore) ListUncheckedCovers(limit int) ([]*models.Release, error) {
	var out []*models.Release
	for _, r := range f.releases {
		if r.CoverArtCheckedAt == nil && r.ExternalReleaseID != nil {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) ListReleasesWithoutStreamingLink(service models.StreamingService, limit int) ([]*models.Release, error) {
	var out []*models.Release
	for _, r := range f.releases {
		linked := false
		for _, l := range f.releaseLinks {
			if l.ReleaseID == r.ID && l.Service == service {
				linked = true
			}
		}
		if !linked {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertPerformer(p *models.Performer) (*models.Performer, error) {
	for _, existing := range f.performers {
		if p.ExternalArtistID != nil && existing.ExternalArtistID != nil &&
			*p.ExternalArtistID == *existing.ExternalArtistID {
			return existing, nil
		}
		if p.ExternalArtistID == nil && strings.EqualFold(existing.Name, p.Name) {
			return existing, nil
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.performers = append(f.performers, p)
	return p, nil
}

func (f *fakeStore) FindPerformerByExternalID(externalID string) (*models.Performer, error) {
	for _, p := range f.performers {
		if p.ExternalArtistID != nil && *p.ExternalArtistID == externalID {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindPerformerByName(name string) (*models.Performer, error) {
	for _, p := range f.performers {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SearchPerformers(fragment string, limit int) ([]*models.Performer, error) {
	fragment = strings.ToLower(fragment)
	var out []*models.Performer
	for _, p := range f.performers {
		if strings.Contains(strings.ToLower(p.Name), fragment) {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) SetPerformerExternalID(id uuid.UUID, externalID string) error {
	for _, p := range f.performers {
		if p.ID == id && p.ExternalArtistID == nil {
			p.ExternalArtistID = &externalID
		}
	}
	return nil
}

func (f *fakeStore) FindOrCreateInstrument(name string) (*models.Instrument, error) {
	name = strings.ToLower(name)
	for _, i := range f.instruments {
		if i.Name == name {
			return i, nil
		}
	}
	i := &models.Instrument{ID: uuid.New(), Name: name}
	f.instruments = append(f.instruments, i)
	return i, nil
}

func (f *fakeStore) LinkRecordingRelease(link *models.RecordingRelease) (*models.RecordingRelease, error) {
	for _, existing := range f.recReleases {
		if existing.RecordingID == link.RecordingID && existing.ReleaseID == link.ReleaseID {
			return existing, nil
		}
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	f.recReleases = append(f.recReleases, link)
	return link, nil
}

func (f *fakeStore) ListReleasesForRecording(recordingID uuid.UUID) ([]*models.Release, error) {
	var out []*models.Release
	for _, l := range f.recReleases {
		if l.RecordingID != recordingID {
			continue
		}
		for _, r := range f.releases {
			if r.ID == l.ReleaseID {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) FindRecordingRelease(recordingID, releaseID uuid.UUID) (*models.RecordingRelease, error) {
	for _, l := range f.recReleases {
		if l.RecordingID == recordingID && l.ReleaseID == releaseID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) LinkRecordingPerformer(link *models.RecordingPerformer) error {
	for _, existing := range f.recPerformers {
		if existing.RecordingID == link.RecordingID && existing.PerformerID == link.PerformerID &&
			pointerEqual(existing.InstrumentID, link.InstrumentID) {
			return nil
		}
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	f.recPerformers = append(f.recPerformers, link)
	return nil
}

func (f *fakeStore) ListRecordingPerformers(recordingID uuid.UUID) ([]*models.RecordingPerformer, error) {
	var out []*models.RecordingPerformer
	for _, l := range f.recPerformers {
		if l.RecordingID == recordingID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) PromoteToLeader(recordingID, performerID uuid.UUID) error {
	for _, l := range f.recPerformers {
		if l.RecordingID == recordingID && l.PerformerID == performerID {
			l.Role = models.RoleLeader
		}
	}
	return nil
}

func (f *fakeStore) UpsertImagery(img *models.ReleaseImagery) (*models.ReleaseImagery, error) {
	for _, existing := range f.imagery {
		if existing.ReleaseID == img.ReleaseID && existing.Source == img.Source && existing.Type == img.Type {
			return existing, nil
		}
	}
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	f.imagery = append(f.imagery, img)
	return img, nil
}

func (f *fakeStore) UpsertReleaseStreamingLink(link *models.ReleaseStreamingLink) (*models.ReleaseStreamingLink, error) {
	for idx, existing := range f.releaseLinks {
		if existing.ReleaseID == link.ReleaseID && existing.Service == link.Service {
			if existing.MatchMethod == models.MatchManual {
				return existing, nil
			}
			f.releaseLinks[idx] = link
			return link, nil
		}
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	f.releaseLinks = append(f.releaseLinks, link)
	return link, nil
}

func (f *fakeStore) UpsertTrackStreamingLink(link *models.TrackStreamingLink) (*models.TrackStreamingLink, error) {
	for idx, existing := range f.trackLinks {
		if existing.RecordingReleaseID == link.RecordingReleaseID && existing.Service == link.Service {
			if existing.MatchMethod == models.MatchManual {
				return existing, nil
			}
			f.trackLinks[idx] = link
			return link, nil
		}
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	f.trackLinks = append(f.trackLinks, link)
	return link, nil
}

func (f *fakeStore) UpsertImage(img *models.Image) (*models.Image, error) {
	for _, existing := range f.images {
		if existing.URL == img.URL {
			return existing, nil
		}
	}
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	f.images = append(f.images, img)
	return img, nil
}

func (f *fakeStore) LinkPerformerImage(performerID, imageID uuid.UUID) error {
	for _, existing := range f.artistImages {
		if existing.PerformerID == performerID && existing.ImageID == imageID {
			return nil
		}
	}
	f.artistImages = append(f.artistImages, models.ArtistImage{
		ID: uuid.New(), PerformerID: performerID, ImageID: imageID,
	})
	return nil
}

func (f *fakeStore) PerformersWithoutPortrait(limit int) ([]*models.Performer, error) {
	var out []*models.Performer
	for _, p := range f.performers {
		if p.ArtistType != models.ArtistTypePerson {
			continue
		}
		has := false
		for _, ai := range f.artistImages {
			if ai.PerformerID == p.ID {
				has = true
			}
		}
		if !has {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) InTransaction(fn func(tx DataStore) error) error { return fn(f) }

func pointerEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ──────────────────── Fake providers ────────────────────

type fakeEncyclopedia struct {
	works         []musicbrainz.WorkRef
	work          *musicbrainz.Work
	recordings    map[string]*musicbrainz.Recording
	releaseRels   map[string]*musicbrainz.Release
	artists       []musicbrainz.Artist
	artistDetails map[string]*musicbrainz.Artist
}

func (f *fakeEncyclopedia) SearchWorks(ctx context.Context, title, composer string) ([]musicbrainz.WorkRef, error) {
	return f.works, nil
}

func (f *fakeEncyclopedia) WorkRecordings(ctx context.Context, workID string) (*musicbrainz.Work, error) {
	return f.work, nil
}

func (f *fakeEncyclopedia) RecordingDetail(ctx context.Context, recordingID string) (*musicbrainz.Recording, error) {
	return f.recordings[recordingID], nil
}

func (f *fakeEncyclopedia) ReleaseDetail(ctx context.Context, releaseID string) (*musicbrainz.Release, error) {
	if rel, ok := f.releaseRels[releaseID]; ok {
		return rel, nil
	}
	return &musicbrainz.Release{ID: releaseID}, nil
}

func (f *fakeEncyclopedia) SearchArtists(ctx context.Context, name string) ([]musicbrainz.Artist, error) {
	return f.artists, nil
}

func (f *fakeEncyclopedia) ArtistDetail(ctx context.Context, artistID string) (*musicbrainz.Artist, error) {
	return f.artistDetails[artistID], nil
}

type fakeEditorial struct {
	refs  []jazzstandards.SongRef
	pages map[string]*jazzstandards.SongPage
}

func (f *fakeEditorial) ListAll(ctx context.Context) ([]jazzstandards.SongRef, error) {
	return f.refs, nil
}

func (f *fakeEditorial) SongDetail(ctx context.Context, pageURL string) (*jazzstandards.SongPage, error) {
	return f.pages[pageURL], nil
}

type fakeCovers struct {
	results map[string]*coverart.Result
	calls   int
}

func (f *fakeCovers) ReleaseImages(ctx context.Context, releaseID string) (*coverart.Result, error) {
	f.calls++
	if r, ok := f.results[releaseID]; ok {
		return r, nil
	}
	return &coverart.Result{Checked: true}, nil
}

type fakeAlbumCatalog struct {
	albums       []itunes.Album
	albumsByTerm map[string][]itunes.Album
	tracks       []itunes.Track
}

func (f *fakeAlbumCatalog) SearchAlbums(ctx context.Context, term string) ([]itunes.Album, error) {
	if f.albumsByTerm != nil {
		return f.albumsByTerm[term], nil
	}
	return f.albums, nil
}

func (f *fakeAlbumCatalog) SearchTracks(ctx context.Context, term string) ([]itunes.Track, error) {
	return f.tracks, nil
}

type fakeTrackCatalog struct {
	albums []spotify.Album
	tracks []spotify.Track
}

func (f *fakeTrackCatalog) SearchTrack(ctx context.Context, title, artist, album string) ([]spotify.Track, error) {
	return f.tracks, nil
}

func (f *fakeTrackCatalog) SearchAlbums(ctx context.Context, title, artist string) ([]spotify.Album, error) {
	return f.albums, nil
}

type fakePortraits struct {
	byName map[string][]wikimedia.Portrait
}

func (f *fakePortraits) SearchPortraits(ctx context.Context, performerName string, limit int) ([]wikimedia.Portrait, error) {
	return f.byName[performerName], nil
}
