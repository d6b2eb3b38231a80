package importer

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider/coverart"
	"github.com/jazzvault/JazzVault/internal/provider/itunes"
	"github.com/jazzvault/JazzVault/internal/provider/jazzstandards"
	"github.com/jazzvault/JazzVault/internal/provider/musicbrainz"
	"github.com/jazzvault/JazzVault/internal/provider/spotify"
	"github.com/jazzvault/JazzVault/internal/provider/wikimedia"
)

func takeFiveEncyclopedia() *fakeEncyclopedia {
	year := 1959
	disc, track := 1, 3
	trackTitle := "Take Five"
	rec := &musicbrainz.Recording{
		ID:    "rec-take-five",
		Title: "Take Five",
		Year:  &year,
		ArtistCredit: []musicbrainz.ArtistRef{
			{ID: "mb-dbq", Name: "The Dave Brubeck Quartet"},
		},
		Releases: []musicbrainz.ReleaseRef{{
			ID:           "rel-time-out",
			Title:        "Time Out",
			Year:         &year,
			ArtistCredit: "The Dave Brubeck Quartet",
			DiscNumber:   &disc,
			TrackNumber:  &track,
			TrackTitle:   &trackTitle,
		}},
		Relations: []musicbrainz.ArtistRelation{
			{Type: "instrument", Artist: musicbrainz.ArtistRef{ID: "mb-brubeck", Name: "Dave Brubeck"}, Instruments: []string{"piano"}},
			{Type: "instrument", Artist: musicbrainz.ArtistRef{ID: "mb-desmond", Name: "Paul Desmond"}, Instruments: []string{"alto saxophone"}},
			{Type: "producer", Artist: musicbrainz.ArtistRef{ID: "mb-macero", Name: "Teo Macero"}},
		},
	}
	return &fakeEncyclopedia{
		works: []musicbrainz.WorkRef{{ID: "work-take-five", Title: "Take Five"}},
		work: &musicbrainz.Work{
			ID:         "work-take-five",
			Title:      "Take Five",
			Recordings: []musicbrainz.RecordingRef{{ID: "rec-take-five", Title: "Take Five"}},
		},
		recordings: map[string]*musicbrainz.Recording{"rec-take-five": rec},
	}
}

func takeFiveEditorial() *fakeEditorial {
	year := 1959
	return &fakeEditorial{
		refs: []jazzstandards.SongRef{{Title: "Take Five", URL: "https://example.com/take-five.htm"}},
		pages: map[string]*jazzstandards.SongPage{
			"https://example.com/take-five.htm": {
				Composer:    "Paul Desmond",
				Year:        &year,
				Description: "The quartet's biggest hit, written in 5/4 time.",
			},
		},
	}
}

func newTestImporter(store DataStore, enc Encyclopedia, ed Editorial, covers CoverSource, albums AlbumCatalog, tracks TrackCatalog, portraits PortraitSource) *Importer {
	if covers == nil {
		covers = &fakeCovers{}
	}
	if albums == nil {
		albums = &fakeAlbumCatalog{}
	}
	return New(store, ed, enc, covers, albums, tracks, portraits, Options{})
}

func performerByName(store *fakeStore, name string) *models.Performer {
	for _, p := range store.performers {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func roleOf(store *fakeStore, recordingID uuid.UUID, performer *models.Performer) models.Role {
	for _, link := range store.recPerformers {
		if link.RecordingID == recordingID && link.PerformerID == performer.ID {
			return link.Role
		}
	}
	return ""
}

func TestImportSongCreatesFullGraph(t *testing.T) {
	store := newFakeStore()
	covers := &fakeCovers{results: map[string]*coverart.Result{
		"rel-time-out": {Checked: true, Images: []coverart.Image{{
			SourceID:  "42",
			SourceURL: "https://archive.example/img/42.jpg",
			Front:     true,
			SmallURL:  "https://archive.example/img/42-250.jpg",
			MediumURL: "https://archive.example/img/42-500.jpg",
			LargeURL:  "https://archive.example/img/42.jpg",
		}}},
	}}
	imp := newTestImporter(store, takeFiveEncyclopedia(), takeFiveEditorial(), covers, nil, nil, nil)

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	require.True(t, summary.Success)
	assert.Equal(t, 1, summary.Stats.Found)
	assert.Equal(t, 1, summary.Stats.Imported)
	assert.Empty(t, summary.Errors)

	// Song seeded from the editorial page.
	require.Len(t, store.songs, 1)
	song := store.songs[0]
	require.NotNil(t, song.Composer)
	assert.Equal(t, "Paul Desmond", *song.Composer)
	require.NotNil(t, song.ExternalWorkID)
	assert.Equal(t, "work-take-five", *song.ExternalWorkID)

	// Recording and its default release.
	require.Len(t, store.recordings, 1)
	rec := store.recordings[0]
	require.NotNil(t, rec.AlbumTitle)
	assert.Equal(t, "Time Out", *rec.AlbumTitle)
	require.NotNil(t, rec.RecordingYear)
	assert.Equal(t, 1959, *rec.RecordingYear)
	require.Len(t, store.releases, 1)
	require.NotNil(t, rec.DefaultReleaseID)
	assert.Equal(t, store.releases[0].ID, *rec.DefaultReleaseID)

	// Track position on the release link.
	require.Len(t, store.recReleases, 1)
	link := store.recReleases[0]
	require.NotNil(t, link.TrackNumber)
	assert.Equal(t, 3, *link.TrackNumber)
	require.NotNil(t, link.TrackTitle)
	assert.Equal(t, "Take Five", *link.TrackTitle)

	// Roles: the ensemble credit makes Brubeck the leader, Desmond stays a
	// sideman, and the producer is non-performing.
	brubeck := performerByName(store, "Dave Brubeck")
	require.NotNil(t, brubeck)
	assert.Equal(t, models.RoleLeader, roleOf(store, rec.ID, brubeck))

	desmond := performerByName(store, "Paul Desmond")
	require.NotNil(t, desmond)
	assert.Equal(t, models.RoleSideman, roleOf(store, rec.ID, desmond))

	macero := performerByName(store, "Teo Macero")
	require.NotNil(t, macero)
	assert.Equal(t, models.RoleOther, roleOf(store, rec.ID, macero))

	// Desmond's row carries the instrument.
	require.Len(t, store.instruments, 2)
	var desmondLink *models.RecordingPerformer
	for _, l := range store.recPerformers {
		if l.PerformerID == desmond.ID {
			desmondLink = l
		}
	}
	require.NotNil(t, desmondLink)
	require.NotNil(t, desmondLink.InstrumentID)

	// Cover art was polled, stored, and the release stamped.
	require.Len(t, store.imagery, 1)
	assert.Equal(t, models.ImagerySourceCoverArt, store.imagery[0].Source)
	assert.Equal(t, models.ImageryTypeFront, store.imagery[0].Type)
	assert.NotNil(t, store.releases[0].CoverArtCheckedAt)
}

func TestImportSongSecondRunSkips(t *testing.T) {
	store := newFakeStore()
	imp := newTestImporter(store, takeFiveEncyclopedia(), takeFiveEditorial(), nil, nil, nil, nil)

	first, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	require.Equal(t, 1, first.Stats.Imported)

	second, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Stats.Imported)
	assert.Equal(t, 1, second.Stats.Skipped)
	assert.Len(t, store.recordings, 1)
	assert.Len(t, store.songs, 1)
}

func TestImportSongDryRunWritesNothing(t *testing.T) {
	store := newFakeStore()
	imp := newTestImporter(store, takeFiveEncyclopedia(), takeFiveEditorial(), nil, nil, nil, nil)

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Take Five", DryRun: true})
	require.NoError(t, err)
	require.True(t, summary.Success)
	assert.Equal(t, 1, summary.Stats.Imported)

	assert.Empty(t, store.songs)
	assert.Empty(t, store.recordings)
	assert.Empty(t, store.releases)
	assert.Empty(t, store.recPerformers)
	assert.Empty(t, store.imagery)
}

func TestImportSongNoWorkMatch(t *testing.T) {
	store := newFakeStore()
	enc := &fakeEncyclopedia{
		works: []musicbrainz.WorkRef{{ID: "work-other", Title: "Something Else Entirely"}},
	}
	imp := newTestImporter(store, enc, takeFiveEditorial(), nil, nil, nil, nil)

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	assert.False(t, summary.Success)
	assert.Equal(t, 1, summary.Stats.Errors)
	require.Len(t, store.songs, 1)
	assert.Nil(t, store.songs[0].ExternalWorkID)
}

func TestImportSongPromotesLeaderWhenCreditUnmatched(t *testing.T) {
	enc := takeFiveEncyclopedia()
	rec := enc.recordings["rec-take-five"]
	rec.ArtistCredit = []musicbrainz.ArtistRef{{ID: "mb-festival", Name: "Newport All Stars"}}

	store := newFakeStore()
	imp := newTestImporter(store, enc, takeFiveEditorial(), nil, nil, nil, nil)

	_, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)

	recording := store.recordings[0]
	brubeck := performerByName(store, "Dave Brubeck")
	require.NotNil(t, brubeck)
	assert.Equal(t, models.RoleLeader, roleOf(store, recording.ID, brubeck))

	desmond := performerByName(store, "Paul Desmond")
	require.NotNil(t, desmond)
	assert.Equal(t, models.RoleSideman, roleOf(store, recording.ID, desmond))
}

func TestImportSongReleaseRelationsFallback(t *testing.T) {
	enc := takeFiveEncyclopedia()
	rec := enc.recordings["rec-take-five"]
	relations := rec.Relations
	rec.Relations = nil
	enc.releaseRels = map[string]*musicbrainz.Release{
		"rel-time-out": {ID: "rel-time-out", Title: "Time Out", Relations: relations},
	}

	store := newFakeStore()
	imp := newTestImporter(store, enc, takeFiveEditorial(), nil, nil, nil, nil)

	_, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	assert.Len(t, store.performers, 3)
}

func TestImportPerformerSpellingVariantReused(t *testing.T) {
	store := newFakeStore()
	store.performers = append(store.performers, &models.Performer{
		ID: uuid.New(), Name: "Charles Mingus", ArtistType: models.ArtistTypePerson,
	})

	enc := &fakeEncyclopedia{
		works: []musicbrainz.WorkRef{{ID: "work-gpph", Title: "Goodbye Pork Pie Hat"}},
		work: &musicbrainz.Work{
			ID:         "work-gpph",
			Title:      "Goodbye Pork Pie Hat",
			Recordings: []musicbrainz.RecordingRef{{ID: "rec-gpph", Title: "Goodbye Pork Pie Hat"}},
		},
		recordings: map[string]*musicbrainz.Recording{"rec-gpph": {
			ID:    "rec-gpph",
			Title: "Goodbye Pork Pie Hat",
			ArtistCredit: []musicbrainz.ArtistRef{
				{ID: "mb-mingus", Name: "Charlie Mingus"},
			},
			Relations: []musicbrainz.ArtistRelation{
				{Type: "instrument", Artist: musicbrainz.ArtistRef{ID: "mb-mingus", Name: "Charlie Mingus"}, Instruments: []string{"double bass"}},
			},
		}},
	}
	imp := newTestImporter(store, enc, nil, nil, nil, nil, nil)

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Goodbye Pork Pie Hat"})
	require.NoError(t, err)
	require.True(t, summary.Success)

	// The credit's spelling variant lands on the stored row instead of
	// minting a second Mingus.
	require.Len(t, store.performers, 1)
	mingus := store.performers[0]
	assert.Equal(t, "Charles Mingus", mingus.Name)
	require.NotNil(t, mingus.ExternalArtistID)
	assert.Equal(t, "mb-mingus", *mingus.ExternalArtistID)
}

func TestImportPerformerBirthYearTiebreak(t *testing.T) {
	born1916 := "1916-07-25"
	born1980 := "1980-01-01"
	store := newFakeStore()
	store.performers = append(store.performers,
		&models.Performer{ID: uuid.New(), Name: "John Hodges", BirthDate: &born1916, ArtistType: models.ArtistTypePerson},
		&models.Performer{ID: uuid.New(), Name: "Jonny Hodges", BirthDate: &born1980, ArtistType: models.ArtistTypePerson},
	)

	enc := &fakeEncyclopedia{
		works: []musicbrainz.WorkRef{{ID: "work-kiss", Title: "Prelude to a Kiss"}},
		work: &musicbrainz.Work{
			ID:         "work-kiss",
			Title:      "Prelude to a Kiss",
			Recordings: []musicbrainz.RecordingRef{{ID: "rec-kiss", Title: "Prelude to a Kiss"}},
		},
		recordings: map[string]*musicbrainz.Recording{"rec-kiss": {
			ID:    "rec-kiss",
			Title: "Prelude to a Kiss",
			ArtistCredit: []musicbrainz.ArtistRef{
				{ID: "mb-hodges", Name: "Johnny Hodges"},
			},
			Relations: []musicbrainz.ArtistRelation{
				{Type: "instrument", Artist: musicbrainz.ArtistRef{ID: "mb-hodges", Name: "Johnny Hodges"}, Instruments: []string{"alto saxophone"}},
			},
		}},
		artistDetails: map[string]*musicbrainz.Artist{
			"mb-hodges": {ID: "mb-hodges", Name: "Johnny Hodges", BirthDate: &born1916},
		},
	}
	// A lower threshold lets both stored spellings into the candidate set,
	// which is exactly when the birth year has to decide.
	imp := New(store, nil, enc, &fakeCovers{}, &fakeAlbumCatalog{}, nil, nil, Options{AutoMatchMinScore: 80})

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Prelude to a Kiss"})
	require.NoError(t, err)
	require.True(t, summary.Success)

	require.Len(t, store.performers, 2)
	matched := performerByName(store, "John Hodges")
	require.NotNil(t, matched)
	require.NotNil(t, matched.ExternalArtistID)
	assert.Equal(t, "mb-hodges", *matched.ExternalArtistID)

	other := performerByName(store, "Jonny Hodges")
	require.NotNil(t, other)
	assert.Nil(t, other.ExternalArtistID)
}

func TestImportSongAdoptsExistingSongByWorkID(t *testing.T) {
	workID := "work-take-five"
	store := newFakeStore()
	existing := &models.Song{ID: uuid.New(), Title: "Take 5", ExternalWorkID: &workID}
	store.songs = append(store.songs, existing)

	imp := newTestImporter(store, takeFiveEncyclopedia(), nil, nil, nil, nil, nil)

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	require.True(t, summary.Success)

	// The seed title resolved to the same work, so no duplicate song row.
	assert.Equal(t, existing.ID, summary.SongID)
	assert.Len(t, store.songs, 1)
}

func TestImportSongBackfillsComposer(t *testing.T) {
	store := newFakeStore()
	store.songs = append(store.songs, &models.Song{ID: uuid.New(), Title: "Take Five"})

	imp := newTestImporter(store, takeFiveEncyclopedia(), takeFiveEditorial(), nil, nil, nil, nil)

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	require.True(t, summary.Success)

	require.Len(t, store.songs, 1)
	song := store.songs[0]
	require.NotNil(t, song.Composer)
	assert.Equal(t, "Paul Desmond", *song.Composer)
	require.NotNil(t, song.Year)
	assert.Equal(t, 1959, *song.Year)
}

func TestMatchStreamingWritesLinksAndArtwork(t *testing.T) {
	store := newFakeStore()
	albums := &fakeAlbumCatalog{
		albums: []itunes.Album{{
			CollectionID:  12345,
			Title:         "Time Out",
			ArtistName:    "The Dave Brubeck Quartet",
			URL:           "https://music.example/album/12345",
			ArtworkSmall:  "https://img.example/100x100.jpg",
			ArtworkMedium: "https://img.example/500x500.jpg",
			ArtworkLarge:  "https://img.example/600x600.jpg",
		}},
		tracks: []itunes.Track{{
			TrackID:      777,
			CollectionID: 12345,
			Title:        "Take Five",
			AlbumTitle:   "Time Out",
			URL:          "https://music.example/track/777",
		}},
	}
	tracks := &fakeTrackCatalog{
		albums: []spotify.Album{{ID: "sp-album", Title: "Time Out", ArtistName: "The Dave Brubeck Quartet", URL: "https://sp.example/album"}},
		tracks: []spotify.Track{{ID: "sp-track", Title: "Take Five", AlbumTitle: "Time Out", URL: "https://sp.example/track"}},
	}
	imp := newTestImporter(store, takeFiveEncyclopedia(), takeFiveEditorial(), nil, albums, tracks, nil)

	summary, err := imp.ImportSong(context.Background(), Request{Title: "Take Five", WithStreaming: true})
	require.NoError(t, err)
	require.True(t, summary.Success)

	require.Len(t, store.releaseLinks, 2)
	byService := map[models.StreamingService]*models.ReleaseStreamingLink{}
	for _, l := range store.releaseLinks {
		byService[l.Service] = l
	}
	require.Contains(t, byService, models.ServiceITunes)
	assert.Equal(t, "12345", byService[models.ServiceITunes].ServiceID)
	assert.Equal(t, models.MatchFuzzySearch, byService[models.ServiceITunes].MatchMethod)
	require.Contains(t, byService, models.ServiceSpotify)
	assert.Equal(t, "sp-album", byService[models.ServiceSpotify].ServiceID)

	require.Len(t, store.trackLinks, 2)

	// The catalog artwork landed as a second imagery source.
	found := false
	for _, img := range store.imagery {
		if img.Source == models.ImagerySourceITunes && img.Type == models.ImageryTypeFront {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMatchStreamingKeepsManualLink(t *testing.T) {
	store := newFakeStore()
	albums := &fakeAlbumCatalog{
		albums: []itunes.Album{{CollectionID: 999, Title: "Time Out", ArtistName: "The Dave Brubeck Quartet"}},
	}
	imp := newTestImporter(store, takeFiveEncyclopedia(), takeFiveEditorial(), nil, albums, nil, nil)

	// First import creates the release; then a curator pins a manual link.
	_, err := imp.ImportSong(context.Background(), Request{Title: "Take Five"})
	require.NoError(t, err)
	require.Len(t, store.releases, 1)
	manual := &models.ReleaseStreamingLink{
		ReleaseID:   store.releases[0].ID,
		Service:     models.ServiceITunes,
		ServiceID:   "curated-111",
		MatchMethod: models.MatchManual,
	}
	_, err = store.UpsertReleaseStreamingLink(manual)
	require.NoError(t, err)

	song := store.songs[0]
	err = imp.matchStreaming(context.Background(), song, importedRecording{
		Recording:  store.recordings[0],
		Releases:   store.releases,
		LeaderName: "The Dave Brubeck Quartet",
	})
	require.NoError(t, err)

	require.Len(t, store.releaseLinks, 1)
	assert.Equal(t, "curated-111", store.releaseLinks[0].ServiceID)
	assert.Equal(t, models.MatchManual, store.releaseLinks[0].MatchMethod)
}

func TestStreamingRepairMarksMethod(t *testing.T) {
	store := newFakeStore()
	credit := "The Dave Brubeck Quartet"
	store.releases = append(store.releases, &models.Release{
		ID: uuid.New(), Title: "Time Out", ArtistCredit: &credit,
	})
	albums := &fakeAlbumCatalog{
		albums: []itunes.Album{{CollectionID: 555, Title: "Time Out", ArtistName: credit}},
	}
	imp := newTestImporter(store, takeFiveEncyclopedia(), nil, nil, albums, nil, nil)

	stats, err := imp.StreamingRepair(context.Background(), models.ServiceITunes, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Found)
	assert.Equal(t, 1, stats.Updated)

	require.Len(t, store.releaseLinks, 1)
	assert.Equal(t, models.MatchRepairScript, store.releaseLinks[0].MatchMethod)
}

func TestStreamingRepairFallsBackToTitleTerm(t *testing.T) {
	store := newFakeStore()
	credit := "Charles Mingus"
	store.releases = append(store.releases, &models.Release{
		ID: uuid.New(), Title: "Mingus Ah Um", ArtistCredit: &credit,
	})
	// The catalog only answers the bare-title query; the combined
	// title+artist term comes back empty.
	albums := &fakeAlbumCatalog{albumsByTerm: map[string][]itunes.Album{
		"Mingus Ah Um": {{CollectionID: 321, Title: "Mingus Ah Um", ArtistName: credit}},
	}}
	imp := newTestImporter(store, takeFiveEncyclopedia(), nil, nil, albums, nil, nil)

	stats, err := imp.StreamingRepair(context.Background(), models.ServiceITunes, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	require.Len(t, store.releaseLinks, 1)
	assert.Equal(t, "321", store.releaseLinks[0].ServiceID)
}

func TestStreamingRepairRequiresSpotifyCredentials(t *testing.T) {
	imp := newTestImporter(newFakeStore(), takeFiveEncyclopedia(), nil, nil, nil, nil, nil)
	_, err := imp.StreamingRepair(context.Background(), models.ServiceSpotify, 10)
	require.Error(t, err)
}

func TestCoverBackfillStampsNegativeResults(t *testing.T) {
	store := newFakeStore()
	withArt := "rel-with-art"
	without := "rel-without-art"
	store.releases = append(store.releases,
		&models.Release{ID: uuid.New(), Title: "Time Out", ExternalReleaseID: &withArt},
		&models.Release{ID: uuid.New(), Title: "Time Further Out", ExternalReleaseID: &without},
	)
	covers := &fakeCovers{results: map[string]*coverart.Result{
		"rel-with-art": {Checked: true, Images: []coverart.Image{{Front: true, LargeURL: "https://img.example/a.jpg"}}},
	}}
	imp := newTestImporter(store, takeFiveEncyclopedia(), nil, covers, nil, nil, nil)

	stats, err := imp.CoverBackfill(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Found)
	assert.Equal(t, 2, stats.Updated)

	assert.Len(t, store.imagery, 1)
	for _, rel := range store.releases {
		assert.NotNil(t, rel.CoverArtCheckedAt, rel.Title)
	}

	// Everything is stamped, so a second pass finds nothing.
	stats, err = imp.CoverBackfill(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Found)
}

func TestPortraitBackfillPrefersUsableLicense(t *testing.T) {
	store := newFakeStore()
	store.performers = append(store.performers,
		&models.Performer{ID: uuid.New(), Name: "Paul Desmond", ArtistType: models.ArtistTypePerson},
		&models.Performer{ID: uuid.New(), Name: "Obscure Sideman", ArtistType: models.ArtistTypePerson},
	)
	portraits := &fakePortraits{byName: map[string][]wikimedia.Portrait{
		"Paul Desmond": {
			{URL: "https://commons.example/desmond-unfree.jpg", License: models.LicenseUnknown},
			{URL: "https://commons.example/desmond.jpg", License: models.LicenseCCBY, Attribution: "Somebody"},
		},
	}}
	imp := newTestImporter(store, takeFiveEncyclopedia(), nil, nil, nil, nil, portraits)

	stats, err := imp.PortraitBackfill(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Found)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Skipped)

	require.Len(t, store.images, 1)
	assert.Equal(t, "https://commons.example/desmond.jpg", store.images[0].URL)
	assert.Equal(t, models.LicenseCCBY, store.images[0].License)
	require.Len(t, store.artistImages, 1)
}

func TestSyncIndexCreatesStubs(t *testing.T) {
	store := newFakeStore()
	store.songs = append(store.songs, &models.Song{ID: uuid.New(), Title: "Take Five"})
	year := 1927
	ed := &fakeEditorial{
		refs: []jazzstandards.SongRef{
			{Title: "Take Five", URL: "https://example.com/take-five.htm"},
			{Title: "Stardust", URL: "https://example.com/stardust.htm"},
		},
		pages: map[string]*jazzstandards.SongPage{
			"https://example.com/stardust.htm": {Composer: "Hoagy Carmichael", Year: &year},
		},
	}
	imp := newTestImporter(store, takeFiveEncyclopedia(), ed, nil, nil, nil, nil)

	stats, err := imp.SyncIndex(context.Background(), 0, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Found)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Skipped)

	require.Len(t, store.songs, 2)
	stardust := store.songs[1]
	assert.Equal(t, "Stardust", stardust.Title)
	require.NotNil(t, stardust.Composer)
	assert.Equal(t, "Hoagy Carmichael", *stardust.Composer)

	// Dry-run reports without writing.
	stats, err = imp.SyncIndex(context.Background(), 0, true)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Imported)
	assert.Equal(t, 2, stats.Skipped)
	assert.Len(t, store.songs, 2)
}

func TestPortraitBackfillWithoutSource(t *testing.T) {
	imp := newTestImporter(newFakeStore(), takeFiveEncyclopedia(), nil, nil, nil, nil, nil)
	_, err := imp.PortraitBackfill(context.Background(), 10)
	require.Error(t, err)
}
