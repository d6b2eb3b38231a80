package importer

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider/musicbrainz"
	"github.com/jazzvault/JazzVault/internal/resolve"
)

// Relation types that mark studio staff rather than players.
var nonPerformingRelations = map[string]bool{
	"engineer":  true,
	"producer":  true,
	"mix":       true,
	"mastering": true,
}

// importedRecording is what one successful recording import hands to the
// cover and streaming stages.
type importedRecording struct {
	Recording  *models.Recording
	Releases   []*models.Release
	LeaderName string
}

// importRecording ingests one recording inside a single transaction. It
// returns nil when the recording already exists (skip), and the imported
// shape otherwise. Write order is fixed: recording, releases, performers
// and instruments, release links, performer links, default release.
func (i *Importer) importRecording(ctx context.Context, song *models.Song, ref musicbrainz.RecordingRef, dryRun bool) (*importedRecording, error) {
	existing, err := i.store.FindRecordingByExternalID(ref.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	detail, err := i.encyclopedia.RecordingDetail(ctx, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("recording detail: %w", err)
	}

	// Some recordings carry no artist-rels of their own; the first release
	// usually does.
	relations := detail.Relations
	if len(relations) == 0 && len(detail.Releases) > 0 {
		relDetail, err := i.encyclopedia.ReleaseDetail(ctx, detail.Releases[0].ID)
		if err != nil {
			log.Printf("Import: release detail fallback for %s: %v", detail.Releases[0].ID, err)
		} else {
			relations = relDetail.Relations
		}
	}

	leaders := newLeaderSet(detail)

	result := &importedRecording{LeaderName: leaders.displayName}
	build := func(tx DataStore) error {
		externalID := ref.ID
		rec := &models.Recording{
			ID:                  uuid.New(),
			SongID:              song.ID,
			RecordingYear:       detail.Year,
			RecordingDate:       detail.Date,
			ExternalRecordingID: &externalID,
		}
		if len(detail.Releases) > 0 {
			rec.AlbumTitle = &detail.Releases[0].Title
		}
		final, err := tx.UpsertRecording(rec)
		if err != nil {
			return err
		}
		result.Recording = final

		var releases []*models.Release
		for _, rr := range detail.Releases {
			externalReleaseID := rr.ID
			credit := rr.ArtistCredit
			rel := &models.Release{
				ID:                uuid.New(),
				Title:             rr.Title,
				ReleaseYear:       rr.Year,
				ExternalReleaseID: &externalReleaseID,
			}
			if credit != "" {
				rel.ArtistCredit = &credit
			}
			finalRel, err := tx.UpsertRelease(rel)
			if err != nil {
				return err
			}
			releases = append(releases, finalRel)
		}
		result.Releases = releases

		if err := i.importPerformers(ctx, tx, final.ID, relations, leaders); err != nil {
			return err
		}

		for idx, rr := range detail.Releases {
			link := &models.RecordingRelease{
				RecordingID: final.ID,
				ReleaseID:   releases[idx].ID,
				DiscNumber:  rr.DiscNumber,
				TrackNumber: rr.TrackNumber,
				TrackTitle:  rr.TrackTitle,
			}
			if _, err := tx.LinkRecordingRelease(link); err != nil {
				return err
			}
		}

		if err := ensureLeader(tx, final.ID); err != nil {
			return err
		}

		if len(releases) > 0 {
			if err := tx.SetDefaultRelease(final.ID, releases[0].ID); err != nil {
				return err
			}
		}
		return nil
	}

	if dryRun {
		// Preview: everything above this point was reads; fabricate the
		// result shape without touching the store.
		externalID := ref.ID
		result.Recording = &models.Recording{
			ID:                  uuid.New(),
			SongID:              song.ID,
			RecordingYear:       detail.Year,
			ExternalRecordingID: &externalID,
		}
		return result, nil
	}

	if err := i.store.InTransaction(build); err != nil {
		return nil, err
	}
	return result, nil
}

// importPerformers writes one recording_performers row per (performer,
// instrument) named by the artist relations.
func (i *Importer) importPerformers(ctx context.Context, tx DataStore, recordingID uuid.UUID, relations []musicbrainz.ArtistRelation, leaders *leaderSet) error {
	for _, rel := range relations {
		role := classifyRole(rel, leaders)

		performer, err := i.resolvePerformer(ctx, tx, rel.Artist)
		if err != nil {
			return err
		}

		if role == models.RoleOther || len(rel.Instruments) == 0 {
			link := &models.RecordingPerformer{
				RecordingID: recordingID,
				PerformerID: performer.ID,
				Role:        role,
			}
			if err := tx.LinkRecordingPerformer(link); err != nil {
				return err
			}
			continue
		}

		for _, name := range rel.Instruments {
			instrument, err := tx.FindOrCreateInstrument(name)
			if err != nil {
				return err
			}
			link := &models.RecordingPerformer{
				RecordingID:  recordingID,
				PerformerID:  performer.ID,
				InstrumentID: &instrument.ID,
				Role:         role,
			}
			if err := tx.LinkRecordingPerformer(link); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureLeader promotes the first non-"other" performer when the role
// assignment produced no leader at all.
func ensureLeader(tx DataStore, recordingID uuid.UUID) error {
	links, err := tx.ListRecordingPerformers(recordingID)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	for _, link := range links {
		if link.Role == models.RoleLeader {
			return nil
		}
	}
	for _, link := range links {
		if link.Role != models.RoleOther {
			return tx.PromoteToLeader(recordingID, link.PerformerID)
		}
	}
	return nil
}

// ──────────────────── Performer reconciliation ────────────────────

// resolvePerformer maps an incoming artist credit to a performer row,
// reusing spelling variants already in the store ("Charlie Mingus" lands on
// an existing "Charles Mingus") instead of minting duplicates.
func (i *Importer) resolvePerformer(ctx context.Context, tx DataStore, ref musicbrainz.ArtistRef) (*models.Performer, error) {
	if ref.ID != "" {
		existing, err := tx.FindPerformerByExternalID(ref.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	match, err := i.matchStoredPerformer(ctx, tx, ref)
	if err != nil {
		return nil, err
	}
	if match != nil {
		return i.adoptPerformer(tx, match, ref)
	}

	p := &models.Performer{Name: ref.Name, ArtistType: models.ArtistTypePerson}
	if ref.ID != "" {
		externalID := ref.ID
		p.ExternalArtistID = &externalID
	}
	return tx.UpsertPerformer(p)
}

// matchStoredPerformer finds the stored row the credit most plausibly
// refers to: an exact name hit, or a fuzzy candidate clearing the
// auto-match threshold. Ambiguous fuzzy hits fall back to a birth-year
// check against the encyclopedia before giving up.
func (i *Importer) matchStoredPerformer(ctx context.Context, tx DataStore, ref musicbrainz.ArtistRef) (*models.Performer, error) {
	exact, err := tx.FindPerformerByName(ref.Name)
	if err != nil {
		return nil, err
	}
	if exact != nil && adoptable(exact, ref.ID) {
		return exact, nil
	}

	candidates, err := tx.SearchPerformers(nameFragment(ref.Name), 10)
	if err != nil {
		return nil, err
	}
	var matches []*models.Performer
	for _, c := range candidates {
		if !adoptable(c, ref.ID) {
			continue
		}
		if resolve.Score(ref.Name, c.Name) >= i.opts.AutoMatchMinScore {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	}

	// Several stored names score alike; let the artist's birth year pick.
	year := i.artistBirthYear(ctx, ref)
	if year == 0 {
		return nil, nil
	}
	var picked *models.Performer
	for _, m := range matches {
		if birthYearOf(m) != year {
			continue
		}
		if picked != nil {
			return nil, nil
		}
		picked = m
	}
	return picked, nil
}

// adoptPerformer reuses a matched row for the incoming credit, binding it
// to the credit's external artist id when it had none.
func (i *Importer) adoptPerformer(tx DataStore, match *models.Performer, ref musicbrainz.ArtistRef) (*models.Performer, error) {
	if ref.ID != "" && match.ExternalArtistID == nil {
		if err := tx.SetPerformerExternalID(match.ID, ref.ID); err != nil {
			return nil, err
		}
		externalID := ref.ID
		match.ExternalArtistID = &externalID
		log.Printf("Import: matched %q to stored performer %q", ref.Name, match.Name)
	}
	return match, nil
}

// adoptable reports whether a stored row may stand in for a credit with
// the given external id. A row already bound to a different artist id is
// a different person no matter how close the names are.
func adoptable(p *models.Performer, externalID string) bool {
	if p.ExternalArtistID == nil {
		return true
	}
	return externalID != "" && *p.ExternalArtistID == externalID
}

// nameFragment returns the search fragment for fuzzy candidates: the last
// name token, since first names are where spelling variants live.
func nameFragment(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[len(fields)-1]
}

// artistBirthYear asks the encyclopedia for the credit's birth year, or 0.
func (i *Importer) artistBirthYear(ctx context.Context, ref musicbrainz.ArtistRef) int {
	var artist *musicbrainz.Artist
	var err error
	if ref.ID != "" {
		artist, err = i.encyclopedia.ArtistDetail(ctx, ref.ID)
	} else {
		var hits []musicbrainz.Artist
		hits, err = i.encyclopedia.SearchArtists(ctx, ref.Name)
		if len(hits) > 0 {
			artist = &hits[0]
		}
	}
	if err != nil || artist == nil || artist.BirthDate == nil {
		return 0
	}
	return yearOf(*artist.BirthDate)
}

func birthYearOf(p *models.Performer) int {
	if p.BirthDate == nil {
		return 0
	}
	return yearOf(*p.BirthDate)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// ──────────────────── Leader derivation ────────────────────

// leaderSet holds the identities derived from the provider's artist credit:
// external ids, exact normalized names, and ensemble core names for the
// group-leader rule ("Ahmad Jamal Trio" makes Ahmad Jamal the leader).
type leaderSet struct {
	ids         map[string]bool
	names       map[string]bool
	cores       map[string]bool
	displayName string
}

// newLeaderSet builds the leader identities from a recording's artist
// credit, falling back to the first release's credit string.
func newLeaderSet(detail *musicbrainz.Recording) *leaderSet {
	l := &leaderSet{
		ids:   make(map[string]bool),
		names: make(map[string]bool),
		cores: make(map[string]bool),
	}

	for _, credit := range detail.ArtistCredit {
		l.add(credit.ID, credit.Name)
	}
	if len(l.names) == 0 && len(detail.Releases) > 0 {
		l.add("", detail.Releases[0].ArtistCredit)
	}
	return l
}

func (l *leaderSet) add(id, name string) {
	if id != "" {
		l.ids[id] = true
	}
	if name == "" {
		return
	}
	if l.displayName == "" {
		l.displayName = name
	}
	norm := resolve.NormalizeTitle(name)
	l.names[norm] = true
	if core := resolve.CoreName(name); core != norm {
		l.cores[core] = true
	}
}

func (l *leaderSet) contains(ref musicbrainz.ArtistRef) bool {
	if ref.ID != "" && l.ids[ref.ID] {
		return true
	}
	norm := resolve.NormalizeTitle(ref.Name)
	return l.names[norm] || l.cores[norm]
}

func classifyRole(rel musicbrainz.ArtistRelation, leaders *leaderSet) models.Role {
	if nonPerformingRelations[rel.Type] {
		return models.RoleOther
	}
	if leaders.contains(rel.Artist) {
		return models.RoleLeader
	}
	return models.RoleSideman
}
