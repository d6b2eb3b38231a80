package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

// LinkRepository owns the recording↔release and recording↔performer link
// tables.
type LinkRepository struct {
	q DBTX
}

// ──────────────────── recording_releases ────────────────────

// LinkRecordingRelease upserts the (recording, release) pair, filling in
// track position data when it was previously missing, and returns the final
// row.
func (r *LinkRepository) LinkRecordingRelease(link *models.RecordingRelease) (*models.RecordingRelease, error) {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	row := r.q.QueryRow(`INSERT INTO recording_releases (id, recording_id, release_id, disc_number, track_number, track_title)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (recording_id, release_id) DO UPDATE SET
			disc_number = COALESCE(recording_releases.disc_number, EXCLUDED.disc_number),
			track_number = COALESCE(recording_releases.track_number, EXCLUDED.track_number),
			track_title = COALESCE(recording_releases.track_title, EXCLUDED.track_title)
		RETURNING id, recording_id, release_id, disc_number, track_number, track_title, created_at`,
		link.ID, link.RecordingID, link.ReleaseID, link.DiscNumber, link.TrackNumber, link.TrackTitle)

	final := &models.RecordingRelease{}
	err := row.Scan(&final.ID, &final.RecordingID, &final.ReleaseID,
		&final.DiscNumber, &final.TrackNumber, &final.TrackTitle, &final.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("link recording %s to release %s: %w", link.RecordingID, link.ReleaseID, err)
	}
	return final, nil
}

// FindRecordingRelease returns the link row for a pair, or nil.
func (r *LinkRepository) FindRecordingRelease(recordingID, releaseID uuid.UUID) (*models.RecordingRelease, error) {
	link := &models.RecordingRelease{}
	err := r.q.QueryRow(`SELECT id, recording_id, release_id, disc_number, track_number, track_title, created_at
		FROM recording_releases WHERE recording_id = $1 AND release_id = $2`, recordingID, releaseID).
		Scan(&link.ID, &link.RecordingID, &link.ReleaseID,
			&link.DiscNumber, &link.TrackNumber, &link.TrackTitle, &link.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// ListReleasesForRecording returns the releases a recording appears on.
func (r *LinkRepository) ListReleasesForRecording(recordingID uuid.UUID) ([]*models.Release, error) {
	rows, err := r.q.Query(`SELECT `+releaseColumns+` FROM releases
		WHERE id IN (SELECT release_id FROM recording_releases WHERE recording_id = $1)
		ORDER BY release_year NULLS LAST`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []*models.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// ──────────────────── recording_performers ────────────────────

// LinkRecordingPerformer records (performer, instrument, role) on a
// recording. Duplicate (recording, performer, instrument) rows are ignored;
// the unique index cannot guard the instrument-less rows (NULLs compare
// distinct), so uniqueness is enforced with a guarded insert instead.
func (r *LinkRepository) LinkRecordingPerformer(link *models.RecordingPerformer) error {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	_, err := r.q.Exec(`INSERT INTO recording_performers (id, recording_id, performer_id, instrument_id, role)
		SELECT $1, $2, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM recording_performers
			WHERE recording_id = $2 AND performer_id = $3
			  AND instrument_id IS NOT DISTINCT FROM $4
		)`,
		link.ID, link.RecordingID, link.PerformerID, link.InstrumentID, link.Role)
	if err != nil {
		return fmt.Errorf("link performer %s to recording %s: %w", link.PerformerID, link.RecordingID, err)
	}
	return nil
}

// ListRecordingPerformers returns the performer links on a recording,
// leaders first.
func (r *LinkRepository) ListRecordingPerformers(recordingID uuid.UUID) ([]*models.RecordingPerformer, error) {
	rows, err := r.q.Query(`SELECT id, recording_id, performer_id, instrument_id, role, created_at
		FROM recording_performers WHERE recording_id = $1
		ORDER BY CASE role WHEN 'leader' THEN 0 WHEN 'sideman' THEN 1 ELSE 2 END, created_at`, recordingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.RecordingPerformer
	for rows.Next() {
		link := &models.RecordingPerformer{}
		if err := rows.Scan(&link.ID, &link.RecordingID, &link.PerformerID,
			&link.InstrumentID, &link.Role, &link.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// PromoteToLeader flips every row for one performer on a recording to
// leader. Used when an import produced performers but no leader.
func (r *LinkRepository) PromoteToLeader(recordingID, performerID uuid.UUID) error {
	_, err := r.q.Exec(`UPDATE recording_performers SET role = 'leader'
		WHERE recording_id = $1 AND performer_id = $2`, recordingID, performerID)
	return err
}
