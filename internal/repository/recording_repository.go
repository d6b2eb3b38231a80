package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

type RecordingRepository struct {
	q DBTX
}

const recordingColumns = `id, song_id, album_title, recording_year, recording_date,
	external_recording_id, is_canonical, default_release_id, created_at, updated_at`

func scanRecording(row interface{ Scan(...interface{}) error }) (*models.Recording, error) {
	rec := &models.Recording{}
	err := row.Scan(&rec.ID, &rec.SongID, &rec.AlbumTitle, &rec.RecordingYear,
		&rec.RecordingDate, &rec.ExternalRecordingID, &rec.IsCanonical,
		&rec.DefaultReleaseID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *RecordingRepository) GetByID(id uuid.UUID) (*models.Recording, error) {
	row := r.q.QueryRow(`SELECT `+recordingColumns+` FROM recordings WHERE id = $1`, id)
	rec, err := scanRecording(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// FindByExternalID matches on the external recording id, or nil.
func (r *RecordingRepository) FindByExternalID(externalID string) (*models.Recording, error) {
	row := r.q.QueryRow(`SELECT `+recordingColumns+` FROM recordings WHERE external_recording_id = $1 LIMIT 1`, externalID)
	rec, err := scanRecording(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (r *RecordingRepository) ListBySong(songID uuid.UUID) ([]*models.Recording, error) {
	rows, err := r.q.Query(`SELECT `+recordingColumns+` FROM recordings
		WHERE song_id = $1 ORDER BY recording_year NULLS LAST, created_at`, songID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Upsert inserts the recording or refreshes the existing row matched by
// external id, returning the final row either way.
func (r *RecordingRepository) Upsert(rec *models.Recording) (*models.Recording, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	row := r.q.QueryRow(`INSERT INTO recordings
		(id, song_id, album_title, recording_year, recording_date, external_recording_id, is_canonical)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_recording_id) DO UPDATE SET
			album_title = COALESCE(recordings.album_title, EXCLUDED.album_title),
			recording_year = COALESCE(recordings.recording_year, EXCLUDED.recording_year),
			recording_date = COALESCE(recordings.recording_date, EXCLUDED.recording_date),
			updated_at = CURRENT_TIMESTAMP
		RETURNING `+recordingColumns,
		rec.ID, rec.SongID, rec.AlbumTitle, rec.RecordingYear, rec.RecordingDate,
		rec.ExternalRecordingID, rec.IsCanonical)

	final, err := scanRecording(row)
	if err != nil {
		return nil, fmt.Errorf("upsert recording: %w", err)
	}
	return final, nil
}

// SetDefaultRelease records the release shown by default for a recording.
// The release must already be linked to the recording.
func (r *RecordingRepository) SetDefaultRelease(recordingID, releaseID uuid.UUID) error {
	res, err := r.q.Exec(`UPDATE recordings SET default_release_id = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		  AND EXISTS (SELECT 1 FROM recording_releases WHERE recording_id = $2 AND release_id = $1)`,
		releaseID, recordingID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("release %s is not linked to recording %s", releaseID, recordingID)
	}
	return nil
}
