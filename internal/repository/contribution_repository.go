package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

type ContributionRepository struct {
	q DBTX
}

// Upsert writes a user's annotation on a recording, unique per
// (recording, user). When every payload field is nil the row is deleted
// instead, and (nil, nil) is returned.
func (r *ContributionRepository) Upsert(c *models.UserContribution) (*models.UserContribution, error) {
	if c.Empty() {
		_, err := r.q.Exec(`DELETE FROM user_contributions WHERE recording_id = $1 AND user_id = $2`,
			c.RecordingID, c.UserID)
		if err != nil {
			return nil, fmt.Errorf("clear contribution: %w", err)
		}
		return nil, nil
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := r.q.QueryRow(`INSERT INTO user_contributions
		(id, recording_id, user_id, performance_key, tempo_bpm, is_instrumental)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (recording_id, user_id) DO UPDATE SET
			performance_key = EXCLUDED.performance_key,
			tempo_bpm = EXCLUDED.tempo_bpm,
			is_instrumental = EXCLUDED.is_instrumental,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, recording_id, user_id, performance_key, tempo_bpm, is_instrumental, created_at, updated_at`,
		c.ID, c.RecordingID, c.UserID, c.PerformanceKey, c.TempoBPM, c.IsInstrumental)

	final := &models.UserContribution{}
	err := row.Scan(&final.ID, &final.RecordingID, &final.UserID,
		&final.PerformanceKey, &final.TempoBPM, &final.IsInstrumental,
		&final.CreatedAt, &final.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert contribution: %w", err)
	}
	return final, nil
}

func (r *ContributionRepository) Find(recordingID, userID uuid.UUID) (*models.UserContribution, error) {
	c := &models.UserContribution{}
	err := r.q.QueryRow(`SELECT id, recording_id, user_id, performance_key, tempo_bpm, is_instrumental, created_at, updated_at
		FROM user_contributions WHERE recording_id = $1 AND user_id = $2`, recordingID, userID).
		Scan(&c.ID, &c.RecordingID, &c.UserID, &c.PerformanceKey,
			&c.TempoBPM, &c.IsInstrumental, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
