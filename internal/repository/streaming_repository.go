package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

// StreamingRepository owns release and track streaming links. The manual
// override rule is enforced here in SQL: updates carry a
// match_method != 'manual' guard, so a human-curated row survives every
// pipeline write even if application logic slips.
type StreamingRepository struct {
	q DBTX
}

const releaseLinkUpsert = `INSERT INTO release_streaming_links
	(id, release_id, service, service_id, service_url, match_method, matched_at)
	VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
	ON CONFLICT (release_id, service) DO UPDATE SET
		service_id = EXCLUDED.service_id,
		service_url = EXCLUDED.service_url,
		match_method = EXCLUDED.match_method,
		matched_at = CURRENT_TIMESTAMP
	WHERE release_streaming_links.match_method != 'manual'`

const trackLinkUpsert = `INSERT INTO recording_release_streaming_links
	(id, recording_release_id, service, service_id, service_url, match_method, matched_at)
	VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
	ON CONFLICT (recording_release_id, service) DO UPDATE SET
		service_id = EXCLUDED.service_id,
		service_url = EXCLUDED.service_url,
		match_method = EXCLUDED.match_method,
		matched_at = CURRENT_TIMESTAMP
	WHERE recording_release_streaming_links.match_method != 'manual'`

// UpsertReleaseLink writes the (release, service) link and returns the final
// row. When the existing row is manual the write is a no-op and the manual
// row comes back.
func (r *StreamingRepository) UpsertReleaseLink(link *models.ReleaseStreamingLink) (*models.ReleaseStreamingLink, error) {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	_, err := r.q.Exec(releaseLinkUpsert,
		link.ID, link.ReleaseID, link.Service, link.ServiceID, link.ServiceURL, link.MatchMethod)
	if err != nil {
		return nil, fmt.Errorf("upsert release streaming link: %w", err)
	}
	return r.FindReleaseLink(link.ReleaseID, link.Service)
}

func (r *StreamingRepository) FindReleaseLink(releaseID uuid.UUID, service models.StreamingService) (*models.ReleaseStreamingLink, error) {
	link := &models.ReleaseStreamingLink{}
	err := r.q.QueryRow(`SELECT id, release_id, service, service_id, service_url, match_method, matched_at
		FROM release_streaming_links WHERE release_id = $1 AND service = $2`, releaseID, service).
		Scan(&link.ID, &link.ReleaseID, &link.Service, &link.ServiceID,
			&link.ServiceURL, &link.MatchMethod, &link.MatchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

// UpsertTrackLink writes the (recording_release, service) link with the same
// manual guard as release links.
func (r *StreamingRepository) UpsertTrackLink(link *models.TrackStreamingLink) (*models.TrackStreamingLink, error) {
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	_, err := r.q.Exec(trackLinkUpsert,
		link.ID, link.RecordingReleaseID, link.Service, link.ServiceID, link.ServiceURL, link.MatchMethod)
	if err != nil {
		return nil, fmt.Errorf("upsert track streaming link: %w", err)
	}
	return r.FindTrackLink(link.RecordingReleaseID, link.Service)
}

func (r *StreamingRepository) FindTrackLink(recordingReleaseID uuid.UUID, service models.StreamingService) (*models.TrackStreamingLink, error) {
	link := &models.TrackStreamingLink{}
	err := r.q.QueryRow(`SELECT id, recording_release_id, service, service_id, service_url, match_method, matched_at
		FROM recording_release_streaming_links WHERE recording_release_id = $1 AND service = $2`,
		recordingReleaseID, service).
		Scan(&link.ID, &link.RecordingReleaseID, &link.Service, &link.ServiceID,
			&link.ServiceURL, &link.MatchMethod, &link.MatchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}
