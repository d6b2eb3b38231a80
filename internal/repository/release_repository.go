package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

type ReleaseRepository struct {
	q DBTX
}

const releaseColumns = `id, title, artist_credit, release_year, external_release_id,
	cover_art_checked_at, created_at, updated_at`

func scanRelease(row interface{ Scan(...interface{}) error }) (*models.Release, error) {
	rel := &models.Release{}
	err := row.Scan(&rel.ID, &rel.Title, &rel.ArtistCredit, &rel.ReleaseYear,
		&rel.ExternalReleaseID, &rel.CoverArtCheckedAt, &rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func (r *ReleaseRepository) GetByID(id uuid.UUID) (*models.Release, error) {
	row := r.q.QueryRow(`SELECT `+releaseColumns+` FROM releases WHERE id = $1`, id)
	rel, err := scanRelease(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rel, err
}

func (r *ReleaseRepository) FindByExternalID(externalID string) (*models.Release, error) {
	row := r.q.QueryRow(`SELECT `+releaseColumns+` FROM releases WHERE external_release_id = $1 LIMIT 1`, externalID)
	rel, err := scanRelease(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rel, err
}

// Upsert inserts or refreshes a release keyed by external id and returns
// the final row.
func (r *ReleaseRepository) Upsert(rel *models.Release) (*models.Release, error) {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	row := r.q.QueryRow(`INSERT INTO releases (id, title, artist_credit, release_year, external_release_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_release_id) DO UPDATE SET
			artist_credit = COALESCE(releases.artist_credit, EXCLUDED.artist_credit),
			release_year = COALESCE(releases.release_year, EXCLUDED.release_year),
			updated_at = CURRENT_TIMESTAMP
		RETURNING `+releaseColumns,
		rel.ID, rel.Title, rel.ArtistCredit, rel.ReleaseYear, rel.ExternalReleaseID)

	final, err := scanRelease(row)
	if err != nil {
		return nil, fmt.Errorf("upsert release %q: %w", rel.Title, err)
	}
	return final, nil
}

// MarkCoverChecked stamps the release as polled against the cover-art
// archive, whether or not any art was found.
func (r *ReleaseRepository) MarkCoverChecked(id uuid.UUID) error {
	_, err := r.q.Exec(`UPDATE releases SET cover_art_checked_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`, id)
	return err
}

// ListUncheckedCovers returns releases never polled for cover art, oldest
// first, for the backfill job.
func (r *ReleaseRepository) ListUncheckedCovers(limit int) ([]*models.Release, error) {
	rows, err := r.q.Query(`SELECT `+releaseColumns+` FROM releases
		WHERE cover_art_checked_at IS NULL AND external_release_id IS NOT NULL
		ORDER BY created_at LIMIT $1`, limit)
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

// ListWithoutStreamingLink returns releases missing a link for the given
// service, for the weekly repair job.
func (r *ReleaseRepository) ListWithoutStreamingLink(service models.StreamingService, limit int) ([]*models.Release, error) {
	rows, err := r.q.Query(`SELECT `+releaseColumns+` FROM releases rel
		WHERE NOT EXISTS (SELECT 1 FROM release_streaming_links l WHERE l.release_id = rel.id AND l.service = $1)
		ORDER BY rel.created_at LIMIT $2`, service, limit)
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
