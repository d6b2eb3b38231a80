package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

type ImageryRepository struct {
	q DBTX
}

const imageryColumns = `id, release_id, source, type, small_url, medium_url, large_url,
	source_id, source_url, checksum, approved, created_at, updated_at`

func scanImagery(row interface{ Scan(...interface{}) error }) (*models.ReleaseImagery, error) {
	img := &models.ReleaseImagery{}
	err := row.Scan(&img.ID, &img.ReleaseID, &img.Source, &img.Type,
		&img.SmallURL, &img.MediumURL, &img.LargeURL, &img.SourceID,
		&img.SourceURL, &img.Checksum, &img.Approved, &img.CreatedAt, &img.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Upsert stores one image per (release, source, type). The first image
// written for a slot wins; later pipeline writes leave it untouched and
// return the existing row.
func (r *ImageryRepository) Upsert(img *models.ReleaseImagery) (*models.ReleaseImagery, error) {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	_, err := r.q.Exec(`INSERT INTO release_imagery
		(id, release_id, source, type, small_url, medium_url, large_url, source_id, source_url, checksum, approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (release_id, source, type) DO NOTHING`,
		img.ID, img.ReleaseID, img.Source, img.Type, img.SmallURL, img.MediumURL,
		img.LargeURL, img.SourceID, img.SourceURL, img.Checksum, img.Approved)
	if err != nil {
		return nil, fmt.Errorf("upsert imagery for release %s: %w", img.ReleaseID, err)
	}
	return r.Find(img.ReleaseID, img.Source, img.Type)
}

// Find returns the image in a (release, source, type) slot, or nil.
func (r *ImageryRepository) Find(releaseID uuid.UUID, source models.ImagerySource, imgType models.ImageryType) (*models.ReleaseImagery, error) {
	row := r.q.QueryRow(`SELECT `+imageryColumns+` FROM release_imagery
		WHERE release_id = $1 AND source = $2 AND type = $3`, releaseID, source, imgType)
	img, err := scanImagery(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return img, err
}

// ListByRelease returns all imagery rows for a release.
func (r *ImageryRepository) ListByRelease(releaseID uuid.UUID) ([]*models.ReleaseImagery, error) {
	rows, err := r.q.Query(`SELECT `+imageryColumns+` FROM release_imagery
		WHERE release_id = $1 ORDER BY source, type`, releaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*models.ReleaseImagery
	for rows.Next() {
		img, err := scanImagery(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
