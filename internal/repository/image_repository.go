package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

// ImageRepository owns the licensed performer portraits and their links to
// performers.
type ImageRepository struct {
	q DBTX
}

// Upsert stores an image keyed by its URL and returns the final row.
func (r *ImageRepository) Upsert(img *models.Image) (*models.Image, error) {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	_, err := r.q.Exec(`INSERT INTO images (id, url, license, attribution, source_page)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO UPDATE SET
			license = EXCLUDED.license,
			attribution = COALESCE(images.attribution, EXCLUDED.attribution),
			source_page = COALESCE(images.source_page, EXCLUDED.source_page)`,
		img.ID, img.URL, img.License, img.Attribution, img.SourcePage)
	if err != nil {
		return nil, fmt.Errorf("upsert image %q: %w", img.URL, err)
	}
	return r.FindByURL(img.URL)
}

func (r *ImageRepository) FindByURL(url string) (*models.Image, error) {
	img := &models.Image{}
	err := r.q.QueryRow(`SELECT id, url, license, attribution, source_page, created_at
		FROM images WHERE url = $1`, url).
		Scan(&img.ID, &img.URL, &img.License, &img.Attribution, &img.SourcePage, &img.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// LinkPerformer attaches an image to a performer; duplicates are ignored.
func (r *ImageRepository) LinkPerformer(performerID, imageID uuid.UUID) error {
	_, err := r.q.Exec(`INSERT INTO artist_images (id, performer_id, image_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (performer_id, image_id) DO NOTHING`,
		uuid.New(), performerID, imageID)
	return err
}

// ListByPerformer returns a performer's portraits.
func (r *ImageRepository) ListByPerformer(performerID uuid.UUID) ([]*models.Image, error) {
	rows, err := r.q.Query(`SELECT i.id, i.url, i.license, i.attribution, i.source_page, i.created_at
		FROM images i JOIN artist_images ai ON ai.image_id = i.id
		WHERE ai.performer_id = $1 ORDER BY i.created_at`, performerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*models.Image
	for rows.Next() {
		img := &models.Image{}
		if err := rows.Scan(&img.ID, &img.URL, &img.License, &img.Attribution,
			&img.SourcePage, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// PerformersWithoutPortrait lists performers lacking any linked image, for
// the portrait backfill job.
func (r *ImageRepository) PerformersWithoutPortrait(limit int) ([]*models.Performer, error) {
	rows, err := r.q.Query(`SELECT `+performerColumns+` FROM performers p
		WHERE artist_type = 'person'
		  AND NOT EXISTS (SELECT 1 FROM artist_images ai WHERE ai.performer_id = p.id)
		ORDER BY p.created_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var performers []*models.Performer
	for rows.Next() {
		p, err := scanPerformer(rows)
		if err != nil {
			return nil, err
		}
		performers = append(performers, p)
	}
	return performers, rows.Err()
}
