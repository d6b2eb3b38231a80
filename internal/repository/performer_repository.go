package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

type PerformerRepository struct {
	q DBTX
}

const performerColumns = `id, name, sort_name, biography, birth_date, death_date,
	external_artist_id, disambiguation, artist_type, created_at, updated_at`

func scanPerformer(row interface{ Scan(...interface{}) error }) (*models.Performer, error) {
	p := &models.Performer{}
	err := row.Scan(&p.ID, &p.Name, &p.SortName, &p.Biography, &p.BirthDate,
		&p.DeathDate, &p.ExternalArtistID, &p.Disambiguation, &p.ArtistType,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PerformerRepository) GetByID(id uuid.UUID) (*models.Performer, error) {
	row := r.q.QueryRow(`SELECT `+performerColumns+` FROM performers WHERE id = $1`, id)
	p, err := scanPerformer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *PerformerRepository) FindByExternalID(externalID string) (*models.Performer, error) {
	row := r.q.QueryRow(`SELECT `+performerColumns+` FROM performers WHERE external_artist_id = $1 LIMIT 1`, externalID)
	p, err := scanPerformer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindByName matches the exact name case-insensitively, or nil.
func (r *PerformerRepository) FindByName(name string) (*models.Performer, error) {
	row := r.q.QueryRow(`SELECT `+performerColumns+` FROM performers WHERE LOWER(name) = LOWER($1) LIMIT 1`, name)
	p, err := scanPerformer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// SearchByName returns fuzzy-match candidates for the resolver to score.
func (r *PerformerRepository) SearchByName(fragment string, limit int) ([]*models.Performer, error) {
	rows, err := r.q.Query(`SELECT `+performerColumns+` FROM performers
		WHERE name ILIKE $1 ORDER BY name LIMIT $2`, "%"+fragment+"%", limit)
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

// SetExternalID binds a row created from a name-only credit to its
// encyclopedia artist id once a relation supplies one. Rows already bound
// are left alone.
func (r *PerformerRepository) SetExternalID(id uuid.UUID, externalID string) error {
	_, err := r.q.Exec(`UPDATE performers SET external_artist_id = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND external_artist_id IS NULL`, externalID, id)
	return err
}

// Upsert inserts or refreshes a performer keyed by external artist id,
// returning the final row. Performers without an external id fall back to a
// name-keyed find-or-create.
func (r *PerformerRepository) Upsert(p *models.Performer) (*models.Performer, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.ArtistType == "" {
		p.ArtistType = models.ArtistTypePerson
	}

	if p.ExternalArtistID == nil {
		existing, err := r.FindByName(p.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
		err = r.q.QueryRow(`INSERT INTO performers (id, name, sort_name, biography, birth_date, death_date, disambiguation, artist_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at`,
			p.ID, p.Name, p.SortName, p.Biography, p.BirthDate, p.DeathDate,
			p.Disambiguation, p.ArtistType).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("create performer %q: %w", p.Name, err)
		}
		return p, nil
	}

	row := r.q.QueryRow(`INSERT INTO performers
		(id, name, sort_name, biography, birth_date, death_date, external_artist_id, disambiguation, artist_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_artist_id) DO UPDATE SET
			sort_name = COALESCE(performers.sort_name, EXCLUDED.sort_name),
			biography = COALESCE(performers.biography, EXCLUDED.biography),
			birth_date = COALESCE(performers.birth_date, EXCLUDED.birth_date),
			death_date = COALESCE(performers.death_date, EXCLUDED.death_date),
			disambiguation = COALESCE(performers.disambiguation, EXCLUDED.disambiguation),
			updated_at = CURRENT_TIMESTAMP
		RETURNING `+performerColumns,
		p.ID, p.Name, p.SortName, p.Biography, p.BirthDate, p.DeathDate,
		p.ExternalArtistID, p.Disambiguation, p.ArtistType)

	final, err := scanPerformer(row)
	if err != nil {
		return nil, fmt.Errorf("upsert performer %q: %w", p.Name, err)
	}
	return final, nil
}
