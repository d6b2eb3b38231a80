package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

type SongRepository struct {
	q DBTX
}

const songColumns = `id, title, composer, year, description, structure,
	external_work_id, secondary_work_id, created_at, updated_at`

func scanSong(row interface{ Scan(...interface{}) error }) (*models.Song, error) {
	s := &models.Song{}
	err := row.Scan(&s.ID, &s.Title, &s.Composer, &s.Year, &s.Description,
		&s.Structure, &s.ExternalWorkID, &s.SecondaryWorkID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SongRepository) GetByID(id uuid.UUID) (*models.Song, error) {
	row := r.q.QueryRow(`SELECT `+songColumns+` FROM songs WHERE id = $1`, id)
	s, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.loadReferences(s)
}

// FindByTitle matches the exact title case-insensitively, or nil.
func (r *SongRepository) FindByTitle(title string) (*models.Song, error) {
	row := r.q.QueryRow(`SELECT `+songColumns+` FROM songs WHERE LOWER(title) = LOWER($1) LIMIT 1`, title)
	s, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.loadReferences(s)
}

// FindByWorkID matches the primary or secondary external work id, or nil.
func (r *SongRepository) FindByWorkID(workID string) (*models.Song, error) {
	row := r.q.QueryRow(`SELECT `+songColumns+` FROM songs
		WHERE external_work_id = $1 OR secondary_work_id = $1 LIMIT 1`, workID)
	s, err := scanSong(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// Create inserts a new song and fills in the generated timestamps.
func (r *SongRepository) Create(s *models.Song) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	err := r.q.QueryRow(`INSERT INTO songs (id, title, composer, year, description, structure, external_work_id, secondary_work_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		s.ID, s.Title, s.Composer, s.Year, s.Description, s.Structure,
		s.ExternalWorkID, s.SecondaryWorkID).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if IsUniqueViolation(err) {
		// Another worker created the same title between the caller's
		// find and this insert; adopt the existing row.
		existing, ferr := r.FindByTitle(s.Title)
		if ferr == nil && existing != nil {
			*s = *existing
			return nil
		}
	}
	if err != nil {
		return fmt.Errorf("create song %q: %w", s.Title, err)
	}
	return r.saveReferences(s)
}

// Update overwrites the song's mutable fields. Merging non-null data into
// an existing row is the caller's job.
func (r *SongRepository) Update(s *models.Song) error {
	_, err := r.q.Exec(`UPDATE songs SET title=$1, composer=$2, year=$3, description=$4,
		structure=$5, external_work_id=$6, secondary_work_id=$7, updated_at=CURRENT_TIMESTAMP
		WHERE id=$8`,
		s.Title, s.Composer, s.Year, s.Description, s.Structure,
		s.ExternalWorkID, s.SecondaryWorkID, s.ID)
	if err != nil {
		return fmt.Errorf("update song %s: %w", s.ID, err)
	}
	return r.saveReferences(s)
}

// SetWorkID persists a resolved external work id.
func (r *SongRepository) SetWorkID(id uuid.UUID, workID string) error {
	_, err := r.q.Exec(`UPDATE songs SET external_work_id=$1, updated_at=CURRENT_TIMESTAMP WHERE id=$2`,
		workID, id)
	return err
}

// Delete removes a song and everything hanging off it, in dependency order:
// solo transcriptions, performer links, recordings, repertoire links, then
// the song row. Callers run it inside InTransaction.
func (r *SongRepository) Delete(id uuid.UUID) error {
	steps := []string{
		`DELETE FROM solo_transcriptions WHERE recording_id IN (SELECT id FROM recordings WHERE song_id = $1)`,
		`DELETE FROM recording_performers WHERE recording_id IN (SELECT id FROM recordings WHERE song_id = $1)`,
		`DELETE FROM recording_releases WHERE recording_id IN (SELECT id FROM recordings WHERE song_id = $1)`,
		`DELETE FROM user_contributions WHERE recording_id IN (SELECT id FROM recordings WHERE song_id = $1)`,
		`DELETE FROM recordings WHERE song_id = $1`,
		`DELETE FROM repertoire_songs WHERE song_id = $1`,
		`DELETE FROM song_references WHERE song_id = $1`,
		`DELETE FROM songs WHERE id = $1`,
	}
	for _, step := range steps {
		if _, err := r.q.Exec(step, id); err != nil {
			return fmt.Errorf("delete song %s: %w", id, err)
		}
	}
	return nil
}

// ──────────────────── External references ────────────────────

// The freeform name→url map lives in its own table keyed by song.

func (r *SongRepository) loadReferences(s *models.Song) (*models.Song, error) {
	rows, err := r.q.Query(`SELECT name, url FROM song_references WHERE song_id = $1`, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, url string
		if err := rows.Scan(&name, &url); err != nil {
			return nil, err
		}
		if s.ExternalReferences == nil {
			s.ExternalReferences = make(map[string]string)
		}
		s.ExternalReferences[name] = url
	}
	return s, rows.Err()
}

func (r *SongRepository) saveReferences(s *models.Song) error {
	for name, url := range s.ExternalReferences {
		_, err := r.q.Exec(`INSERT INTO song_references (id, song_id, name, url)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (song_id, name) DO UPDATE SET url = EXCLUDED.url`,
			uuid.New(), s.ID, name, url)
		if err != nil {
			return fmt.Errorf("save reference %q: %w", name, err)
		}
	}
	return nil
}
