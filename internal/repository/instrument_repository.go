package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

type InstrumentRepository struct {
	q DBTX
}

// FindOrCreate returns the instrument with the given name, creating it when
// absent. Names are unique case-insensitively and stored lowercased.
func (r *InstrumentRepository) FindOrCreate(name string) (*models.Instrument, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("instrument name is empty")
	}

	inst := &models.Instrument{}
	err := r.q.QueryRow(`SELECT id, name, created_at, updated_at FROM instruments
		WHERE LOWER(name) = $1 LIMIT 1`, name).
		Scan(&inst.ID, &inst.Name, &inst.CreatedAt, &inst.UpdatedAt)
	if err == nil {
		return inst, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	inst.ID = uuid.New()
	inst.Name = name
	err = r.q.QueryRow(`INSERT INTO instruments (id, name) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET updated_at = instruments.updated_at
		RETURNING id, name, created_at, updated_at`, inst.ID, name).
		Scan(&inst.ID, &inst.Name, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create instrument %q: %w", name, err)
	}
	return inst, nil
}

func (r *InstrumentRepository) GetByID(id uuid.UUID) (*models.Instrument, error) {
	inst := &models.Instrument{}
	err := r.q.QueryRow(`SELECT id, name, created_at, updated_at FROM instruments WHERE id = $1`, id).
		Scan(&inst.ID, &inst.Name, &inst.CreatedAt, &inst.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return inst, err
}
