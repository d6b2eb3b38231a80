// Package repository is the data-access layer over Postgres. Every write
// the pipeline performs is an upsert keyed by natural uniqueness, so
// re-running an import never duplicates rows. Repositories run against
// either the pooled connection or a transaction via the DBTX interface.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same repository code
// serves pooled and transactional callers.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Store aggregates the per-entity repositories over one database handle.
type Store struct {
	db *sql.DB

	Songs         *SongRepository
	Recordings    *RecordingRepository
	Releases      *ReleaseRepository
	Performers    *PerformerRepository
	Instruments   *InstrumentRepository
	Links         *LinkRepository
	Imagery       *ImageryRepository
	Streaming     *StreamingRepository
	Contributions *ContributionRepository
	Images        *ImageRepository
	Settings      *SettingsRepository
}

func NewStore(db *sql.DB) *Store {
	s := &Store{db: db}
	s.bind(db)
	return s
}

func (s *Store) bind(q DBTX) {
	s.Songs = &SongRepository{q: q}
	s.Recordings = &RecordingRepository{q: q}
	s.Releases = &ReleaseRepository{q: q}
	s.Performers = &PerformerRepository{q: q}
	s.Instruments = &InstrumentRepository{q: q}
	s.Links = &LinkRepository{q: q}
	s.Imagery = &ImageryRepository{q: q}
	s.Streaming = &StreamingRepository{q: q}
	s.Contributions = &ContributionRepository{q: q}
	s.Images = &ImageRepository{q: q}
	s.Settings = &SettingsRepository{q: q}
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. Concurrent workers can race on natural-key inserts; callers
// treat this as "row already exists" and re-read.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// InTransaction runs fn against a Store bound to a single transaction,
// committing on nil and rolling back on error or panic. The importer uses
// one transaction per recording so a mid-recording failure leaves the seed
// consistent.
func (s *Store) InTransaction(fn func(tx *Store) error) error {
	if s.db == nil {
		return fmt.Errorf("store is already transaction-bound")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{}
	txStore.bind(tx)

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
