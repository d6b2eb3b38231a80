package importer

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
)

// SyncIndex walks the editorial top-1000 index and creates stub songs for
// titles the store has never seen, seeded with the page's composer, year and
// description. Existing songs are left untouched.
func (i *Importer) SyncIndex(ctx context.Context, limit int, dryRun bool) (*Stats, error) {
	if i.editorial == nil {
		return nil, fmt.Errorf("editorial source not configured")
	}

	refs, err := i.editorial.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("editorial index: %w", err)
	}

	stats := &Stats{Found: len(refs)}
	for _, ref := range refs {
		if limit > 0 && stats.Imported >= limit {
			break
		}

		existing, err := i.store.FindSongByTitle(ref.Title)
		if err != nil {
			return stats, err
		}
		if existing != nil {
			stats.Skipped++
			continue
		}

		song := &models.Song{ID: uuid.New(), Title: ref.Title}
		page, err := i.editorial.SongDetail(ctx, ref.URL)
		if err != nil {
			if isSeedFatal(err) {
				return stats, err
			}
			log.Printf("Index: page %s: %v", ref.URL, err)
			stats.Errors++
			continue
		}
		if page != nil {
			if page.Composer != "" {
				song.Composer = &page.Composer
			}
			song.Year = page.Year
			if page.Description != "" {
				song.Description = &page.Description
			}
		}

		if i.opts.Debug {
			log.Printf("Index: new song %q (composer %v)", song.Title, song.Composer)
		}
		if !dryRun {
			if err := i.store.CreateSong(song); err != nil {
				return stats, fmt.Errorf("create song %q: %w", song.Title, err)
			}
		}
		stats.Imported++
	}
	return stats, nil
}
