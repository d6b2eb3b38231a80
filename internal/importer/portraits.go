package importer

import (
	"context"
	"fmt"
	"log"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider/wikimedia"
)

// PortraitBackfill finds a licensed portrait for performers that have none.
// Only images with a usable license are linked; candidates whose license
// normalizes to unknown are skipped rather than stored for manual cleanup.
func (i *Importer) PortraitBackfill(ctx context.Context, limit int) (*Stats, error) {
	if i.portraits == nil {
		return nil, fmt.Errorf("portrait source not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	performers, err := i.store.PerformersWithoutPortrait(limit)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Found: len(performers)}
	for _, p := range performers {
		candidates, err := i.portraits.SearchPortraits(ctx, p.Name, 5)
		if err != nil {
			if isSeedFatal(err) {
				return stats, err
			}
			log.Printf("Portraits: search for %q: %v", p.Name, err)
			stats.Errors++
			continue
		}

		portrait := pickPortrait(candidates)
		if portrait == nil {
			stats.Skipped++
			continue
		}

		img := &models.Image{
			URL:     portrait.URL,
			License: portrait.License,
		}
		if portrait.Attribution != "" {
			img.Attribution = &portrait.Attribution
		}
		if portrait.SourcePage != "" {
			img.SourcePage = &portrait.SourcePage
		}
		saved, err := i.store.UpsertImage(img)
		if err != nil {
			log.Printf("Portraits: save for %q: %v", p.Name, err)
			stats.Errors++
			continue
		}
		if err := i.store.LinkPerformerImage(p.ID, saved.ID); err != nil {
			log.Printf("Portraits: link for %q: %v", p.Name, err)
			stats.Errors++
			continue
		}
		stats.Imported++
	}
	return stats, nil
}

// pickPortrait returns the first candidate with a usable license and a full
// resolution URL.
func pickPortrait(candidates []wikimedia.Portrait) *wikimedia.Portrait {
	for idx := range candidates {
		c := &candidates[idx]
		if c.URL == "" || c.License == models.LicenseUnknown {
			continue
		}
		return c
	}
	return nil
}
