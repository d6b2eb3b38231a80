package importer

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider/coverart"
)

// pollCovers asks the cover archive about each release that has not been
// checked yet. The release is stamped as checked even when the archive has
// nothing, so backfill runs never revisit it.
func (i *Importer) pollCovers(ctx context.Context, releases []*models.Release) error {
	for _, rel := range releases {
		if rel.CoverArtCheckedAt != nil || rel.ExternalReleaseID == nil {
			continue
		}

		result, err := i.covers.ReleaseImages(ctx, *rel.ExternalReleaseID)
		if err != nil {
			return fmt.Errorf("cover archive for release %s: %w", rel.ID, err)
		}

		for _, img := range result.Images {
			if img.Front {
				if err := i.saveImagery(rel.ID, img, models.ImageryTypeFront); err != nil {
					return err
				}
			}
			if img.Back {
				if err := i.saveImagery(rel.ID, img, models.ImageryTypeBack); err != nil {
					return err
				}
			}
		}

		if err := i.store.MarkReleaseCoverChecked(rel.ID); err != nil {
			return err
		}
	}
	return nil
}

func (i *Importer) saveImagery(releaseID uuid.UUID, img coverart.Image, imageryType models.ImageryType) error {
	row := &models.ReleaseImagery{
		ReleaseID: releaseID,
		Source:    models.ImagerySourceCoverArt,
		Type:      imageryType,
	}
	if img.SmallURL != "" {
		row.SmallURL = &img.SmallURL
	}
	if img.MediumURL != "" {
		row.MediumURL = &img.MediumURL
	}
	if img.LargeURL != "" {
		row.LargeURL = &img.LargeURL
	}
	if img.SourceID != "" {
		row.SourceID = &img.SourceID
	}
	if img.SourceURL != "" {
		row.SourceURL = &img.SourceURL
	}
	_, err := i.store.UpsertImagery(row)
	return err
}

// CoverBackfill polls the cover archive for a batch of releases that were
// imported before cover polling existed or whose poll previously failed.
func (i *Importer) CoverBackfill(ctx context.Context, batch int) (*Stats, error) {
	if batch <= 0 {
		batch = 100
	}
	releases, err := i.store.ListUncheckedCovers(batch)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Found: len(releases)}
	for _, rel := range releases {
		if err := i.pollCovers(ctx, []*models.Release{rel}); err != nil {
			if isSeedFatal(err) {
				return stats, err
			}
			log.Printf("Covers: release %s: %v", rel.ID, err)
			stats.Errors++
			continue
		}
		stats.Updated++
	}
	return stats, nil
}
