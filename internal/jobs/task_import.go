package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
)

// ──────── Import Song Handler ────────

type ImportSongHandler struct {
	factory ImporterFactory
}

func NewImportSongHandler(factory ImporterFactory) *ImportSongHandler {
	return &ImportSongHandler{factory: factory}
}

func (h *ImportSongHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ImportSongPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	req, err := p.request()
	if err != nil {
		return fmt.Errorf("bad song id %q: %w", p.SongID, err)
	}

	imp := h.factory()
	summary, err := imp.ImportSong(ctx, req)
	if err != nil {
		return fmt.Errorf("import %q: %w", seedName(p), err)
	}
	log.Printf("Job: import %q done: found=%d imported=%d skipped=%d errors=%d",
		summary.SongTitle, summary.Stats.Found, summary.Stats.Imported,
		summary.Stats.Skipped, summary.Stats.Errors)
	return nil
}

func seedName(p ImportSongPayload) string {
	if p.Title != "" {
		return p.Title
	}
	return p.SongID
}
