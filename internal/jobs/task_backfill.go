package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/jazzvault/JazzVault/internal/models"
)

// ──────── Cover Backfill Handler ────────

type CoverBackfillHandler struct {
	factory ImporterFactory
}

func NewCoverBackfillHandler(factory ImporterFactory) *CoverBackfillHandler {
	return &CoverBackfillHandler{factory: factory}
}

func (h *CoverBackfillHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p CoverBackfillPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	imp := h.factory()
	stats, err := imp.CoverBackfill(ctx, p.Batch)
	if err != nil {
		return fmt.Errorf("cover backfill: %w", err)
	}
	log.Printf("Job: cover backfill done: found=%d updated=%d errors=%d",
		stats.Found, stats.Updated, stats.Errors)
	return nil
}

// ──────── Streaming Link Handler ────────

type StreamingLinkHandler struct {
	factory ImporterFactory
}

func NewStreamingLinkHandler(factory ImporterFactory) *StreamingLinkHandler {
	return &StreamingLinkHandler{factory: factory}
}

func (h *StreamingLinkHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p StreamingLinkPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	imp := h.factory()
	stats, err := imp.StreamingRepair(ctx, models.StreamingService(p.Service), p.Limit)
	if err != nil {
		return fmt.Errorf("streaming repair (%s): %w", p.Service, err)
	}
	log.Printf("Job: streaming repair (%s) done: found=%d updated=%d errors=%d",
		p.Service, stats.Found, stats.Updated, stats.Errors)
	return nil
}

// ──────── Portrait Fetch Handler ────────

type PortraitFetchHandler struct {
	factory ImporterFactory
}

func NewPortraitFetchHandler(factory ImporterFactory) *PortraitFetchHandler {
	return &PortraitFetchHandler{factory: factory}
}

func (h *PortraitFetchHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p PortraitFetchPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	imp := h.factory()
	stats, err := imp.PortraitBackfill(ctx, p.Limit)
	if err != nil {
		return fmt.Errorf("portrait backfill: %w", err)
	}
	log.Printf("Job: portrait backfill done: found=%d imported=%d skipped=%d errors=%d",
		stats.Found, stats.Imported, stats.Skipped, stats.Errors)
	return nil
}
