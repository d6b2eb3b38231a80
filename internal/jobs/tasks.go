package jobs

import (
	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/importer"
)

// ──────── Payloads ────────

type ImportSongPayload struct {
	SongID        string `json:"song_id,omitempty"`
	Title         string `json:"title,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	WithStreaming bool   `json:"with_streaming,omitempty"`
}

// UniqueID keys the task so one seed never runs twice concurrently.
func (p ImportSongPayload) UniqueID() string {
	if p.SongID != "" {
		return "import:" + p.SongID
	}
	return "import:" + p.Title
}

type CoverBackfillPayload struct {
	Batch int `json:"batch,omitempty"`
}

type StreamingLinkPayload struct {
	Service string `json:"service"`
	Limit   int    `json:"limit,omitempty"`
}

type PortraitFetchPayload struct {
	Limit int `json:"limit,omitempty"`
}

func (p ImportSongPayload) request() (importer.Request, error) {
	req := importer.Request{
		Title:         p.Title,
		Limit:         p.Limit,
		WithStreaming: p.WithStreaming,
	}
	if p.SongID != "" {
		id, err := uuid.Parse(p.SongID)
		if err != nil {
			return req, err
		}
		req.SongID = &id
	}
	return req, nil
}

// ImporterFactory builds a fresh importer with its own provider clients.
// Handlers run concurrently, and client state (rate-limit clock, auth token)
// must not be shared between workers.
type ImporterFactory func() *importer.Importer

// ──────── Register all handlers ────────

func RegisterHandlers(q *Queue, factory ImporterFactory) {
	q.RegisterHandler(TaskImportSong, NewImportSongHandler(factory))
	q.RegisterHandler(TaskCoverBackfill, NewCoverBackfillHandler(factory))
	q.RegisterHandler(TaskStreamingLink, NewStreamingLinkHandler(factory))
	q.RegisterHandler(TaskPortraitFetch, NewPortraitFetchHandler(factory))
}
