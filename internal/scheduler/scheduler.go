// Package scheduler enqueues the recurring maintenance jobs: a nightly
// cover-art backfill over releases that have never been polled, and a weekly
// streaming-link repair pass per service.
package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/jazzvault/JazzVault/internal/config"
	"github.com/jazzvault/JazzVault/internal/jobs"
	"github.com/jazzvault/JazzVault/internal/models"
)

type Scheduler struct {
	cron  *cron.Cron
	queue *jobs.Queue
	cfg   *config.Config
}

func New(queue *jobs.Queue, cfg *config.Config) *Scheduler {
	return &Scheduler{cron: cron.New(), queue: queue, cfg: cfg}
}

// Start registers the schedules and begins the cron loop. Off-peak times are
// deliberate: the backfills walk external providers.
func (s *Scheduler) Start() error {
	// Nightly cover-art backfill at 03:10.
	if _, err := s.cron.AddFunc("10 3 * * *", s.enqueueCoverBackfill); err != nil {
		return err
	}
	// Weekly streaming-link repair, Sunday 04:30.
	if _, err := s.cron.AddFunc("30 4 * * 0", s.enqueueStreamingRepair); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[scheduler] cron schedules registered (nightly covers, weekly streaming)")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish enqueueing.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] scheduler stopped")
}

func (s *Scheduler) enqueueCoverBackfill() {
	payload := jobs.CoverBackfillPayload{Batch: s.cfg.CoverBackfillBatch}
	if _, err := s.queue.EnqueueUnique(jobs.TaskCoverBackfill, payload, "covers:backfill"); err != nil {
		log.Printf("[scheduler] enqueue cover backfill: %v", err)
		return
	}
	log.Println("[scheduler] enqueued cover backfill")
}

func (s *Scheduler) enqueueStreamingRepair() {
	services := []models.StreamingService{models.ServiceITunes}
	if s.cfg.SpotifyEnabled() {
		services = append(services, models.ServiceSpotify)
	}
	for _, service := range services {
		payload := jobs.StreamingLinkPayload{Service: string(service)}
		uniqueID := "streaming:repair:" + string(service)
		if _, err := s.queue.EnqueueUnique(jobs.TaskStreamingLink, payload, uniqueID); err != nil {
			log.Printf("[scheduler] enqueue streaming repair (%s): %v", service, err)
			continue
		}
		log.Printf("[scheduler] enqueued streaming repair (%s)", service)
	}
}
