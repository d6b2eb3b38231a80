package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jazzvault/JazzVault/internal/cache"
	"github.com/jazzvault/JazzVault/internal/config"
	"github.com/jazzvault/JazzVault/internal/db"
	"github.com/jazzvault/JazzVault/internal/importer"
	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/provider/coverart"
	"github.com/jazzvault/JazzVault/internal/provider/itunes"
	"github.com/jazzvault/JazzVault/internal/provider/jazzstandards"
	"github.com/jazzvault/JazzVault/internal/provider/musicbrainz"
	"github.com/jazzvault/JazzVault/internal/provider/spotify"
	"github.com/jazzvault/JazzVault/internal/provider/wikimedia"
	"github.com/jazzvault/JazzVault/internal/repository"
	"github.com/jazzvault/JazzVault/internal/verify"
	"github.com/jazzvault/JazzVault/internal/version"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: jazzvault <task> [flags] [seed titles...]

tasks:
  import     enrich one or more songs (--name/--id, or titles as arguments)
  covers     backfill cover art for unchecked releases
  streaming  repair missing streaming links (--service itunes|spotify)
  verify     score a song's external reference pages
  index      sync the editorial top-1000 index into the store

common flags: --name, --id, --limit, --dry-run, --debug, --force-refresh`)
}

type cliFlags struct {
	name          string
	id            string
	limit         int
	dryRun        bool
	debug         bool
	forceRefresh  bool
	withStreaming bool
	service       string
	workers       int
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	task := os.Args[1]

	fs := flag.NewFlagSet(task, flag.ExitOnError)
	var f cliFlags
	fs.StringVar(&f.name, "name", "", "song title seed")
	fs.StringVar(&f.id, "id", "", "song id seed")
	fs.IntVar(&f.limit, "limit", 0, "max recordings/rows to process")
	fs.BoolVar(&f.dryRun, "dry-run", false, "preview without writing")
	fs.BoolVar(&f.debug, "debug", false, "verbose logging")
	fs.BoolVar(&f.forceRefresh, "force-refresh", false, "bypass cache reads")
	fs.BoolVar(&f.withStreaming, "with-streaming", false, "match streaming links after import")
	fs.StringVar(&f.service, "service", "itunes", "streaming service (itunes|spotify)")
	fs.IntVar(&f.workers, "workers", 1, "parallel seed workers for import")
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}

	ver := version.Load()
	if f.debug {
		log.Printf("JazzVault %s", ver.Version)
	}

	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Printf("jazzvault: database connection failed: %v", err)
		os.Exit(1)
	}
	defer database.Close()
	cfg.MergeFromDB(database)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a := &app{
		cfg:   cfg,
		flags: f,
		store: importer.NewDataStore(repository.NewStore(database)),
	}

	var runErr error
	switch task {
	case "import":
		runErr = a.runImport(ctx, fs.Args())
	case "covers":
		runErr = a.runCovers(ctx)
	case "streaming":
		runErr = a.runStreaming(ctx)
	case "verify":
		runErr = a.runVerify(ctx)
	case "index":
		runErr = a.runIndex(ctx)
	default:
		usage()
		os.Exit(1)
	}
	if runErr != nil {
		log.Printf("jazzvault: %v", runErr)
		os.Exit(1)
	}
}

type app struct {
	cfg   *config.Config
	flags cliFlags
	store importer.DataStore
}

// newCache returns a fresh cache handle. Each worker gets its own so the
// force-refresh flag and file handles are never shared.
func (a *app) newCache() cache.Store {
	return cache.NewFSStore(a.cfg.CacheDir, a.flags.forceRefresh)
}

// newImporter wires a full client set. Called once per worker: provider
// clients carry mutable rate-limit and token state and must not be shared
// across goroutines.
func (a *app) newImporter() *importer.Importer {
	store := a.newCache()
	var tracks importer.TrackCatalog
	if a.cfg.SpotifyEnabled() {
		tracks = spotify.New(store, a.cfg.SpotifyClientID, a.cfg.SpotifyClientSecret)
	}
	return importer.New(
		a.store,
		jazzstandards.New(store),
		musicbrainz.New(store, a.cfg.UserAgentContact),
		coverart.New(store),
		itunes.New(store),
		tracks,
		wikimedia.New(store, a.cfg.UserAgentContact),
		importer.Options{
			AutoMatchMinScore: a.cfg.AutoMatchMinScore,
			StreamingMinScore: a.cfg.StreamingMinScore,
			DefaultLimit:      a.cfg.ImportLimitDefault,
			Debug:             a.flags.debug,
		},
	)
}

// ──────────────────── Tasks ────────────────────

func (a *app) runImport(ctx context.Context, extraSeeds []string) error {
	var requests []importer.Request
	if a.flags.id != "" {
		id, err := uuid.Parse(a.flags.id)
		if err != nil {
			return fmt.Errorf("bad --id %q: %w", a.flags.id, err)
		}
		requests = append(requests, importer.Request{SongID: &id})
	}
	if a.flags.name != "" {
		requests = append(requests, importer.Request{Title: a.flags.name})
	}
	for _, title := range extraSeeds {
		requests = append(requests, importer.Request{Title: title})
	}
	if len(requests) == 0 {
		return fmt.Errorf("import needs --name, --id, or seed titles")
	}
	for i := range requests {
		requests[i].Limit = a.flags.limit
		requests[i].DryRun = a.flags.dryRun
		requests[i].WithStreaming = a.flags.withStreaming
	}

	workers := a.flags.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(requests) {
		workers = len(requests)
	}

	seeds := make(chan importer.Request)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		imp := a.newImporter()
		g.Go(func() error {
			for req := range seeds {
				summary, err := imp.ImportSong(gctx, req)
				if err != nil {
					return err
				}
				log.Printf("Import: %q found=%d imported=%d skipped=%d errors=%d",
					summary.SongTitle, summary.Stats.Found, summary.Stats.Imported,
					summary.Stats.Skipped, summary.Stats.Errors)
				for _, msg := range summary.Errors {
					log.Printf("Import: %q: %s", summary.SongTitle, msg)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(seeds)
		for _, req := range requests {
			select {
			case seeds <- req:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})
	return g.Wait()
}

func (a *app) runCovers(ctx context.Context) error {
	batch := a.flags.limit
	if batch == 0 {
		batch = a.cfg.CoverBackfillBatch
	}
	stats, err := a.newImporter().CoverBackfill(ctx, batch)
	if err != nil {
		return err
	}
	log.Printf("Covers: found=%d updated=%d errors=%d", stats.Found, stats.Updated, stats.Errors)
	return nil
}

func (a *app) runStreaming(ctx context.Context) error {
	service := models.StreamingService(a.flags.service)
	stats, err := a.newImporter().StreamingRepair(ctx, service, a.flags.limit)
	if err != nil {
		return err
	}
	log.Printf("Streaming: (%s) found=%d updated=%d errors=%d",
		service, stats.Found, stats.Updated, stats.Errors)
	return nil
}

func (a *app) runVerify(ctx context.Context) error {
	var song *models.Song
	var err error
	switch {
	case a.flags.id != "":
		id, perr := uuid.Parse(a.flags.id)
		if perr != nil {
			return fmt.Errorf("bad --id %q: %w", a.flags.id, perr)
		}
		song, err = a.store.FindSongByID(id)
	case a.flags.name != "":
		song, err = a.store.FindSongByTitle(a.flags.name)
	default:
		return fmt.Errorf("verify needs --name or --id")
	}
	if err != nil {
		return err
	}
	if song == nil {
		return fmt.Errorf("song not found")
	}
	if len(song.ExternalReferences) == 0 {
		log.Printf("Verify: %q has no external references", song.Title)
		return nil
	}

	v := verify.New(a.newCache(), a.cfg.UserAgentContact)
	vc := verify.Context{SampleTitles: []string{song.Title}}
	subject := song.Title
	if song.Composer != nil {
		subject = *song.Composer
	}
	for name, pageURL := range song.ExternalReferences {
		result, err := v.VerifyReference(ctx, subject, pageURL, vc)
		if err != nil {
			log.Printf("Verify: %s (%s): %v", name, pageURL, err)
			continue
		}
		log.Printf("Verify: %s valid=%v confidence=%s score=%d reason=%q",
			name, result.Valid, result.Confidence, result.Score, result.Reason)
	}
	return nil
}

func (a *app) runIndex(ctx context.Context) error {
	stats, err := a.newImporter().SyncIndex(ctx, a.flags.limit, a.flags.dryRun)
	if err != nil {
		return err
	}
	log.Printf("Index: found=%d new=%d existing=%d errors=%d",
		stats.Found, stats.Imported, stats.Skipped, stats.Errors)
	return nil
}
