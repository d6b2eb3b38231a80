package importer

import (
	"github.com/google/uuid"

	"github.com/jazzvault/JazzVault/internal/models"
	"github.com/jazzvault/JazzVault/internal/repository"
)

// DataStore is the write surface the pipeline needs. It exists so the
// import logic can be exercised against an in-memory fake; the production
// implementation delegates to the repository layer.
type DataStore interface {
	FindSongByID(id uuid.UUID) (*models.Song, error)
	FindSongByTitle(title string) (*models.Song, error)
	FindSongByWorkID(workID string) (*models.Song, error)
	CreateSong(s *models.Song) error
	UpdateSong(s *models.Song) error
	SetSongWorkID(id uuid.UUID, workID string) error

	FindRecordingByExternalID(externalID string) (*models.Recording, error)
	UpsertRecording(rec *models.Recording) (*models.Recording, error)
	SetDefaultRelease(recordingID, releaseID uuid.UUID) error

	UpsertRelease(rel *models.Release) (*models.Release, error)
	MarkReleaseCoverChecked(id uuid.UUID) error
	ListUncheckedCovers(limit int) ([]*models.Release, error)
	ListReleasesWithoutStreamingLink(service models.StreamingService, limit int) ([]*models.Release, error)

	UpsertPerformer(p *models.Performer) (*models.Performer, error)
	FindPerformerByExternalID(externalID string) (*models.Performer, error)
	FindPerformerByName(name string) (*models.Performer, error)
	SearchPerformers(fragment string, limit int) ([]*models.Performer, error)
	SetPerformerExternalID(id uuid.UUID, externalID string) error
	FindOrCreateInstrument(name string) (*models.Instrument, error)

	LinkRecordingRelease(link *models.RecordingRelease) (*models.RecordingRelease, error)
	ListReleasesForRecording(recordingID uuid.UUID) ([]*models.Release, error)
	FindRecordingRelease(recordingID, releaseID uuid.UUID) (*models.RecordingRelease, error)
	LinkRecordingPerformer(link *models.RecordingPerformer) error
	ListRecordingPerformers(recordingID uuid.UUID) ([]*models.RecordingPerformer, error)
	PromoteToLeader(recordingID, performerID uuid.UUID) error

	UpsertImagery(img *models.ReleaseImagery) (*models.ReleaseImagery, error)
	UpsertReleaseStreamingLink(link *models.ReleaseStreamingLink) (*models.ReleaseStreamingLink, error)
	UpsertTrackStreamingLink(link *models.TrackStreamingLink) (*models.TrackStreamingLink, error)

	UpsertImage(img *models.Image) (*models.Image, error)
	LinkPerformerImage(performerID, imageID uuid.UUID) error
	PerformersWithoutPortrait(limit int) ([]*models.Performer, error)

	// InTransaction runs fn against a transaction-bound DataStore. The
	// pipeline wraps each recording in one call.
	InTransaction(fn func(tx DataStore) error) error
}

// storeData adapts *repository.Store to the DataStore interface.
type storeData struct {
	store *repository.Store
}

// NewDataStore wraps the repository aggregate for pipeline use.
func NewDataStore(store *repository.Store) DataStore {
	return &storeData{store: store}
}

func (d *storeData) FindSongByID(id uuid.UUID) (*models.Song, error) {
	return d.store.Songs.GetByID(id)
}

func (d *storeData) FindSongByTitle(title string) (*models.Song, error) {
	return d.store.Songs.FindByTitle(title)
}

func (d *storeData) FindSongByWorkID(workID string) (*models.Song, error) {
	return d.store.Songs.FindByWorkID(workID)
}

func (d *storeData) CreateSong(s *models.Song) error { return d.store.Songs.Create(s) }
func (d *storeData) UpdateSong(s *models.Song) error { return d.store.Songs.Update(s) }

func (d *storeData) SetSongWorkID(id uuid.UUID, workID string) error {
	return d.store.Songs.SetWorkID(id, workID)
}

func (d *storeData) FindRecordingByExternalID(externalID string) (*models.Recording, error) {
	return d.store.Recordings.FindByExternalID(externalID)
}

func (d *storeData) UpsertRecording(rec *models.Recording) (*models.Recording, error) {
	return d.store.Recordings.Upsert(rec)
}

func (d *storeData) SetDefaultRelease(recordingID, releaseID uuid.UUID) error {
	return d.store.Recordings.SetDefaultRelease(recordingID, releaseID)
}

func (d *storeData) UpsertRelease(rel *models.Release) (*models.Release, error) {
	return d.store.Releases.Upsert(rel)
}

func (d *storeData) MarkReleaseCoverChecked(id uuid.UUID) error {
	return d.store.Releases.MarkCoverChecked(id)
}

func (d *storeData) ListUncheckedCovers(limit int) ([]*models.Release, error) {
	return d.store.Releases.ListUncheckedCovers(limit)
}

func (d *storeData) ListReleasesWithoutStreamingLink(service models.StreamingService, limit int) ([]*models.Release, error) {
	return d.store.Releases.ListWithoutStreamingLink(service, limit)
}

func (d *storeData) UpsertPerformer(p *models.Performer) (*models.Performer, error) {
	return d.store.Performers.Upsert(p)
}

func (d *storeData) FindPerformerByExternalID(externalID string) (*models.Performer, error) {
	return d.store.Performers.FindByExternalID(externalID)
}

func (d *storeData) FindPerformerByName(name string) (*models.Performer, error) {
	return d.store.Performers.FindByName(name)
}

func (d *storeData) SearchPerformers(fragment string, limit int) ([]*models.Performer, error) {
	return d.store.Performers.SearchByName(fragment, limit)
}

func (d *storeData) SetPerformerExternalID(id uuid.UUID, externalID string) error {
	return d.store.Performers.SetExternalID(id, externalID)
}

func (d *storeData) FindOrCreateInstrument(name string) (*models.Instrument, error) {
	return d.store.Instruments.FindOrCreate(name)
}

func (d *storeData) LinkRecordingRelease(link *models.RecordingRelease) (*models.RecordingRelease, error) {
	return d.store.Links.LinkRecordingRelease(link)
}

func (d *storeData) ListReleasesForRecording(recordingID uuid.UUID) ([]*models.Release, error) {
	return d.store.Links.ListReleasesForRecording(recordingID)
}

func (d *storeData) FindRecordingRelease(recordingID, releaseID uuid.UUID) (*models.RecordingRelease, error) {
	return d.store.Links.FindRecordingRelease(recordingID, releaseID)
}

func (d *storeData) LinkRecordingPerformer(link *models.RecordingPerformer) error {
	return d.store.Links.LinkRecordingPerformer(link)
}

func (d *storeData) ListRecordingPerformers(recordingID uuid.UUID) ([]*models.RecordingPerformer, error) {
	return d.store.Links.ListRecordingPerformers(recordingID)
}

func (d *storeData) PromoteToLeader(recordingID, performerID uuid.UUID) error {
	return d.store.Links.PromoteToLeader(recordingID, performerID)
}

func (d *storeData) UpsertImagery(img *models.ReleaseImagery) (*models.ReleaseImagery, error) {
	return d.store.Imagery.Upsert(img)
}

func (d *storeData) UpsertReleaseStreamingLink(link *models.ReleaseStreamingLink) (*models.ReleaseStreamingLink, error) {
	return d.store.Streaming.UpsertReleaseLink(link)
}

func (d *storeData) UpsertTrackStreamingLink(link *models.TrackStreamingLink) (*models.TrackStreamingLink, error) {
	return d.store.Streaming.UpsertTrackLink(link)
}

func (d *storeData) UpsertImage(img *models.Image) (*models.Image, error) {
	return d.store.Images.Upsert(img)
}

func (d *storeData) LinkPerformerImage(performerID, imageID uuid.UUID) error {
	return d.store.Images.LinkPerformer(performerID, imageID)
}

func (d *storeData) PerformersWithoutPortrait(limit int) ([]*models.Performer, error) {
	return d.store.Images.PerformersWithoutPortrait(limit)
}

func (d *storeData) InTransaction(fn func(tx DataStore) error) error {
	return d.store.InTransaction(func(tx *repository.Store) error {
		return fn(&storeData{store: tx})
	})
}
