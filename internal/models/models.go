package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Enums ────────────────────

// Role is a performer's billing on a recording.
type Role string

const (
	RoleLeader  Role = "leader"
	RoleSideman Role = "sideman"
	RoleOther   Role = "other"
)

// ArtistType distinguishes individual performers from ensembles.
type ArtistType string

const (
	ArtistTypePerson ArtistType = "person"
	ArtistTypeGroup  ArtistType = "group"
	ArtistTypeOther  ArtistType = "other"
)

// ImagerySource identifies where a release image came from.
type ImagerySource string

const (
	ImagerySourceCoverArt ImagerySource = "coverart"
	ImagerySourceITunes   ImagerySource = "itunes"
)

// ImageryType is the side of the sleeve an image shows.
type ImageryType string

const (
	ImageryTypeFront ImageryType = "front"
	ImageryTypeBack  ImageryType = "back"
)

// StreamingService identifies a consumer streaming provider.
type StreamingService string

const (
	ServiceITunes  StreamingService = "itunes"
	ServiceSpotify StreamingService = "spotify"
)

// MatchMethod records how a streaming link or image link was established.
// Rows with MatchManual were curated by a human and are never overwritten
// by the pipeline.
type MatchMethod string

const (
	MatchManual       MatchMethod = "manual"
	MatchFuzzySearch  MatchMethod = "fuzzy_search"
	MatchRepairScript MatchMethod = "repair_script"
)

// ImageLicense is a normalized license for editorial performer portraits.
type ImageLicense string

const (
	LicensePublicDomain ImageLicense = "public-domain"
	LicenseCC0          ImageLicense = "CC0"
	LicenseCCBY         ImageLicense = "CC-BY"
	LicenseCCBYSA       ImageLicense = "CC-BY-SA"
	LicenseGFDL         ImageLicense = "GFDL"
	LicenseUnknown      ImageLicense = "unknown"
)

// ──────────────────── Song ────────────────────

type Song struct {
	ID                 uuid.UUID         `json:"id" db:"id"`
	Title              string            `json:"title" db:"title"`
	Composer           *string           `json:"composer,omitempty" db:"composer"`
	Year               *int              `json:"year,omitempty" db:"year"`
	Description        *string           `json:"description,omitempty" db:"description"`
	Structure          *string           `json:"structure,omitempty" db:"structure"`
	ExternalWorkID     *string           `json:"external_work_id,omitempty" db:"external_work_id"`
	SecondaryWorkID    *string           `json:"secondary_work_id,omitempty" db:"secondary_work_id"`
	ExternalReferences map[string]string `json:"external_references,omitempty" db:"-"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Recording ────────────────────

type Recording struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	SongID              uuid.UUID  `json:"song_id" db:"song_id"`
	AlbumTitle          *string    `json:"album_title,omitempty" db:"album_title"`
	RecordingYear       *int       `json:"recording_year,omitempty" db:"recording_year"`
	RecordingDate       *string    `json:"recording_date,omitempty" db:"recording_date"`
	ExternalRecordingID *string    `json:"external_recording_id,omitempty" db:"external_recording_id"`
	IsCanonical         bool       `json:"is_canonical" db:"is_canonical"`
	DefaultReleaseID    *uuid.UUID `json:"default_release_id,omitempty" db:"default_release_id"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Release ────────────────────

// Release is one published album edition. CoverArtCheckedAt records that the
// cover-art archive has been polled for this release, independently of
// whether any art was found.
type Release struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	ArtistCredit      *string    `json:"artist_credit,omitempty" db:"artist_credit"`
	ReleaseYear       *int       `json:"release_year,omitempty" db:"release_year"`
	ExternalReleaseID *string    `json:"external_release_id,omitempty" db:"external_release_id"`
	CoverArtCheckedAt *time.Time `json:"cover_art_checked_at,omitempty" db:"cover_art_checked_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Performer ────────────────────

type Performer struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	SortName         *string    `json:"sort_name,omitempty" db:"sort_name"`
	Biography        *string    `json:"biography,omitempty" db:"biography"`
	BirthDate        *string    `json:"birth_date,omitempty" db:"birth_date"`
	DeathDate        *string    `json:"death_date,omitempty" db:"death_date"`
	ExternalArtistID *string    `json:"external_artist_id,omitempty" db:"external_artist_id"`
	Disambiguation   *string    `json:"disambiguation,omitempty" db:"disambiguation"`
	ArtistType       ArtistType `json:"artist_type" db:"artist_type"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Instrument ────────────────────

// Instrument names are unique case-insensitively.
type Instrument struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Link tables ────────────────────

type RecordingPerformer struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	RecordingID  uuid.UUID  `json:"recording_id" db:"recording_id"`
	PerformerID  uuid.UUID  `json:"performer_id" db:"performer_id"`
	InstrumentID *uuid.UUID `json:"instrument_id,omitempty" db:"instrument_id"`
	Role         Role       `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// RecordingRelease links a recording to a release it appears on, unique per
// (recording, release) pair.
type RecordingRelease struct {
	ID          uuid.UUID `json:"id" db:"id"`
	RecordingID uuid.UUID `json:"recording_id" db:"recording_id"`
	ReleaseID   uuid.UUID `json:"release_id" db:"release_id"`
	DiscNumber  *int      `json:"disc_number,omitempty" db:"disc_number"`
	TrackNumber *int      `json:"track_number,omitempty" db:"track_number"`
	TrackTitle  *string   `json:"track_title,omitempty" db:"track_title"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ──────────────────── Release imagery ────────────────────

// ReleaseImagery holds one cover image per (release, source, type).
type ReleaseImagery struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	ReleaseID uuid.UUID     `json:"release_id" db:"release_id"`
	Source    ImagerySource `json:"source" db:"source"`
	Type      ImageryType   `json:"type" db:"type"`
	SmallURL  *string       `json:"small_url,omitempty" db:"small_url"`
	MediumURL *string       `json:"medium_url,omitempty" db:"medium_url"`
	LargeURL  *string       `json:"large_url,omitempty" db:"large_url"`
	SourceID  *string       `json:"source_id,omitempty" db:"source_id"`
	SourceURL *string       `json:"source_url,omitempty" db:"source_url"`
	Checksum  *string       `json:"checksum,omitempty" db:"checksum"`
	Approved  bool          `json:"approved" db:"approved"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// ──────────────────── Streaming links ────────────────────

type ReleaseStreamingLink struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	ReleaseID   uuid.UUID        `json:"release_id" db:"release_id"`
	Service     StreamingService `json:"service" db:"service"`
	ServiceID   string           `json:"service_id" db:"service_id"`
	ServiceURL  *string          `json:"service_url,omitempty" db:"service_url"`
	MatchMethod MatchMethod      `json:"match_method" db:"match_method"`
	MatchedAt   time.Time        `json:"matched_at" db:"matched_at"`
}

type TrackStreamingLink struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	RecordingReleaseID uuid.UUID        `json:"recording_release_id" db:"recording_release_id"`
	Service            StreamingService `json:"service" db:"service"`
	ServiceID          string           `json:"service_id" db:"service_id"`
	ServiceURL         *string          `json:"service_url,omitempty" db:"service_url"`
	MatchMethod        MatchMethod      `json:"match_method" db:"match_method"`
	MatchedAt          time.Time        `json:"matched_at" db:"matched_at"`
}

// ──────────────────── User contributions ────────────────────

// UserContribution stores community annotations on a recording, unique per
// (recording, user). The row is deleted when all three payload fields are
// cleared.
type UserContribution struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RecordingID    uuid.UUID `json:"recording_id" db:"recording_id"`
	UserID         uuid.UUID `json:"user_id" db:"user_id"`
	PerformanceKey *string   `json:"performance_key,omitempty" db:"performance_key"`
	TempoBPM       *int      `json:"tempo_bpm,omitempty" db:"tempo_bpm"`
	IsInstrumental *bool     `json:"is_instrumental,omitempty" db:"is_instrumental"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Empty reports whether every payload field has been cleared.
func (c *UserContribution) Empty() bool {
	return c.PerformanceKey == nil && c.TempoBPM == nil && c.IsInstrumental == nil
}

// ──────────────────── Performer portraits ────────────────────

// Image is a licensed editorial portrait, unique on URL.
type Image struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	URL         string       `json:"url" db:"url"`
	License     ImageLicense `json:"license" db:"license"`
	Attribution *string      `json:"attribution,omitempty" db:"attribution"`
	SourcePage  *string      `json:"source_page,omitempty" db:"source_page"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

type ArtistImage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	PerformerID uuid.UUID `json:"performer_id" db:"performer_id"`
	ImageID     uuid.UUID `json:"image_id" db:"image_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
