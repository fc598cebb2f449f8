package core

import (
	"context"
	"time"

	"spotplay/pkg/spotifyuri"
)

// Repeat states accepted by the player.
const (
	RepeatTrack   = "track"
	RepeatContext = "context"
	RepeatOff     = "off"
)

// PlayRequest is a fully parsed inbound play event. All fields except Device
// are optional; names may be free text or Spotify URIs.
type PlayRequest struct {
	Device       string
	Track        string
	Album        string
	Artist       string
	Playlist     string
	Username     string
	Genre        string
	Category     string
	Featured     bool
	NewReleases  bool
	Similar      bool
	RandomStart  bool
	RandomSearch bool
	Shuffle      bool
	Repeat       string
	Single       bool
	Multiple     bool
	NumberTracks int
}

// ControlAction is a transport-control verb.
type ControlAction string

const (
	ActionPause          ControlAction = "pause"
	ActionResume         ControlAction = "resume"
	ActionStop           ControlAction = "stop"
	ActionNext           ControlAction = "next"
	ActionPrevious       ControlAction = "previous"
	ActionIncreaseVolume ControlAction = "increase_volume"
	ActionDecreaseVolume ControlAction = "decrease_volume"
	ActionMute           ControlAction = "mute"
	ActionSnapshot       ControlAction = "snapshot"
	ActionRestore        ControlAction = "restore"
)

// ControlRequest is a fully parsed inbound control event. VolumeLevel, when
// present, is applied independently of Action. TransferTo moves the active
// playback to the named device.
type ControlRequest struct {
	Action      ControlAction
	Device      string
	VolumeLevel *int
	TransferTo  string
}

// ResolvedEntity is a single candidate produced by the entity locator or the
// recommendation expander. Immutable once produced.
type ResolvedEntity struct {
	Kind  spotifyuri.Kind
	URI   string
	Name  string
	Owner string
}

// PlaybackPlan is the concrete argument set for a start-playback command:
// either a context URI or an explicit track list, plus the starting offset.
type PlaybackPlan struct {
	ContextURI string
	TrackURIs  []string
	Offset     int
	OffsetURI  string
	PositionMs int
}

// PlaybackSnapshot captures a device's playback state at a point in time so
// it can be restored later.
type PlaybackSnapshot struct {
	DeviceID   string
	DeviceName string
	ContextURI string
	TrackURI   string
	ProgressMs int
	Shuffle    bool
	Repeat     string
	Playing    bool
	CapturedAt time.Time
}

// Device is an addressable playback device known to the provider.
type Device struct {
	ID            string
	Name          string
	Active        bool
	VolumePercent int
}

// PlayerState is the provider's view of current playback.
type PlayerState struct {
	Device     Device
	ContextURI string
	TrackURI   string
	ProgressMs int
	Shuffle    bool
	Repeat     string
	Playing    bool
}

// Seeds are the inputs to a recommendation query. Tracks and Artists hold
// URIs, Genres holds recommendation genre-seed names.
type Seeds struct {
	Tracks  []string
	Artists []string
	Genres  []string
}

// MusicService is the music-service API client the engine drives. All calls
// are blocking; implementations own timeouts and retry policy, the engine
// performs none of either.
type MusicService interface {
	SearchTracks(ctx context.Context, name, artist string) ([]ResolvedEntity, error)
	SearchAlbums(ctx context.Context, name, artist string) ([]ResolvedEntity, error)
	SearchArtists(ctx context.Context, name string) ([]ResolvedEntity, error)
	SearchPlaylists(ctx context.Context, name string) ([]ResolvedEntity, error)
	UserPlaylists(ctx context.Context, username string) ([]ResolvedEntity, error)
	CurrentUserPlaylists(ctx context.Context) ([]ResolvedEntity, error)
	SavedTracks(ctx context.Context) ([]string, error)

	AlbumTracks(ctx context.Context, albumURI string) ([]string, error)
	AlbumArtist(ctx context.Context, albumURI string) (string, error)
	PlaylistTracks(ctx context.Context, playlistURI string) ([]string, error)
	ArtistTopTracks(ctx context.Context, artistURI string) ([]string, error)
	ArtistAlbums(ctx context.Context, artistURI string) ([]string, error)
	RelatedArtists(ctx context.Context, artistURI string) ([]string, error)
	Recommendations(ctx context.Context, seeds Seeds, limit int) ([]string, error)
	GenreSeeds(ctx context.Context) ([]string, error)
	CategoryPlaylists(ctx context.Context, categoryID string) ([]string, error)
	FeaturedPlaylists(ctx context.Context) ([]string, error)
	NewReleases(ctx context.Context) ([]string, error)

	Devices(ctx context.Context) ([]Device, error)
	PlaybackState(ctx context.Context) (*PlayerState, error)
	Play(ctx context.Context, deviceID string, plan PlaybackPlan) error
	Pause(ctx context.Context, deviceID string) error
	Resume(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	Previous(ctx context.Context, deviceID string) error
	SetShuffle(ctx context.Context, deviceID string, shuffle bool) error
	SetRepeat(ctx context.Context, deviceID, state string) error
	SetVolume(ctx context.Context, deviceID string, percent int) error
	Transfer(ctx context.Context, deviceID string, play bool) error
}
