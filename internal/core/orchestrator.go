package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spotplay/pkg/spotifyuri"
)

// Orchestrator drives a play request through validation, resolution,
// selection and dispatch. Each request runs to completion independently; no
// state survives between requests and no device command is sent once any
// stage has failed.
type Orchestrator struct {
	config   *Config
	service  MusicService
	aliases  *AliasResolver
	locator  *Locator
	recs     *Recommender
	selector *Selector
	logger   *zap.Logger
}

func NewOrchestrator(config *Config, service MusicService, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		config:   config,
		service:  service,
		aliases:  NewAliasResolver(&config.Aliases),
		locator:  NewLocator(service, logger.Named("locator")),
		recs:     NewRecommender(service, logger.Named("recommender")),
		selector: NewSelector(service, config.Play.DefaultTrackCount, logger.Named("selector")),
		logger:   logger,
	}
}

// Aliases exposes the resolver so the control dispatcher shares one alias map.
func (o *Orchestrator) Aliases() *AliasResolver {
	return o.aliases
}

// intentResolver pairs a predicate over the request's primary fields with the
// resolution routine for that intent. The table is evaluated top to bottom
// and the first match is committed to: a later field never substitutes for a
// failed earlier one.
type intentResolver struct {
	name    string
	matches func(*PlayRequest) bool
	resolve func(context.Context, *PlayRequest) ([]ResolvedEntity, error)
}

func (o *Orchestrator) intents() []intentResolver {
	return []intentResolver{
		{"track", func(r *PlayRequest) bool { return r.Track != "" }, o.resolveTrack},
		{"album", func(r *PlayRequest) bool { return r.Album != "" }, o.resolveAlbum},
		{"artist", func(r *PlayRequest) bool { return r.Artist != "" }, o.resolveArtist},
		{"playlist", func(r *PlayRequest) bool { return r.Playlist != "" && r.Username == "" }, o.resolvePlaylist},
		{"user_playlist", func(r *PlayRequest) bool { return r.Playlist != "" && r.Username != "" }, o.resolveUserPlaylist},
		{"genre", func(r *PlayRequest) bool { return r.Genre != "" }, o.resolveGenre},
		{"category", func(r *PlayRequest) bool { return r.Category != "" }, o.resolveCategory},
		{"featured", func(r *PlayRequest) bool { return r.Featured }, o.resolveFeatured},
		{"new_releases", func(r *PlayRequest) bool { return r.NewReleases }, o.resolveNewReleases},
	}
}

// Intent names the resolution path a request will take, for logs and metrics.
func (o *Orchestrator) Intent(req *PlayRequest) string {
	for _, in := range o.intents() {
		if in.matches(req) {
			return in.name
		}
	}
	return "fallback"
}

// HandlePlay validates, resolves, selects and dispatches one play request.
func (o *Orchestrator) HandlePlay(ctx context.Context, req *PlayRequest) error {
	deviceID, deviceName, err := o.resolveDevice(ctx, req.Device)
	if err != nil {
		return err
	}

	intentName := "fallback"
	resolve := o.resolveFallback
	for _, in := range o.intents() {
		if in.matches(req) {
			intentName, resolve = in.name, in.resolve
			break
		}
	}

	candidates, err := resolve(ctx, req)
	if err != nil {
		return fmt.Errorf("resolving %s intent: %w", intentName, err)
	}

	plan, err := o.selector.Select(ctx, candidates, Modifiers{
		Single:       req.Single,
		Multiple:     req.Multiple,
		RandomSearch: req.RandomSearch,
		RandomStart:  req.RandomStart,
		TrackCount:   req.NumberTracks,
	})
	if err != nil {
		return fmt.Errorf("selecting from %s candidates: %w", intentName, err)
	}

	o.logger.Info("Dispatching playback",
		zap.String("intent", intentName),
		zap.String("device", deviceName),
		zap.String("context", plan.ContextURI),
		zap.Int("tracks", len(plan.TrackURIs)),
		zap.Int("offset", plan.Offset))

	// Shuffle and repeat are applied first so the device starts playback
	// already in the requested mode.
	if err := o.service.SetShuffle(ctx, deviceID, req.Shuffle); err != nil {
		return err
	}
	if err := o.service.SetRepeat(ctx, deviceID, req.Repeat); err != nil {
		return err
	}
	return o.service.Play(ctx, deviceID, plan)
}

// resolveDevice maps the requested device through the alias table and the
// provider's device list. The request is rejected unless it names exactly one
// known device.
func (o *Orchestrator) resolveDevice(ctx context.Context, name string) (id, canonical string, err error) {
	if strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("%w: device is required", ErrInvalidRequest)
	}

	canonical = o.aliases.Resolve(AliasDevice, name)

	devices, err := o.service.Devices(ctx)
	if err != nil {
		return "", "", err
	}
	for _, d := range devices {
		if strings.EqualFold(d.Name, canonical) {
			return d.ID, canonical, nil
		}
	}

	return "", "", fmt.Errorf("%w: unknown device %q", ErrInvalidRequest, canonical)
}

func (o *Orchestrator) resolveTrack(ctx context.Context, req *PlayRequest) ([]ResolvedEntity, error) {
	return o.locateOrSimilar(ctx, spotifyuri.KindTrack, req.Track, req)
}

func (o *Orchestrator) resolveAlbum(ctx context.Context, req *PlayRequest) ([]ResolvedEntity, error) {
	return o.locateOrSimilar(ctx, spotifyuri.KindAlbum, req.Album, req)
}

func (o *Orchestrator) resolveArtist(ctx context.Context, req *PlayRequest) ([]ResolvedEntity, error) {
	return o.locateOrSimilar(ctx, spotifyuri.KindArtist, req.Artist, req)
}

// locateOrSimilar resolves the named entity; in similar mode the resolved
// entity becomes the seed of a similarity expansion instead of being played.
func (o *Orchestrator) locateOrSimilar(ctx context.Context, kind spotifyuri.Kind, text string, req *PlayRequest) ([]ResolvedEntity, error) {
	artist := ""
	if kind != spotifyuri.KindArtist {
		artist = req.Artist
	}

	entities, err := o.locator.Locate(ctx, kind, text, artist, "")
	if err != nil {
		return nil, err
	}

	if req.Similar {
		return o.recs.Similar(ctx, entities[0])
	}
	return entities, nil
}

func (o *Orchestrator) resolvePlaylist(ctx context.Context, req *PlayRequest) ([]ResolvedEntity, error) {
	return o.locator.Locate(ctx, spotifyuri.KindPlaylist, req.Playlist, "", "")
}

func (o *Orchestrator) resolveUserPlaylist(ctx context.Context, req *PlayRequest) ([]ResolvedEntity, error) {
	owner := o.aliases.Resolve(AliasUser, req.Username)
	return o.locator.Locate(ctx, spotifyuri.KindPlaylist, req.Playlist, "", owner)
}

func (o *Orchestrator) resolveGenre(ctx context.Context, req *PlayRequest) ([]ResolvedEntity, error) {
	return o.recs.Genre(ctx, req.Genre)
}

func (o *Orchestrator) resolveCategory(ctx context.Context, req *PlayRequest) ([]ResolvedEntity, error) {
	return o.recs.Category(ctx, req.Category)
}

func (o *Orchestrator) resolveFeatured(ctx context.Context, _ *PlayRequest) ([]ResolvedEntity, error) {
	return o.recs.Featured(ctx)
}

func (o *Orchestrator) resolveNewReleases(ctx context.Context, _ *PlayRequest) ([]ResolvedEntity, error) {
	return o.recs.NewReleases(ctx)
}

// resolveFallback handles requests with no primary intent field at all: the
// requester's own playlists, then their saved tracks.
func (o *Orchestrator) resolveFallback(ctx context.Context, _ *PlayRequest) ([]ResolvedEntity, error) {
	playlists, err := o.service.CurrentUserPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	if len(playlists) > 0 {
		return playlists, nil
	}

	saved, err := o.service.SavedTracks(ctx)
	if err != nil {
		return nil, err
	}

	entities := make([]ResolvedEntity, 0, len(saved))
	for _, uri := range saved {
		entities = append(entities, ResolvedEntity{Kind: spotifyuri.KindTrack, URI: uri})
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: no playlists or saved tracks to fall back to", ErrNotFound)
	}
	return entities, nil
}
