// Package spotify implements the engine's music-service contract on the
// Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"spotplay/internal/core"
	"spotplay/pkg/spotifyuri"
)

const (
	// FilePermission is the permission for token files
	FilePermission = 0600
	// SearchLimit caps search results per query
	SearchLimit = 10
	// DiscoveryLimit caps featured/new-release/category listings
	DiscoveryLimit = 10
	// PageLimit is the page size for paginated playlist reads
	PageLimit = 100
	// TrackCacheSize bounds the context track-listing cache
	TrackCacheSize = 128
)

type Client struct {
	config *core.SpotifyConfig
	logger *zap.Logger
	client *spotify.Client
	auth   *spotifyauth.Authenticator

	// Context track listings are requested more than once per play request
	// (selection, then random-start offset), so they are cached per URI.
	trackCache *lru.Cache[string, []string]
}

type TokenData struct {
	Token *oauth2.Token `json:"token"`
}

func NewClient(config *core.SpotifyConfig, logger *zap.Logger) *Client {
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(config.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPlaybackState,
			spotifyauth.ScopeUserModifyPlaybackState,
			spotifyauth.ScopeUserReadCurrentlyPlaying,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopeUserLibraryRead,
		),
		spotifyauth.WithClientID(config.ClientID),
		spotifyauth.WithClientSecret(config.ClientSecret),
	)

	trackCache, _ := lru.New[string, []string](TrackCacheSize)

	return &Client{
		config:     config,
		logger:     logger,
		auth:       auth,
		trackCache: trackCache,
	}
}

func (c *Client) Authenticate(ctx context.Context) error {
	token, err := c.loadToken()
	if err != nil {
		c.logger.Info("No saved token found, starting OAuth flow")
		return c.startOAuthFlow(ctx)
	}

	client := spotify.New(c.auth.Client(ctx, token))
	c.client = client

	user, err := client.CurrentUser(ctx)
	if err != nil {
		c.logger.Warn("Saved token invalid, starting OAuth flow", zap.Error(err))
		return c.startOAuthFlow(ctx)
	}

	c.logger.Info("Authenticated successfully", zap.String("user", user.DisplayName))
	return nil
}

func (c *Client) startOAuthFlow(ctx context.Context) error {
	state := "spotplay-auth-state"
	authURL := c.auth.AuthURL(state)

	fmt.Printf("Please visit the following URL to authorize the application:\n%s\n", authURL)
	fmt.Print("Enter the authorization code: ")

	var code string
	if _, err := fmt.Scanln(&code); err != nil {
		return fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if saveErr := c.saveToken(token); saveErr != nil {
		c.logger.Warn("Failed to save token", zap.Error(saveErr))
	}

	client := spotify.New(c.auth.Client(ctx, token))
	c.client = client

	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}

	c.logger.Info("OAuth flow completed successfully", zap.String("user", user.DisplayName))
	return nil
}

func (c *Client) loadToken() (*oauth2.Token, error) {
	file, err := os.Open(c.config.TokenPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		return nil, err
	}

	return tokenData.Token, nil
}

func (c *Client) saveToken(token *oauth2.Token) error {
	tokenData := TokenData{Token: token}

	data, err := json.MarshalIndent(tokenData, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.config.TokenPath, data, FilePermission)
}

func (c *Client) ready() error {
	if c.client == nil {
		return core.NewServiceError("auth", fmt.Errorf("client not authenticated"))
	}
	return nil
}

// SearchTracks searches the catalog for tracks by name, optionally narrowed
// to an artist, the way a user would type them.
func (c *Client) SearchTracks(ctx context.Context, name, artist string) ([]core.ResolvedEntity, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := "track:" + name
	if artist != "" {
		query = "artist:" + artist + " " + query
	}

	results, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
		spotify.Limit(SearchLimit), spotify.Market(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("search tracks", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	var entities []core.ResolvedEntity
	for i := range results.Tracks.Tracks {
		track := &results.Tracks.Tracks[i]
		entities = append(entities, core.ResolvedEntity{
			Kind: spotifyuri.KindTrack,
			URI:  string(track.URI),
			Name: track.Name,
		})
	}
	return entities, nil
}

func (c *Client) SearchAlbums(ctx context.Context, name, artist string) ([]core.ResolvedEntity, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	query := "album:" + name
	if artist != "" {
		query = query + " artist:" + artist
	}

	results, err := c.client.Search(ctx, query, spotify.SearchTypeAlbum,
		spotify.Limit(SearchLimit), spotify.Market(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("search albums", err)
	}
	if results.Albums == nil {
		return nil, nil
	}

	var entities []core.ResolvedEntity
	for i := range results.Albums.Albums {
		album := &results.Albums.Albums[i]
		entities = append(entities, core.ResolvedEntity{
			Kind: spotifyuri.KindAlbum,
			URI:  string(album.URI),
			Name: album.Name,
		})
	}
	return entities, nil
}

func (c *Client) SearchArtists(ctx context.Context, name string) ([]core.ResolvedEntity, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	results, err := c.client.Search(ctx, "artist:"+name, spotify.SearchTypeArtist,
		spotify.Limit(SearchLimit), spotify.Market(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("search artists", err)
	}
	if results.Artists == nil {
		return nil, nil
	}

	var entities []core.ResolvedEntity
	for i := range results.Artists.Artists {
		artist := &results.Artists.Artists[i]
		entities = append(entities, core.ResolvedEntity{
			Kind: spotifyuri.KindArtist,
			URI:  string(artist.URI),
			Name: artist.Name,
		})
	}
	return entities, nil
}

func (c *Client) SearchPlaylists(ctx context.Context, name string) ([]core.ResolvedEntity, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	results, err := c.client.Search(ctx, name, spotify.SearchTypePlaylist,
		spotify.Limit(SearchLimit), spotify.Market(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("search playlists", err)
	}
	if results.Playlists == nil {
		return nil, nil
	}

	return simplePlaylistEntities(results.Playlists.Playlists), nil
}

func (c *Client) UserPlaylists(ctx context.Context, username string) ([]core.ResolvedEntity, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	page, err := c.client.GetPlaylistsForUser(ctx, username, spotify.Limit(50))
	if err != nil {
		return nil, core.NewServiceError("user playlists", err)
	}

	return simplePlaylistEntities(page.Playlists), nil
}

func (c *Client) CurrentUserPlaylists(ctx context.Context) ([]core.ResolvedEntity, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	page, err := c.client.CurrentUsersPlaylists(ctx, spotify.Limit(50))
	if err != nil {
		return nil, core.NewServiceError("current user playlists", err)
	}

	return simplePlaylistEntities(page.Playlists), nil
}

func (c *Client) SavedTracks(ctx context.Context) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	page, err := c.client.CurrentUsersTracks(ctx, spotify.Limit(50))
	if err != nil {
		return nil, core.NewServiceError("saved tracks", err)
	}

	uris := make([]string, 0, len(page.Tracks))
	for i := range page.Tracks {
		uris = append(uris, string(page.Tracks[i].URI))
	}
	return uris, nil
}

func (c *Client) AlbumTracks(ctx context.Context, albumURI string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if cached, ok := c.trackCache.Get(albumURI); ok {
		return cached, nil
	}

	page, err := c.client.GetAlbumTracks(ctx, spotify.ID(spotifyuri.ID(albumURI)),
		spotify.Limit(50), spotify.Market(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("album tracks", err)
	}

	uris := make([]string, 0, len(page.Tracks))
	for i := range page.Tracks {
		uris = append(uris, string(page.Tracks[i].URI))
	}
	c.trackCache.Add(albumURI, uris)
	return uris, nil
}

func (c *Client) AlbumArtist(ctx context.Context, albumURI string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}

	album, err := c.client.GetAlbum(ctx, spotify.ID(spotifyuri.ID(albumURI)))
	if err != nil {
		return "", core.NewServiceError("album", err)
	}
	if len(album.Artists) == 0 {
		return "", core.NewServiceError("album", fmt.Errorf("album %s has no artist", albumURI))
	}

	return string(album.Artists[0].URI), nil
}

func (c *Client) PlaylistTracks(ctx context.Context, playlistURI string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if cached, ok := c.trackCache.Get(playlistURI); ok {
		return cached, nil
	}

	playlistID := spotify.ID(spotifyuri.ID(playlistURI))
	var uris []string
	offset := 0

	for {
		items, err := c.client.GetPlaylistItems(ctx, playlistID,
			spotify.Limit(PageLimit), spotify.Offset(offset))
		if err != nil {
			return nil, core.NewServiceError("playlist tracks", err)
		}

		for i := range items.Items {
			// Only tracks, not episodes or null items.
			if items.Items[i].Track.Track != nil {
				uris = append(uris, string(items.Items[i].Track.Track.URI))
			}
		}

		if len(items.Items) < PageLimit {
			break
		}
		offset += PageLimit
	}

	c.trackCache.Add(playlistURI, uris)
	return uris, nil
}

func (c *Client) ArtistTopTracks(ctx context.Context, artistURI string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	if cached, ok := c.trackCache.Get(artistURI); ok {
		return cached, nil
	}

	tracks, err := c.client.GetArtistsTopTracks(ctx, spotify.ID(spotifyuri.ID(artistURI)), c.config.Country)
	if err != nil {
		return nil, core.NewServiceError("artist top tracks", err)
	}

	uris := make([]string, 0, len(tracks))
	for i := range tracks {
		uris = append(uris, string(tracks[i].URI))
	}
	c.trackCache.Add(artistURI, uris)
	return uris, nil
}

func (c *Client) ArtistAlbums(ctx context.Context, artistURI string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	page, err := c.client.GetArtistAlbums(ctx, spotify.ID(spotifyuri.ID(artistURI)), nil,
		spotify.Limit(20), spotify.Market(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("artist albums", err)
	}

	uris := make([]string, 0, len(page.Albums))
	for i := range page.Albums {
		uris = append(uris, string(page.Albums[i].URI))
	}
	return uris, nil
}

func (c *Client) RelatedArtists(ctx context.Context, artistURI string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	artists, err := c.client.GetRelatedArtists(ctx, spotify.ID(spotifyuri.ID(artistURI)))
	if err != nil {
		return nil, core.NewServiceError("related artists", err)
	}

	uris := make([]string, 0, len(artists))
	for i := range artists {
		uris = append(uris, string(artists[i].URI))
	}
	return uris, nil
}

func (c *Client) Recommendations(ctx context.Context, seeds core.Seeds, limit int) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	spotifySeeds := spotify.Seeds{Genres: seeds.Genres}
	for _, uri := range seeds.Tracks {
		spotifySeeds.Tracks = append(spotifySeeds.Tracks, spotify.ID(spotifyuri.ID(uri)))
	}
	for _, uri := range seeds.Artists {
		spotifySeeds.Artists = append(spotifySeeds.Artists, spotify.ID(spotifyuri.ID(uri)))
	}

	recs, err := c.client.GetRecommendations(ctx, spotifySeeds, nil,
		spotify.Limit(limit), spotify.Market(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("recommendations", err)
	}

	uris := make([]string, 0, len(recs.Tracks))
	for i := range recs.Tracks {
		uris = append(uris, string(recs.Tracks[i].URI))
	}
	return uris, nil
}

func (c *Client) GenreSeeds(ctx context.Context) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	seeds, err := c.client.GetAvailableGenreSeeds(ctx)
	if err != nil {
		return nil, core.NewServiceError("genre seeds", err)
	}
	return seeds, nil
}

func (c *Client) CategoryPlaylists(ctx context.Context, categoryID string) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	page, err := c.client.GetCategoryPlaylists(ctx, categoryID,
		spotify.Limit(DiscoveryLimit), spotify.Country(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("category playlists", err)
	}

	uris := make([]string, 0, len(page.Playlists))
	for i := range page.Playlists {
		uris = append(uris, string(page.Playlists[i].URI))
	}
	return uris, nil
}

func (c *Client) FeaturedPlaylists(ctx context.Context) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	_, page, err := c.client.FeaturedPlaylists(ctx,
		spotify.Limit(DiscoveryLimit),
		spotify.Country(c.config.Country),
		spotify.Locale(c.config.Language))
	if err != nil {
		return nil, core.NewServiceError("featured playlists", err)
	}

	uris := make([]string, 0, len(page.Playlists))
	for i := range page.Playlists {
		uris = append(uris, string(page.Playlists[i].URI))
	}
	return uris, nil
}

func (c *Client) NewReleases(ctx context.Context) ([]string, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	page, err := c.client.NewReleases(ctx,
		spotify.Limit(DiscoveryLimit), spotify.Country(c.config.Country))
	if err != nil {
		return nil, core.NewServiceError("new releases", err)
	}

	uris := make([]string, 0, len(page.Albums))
	for i := range page.Albums {
		uris = append(uris, string(page.Albums[i].URI))
	}
	return uris, nil
}

func (c *Client) Devices(ctx context.Context) ([]core.Device, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	devices, err := c.client.PlayerDevices(ctx)
	if err != nil {
		return nil, core.NewServiceError("devices", err)
	}

	result := make([]core.Device, 0, len(devices))
	for _, d := range devices {
		result = append(result, core.Device{
			ID:            d.ID.String(),
			Name:          d.Name,
			Active:        d.Active,
			VolumePercent: int(d.Volume),
		})
	}
	return result, nil
}

func (c *Client) PlaybackState(ctx context.Context) (*core.PlayerState, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}

	state, err := c.client.PlayerState(ctx)
	if err != nil {
		return nil, core.NewServiceError("player state", err)
	}
	if state == nil {
		return nil, nil
	}

	result := &core.PlayerState{
		Device: core.Device{
			ID:            state.Device.ID.String(),
			Name:          state.Device.Name,
			Active:        state.Device.Active,
			VolumePercent: int(state.Device.Volume),
		},
		ContextURI: string(state.PlaybackContext.URI),
		ProgressMs: int(state.Progress),
		Shuffle:    state.ShuffleState,
		Repeat:     state.RepeatState,
		Playing:    state.Playing,
	}
	if state.Item != nil {
		result.TrackURI = string(state.Item.URI)
	}
	return result, nil
}

func (c *Client) Play(ctx context.Context, deviceID string, plan core.PlaybackPlan) error {
	if err := c.ready(); err != nil {
		return err
	}

	if err := c.client.PlayOpt(ctx, playOptions(deviceID, plan)); err != nil {
		return core.NewServiceError("play", err)
	}

	c.logger.Debug("Started playback",
		zap.String("deviceID", deviceID),
		zap.String("context", plan.ContextURI),
		zap.Int("tracks", len(plan.TrackURIs)))

	return nil
}

func (c *Client) Pause(ctx context.Context, deviceID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.PauseOpt(ctx, deviceOpts(deviceID)); err != nil {
		return core.NewServiceError("pause", err)
	}
	return nil
}

// Resume continues playback without supplying a new context.
func (c *Client) Resume(ctx context.Context, deviceID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.PlayOpt(ctx, deviceOpts(deviceID)); err != nil {
		return core.NewServiceError("resume", err)
	}
	return nil
}

func (c *Client) Next(ctx context.Context, deviceID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.NextOpt(ctx, deviceOpts(deviceID)); err != nil {
		return core.NewServiceError("next", err)
	}
	return nil
}

func (c *Client) Previous(ctx context.Context, deviceID string) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.PreviousOpt(ctx, deviceOpts(deviceID)); err != nil {
		return core.NewServiceError("previous", err)
	}
	return nil
}

func (c *Client) SetShuffle(ctx context.Context, deviceID string, shuffle bool) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.ShuffleOpt(ctx, shuffle, deviceOpts(deviceID)); err != nil {
		return core.NewServiceError("shuffle", err)
	}
	return nil
}

func (c *Client) SetRepeat(ctx context.Context, deviceID, state string) error {
	if err := c.ready(); err != nil {
		return err
	}

	switch state {
	case core.RepeatTrack, core.RepeatContext, core.RepeatOff:
	default:
		return core.NewServiceError("repeat", fmt.Errorf("invalid repeat state: %s", state))
	}

	if err := c.client.RepeatOpt(ctx, state, deviceOpts(deviceID)); err != nil {
		return core.NewServiceError("repeat", err)
	}
	return nil
}

func (c *Client) SetVolume(ctx context.Context, deviceID string, percent int) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.VolumeOpt(ctx, percent, deviceOpts(deviceID)); err != nil {
		return core.NewServiceError("volume", err)
	}
	return nil
}

func (c *Client) Transfer(ctx context.Context, deviceID string, play bool) error {
	if err := c.ready(); err != nil {
		return err
	}
	if err := c.client.TransferPlayback(ctx, spotify.ID(deviceID), play); err != nil {
		return core.NewServiceError("transfer", err)
	}
	return nil
}

// playOptions translates a playback plan into the API's start-playback
// argument set: context or explicit track list, offset by track or position,
// and the resume position in milliseconds.
func playOptions(deviceID string, plan core.PlaybackPlan) *spotify.PlayOptions {
	opts := &spotify.PlayOptions{
		PositionMs: plan.PositionMs,
	}
	if deviceID != "" {
		id := spotify.ID(deviceID)
		opts.DeviceID = &id
	}
	if plan.ContextURI != "" {
		contextURI := spotify.URI(plan.ContextURI)
		opts.PlaybackContext = &contextURI
	}
	for _, uri := range plan.TrackURIs {
		opts.URIs = append(opts.URIs, spotify.URI(uri))
	}
	switch {
	case plan.OffsetURI != "":
		opts.PlaybackOffset = &spotify.PlaybackOffset{URI: spotify.URI(plan.OffsetURI)}
	case plan.Offset > 0:
		position := plan.Offset
		opts.PlaybackOffset = &spotify.PlaybackOffset{Position: &position}
	}
	return opts
}

func deviceOpts(deviceID string) *spotify.PlayOptions {
	if deviceID == "" {
		return nil
	}
	id := spotify.ID(deviceID)
	return &spotify.PlayOptions{DeviceID: &id}
}

func simplePlaylistEntities(playlists []spotify.SimplePlaylist) []core.ResolvedEntity {
	entities := make([]core.ResolvedEntity, 0, len(playlists))
	for i := range playlists {
		pl := &playlists[i]
		entities = append(entities, core.ResolvedEntity{
			Kind:  spotifyuri.KindPlaylist,
			URI:   string(pl.URI),
			Name:  pl.Name,
			Owner: pl.Owner.DisplayName,
		})
	}
	return entities
}
