package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spotplay/pkg/fuzzy"
	"spotplay/pkg/spotifyuri"
)

// Locator turns free-form names into ranked catalog candidates. Inputs that
// are already URIs of the requested kind pass through without a search.
type Locator struct {
	service    MusicService
	normalizer *fuzzy.Normalizer
	logger     *zap.Logger
}

func NewLocator(service MusicService, logger *zap.Logger) *Locator {
	return &Locator{
		service:    service,
		normalizer: fuzzy.NewNormalizer(),
		logger:     logger,
	}
}

// Locate resolves text into candidates of the given kind, ordered by the
// provider's relevance ranking. artist narrows track and album searches;
// owner scopes playlist lookup to that user's library. Zero matches is an
// ErrNotFound.
func (l *Locator) Locate(ctx context.Context, kind spotifyuri.Kind, text, artist, owner string) ([]ResolvedEntity, error) {
	if spotifyuri.IsKind(text, kind) {
		return []ResolvedEntity{{Kind: kind, URI: text}}, nil
	}
	if spotifyuri.IsURI(text) {
		return nil, fmt.Errorf("%w: %q is not a %s URI", ErrInvalidRequest, text, kind)
	}

	query := l.normalizer.Normalize(text)

	var (
		entities []ResolvedEntity
		err      error
	)
	switch kind {
	case spotifyuri.KindTrack:
		entities, err = l.service.SearchTracks(ctx, query, l.normalizer.NormalizeArtist(artist))
	case spotifyuri.KindAlbum:
		entities, err = l.service.SearchAlbums(ctx, query, l.normalizer.NormalizeArtist(artist))
	case spotifyuri.KindArtist:
		entities, err = l.service.SearchArtists(ctx, l.normalizer.NormalizeArtist(query))
	case spotifyuri.KindPlaylist:
		if owner != "" {
			return l.locateUserPlaylist(ctx, text, owner)
		}
		entities, err = l.service.SearchPlaylists(ctx, query)
	default:
		return nil, fmt.Errorf("%w: cannot locate kind %q", ErrInvalidRequest, kind)
	}
	if err != nil {
		return nil, err
	}

	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, kind, text)
	}

	l.logger.Debug("Located catalog candidates",
		zap.String("kind", string(kind)),
		zap.String("query", query),
		zap.Int("count", len(entities)))

	return entities, nil
}

// locateUserPlaylist matches the playlist name against the owner's library
// instead of the global catalog.
func (l *Locator) locateUserPlaylist(ctx context.Context, name, owner string) ([]ResolvedEntity, error) {
	playlists, err := l.service.UserPlaylists(ctx, owner)
	if err != nil {
		return nil, err
	}

	var matches []ResolvedEntity
	for _, pl := range playlists {
		if strings.EqualFold(strings.TrimSpace(pl.Name), strings.TrimSpace(name)) {
			matches = append(matches, pl)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: playlist %q owned by %q", ErrNotFound, name, owner)
	}

	return matches, nil
}
