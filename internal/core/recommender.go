package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"spotplay/pkg/spotifyuri"
)

// RecommendationLimit bounds every discovery and similarity query.
const RecommendationLimit = 10

// Recommender expands seeds (genre, category, featured/new-releases markers,
// or a resolved entity in similar mode) into playable candidates.
type Recommender struct {
	service MusicService
	logger  *zap.Logger
}

func NewRecommender(service MusicService, logger *zap.Logger) *Recommender {
	return &Recommender{service: service, logger: logger}
}

// Genre resolves a genre name through the provider's recommendation genre
// seeds, falling back to the category list when the name is a category id
// instead.
func (r *Recommender) Genre(ctx context.Context, genre string) ([]ResolvedEntity, error) {
	seeds, err := r.service.GenreSeeds(ctx)
	if err != nil {
		return nil, err
	}
	if containsFold(seeds, genre) {
		tracks, err := r.service.Recommendations(ctx, Seeds{Genres: []string{genre}}, RecommendationLimit)
		if err != nil {
			return nil, err
		}
		return r.uriEntities(tracks, "genre recommendations")
	}

	// Not a recommendation seed; the name may still be a browse category.
	playlists, err := r.service.CategoryPlaylists(ctx, genre)
	if err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		return nil, fmt.Errorf("%w: genre %q", ErrNotFound, genre)
	}
	return r.uriEntities(playlists, "genre category playlists")
}

// Category returns the provider's playlists for a category, already ranked.
func (r *Recommender) Category(ctx context.Context, category string) ([]ResolvedEntity, error) {
	playlists, err := r.service.CategoryPlaylists(ctx, category)
	if err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		// The category name may be usable as a genre seed instead.
		tracks, err := r.service.Recommendations(ctx, Seeds{Genres: []string{category}}, RecommendationLimit)
		if err != nil {
			return nil, err
		}
		return r.uriEntities(tracks, "category recommendations")
	}
	return r.uriEntities(playlists, "category playlists")
}

// Featured returns the provider's featured playlists, falling back to new
// releases when the featured list is empty.
func (r *Recommender) Featured(ctx context.Context) ([]ResolvedEntity, error) {
	playlists, err := r.service.FeaturedPlaylists(ctx)
	if err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		albums, err := r.service.NewReleases(ctx)
		if err != nil {
			return nil, err
		}
		return r.uriEntities(albums, "featured fallback")
	}
	return r.uriEntities(playlists, "featured playlists")
}

// NewReleases returns newly released albums, falling back to featured
// playlists when the release list is empty.
func (r *Recommender) NewReleases(ctx context.Context) ([]ResolvedEntity, error) {
	albums, err := r.service.NewReleases(ctx)
	if err != nil {
		return nil, err
	}
	if len(albums) == 0 {
		playlists, err := r.service.FeaturedPlaylists(ctx)
		if err != nil {
			return nil, err
		}
		return r.uriEntities(playlists, "new releases fallback")
	}
	return r.uriEntities(albums, "new releases")
}

// Similar expands a resolved entity into nearby candidates, never including
// the seed itself.
func (r *Recommender) Similar(ctx context.Context, seed ResolvedEntity) ([]ResolvedEntity, error) {
	var (
		uris []string
		err  error
	)

	switch seed.Kind {
	case spotifyuri.KindTrack:
		uris, err = r.service.Recommendations(ctx, Seeds{Tracks: []string{seed.URI}}, RecommendationLimit)
	case spotifyuri.KindArtist:
		uris, err = r.service.RelatedArtists(ctx, seed.URI)
	case spotifyuri.KindAlbum:
		uris, err = r.similarAlbums(ctx, seed.URI)
	default:
		return nil, fmt.Errorf("%w: no similarity source for %s", ErrNoRecommendations, seed.Kind)
	}
	if err != nil {
		return nil, err
	}

	filtered := uris[:0]
	for _, uri := range uris {
		if uri != seed.URI {
			filtered = append(filtered, uri)
		}
	}

	r.logger.Debug("Expanded similar candidates",
		zap.String("seed", seed.URI),
		zap.Int("count", len(filtered)))

	return r.uriEntities(filtered, "similar")
}

// similarAlbums walks album -> artist -> related artist -> that artist's
// albums. When no related artist exists, the seed's own artist is used.
func (r *Recommender) similarAlbums(ctx context.Context, albumURI string) ([]string, error) {
	artistURI, err := r.service.AlbumArtist(ctx, albumURI)
	if err != nil {
		return nil, err
	}

	related, err := r.service.RelatedArtists(ctx, artistURI)
	if err != nil {
		return nil, err
	}

	chosen := artistURI
	if len(related) > 0 {
		chosen = related[0]
	}

	return r.service.ArtistAlbums(ctx, chosen)
}

func (r *Recommender) uriEntities(uris []string, source string) ([]ResolvedEntity, error) {
	entities := make([]ResolvedEntity, 0, len(uris))
	for _, uri := range uris {
		kind, _, ok := spotifyuri.Parse(uri)
		if !ok {
			r.logger.Warn("Provider returned malformed URI, skipping",
				zap.String("uri", uri),
				zap.String("source", source))
			continue
		}
		entities = append(entities, ResolvedEntity{Kind: kind, URI: uri})
	}

	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecommendations, source)
	}
	return entities, nil
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
