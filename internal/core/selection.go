package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"spotplay/pkg/spotifyuri"
)

// Package-level random number generator for candidate shuffling and offsets.
var rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // Music selection doesn't require crypto-secure randomness

// Modifiers are the request fields that shape candidate selection. Precedence
// is Single > Multiple > TrackCount > default; RandomSearch only reorders
// candidates, RandomStart only moves the starting offset.
type Modifiers struct {
	Single       bool
	Multiple     bool
	RandomSearch bool
	RandomStart  bool
	TrackCount   int
}

// Selector applies the selection policy: given resolved candidates and the
// request modifiers it produces the one concrete playback plan.
type Selector struct {
	service      MusicService
	defaultCount int
	logger       *zap.Logger
}

func NewSelector(service MusicService, defaultCount int, logger *zap.Logger) *Selector {
	if defaultCount <= 0 {
		defaultCount = 10
	}
	return &Selector{service: service, defaultCount: defaultCount, logger: logger}
}

func (s *Selector) Select(ctx context.Context, candidates []ResolvedEntity, mods Modifiers) (PlaybackPlan, error) {
	if len(candidates) == 0 {
		return PlaybackPlan{}, fmt.Errorf("%w: no candidates to select from", ErrNotFound)
	}

	ordered := make([]ResolvedEntity, len(candidates))
	copy(ordered, candidates)
	if mods.RandomSearch {
		rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}

	var (
		plan PlaybackPlan
		err  error
	)
	switch {
	case mods.Single:
		plan, err = s.selectSingle(ctx, ordered, mods.RandomSearch)
	case mods.Multiple || mods.TrackCount > 0:
		plan, err = s.selectTracks(ctx, ordered, mods.TrackCount)
	default:
		plan, err = s.selectDefault(ordered)
	}
	if err != nil {
		return PlaybackPlan{}, err
	}

	if mods.RandomStart {
		if err := s.applyRandomStart(ctx, &plan); err != nil {
			return PlaybackPlan{}, err
		}
	}

	return plan, nil
}

// selectSingle yields a plan with exactly one track and no context, whatever
// the candidate kinds.
func (s *Selector) selectSingle(ctx context.Context, candidates []ResolvedEntity, random bool) (PlaybackPlan, error) {
	first := candidates[0]

	var tracks []string
	if first.Kind == spotifyuri.KindTrack {
		// Pick among the track candidates themselves.
		tracks = trackURIs(candidates)
	} else {
		var err error
		tracks, err = s.contextTracks(ctx, first)
		if err != nil {
			return PlaybackPlan{}, err
		}
	}

	chosen := tracks[0]
	if random {
		chosen = tracks[rng.Intn(len(tracks))]
	}

	return PlaybackPlan{TrackURIs: []string{chosen}}, nil
}

// selectTracks builds a plan of up to count tracks drawn from the candidates.
// Fewer available tracks than requested is not padded.
func (s *Selector) selectTracks(ctx context.Context, candidates []ResolvedEntity, count int) (PlaybackPlan, error) {
	if count <= 0 {
		count = s.defaultCount
	}

	var tracks []string
	if candidates[0].Kind == spotifyuri.KindTrack {
		tracks = trackURIs(candidates)
		if len(tracks) == 1 && count > 1 {
			// A lone track is padded out with recommendations seeded by it.
			recs, err := s.service.Recommendations(ctx, Seeds{Tracks: tracks}, count-1)
			if err == nil {
				tracks = append(tracks, recs...)
			} else {
				s.logger.Debug("No recommendations to extend single track", zap.Error(err))
			}
		}
	} else {
		var err error
		tracks, err = s.contextTracks(ctx, candidates[0])
		if err != nil {
			return PlaybackPlan{}, err
		}
	}

	if len(tracks) > count {
		tracks = tracks[:count]
	}

	return PlaybackPlan{TrackURIs: tracks}, nil
}

// selectDefault plays the first candidate as a context in full, or the track
// list itself when the candidates are tracks.
func (s *Selector) selectDefault(candidates []ResolvedEntity) (PlaybackPlan, error) {
	first := candidates[0]
	if first.Kind == spotifyuri.KindTrack {
		return PlaybackPlan{TrackURIs: trackURIs(candidates)}, nil
	}
	return PlaybackPlan{ContextURI: first.URI}, nil
}

// applyRandomStart draws a uniform offset within the plan's final track
// count. Track membership and count are never changed here.
func (s *Selector) applyRandomStart(ctx context.Context, plan *PlaybackPlan) error {
	count := len(plan.TrackURIs)
	if plan.ContextURI != "" {
		kind, _, _ := spotifyuri.Parse(plan.ContextURI)
		tracks, err := s.contextTracks(ctx, ResolvedEntity{Kind: kind, URI: plan.ContextURI})
		if err != nil {
			return err
		}
		count = len(tracks)
	}

	if count > 1 {
		plan.Offset = rng.Intn(count)
	}
	return nil
}

// contextTracks lists the track URIs within a playable container. A bare
// track is its own single-element list.
func (s *Selector) contextTracks(ctx context.Context, ent ResolvedEntity) ([]string, error) {
	var (
		tracks []string
		err    error
	)
	switch ent.Kind {
	case spotifyuri.KindTrack:
		tracks = []string{ent.URI}
	case spotifyuri.KindAlbum:
		tracks, err = s.service.AlbumTracks(ctx, ent.URI)
	case spotifyuri.KindPlaylist:
		tracks, err = s.service.PlaylistTracks(ctx, ent.URI)
	case spotifyuri.KindArtist:
		tracks, err = s.service.ArtistTopTracks(ctx, ent.URI)
	default:
		return nil, fmt.Errorf("%w: unplayable kind %q", ErrInvalidRequest, ent.Kind)
	}
	if err != nil {
		return nil, err
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no tracks in %s", ErrNotFound, ent.URI)
	}
	return tracks, nil
}

func trackURIs(candidates []ResolvedEntity) []string {
	uris := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Kind == spotifyuri.KindTrack {
			uris = append(uris, c.URI)
		}
	}
	return uris
}
