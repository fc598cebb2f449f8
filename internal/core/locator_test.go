package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"spotplay/pkg/spotifyuri"
)

func TestLocateURIPassthrough(t *testing.T) {
	uri := testURI(spotifyuri.KindAlbum, 'c')
	service := &mockService{}
	locator := NewLocator(service, zap.NewNop())

	entities, err := locator.Locate(context.Background(), spotifyuri.KindAlbum, uri, "", "")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	if len(entities) != 1 || entities[0].URI != uri {
		t.Errorf("Locate() = %v, expected the URI passed through", entities)
	}
	if len(service.queries) != 0 {
		t.Errorf("Locate() searched the catalog for a URI input: %v", service.queries)
	}
}

func TestLocateURIWrongKind(t *testing.T) {
	uri := testURI(spotifyuri.KindTrack, 'a')
	locator := NewLocator(&mockService{}, zap.NewNop())

	_, err := locator.Locate(context.Background(), spotifyuri.KindAlbum, uri, "", "")
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Locate() error = %v, expected ErrInvalidRequest for a mismatched URI", err)
	}
}

func TestLocateSearchByKind(t *testing.T) {
	track := testURI(spotifyuri.KindTrack, 'a')
	service := &mockService{
		searchTracks: []ResolvedEntity{{Kind: spotifyuri.KindTrack, URI: track}},
	}
	locator := NewLocator(service, zap.NewNop())

	entities, err := locator.Locate(context.Background(), spotifyuri.KindTrack, "Money", "Pink Floyd", "")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	if len(entities) != 1 || entities[0].URI != track {
		t.Errorf("Locate() = %v, expected the search result", entities)
	}
	if len(service.queries) != 1 || !strings.HasPrefix(service.queries[0], "track:") {
		t.Errorf("Locate() queries = %v, expected a track search", service.queries)
	}
}

func TestLocateNormalizesQuery(t *testing.T) {
	track := testURI(spotifyuri.KindTrack, 'a')
	service := &mockService{
		searchTracks: []ResolvedEntity{{Kind: spotifyuri.KindTrack, URI: track}},
	}
	locator := NewLocator(service, zap.NewNop())

	_, err := locator.Locate(context.Background(), spotifyuri.KindTrack, "Money (Remastered 2011)", "", "")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	if len(service.queries) != 1 || service.queries[0] != "track:Money/" {
		t.Errorf("Locate() queries = %v, expected the decorated title stripped to %q", service.queries, "Money")
	}
}

func TestLocateNotFound(t *testing.T) {
	locator := NewLocator(&mockService{}, zap.NewNop())

	_, err := locator.Locate(context.Background(), spotifyuri.KindArtist, "nobody", "", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate() error = %v, expected ErrNotFound", err)
	}
}

func TestLocateUserPlaylist(t *testing.T) {
	uri := testURI(spotifyuri.KindPlaylist, 'p')
	service := &mockService{
		userPlaylists: map[string][]ResolvedEntity{
			"boss_spotify_id": {
				{Kind: spotifyuri.KindPlaylist, URI: uri, Name: "Road Trip"},
				{Kind: spotifyuri.KindPlaylist, URI: testURI(spotifyuri.KindPlaylist, 'q'), Name: "Other"},
			},
		},
	}
	locator := NewLocator(service, zap.NewNop())

	entities, err := locator.Locate(context.Background(), spotifyuri.KindPlaylist, "road trip", "", "boss_spotify_id")
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	if len(entities) != 1 || entities[0].URI != uri {
		t.Errorf("Locate() = %v, expected the owner's matching playlist", entities)
	}
}

func TestLocateUserPlaylistNotFound(t *testing.T) {
	service := &mockService{
		userPlaylists: map[string][]ResolvedEntity{
			"boss_spotify_id": {
				{Kind: spotifyuri.KindPlaylist, URI: testURI(spotifyuri.KindPlaylist, 'q'), Name: "Other"},
			},
		},
	}
	locator := NewLocator(service, zap.NewNop())

	_, err := locator.Locate(context.Background(), spotifyuri.KindPlaylist, "road trip", "", "boss_spotify_id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Locate() error = %v, expected ErrNotFound", err)
	}
}
