// Package spotifyuri parses and validates Spotify resource URIs of the form
// spotify:<kind>:<id>.
package spotifyuri

import (
	"fmt"
	"strings"
)

// IDLength is the length of a base62 Spotify resource ID.
const IDLength = 22

type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindArtist   Kind = "artist"
	KindPlaylist Kind = "playlist"
)

// Kinds lists every resource kind a URI may carry.
var Kinds = []Kind{KindTrack, KindAlbum, KindArtist, KindPlaylist}

// Parse splits a Spotify URI into its kind and ID. ok is false when the
// input is not a well-formed URI for any known kind.
func Parse(uri string) (kind Kind, id string, ok bool) {
	parts := strings.Split(strings.TrimSpace(uri), ":")
	if len(parts) != 3 || parts[0] != "spotify" || len(parts[2]) != IDLength {
		return "", "", false
	}

	for _, k := range Kinds {
		if parts[1] == string(k) {
			return k, parts[2], true
		}
	}

	return "", "", false
}

// IsURI reports whether s is a valid Spotify URI of any kind.
func IsURI(s string) bool {
	_, _, ok := Parse(s)
	return ok
}

// IsKind reports whether s is a valid Spotify URI of the given kind.
func IsKind(s string, kind Kind) bool {
	k, _, ok := Parse(s)
	return ok && k == kind
}

// ID extracts the resource ID from a URI. Returns the empty string for
// malformed input.
func ID(uri string) string {
	_, id, _ := Parse(uri)
	return id
}

// Make builds a URI from a kind and resource ID.
func Make(kind Kind, id string) string {
	return fmt.Sprintf("spotify:%s:%s", kind, id)
}
