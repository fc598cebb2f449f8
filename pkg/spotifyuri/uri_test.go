package spotifyuri

import "testing"

const (
	trackURI    = "spotify:track:4uLU6hMCjMI75M1A2tKUQC"
	playlistURI = "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		kind   Kind
		id     string
		wantOK bool
	}{
		{"track uri", trackURI, KindTrack, "4uLU6hMCjMI75M1A2tKUQC", true},
		{"playlist uri", playlistURI, KindPlaylist, "37i9dQZF1DXcBWIGoYBM5M", true},
		{"album uri", "spotify:album:6dVIqQ8qmQ5GBnJ9shOYGE", KindAlbum, "6dVIqQ8qmQ5GBnJ9shOYGE", true},
		{"artist uri", "spotify:artist:0OdUWJ0sBjDrqHygGUXeCF", KindArtist, "0OdUWJ0sBjDrqHygGUXeCF", true},
		{"surrounding whitespace", "  " + trackURI + " ", KindTrack, "4uLU6hMCjMI75M1A2tKUQC", true},
		{"unknown kind", "spotify:show:4uLU6hMCjMI75M1A2tKUQC", "", "", false},
		{"short id", "spotify:track:abc", "", "", false},
		{"plain name", "The Wall", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, id, ok := Parse(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if kind != tt.kind || id != tt.id {
				t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)", tt.input, kind, id, tt.kind, tt.id)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(trackURI, KindTrack) {
		t.Error("expected track URI to match KindTrack")
	}
	if IsKind(trackURI, KindPlaylist) {
		t.Error("track URI should not match KindPlaylist")
	}
}

func TestMakeRoundTrip(t *testing.T) {
	uri := Make(KindAlbum, "6dVIqQ8qmQ5GBnJ9shOYGE")
	if !IsKind(uri, KindAlbum) {
		t.Errorf("Make produced invalid album URI: %q", uri)
	}
	if ID(uri) != "6dVIqQ8qmQ5GBnJ9shOYGE" {
		t.Errorf("ID(%q) = %q", uri, ID(uri))
	}
}
