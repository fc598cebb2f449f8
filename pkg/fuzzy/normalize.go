// Package fuzzy normalizes free-form track, album, artist and playlist names
// into plain search queries.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	decorationRegex = regexp.MustCompile(`(?i)\s*[\(\[]\s*(feat\.?|ft\.?|featuring|remaster(ed)?|deluxe|extended|radio edit|live|explicit)[^\)\]]*[\)\]]\s*`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s']+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize strips accents, bracketed edition/featuring decorations and
// stray punctuation, collapsing whitespace. The result is suitable as a
// catalog search query.
func (n *Normalizer) Normalize(name string) string {
	name = decorationRegex.ReplaceAllString(name, " ")
	name = stripMarks(name)
	name = punctRegex.ReplaceAllString(name, " ")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizeArtist additionally folds common artist-name join variants so
// "A and B" and "A & B" search the same.
func (n *Normalizer) NormalizeArtist(artist string) string {
	artist = n.Normalize(artist)
	artist = strings.ReplaceAll(artist, " and ", " & ")
	return artist
}

func stripMarks(s string) string {
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsMark(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
