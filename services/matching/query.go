package matching

import (
	"fmt"
	"strings"

	"synced-lyrics-go/services/lyrics"
)

// TagPolicy selects which tags go into a provider's search query
type TagPolicy struct {
	Title  bool
	Artist bool
	Album  bool
}

// AllTags queries with title, artist and album
var AllTags = TagPolicy{Title: true, Artist: true, Album: true}

// ParseTagPolicy builds a policy from tag names ("title", "artist", "album").
func ParseTagPolicy(tags []string) (TagPolicy, error) {
	var p TagPolicy
	for _, tag := range tags {
		switch strings.ToLower(strings.TrimSpace(tag)) {
		case "title":
			p.Title = true
		case "artist":
			p.Artist = true
		case "album":
			p.Album = true
		default:
			return TagPolicy{}, fmt.Errorf("unknown tag %q", tag)
		}
	}
	if p == (TagPolicy{}) {
		return TagPolicy{}, fmt.Errorf("tag policy selects no tags")
	}
	return p, nil
}

// BuildQuery derives a cleaned search string from the track. When the album embeds
// the title verbatim, the title is cut out of the album first.
func BuildQuery(t lyrics.Track, p TagPolicy) string {
	album := t.Album
	if t.Title != "" && strings.Contains(album, t.Title) {
		album = strings.ReplaceAll(album, t.Title, "")
	}

	var parts []string
	if p.Title {
		parts = append(parts, t.Title)
	}
	if p.Artist {
		parts = append(parts, t.Artist)
	}
	if p.Album {
		parts = append(parts, album)
	}
	return Clean(strings.Join(parts, " "))
}
