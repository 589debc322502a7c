package matching

import (
	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"

	log "github.com/sirupsen/logrus"
)

// Scores holds the per-field similarity of a local track against a remote description
type Scores struct {
	Title  float64
	Artist float64
	Album  float64
}

// Score cleans both sides and scores title, artist and album independently against remote.
func Score(local lyrics.Track, remote string) Scores {
	desc := Clean(remote)
	return Scores{
		Title:  PartialRatio(Clean(local.Title), desc),
		Artist: PartialRatio(Clean(local.Artist), desc),
		Album:  PartialRatio(Clean(local.Album), desc),
	}
}

// Passes applies the gate rule: the title must match and either artist or album must corroborate it.
func (s Scores) Passes(threshold float64) bool {
	return s.Title >= threshold && (s.Artist >= threshold || s.Album >= threshold)
}

// Verify reports whether remote describes the same track as local.
// A track without a usable title never verifies.
func Verify(local lyrics.Track, remote string, threshold float64) bool {
	if Clean(local.Title) == "" || Clean(remote) == "" {
		return false
	}

	s := Score(local, remote)
	ok := s.Passes(threshold)
	if !ok {
		log.Debugf("%s title=%.1f artist=%.1f album=%.1f threshold=%.0f remote=%q",
			logcolors.LogTrackScore, s.Title, s.Artist, s.Album, threshold, remote)
	}
	return ok
}
