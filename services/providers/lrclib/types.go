package lrclib

import "synced-lyrics-go/services/matching"

// searchResult is one entry of GET /api/search. Lyrics fields are null when missing.
type searchResult struct {
	ID           int64   `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  *string `json:"plainLyrics"`
	SyncedLyrics *string `json:"syncedLyrics"`
}

func (r searchResult) description() string {
	return matching.Clean(r.TrackName) + " " + matching.Clean(r.ArtistName) + " " + matching.Clean(r.AlbumName)
}
