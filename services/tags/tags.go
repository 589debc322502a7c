package tags

import (
	"fmt"
	"os"
	"strings"

	"synced-lyrics-go/services/lyrics"

	"github.com/dhowden/tag"
)

// Reader reads the title, artist and album of a local audio file
type Reader interface {
	Read(path string) (lyrics.Track, error)
}

// FileReader reads ID3, MP4, FLAC and OGG metadata from disk
type FileReader struct{}

// Read returns the track tags. Missing tags come back as empty strings;
// a file whose metadata cannot be parsed is an error.
func (FileReader) Read(path string) (lyrics.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return lyrics.Track{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return lyrics.Track{}, fmt.Errorf("read tags of %s: %w", path, err)
	}

	return lyrics.Track{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}, nil
}
