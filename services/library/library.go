package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultAudioExtensions are the audio files a run picks up
var DefaultAudioExtensions = []string{".mp3", ".flac", ".wav", ".aac", ".m4a", ".ogg", ".opus", ".alac", ".aiff"}

// Discover lists the audio files directly inside dir (no recursion), sorted by name.
// Extensions are matched case-insensitively.
func Discover(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read music directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if IsAudio(e.Name(), extensions) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LyricsPath returns <outDir>/<stem of songPath>.lrc
func LyricsPath(outDir, songPath string) string {
	base := filepath.Base(songPath)
	return filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".lrc")
}

// WriteLyrics stores the lyrics next to the other outputs as UTF-8 and returns the path written
func WriteLyrics(outDir, songPath, text string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := LyricsPath(outDir, songPath)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write lyrics: %w", err)
	}
	return path, nil
}

// IsAudio reports whether name has one of the given extensions
func IsAudio(name string, extensions []string) bool {
	return extensionSet(extensions)[strings.ToLower(filepath.Ext(name))]
}

func extensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
