package tools

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/library"

	log "github.com/sirupsen/logrus"
)

// MovePairs moves every audio file in src that has a <stem>.lrc next to it,
// together with that .lrc, into dst. It returns the number of pairs moved.
func MovePairs(src, dst string, extensions []string) (int, error) {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("source directory does not exist: %s", src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	songs, err := library.Discover(src, extensions)
	if err != nil {
		return 0, err
	}

	var (
		moved int
		errs  []error
	)
	for _, song := range songs {
		lrc := strings.TrimSuffix(song, filepath.Ext(song)) + ".lrc"
		if _, err := os.Stat(lrc); err != nil {
			continue
		}
		if err := moveFile(song, filepath.Join(dst, filepath.Base(song))); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := moveFile(lrc, filepath.Join(dst, filepath.Base(lrc))); err != nil {
			errs = append(errs, err)
			continue
		}
		moved++
		log.Debugf("%s Moved %s", logcolors.LogTools, filepath.Base(song))
	}

	log.Infof("%s Moved %d audio/lyrics pairs from %s into %s", logcolors.LogTools, moved, src, dst)
	return moved, errors.Join(errs...)
}

// moveFile renames, falling back to copy and remove across filesystems
func moveFile(from, to string) error {
	if err := os.Rename(from, to); err == nil {
		return nil
	}

	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(to)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", from, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return os.Remove(from)
}
