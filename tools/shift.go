package tools

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"synced-lyrics-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// DefaultShiftOffset makes lyrics lead the audio slightly
const DefaultShiftOffset = -0.25

var timestampRegex = regexp.MustCompile(`\[(\d{2,}):(\d{2})\.(\d{2})\]`)

// ShiftTimestamps moves every [MM:SS.ss] tag in content by offset seconds.
// Negative results are clamped to [00:00.00].
func ShiftTimestamps(content string, offset float64) string {
	delta := int64(math.Round(offset * 100))
	return timestampRegex.ReplaceAllStringFunc(content, func(tag string) string {
		m := timestampRegex.FindStringSubmatch(tag)
		minutes, _ := strconv.ParseInt(m[1], 10, 64)
		seconds, _ := strconv.ParseInt(m[2], 10, 64)
		hundredths, _ := strconv.ParseInt(m[3], 10, 64)

		cs := minutes*6000 + seconds*100 + hundredths + delta
		if cs < 0 {
			cs = 0
		}
		return fmt.Sprintf("[%02d:%02d.%02d]", cs/6000, (cs%6000)/100, cs%100)
	})
}

// ShiftDir rewrites every .lrc in src into dst with shifted timestamps and returns
// how many files were written. src and dst may be the same directory.
func ShiftDir(src, dst string, offset float64) (int, error) {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return 0, fmt.Errorf("source directory does not exist: %s", src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	var (
		written int
		errs    []error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.EqualFold(filepath.Ext(e.Name()), ".lrc") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(src, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.WriteFile(filepath.Join(dst, e.Name()), []byte(ShiftTimestamps(string(content), offset)), 0o644); err != nil {
			errs = append(errs, err)
			continue
		}
		written++
		log.Debugf("%s Shifted %s by %+.2fs", logcolors.LogTools, e.Name(), offset)
	}

	log.Infof("%s Shifted %d .lrc files from %s into %s", logcolors.LogTools, written, src, dst)
	return written, errors.Join(errs...)
}
