package main

import (
	"context"
	"path/filepath"
	"time"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/library"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/providers"
	"synced-lyrics-go/services/resolver"
	"synced-lyrics-go/services/tags"
	"synced-lyrics-go/stats"

	log "github.com/sirupsen/logrus"
)

// Runner walks one music directory and writes an .lrc for every song a source can answer
type Runner struct {
	Reader     tags.Reader
	Sources    []providers.Provider
	Mode       lyrics.FetchMode
	MusicDir   string
	OutputDir  string
	Extensions []string
	Now        func() time.Time
}

// Run processes every audio file in MusicDir. Per-song failures are logged and counted;
// only an unreadable music directory aborts the run.
func (r *Runner) Run(ctx context.Context) (*stats.Run, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	run := stats.NewRun(now())

	extensions := r.Extensions
	if len(extensions) == 0 {
		extensions = library.DefaultAudioExtensions
	}
	songs, err := library.Discover(r.MusicDir, extensions)
	if err != nil {
		return run, err
	}
	log.Infof("%s %d songs in %s, mode %s", logcolors.LogRun, len(songs), r.MusicDir, r.Mode)

	for i, song := range songs {
		if ctx.Err() != nil {
			log.Warnf("%s Interrupted after %d/%d songs", logcolors.LogRun, i, len(songs))
			break
		}
		run.RecordProcessed()
		r.processSong(ctx, run, song, i+1, len(songs))
	}
	return run, nil
}

func (r *Runner) processSong(ctx context.Context, run *stats.Run, song string, n, total int) {
	name := filepath.Base(song)

	track, err := r.Reader.Read(song)
	if err != nil {
		run.RecordTagError()
		log.Warnf("%s [%d/%d] %s: %v", logcolors.LogTags, n, total, name, err)
		return
	}
	log.Infof("%s [%d/%d] %s", logcolors.LogLyrics, n, total, track)

	res, ok := resolver.Resolve(ctx, track, r.Sources, r.Mode)
	if !ok {
		log.Infof("%s %s", logcolors.LogNoMatch, name)
		return
	}

	path, err := library.WriteLyrics(r.OutputDir, song, res.Lyrics)
	if err != nil {
		log.Errorf("%s %s: %v", logcolors.LogOutput, name, err)
		return
	}
	run.RecordFound(res.Provider, res.Synced)
	log.Debugf("%s Wrote %s", logcolors.LogOutput, path)
}

// logSummary prints the run-end success rate, elapsed time and source hits
func logSummary(run *stats.Run, end time.Time) {
	log.Infof("%s %s", logcolors.LogSummary, run.Summary())
	log.Infof("%s Elapsed %s", logcolors.LogSummary, stats.FormatElapsed(end.Sub(run.StartTime)))
	if hits := run.SourceHits(); len(hits) > 0 {
		log.Infof("%s Sources: %s", logcolors.LogSummary, stats.FormatSourceHits(hits))
	}
	if n := run.TagErrors.Load(); n > 0 {
		log.Warnf("%s %d songs skipped for unreadable tags", logcolors.LogSummary, n)
	}
}
