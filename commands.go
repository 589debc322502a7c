package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"synced-lyrics-go/config"
	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/tags"
	"synced-lyrics-go/stats"
	"synced-lyrics-go/tools"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func newApp(conf config.Config) *cli.Command {
	return &cli.Command{
		Name:    "synced-lyrics",
		Usage:   "Fetch time-synced lyrics for a local music library",
		Version: version,
		Commands: []*cli.Command{
			fetchCommand(conf, newChromeBrowser),
			shiftCommand(),
			moveCommand(conf),
			historyCommand(conf),
		},
	}
}

func fetchCommand(conf config.Config, newBrowser browserFactory) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Write an .lrc next to every song a lyrics source can answer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "music-dir",
				Aliases: []string{"d"},
				Usage:   "Directory holding the audio files",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Where .lrc files are written (defaults to the music directory)",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "synced, unsynced or synced_with_fallback",
			},
			&cli.StringSliceFlag{
				Name:    "sources",
				Aliases: []string{"s"},
				Usage:   "Sources to query, in order (" + strings.Join(config.KnownSources, ", ") + ")",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record this run in the history database",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runFetch(ctx, cmd, conf, newBrowser)
		},
	}
}

// applyFetchFlags lets command line flags override the environment and preferences
func applyFetchFlags(conf *config.Config, cmd *cli.Command) {
	if v := cmd.String("music-dir"); v != "" {
		conf.Configuration.MusicDirectory = v
	}
	if v := cmd.String("output-dir"); v != "" {
		conf.Configuration.OutputDirectory = v
	}
	if v := cmd.String("mode"); v != "" {
		conf.Configuration.FetchMode = v
	}
	if v := cmd.StringSlice("sources"); len(v) > 0 {
		conf.Configuration.Sources = v
	}
}

func runFetch(ctx context.Context, cmd *cli.Command, conf config.Config, newBrowser browserFactory) error {
	applyFetchFlags(&conf, cmd)
	if err := conf.Validate(); err != nil {
		return err
	}
	mode, _ := conf.Mode()

	registry, err := buildRegistry(conf, mode, newBrowser)
	if err != nil {
		return err
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Warnf("%s Teardown: %v", logcolors.LogRun, err)
		}
	}()

	sources, err := registry.Ordered(conf.Configuration.Sources)
	if err != nil {
		return err
	}
	log.Debugf("%s Registered sources: %s", logcolors.LogConfig, strings.Join(registry.List(), ", "))

	runner := &Runner{
		Reader:     tags.FileReader{},
		Sources:    sources,
		Mode:       mode,
		MusicDir:   conf.MusicDir(),
		OutputDir:  conf.OutputDir(),
		Extensions: conf.Configuration.AudioExtensions,
	}
	run, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	end := time.Now()
	logSummary(run, end)

	if !cmd.Bool("no-history") {
		saveHistory(conf.StatsDBPath(), run.Snapshot(end, runner.MusicDir, mode.String()))
	}
	return nil
}

// saveHistory records the run; a failure only costs the history entry
func saveHistory(dbPath string, rec stats.Record) {
	store, err := stats.NewStore(dbPath)
	if err != nil {
		log.Warnf("%s %v", logcolors.LogStats, err)
		return
	}
	defer store.Close()

	saved, err := store.SaveRun(rec)
	if err != nil {
		log.Warnf("%s %v", logcolors.LogStats, err)
		return
	}
	log.Debugf("%s Recorded run #%d in %s", logcolors.LogStats, saved.ID, store.Path())
}

func shiftCommand() *cli.Command {
	return &cli.Command{
		Name:  "shift",
		Usage: "Shift every timestamp of the .lrc files in a directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "src", Usage: "Directory holding the .lrc files", Required: true},
			&cli.StringFlag{Name: "dst", Usage: "Output directory (defaults to --src, rewriting in place)"},
			&cli.FloatFlag{
				Name:  "offset",
				Usage: "Seconds to add; negative makes lyrics lead the audio",
				Value: tools.DefaultShiftOffset,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src := cmd.String("src")
			dst := cmd.String("dst")
			if dst == "" {
				dst = src
			}
			_, err := tools.ShiftDir(src, dst, cmd.Float("offset"))
			return err
		},
	}
}

func moveCommand(conf config.Config) *cli.Command {
	return &cli.Command{
		Name:  "move",
		Usage: "Move songs that have an .lrc, together with it, into another directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "src", Usage: "Directory holding songs and .lrc files (defaults to the music directory)"},
			&cli.StringFlag{Name: "dst", Usage: "Destination directory", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src := cmd.String("src")
			if src == "" {
				src = conf.MusicDir()
			}
			_, err := tools.MovePairs(src, cmd.String("dst"), conf.Configuration.AudioExtensions)
			return err
		},
	}
}

func historyCommand(conf config.Config) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List past fetch runs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Number of runs to show (0 for all)", Value: 10},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			store, err := stats.NewStore(conf.StatsDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			w := cmd.Root().Writer
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded yet")
				return nil
			}
			for _, rec := range runs {
				fmt.Fprintln(w, formatRecord(rec))
			}
			return nil
		},
	}
}

func formatRecord(rec stats.Record) string {
	line := fmt.Sprintf("#%d  %s  %s  %s  Success Rate: %.2f%% | %d/%d  %s",
		rec.ID,
		rec.Start.Local().Format(time.DateTime),
		rec.Directory,
		rec.Mode,
		rec.SuccessRate, rec.Found, rec.Processed,
		stats.FormatElapsed(rec.Elapsed()),
	)
	if len(rec.SourceHits) > 0 {
		line += "  " + stats.FormatSourceHits(rec.SourceHits)
	}
	return line
}
