package resolver

import (
	"context"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/providers"

	log "github.com/sirupsen/logrus"
)

// Resolution is the accepted text and the provider that produced it
type Resolution struct {
	Lyrics   string
	Provider string
	Synced   bool
}

// Resolve asks each source once, in order, and returns the first result the fetch
// mode accepts. Later sources are not consulted after a success.
func Resolve(ctx context.Context, track lyrics.Track, sources []providers.Provider, mode lyrics.FetchMode) (Resolution, bool) {
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return Resolution{}, false
		}

		res := src.Fetch(ctx, track)
		if text, ok := lyrics.Select(res, mode); ok {
			synced := text == res.Synced
			kind := "unsynced"
			if synced {
				kind = "synced"
			}
			log.Infof("%s %s: %s lyrics found", logcolors.LogSuccess, logcolors.Provider(src.Name()), kind)
			return Resolution{Lyrics: text, Provider: src.Name(), Synced: synced}, true
		}

		log.Infof("%s %s: no %s lyrics", logcolors.LogFallback, logcolors.Provider(src.Name()), mode)
	}
	return Resolution{}, false
}
