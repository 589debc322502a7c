package lrclib

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/matching"
	"synced-lyrics-go/services/providers"
	"synced-lyrics-go/services/session"

	log "github.com/sirupsen/logrus"
)

const (
	Name             = "lrclib"
	Provenance       = "Lrclib"
	DefaultBaseURL   = "https://lrclib.net"
	DefaultThreshold = 70
)

// Options configures the client
type Options struct {
	Session   *session.Session
	BaseURL   string
	Threshold float64
	Tags      matching.TagPolicy
	// Mode is the run's fetch mode; UnsyncedOnly runs may be answered from the session cache
	Mode lyrics.FetchMode
}

// Client resolves lyrics through the lrclib search API
type Client struct {
	session   *session.Session
	baseURL   string
	threshold float64
	tags      matching.TagPolicy
	mode      lyrics.FetchMode

	mu          sync.Mutex
	cachedQuery string
	cachedText  string
}

// New creates a new lrclib client
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Tags == (matching.TagPolicy{}) {
		opts.Tags = matching.AllTags
	}
	return &Client{
		session:   opts.Session,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		threshold: opts.Threshold,
		tags:      opts.Tags,
		mode:      opts.Mode,
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Close() error {
	c.session.Close()
	return nil
}

// Fetch implements providers.Provider
func (c *Client) Fetch(ctx context.Context, track lyrics.Track) lyrics.Result {
	query := matching.BuildQuery(track, c.tags)

	if c.mode == lyrics.UnsyncedOnly {
		if text, ok := c.cached(query); ok {
			log.Infof("%s %s reused unsynced lyrics for %q", logcolors.LogSessionHit, Provenance, query)
			return lyrics.Result{Unsynced: text}
		}
	}

	res, err := c.fetch(ctx, track, query)
	if err != nil {
		log.Debugf("%s %v", logcolors.LogFailure, err)
		return lyrics.Result{}
	}
	if res.Unsynced != "" {
		c.remember(query, res.Unsynced)
	}
	return res
}

func (c *Client) fetch(ctx context.Context, track lyrics.Track, query string) (lyrics.Result, error) {
	candidates, err := c.search(ctx, query)
	if err != nil {
		return lyrics.Result{}, providers.NewProviderError(Name, "search", err)
	}
	if len(candidates) == 0 {
		return lyrics.Result{}, providers.NewProviderError(Name, "no results for "+query, nil)
	}

	var res lyrics.Result
	for _, cand := range candidates {
		wantSynced := res.Synced == "" && cand.SyncedLyrics != nil
		wantPlain := res.Unsynced == "" && cand.PlainLyrics != nil
		if !wantSynced && !wantPlain {
			continue
		}
		if !matching.Verify(track, cand.description(), c.threshold) {
			continue
		}

		if wantSynced {
			res.Synced = lyrics.RenderSynced(lyrics.ParseLRC(*cand.SyncedLyrics), Provenance)
		}
		if wantPlain {
			res.Unsynced = lyrics.RenderPlain(*cand.PlainLyrics, Provenance)
		}
		if res.Synced != "" && res.Unsynced != "" {
			break
		}
	}

	if res.Empty() {
		return res, providers.NewProviderError(Name, "verify", errors.New("no candidate matched "+track.String()))
	}
	log.Infof("%s %s verified %s (synced=%t unsynced=%t)", logcolors.LogMatch, Provenance, track, res.Synced != "", res.Unsynced != "")
	return res, nil
}

func (c *Client) search(ctx context.Context, query string) ([]searchResult, error) {
	params := url.Values{}
	params.Set("q", query)

	log.Debugf("%s %s query=%q", logcolors.LogSearch, Provenance, query)

	var results []searchResult
	err := c.session.GetJSON(ctx, c.baseURL+"/api/search?"+params.Encode(), nil, &results)
	return results, err
}

func (c *Client) cached(query string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cachedText, c.cachedText != "" && c.cachedQuery == query
}

func (c *Client) remember(query, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cachedQuery, c.cachedText = query, text
}
