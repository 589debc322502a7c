package jiosaavn

import (
	"context"
	"errors"
	"html"
	"net/url"
	"regexp"
	"strings"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/matching"
	"synced-lyrics-go/services/providers"
	"synced-lyrics-go/services/session"

	log "github.com/sirupsen/logrus"
)

const (
	Name             = "jiosaavn"
	Provenance       = "JioSaavn"
	DefaultSearchURL = "https://saavn.sumit.co"
	DefaultLyricsURL = "https://www.jiosaavn.com"
	DefaultThreshold = 60

	maxCandidates = 10
)

var breakRegex = regexp.MustCompile(`(?i)<br\s*/?>`)

// Options configures the client
type Options struct {
	Session   *session.Session
	SearchURL string
	LyricsURL string
	Threshold float64
	Tags      matching.TagPolicy
}

// Client searches the community JioSaavn API and pulls plain lyrics from jiosaavn.com
type Client struct {
	session   *session.Session
	searchURL string
	lyricsURL string
	threshold float64
	tags      matching.TagPolicy
}

// New creates a new JioSaavn client
func New(opts Options) *Client {
	if opts.SearchURL == "" {
		opts.SearchURL = DefaultSearchURL
	}
	if opts.LyricsURL == "" {
		opts.LyricsURL = DefaultLyricsURL
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Tags == (matching.TagPolicy{}) {
		opts.Tags = matching.AllTags
	}
	return &Client{
		session:   opts.Session,
		searchURL: strings.TrimRight(opts.SearchURL, "/"),
		lyricsURL: strings.TrimRight(opts.LyricsURL, "/"),
		threshold: opts.Threshold,
		tags:      opts.Tags,
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Close() error {
	c.session.Close()
	return nil
}

// Fetch implements providers.Provider
func (c *Client) Fetch(ctx context.Context, track lyrics.Track) lyrics.Result {
	text, err := c.fetch(ctx, track)
	if err != nil {
		log.Debugf("%s %v", logcolors.LogFailure, err)
		return lyrics.Result{}
	}
	return lyrics.Result{Unsynced: text}
}

func (c *Client) fetch(ctx context.Context, track lyrics.Track) (string, error) {
	songs, err := c.search(ctx, matching.BuildQuery(track, c.tags))
	if err != nil {
		return "", providers.NewProviderError(Name, "search", err)
	}

	var match *song
	for i := range songs {
		if matching.Verify(track, songs[i].description(), c.threshold) {
			match = &songs[i]
			break
		}
	}
	if match == nil {
		return "", providers.NewProviderError(Name, "verify", errors.New("no candidate matched "+track.String()))
	}
	log.Infof("%s %s verified %q", logcolors.LogMatch, Provenance, html.UnescapeString(match.Name))

	raw, err := c.lyrics(ctx, match.ID)
	if err != nil {
		return "", providers.NewProviderError(Name, "lyrics", err)
	}

	text := html.UnescapeString(breakRegex.ReplaceAllString(raw, "\n"))
	rendered := lyrics.RenderPlain(text, Provenance)
	if rendered == "" {
		return "", providers.NewProviderError(Name, "empty lyrics", nil)
	}
	return rendered, nil
}

func (c *Client) search(ctx context.Context, query string) ([]song, error) {
	params := url.Values{}
	params.Set("query", query)

	log.Debugf("%s %s query=%q", logcolors.LogSearch, Provenance, query)

	var resp searchResponse
	if err := c.session.GetJSON(ctx, c.searchURL+"/api/search/songs?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("search reported failure")
	}

	results := resp.Data.Results
	if len(results) > maxCandidates {
		results = results[:maxCandidates]
	}
	return results, nil
}

func (c *Client) lyrics(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("__call", "lyrics.getLyrics")
	params.Set("lyrics_id", id)
	params.Set("ctx", "web6dot0")
	params.Set("api_version", "4")
	params.Set("_format", "json")
	params.Set("_marker", "0")

	var resp lyricsResponse
	if err := c.session.GetJSON(ctx, c.lyricsURL+"/api.php?"+params.Encode(), nil, &resp); err != nil {
		return "", err
	}
	if resp.Lyrics == "" {
		return "", errors.New("no lyrics for " + id)
	}
	return resp.Lyrics, nil
}
