package genius

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/matching"
	"synced-lyrics-go/services/providers"
	"synced-lyrics-go/services/session"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	Name             = "genius"
	Provenance       = "Genius"
	DefaultAPIURL    = "https://api.genius.com"
	DefaultThreshold = 60

	lyricsContainerSelector = `#lyrics-root [data-lyrics-container="true"]`
	excludedSelector        = `[data-exclude-from-selection="true"]`
)

// DefaultTags leaves the album out of the search; Genius search ranks poorly with it
var DefaultTags = matching.TagPolicy{Title: true, Artist: true}

// Options configures the client
type Options struct {
	Session     *session.Session
	AccessToken string
	APIURL      string
	Threshold   float64
	Tags        matching.TagPolicy
}

// Client searches the Genius API and scrapes plain lyrics from the song page.
// Genius never has synced lyrics.
type Client struct {
	session   *session.Session
	token     oauth2.TokenSource
	apiURL    string
	threshold float64
	tags      matching.TagPolicy
}

// New creates a new Genius client
func New(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Tags == (matching.TagPolicy{}) {
		opts.Tags = DefaultTags
	}
	return &Client{
		session:   opts.Session,
		token:     oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.AccessToken, TokenType: "Bearer"}),
		apiURL:    strings.TrimRight(opts.APIURL, "/"),
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
	query := matching.BuildQuery(track, c.tags)
	hit, err := c.search(ctx, query)
	if err != nil {
		return "", providers.NewProviderError(Name, "search", err)
	}

	if !matching.Verify(track, hit.description(), c.threshold) {
		return "", providers.NewProviderError(Name, "verify", fmt.Errorf("%q does not match %s", hit.FullTitle, track))
	}
	log.Infof("%s %s verified %q", logcolors.LogMatch, Provenance, hit.FullTitle)

	page, err := c.session.GetBody(ctx, hit.URL, nil)
	if err != nil {
		return "", providers.NewProviderError(Name, "lyrics page", err)
	}
	text, err := extractLyrics(page)
	if err != nil {
		return "", providers.NewProviderError(Name, "parse", err)
	}

	rendered := lyrics.RenderPlain(text, Provenance)
	if rendered == "" {
		return "", providers.NewProviderError(Name, "empty lyrics", nil)
	}
	return rendered, nil
}

// search returns the first hit for query
func (c *Client) search(ctx context.Context, query string) (songHit, error) {
	tok, err := c.token.Token()
	if err != nil {
		return songHit{}, err
	}
	header := http.Header{}
	header.Set("Authorization", tok.Type()+" "+tok.AccessToken)

	params := url.Values{}
	params.Set("q", query)

	log.Debugf("%s %s query=%q", logcolors.LogSearch, Provenance, query)

	var resp searchResponse
	if err := c.session.GetJSON(ctx, c.apiURL+"/search?"+params.Encode(), header, &resp); err != nil {
		return songHit{}, err
	}
	if len(resp.Response.Hits) == 0 {
		return songHit{}, errors.New("no hits")
	}
	hit := resp.Response.Hits[0].Result
	if hit.URL == "" {
		return songHit{}, errors.New("first hit has no url")
	}
	return hit, nil
}

// extractLyrics collects the text of every lyrics container, one line per <br>.
func extractLyrics(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	containers := doc.Find(lyricsContainerSelector)
	if containers.Length() == 0 {
		return "", errors.New("no lyrics container on page")
	}

	var b strings.Builder
	containers.Each(func(_ int, s *goquery.Selection) {
		s.Find(excludedSelector).Remove()
		s.Find("br").ReplaceWithHtml("\n")
		b.WriteString(s.Text())
		b.WriteByte('\n')
	})
	return b.String(), nil
}
