package spotify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/matching"
	"synced-lyrics-go/services/providers"
	"synced-lyrics-go/services/session"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

const (
	Name             = "musixmatch-via-spotify"
	Provenance       = "MusixMatch via Spotify"
	DefaultLyricsURL = "https://spclient.wg.spotify.com"
	DefaultImageURL  = "https://i.scdn.co"
	DefaultThreshold = 70

	// first track row link on the search results page
	DefaultTrackSelector = `div[data-testid="tracklist-row"] a[href*="/track/"]`

	syncLineSynced = "LINE_SYNCED"
	syncUnsynced   = "UNSYNCED"
)

var (
	trackIDRegex = regexp.MustCompile(`/track/([A-Za-z0-9]+)`)
	imageIDRegex = regexp.MustCompile(`/image/([A-Za-z0-9]+)`)

	ErrNoTrackID = errors.New("no track id in url")
	ErrNoImageID = errors.New("no image id in og:image")
)

// Options configures the client
type Options struct {
	Session       *session.Session
	Auth          *AuthManager
	Browser       Browser
	ProfileDir    string
	WebURL        string
	LyricsURL     string
	ImageURL      string
	TrackSelector string
	Timeout       time.Duration
	Threshold     float64
	Tags          matching.TagPolicy
}

// Client finds the track through the web player search page, checks the track
// page metadata against the local tags and then reads the line lyrics Spotify
// licenses from Musixmatch.
type Client struct {
	session       *session.Session
	auth          *AuthManager
	browser       Browser
	profileDir    string
	webURL        string
	lyricsURL     string
	imageURL      string
	trackSelector string
	timeout       time.Duration
	threshold     float64
	tags          matching.TagPolicy
}

// New creates a new client around an already started browser
func New(opts Options) *Client {
	if opts.WebURL == "" {
		opts.WebURL = DefaultWebURL
	}
	if opts.LyricsURL == "" {
		opts.LyricsURL = DefaultLyricsURL
	}
	if opts.ImageURL == "" {
		opts.ImageURL = DefaultImageURL
	}
	if opts.TrackSelector == "" {
		opts.TrackSelector = DefaultTrackSelector
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Tags == (matching.TagPolicy{}) {
		opts.Tags = matching.AllTags
	}
	return &Client{
		session:       opts.Session,
		auth:          opts.Auth,
		browser:       opts.Browser,
		profileDir:    opts.ProfileDir,
		webURL:        strings.TrimRight(opts.WebURL, "/"),
		lyricsURL:     strings.TrimRight(opts.LyricsURL, "/"),
		imageURL:      strings.TrimRight(opts.ImageURL, "/"),
		trackSelector: opts.TrackSelector,
		timeout:       opts.Timeout,
		threshold:     opts.Threshold,
		tags:          opts.Tags,
	}
}

func (c *Client) Name() string { return Name }

// Close closes the session and the browser, then clears the browser profile cache
func (c *Client) Close() error {
	c.session.Close()
	if c.browser == nil {
		return nil
	}
	if err := c.browser.Close(); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return ClearProfileCache(c.profileDir)
}

// Fetch implements providers.Provider
func (c *Client) Fetch(ctx context.Context, track lyrics.Track) lyrics.Result {
	res, err := c.fetch(ctx, track)
	if err != nil {
		log.Debugf("%s %v", logcolors.LogFailure, err)
		return lyrics.Result{}
	}
	return res
}

func (c *Client) fetch(ctx context.Context, track lyrics.Track) (lyrics.Result, error) {
	query := matching.BuildQuery(track, c.tags)

	trackURL, err := c.findTrack(ctx, query)
	if err != nil {
		return lyrics.Result{}, providers.NewProviderError(Name, "browser search", err)
	}

	meta, err := c.trackMeta(ctx, trackURL)
	if err != nil {
		return lyrics.Result{}, providers.NewProviderError(Name, "track page", err)
	}
	if !matching.Verify(track, meta.description(), c.threshold) {
		return lyrics.Result{}, providers.NewProviderError(Name, "verify", fmt.Errorf("%q does not match %s", meta.description(), track))
	}
	log.Infof("%s %s verified %q", logcolors.LogMatch, Provenance, meta.Title)

	trackID, err := firstGroup(trackIDRegex, trackURL, ErrNoTrackID)
	if err != nil {
		return lyrics.Result{}, providers.NewProviderError(Name, "track id", err)
	}
	imageID, err := firstGroup(imageIDRegex, meta.Image, ErrNoImageID)
	if err != nil {
		return lyrics.Result{}, providers.NewProviderError(Name, "image id", err)
	}

	payload, err := c.colorLyrics(ctx, trackID, imageID)
	if err != nil {
		return lyrics.Result{}, providers.NewProviderError(Name, "lyrics", err)
	}

	res := parseColorLyrics(payload)
	if res.Empty() {
		return res, providers.NewProviderError(Name, "empty lyrics", nil)
	}
	return res, nil
}

// findTrack searches in the browser, opens the first track and returns its url
func (c *Client) findTrack(ctx context.Context, query string) (string, error) {
	searchURL := c.webURL + "/search/" + url.PathEscape(query) + "/tracks"
	log.Debugf("%s %s %s", logcolors.LogSearch, Provenance, searchURL)

	if err := c.browser.Navigate(ctx, searchURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := c.browser.WaitVisible(ctx, c.trackSelector, c.timeout); err != nil {
		return "", fmt.Errorf("wait for results: %w", err)
	}
	if err := c.browser.Click(ctx, c.trackSelector); err != nil {
		return "", fmt.Errorf("click track: %w", err)
	}
	if err := c.browser.WaitURL(ctx, "/track/", c.timeout); err != nil {
		return "", fmt.Errorf("wait for track page: %w", err)
	}
	return c.browser.CurrentURL(ctx)
}

// trackMeta fetches the track page and reads its og: tags
func (c *Client) trackMeta(ctx context.Context, trackURL string) (trackMeta, error) {
	page, err := c.session.GetBody(ctx, trackURL, nil)
	if err != nil {
		return trackMeta{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return trackMeta{}, err
	}

	og := func(property string) string {
		v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
		return strings.TrimSpace(v)
	}
	meta := trackMeta{
		Title:       og("og:title"),
		Description: og("og:description"),
		Image:       og("og:image"),
	}
	if meta.Title == "" {
		return meta, errors.New("track page has no og:title")
	}
	return meta, nil
}

func (c *Client) colorLyrics(ctx context.Context, trackID, imageID string) (colorLyricsResponse, error) {
	tok, err := c.auth.Token(ctx)
	if err != nil {
		return colorLyricsResponse{}, err
	}

	imageURL := url.QueryEscape(c.imageURL + "/image/" + imageID)
	endpoint := fmt.Sprintf("%s/color-lyrics/v2/track/%s/image/%s?format=json&vocalRemoval=false&market=from_token",
		c.lyricsURL, trackID, imageURL)

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("App-Platform", "WebPlayer")
	header.Set("Authorization", tok.Type()+" "+tok.AccessToken)

	var resp colorLyricsResponse
	err = c.session.GetJSON(ctx, endpoint, header, &resp)
	return resp, err
}

// parseColorLyrics turns the payload into a result. A bad timestamp drops the
// synced half only.
func parseColorLyrics(resp colorLyricsResponse) lyrics.Result {
	syncType := resp.Lyrics.SyncType
	if syncType != syncLineSynced && syncType != syncUnsynced {
		return lyrics.Result{}
	}

	var (
		timed   []lyrics.Line
		plain   []string
		badTime bool
	)
	for _, l := range resp.Lyrics.Lines {
		plain = append(plain, l.Words)
		if syncType != syncLineSynced {
			continue
		}
		ms, err := strconv.ParseInt(l.StartTimeMs, 10, 64)
		if err != nil {
			badTime = true
			continue
		}
		timed = append(timed, lyrics.Line{StartMs: ms, Words: l.Words})
	}

	res := lyrics.Result{Unsynced: lyrics.RenderUnsynced(plain, Provenance)}
	if syncType == syncLineSynced && !badTime {
		res.Synced = lyrics.RenderSynced(timed, Provenance)
	}
	return res
}

func firstGroup(re *regexp.Regexp, s string, notFound error) (string, error) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("%w: %q", notFound, s)
	}
	return m[1], nil
}
