package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/session"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	DefaultWebURL = "https://open.spotify.com"
	ClientVersion = "1.2.46.25.g7f189073"

	DefaultRefreshMargin = 5 * time.Minute
)

var (
	ErrMissingCookie  = errors.New("sp_dc cookie is not set")
	ErrAnonymousToken = errors.New("spotify returned an anonymous token, sp_dc cookie is invalid or expired")
)

// AuthOptions configures the token manager
type AuthOptions struct {
	Session       *session.Session
	SPDC          string
	WebURL        string
	TOTP          TOTP
	RefreshMargin time.Duration
	Now           func() time.Time
}

// AuthManager mints web player access tokens from the sp_dc cookie and keeps
// the current one until it is within RefreshMargin of expiry.
type AuthManager struct {
	session *session.Session
	spdc    string
	webURL  string
	totp    TOTP
	margin  time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	token *oauth2.Token
	mints int
}

// NewAuthManager creates a token manager. No request is made until the first Token call.
func NewAuthManager(opts AuthOptions) *AuthManager {
	if opts.WebURL == "" {
		opts.WebURL = DefaultWebURL
	}
	if opts.TOTP.Version == 0 {
		opts.TOTP.Version = DefaultTOTPVersion
	}
	if len(opts.TOTP.Cipher) == 0 {
		opts.TOTP.Cipher = DefaultTOTPCipher
	}
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = DefaultRefreshMargin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthManager{
		session: opts.Session,
		spdc:    opts.SPDC,
		webURL:  strings.TrimRight(opts.WebURL, "/"),
		totp:    opts.TOTP,
		margin:  opts.RefreshMargin,
		now:     opts.Now,
	}
}

// Token returns the cached token, minting a new one first when none is cached
// or the cached one expires within the refresh margin.
func (a *AuthManager) Token(ctx context.Context) (*oauth2.Token, error) {
	a.mu.RLock()
	if a.fresh() {
		defer a.mu.RUnlock()
		return a.token, nil
	}
	a.mu.RUnlock()

	return a.refresh(ctx)
}

// Mints returns how many tokens were minted so far
func (a *AuthManager) Mints() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mints
}

// must hold at least a read lock
func (a *AuthManager) fresh() bool {
	return a.token != nil && a.now().Add(a.margin).Before(a.token.Expiry)
}

func (a *AuthManager) refresh(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.fresh() {
		return a.token, nil
	}

	log.Infof("%s Minting Spotify web token...", logcolors.LogAccessToken)
	tok, err := a.mint(ctx)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	a.token = tok
	a.mints++

	log.Infof("%s Token valid until %s", logcolors.LogAccessToken, tok.Expiry.Format(time.RFC3339))
	return tok, nil
}

func (a *AuthManager) mint(ctx context.Context) (*oauth2.Token, error) {
	if a.spdc == "" {
		return nil, ErrMissingCookie
	}

	var st serverTimeResponse
	if err := a.session.GetJSON(ctx, a.webURL+"/api/server-time", a.headers(), &st); err != nil {
		return nil, fmt.Errorf("server time: %w", err)
	}
	if st.ServerTime <= 0 {
		return nil, errors.New("server time missing from response")
	}
	serverTime := time.Unix(st.ServerTime, 0)

	code, err := a.totp.Generate(serverTime)
	if err != nil {
		return nil, fmt.Errorf("totp: %w", err)
	}

	params := url.Values{}
	params.Set("reason", "init")
	params.Set("productType", "web-player")
	params.Set("totp", code)
	params.Set("totpVer", strconv.Itoa(a.totp.Version))
	params.Set("ts", strconv.FormatInt(serverTime.UnixMilli(), 10))

	var resp tokenResponse
	if err := a.session.GetJSON(ctx, a.webURL+"/api/token?"+params.Encode(), a.headers(), &resp); err != nil {
		return nil, err
	}
	if resp.IsAnonymous {
		return nil, ErrAnonymousToken
	}
	if resp.AccessToken == "" || resp.ExpirationMs == 0 {
		return nil, errors.New("token response missing fields")
	}

	return &oauth2.Token{
		AccessToken: resp.AccessToken,
		TokenType:   "Bearer",
		Expiry:      time.UnixMilli(resp.ExpirationMs),
	}, nil
}

func (a *AuthManager) headers() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "en-US")
	h.Set("Origin", a.webURL+"/")
	h.Set("Referer", a.webURL+"/")
	h.Set("Spotify-App-Version", ClientVersion)
	h.Set("App-Platform", "WebPlayer")
	h.Set("Cookie", "sp_dc="+a.spdc)
	return h
}
