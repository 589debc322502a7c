package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/matching"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

const appName = "synced-lyrics"

// Source names as used in LYRICS_SOURCES and the preferences file
const (
	SourceSpotify  = "musixmatch-via-spotify"
	SourceLrclib   = "lrclib"
	SourceGenius   = "genius"
	SourceJioSaavn = "jiosaavn"
)

// KnownSources lists every source a run can be configured with
var KnownSources = []string{SourceSpotify, SourceLrclib, SourceGenius, SourceJioSaavn}

var ErrMissingCredential = errors.New("missing credential")

type Config struct {
	Configuration struct {
		MusicDirectory  string   `envconfig:"MUSIC_DIRECTORY" default:""`  // defaults to the XDG music dir
		OutputDirectory string   `envconfig:"OUTPUT_DIRECTORY" default:""` // defaults to the music dir
		FetchMode       string   `envconfig:"LYRICS_FETCH_MODE" default:"synced_with_fallback"`
		Sources         []string `envconfig:"LYRICS_SOURCES" default:"musixmatch-via-spotify,lrclib"`
		AudioExtensions []string `envconfig:"AUDIO_EXTENSIONS" default:".mp3,.flac,.wav,.aac,.m4a,.ogg,.opus,.alac,.aiff"`
		PreferencesFile string   `envconfig:"PREFERENCES_FILE" default:""`
		StatsDBPath     string   `envconfig:"STATS_DB_PATH" default:""`
		LogLevel        string   `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat       string   `envconfig:"LOG_FORMAT" default:"text"`
		LogFile         string   `envconfig:"LOG_FILE" default:"main.log"`
	}

	Session struct {
		RequestTimeoutSecs         int     `envconfig:"REQUEST_TIMEOUT_SECS" default:"10"`
		RotateEvery                int     `envconfig:"SESSION_ROTATE_EVERY" default:"7"`
		ServerErrorRetries         int     `envconfig:"SERVER_ERROR_RETRIES" default:"3"`
		RetryBackoffMs             int     `envconfig:"RETRY_BACKOFF_MS" default:"500"`
		RateLimitBackoffMinSecs    int     `envconfig:"RATE_LIMIT_BACKOFF_MIN_SECS" default:"60"`
		RateLimitBackoffMaxSecs    int     `envconfig:"RATE_LIMIT_BACKOFF_MAX_SECS" default:"120"`
		RequestsPerSecond          float64 `envconfig:"REQUESTS_PER_SECOND" default:"1"`
		PacingEnabled              bool    `envconfig:"PACING_ENABLED" default:"false"`
		PacingMeanSecs             float64 `envconfig:"PACING_MEAN_SECS" default:"5"`
		PacingJitter               float64 `envconfig:"PACING_JITTER" default:"0.3"`
		PacingMinSecs              float64 `envconfig:"PACING_MIN_SECS" default:"3"`
		CircuitBreakerThreshold    int     `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`       // Consecutive failures before a source is skipped
		CircuitBreakerCooldownSecs int     `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"` // How long a tripped source is skipped
	}

	Providers struct {
		LrclibThreshold   float64  `envconfig:"LRCLIB_THRESHOLD" default:"70"`
		SpotifyThreshold  float64  `envconfig:"SPOTIFY_THRESHOLD" default:"70"`
		GeniusThreshold   float64  `envconfig:"GENIUS_THRESHOLD" default:"60"`
		JioSaavnThreshold float64  `envconfig:"JIOSAAVN_THRESHOLD" default:"60"`
		LrclibTags        []string `envconfig:"LRCLIB_TAGS" default:"title,artist,album"`
		SpotifyTags       []string `envconfig:"SPOTIFY_TAGS" default:"title,artist,album"`
		GeniusTags        []string `envconfig:"GENIUS_TAGS" default:"title,artist"`
		JioSaavnTags      []string `envconfig:"JIOSAAVN_TAGS" default:"title,artist,album"`

		BrowserProfileDir    string `envconfig:"BROWSER_PROFILE_DIR" default:""`
		BrowserHeadless      bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
		BrowserTimeoutSecs   int    `envconfig:"BROWSER_TIMEOUT_SECS" default:"30"`
		SpotifyTrackSelector string `envconfig:"SPOTIFY_TRACK_SELECTOR" default:""`
		SpotifyTOTPVersion   int    `envconfig:"SPOTIFY_TOTP_VERSION" default:"5"`
		SpotifyTOTPSecret    string `envconfig:"SPOTIFY_TOTP_SECRET" default:"12,56,76,33,88,44,88,33,78,78,11,66,22,22,55,69,54"`
	}

	Credentials struct {
		GeniusAccessToken string `envconfig:"GENIUS_ACCESS_TOKEN" default:""`
		SpotifySPDC       string `envconfig:"SP_DC_TOKEN" default:""`
	}
}

// ProviderSettings is the per-source tuning of the verification gate and query
type ProviderSettings struct {
	Threshold float64
	Tags      []string
}

// Load reads .env (if present), the environment and the optional preferences file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("%s No .env file loaded: %v", logcolors.LogConfig, err)
	}

	cfg := Config{}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}

	if path := cfg.Configuration.PreferencesFile; path != "" {
		prefs, err := LoadPreferences(path)
		if err != nil {
			return cfg, err
		}
		cfg.Apply(prefs)
		log.Infof("%s Applied preferences from %s", logcolors.LogConfig, path)
	}
	return cfg, nil
}

// Mode returns the parsed fetch mode
func (c Config) Mode() (lyrics.FetchMode, error) {
	return lyrics.ParseFetchMode(c.Configuration.FetchMode)
}

// MusicDir returns the configured music directory or the XDG music directory
func (c Config) MusicDir() string {
	if c.Configuration.MusicDirectory != "" {
		return c.Configuration.MusicDirectory
	}
	return xdg.UserDirs.Music
}

// OutputDir returns where .lrc files go; the music directory unless overridden
func (c Config) OutputDir() string {
	if c.Configuration.OutputDirectory != "" {
		return c.Configuration.OutputDirectory
	}
	return c.MusicDir()
}

// BrowserProfileDir returns the Chrome profile used by the Spotify search flow
func (c Config) BrowserProfileDir() string {
	if c.Providers.BrowserProfileDir != "" {
		return c.Providers.BrowserProfileDir
	}
	return filepath.Join(xdg.CacheHome, appName, "chrome-profile")
}

// StatsDBPath returns the run history database path
func (c Config) StatsDBPath() string {
	if c.Configuration.StatsDBPath != "" {
		return c.Configuration.StatsDBPath
	}
	return filepath.Join(xdg.DataHome, appName, "runs.db")
}

// Provider returns the settings of the named source
func (c Config) Provider(name string) ProviderSettings {
	p := c.Providers
	switch name {
	case SourceLrclib:
		return ProviderSettings{Threshold: p.LrclibThreshold, Tags: p.LrclibTags}
	case SourceSpotify:
		return ProviderSettings{Threshold: p.SpotifyThreshold, Tags: p.SpotifyTags}
	case SourceGenius:
		return ProviderSettings{Threshold: p.GeniusThreshold, Tags: p.GeniusTags}
	case SourceJioSaavn:
		return ProviderSettings{Threshold: p.JioSaavnThreshold, Tags: p.JioSaavnTags}
	}
	return ProviderSettings{}
}

func (c *Config) setProvider(name string, s ProviderSettings) {
	p := &c.Providers
	switch name {
	case SourceLrclib:
		p.LrclibThreshold, p.LrclibTags = pick(s, p.LrclibThreshold, p.LrclibTags)
	case SourceSpotify:
		p.SpotifyThreshold, p.SpotifyTags = pick(s, p.SpotifyThreshold, p.SpotifyTags)
	case SourceGenius:
		p.GeniusThreshold, p.GeniusTags = pick(s, p.GeniusThreshold, p.GeniusTags)
	case SourceJioSaavn:
		p.JioSaavnThreshold, p.JioSaavnTags = pick(s, p.JioSaavnThreshold, p.JioSaavnTags)
	}
}

// pick keeps the current values where s leaves them unset
func pick(s ProviderSettings, threshold float64, tags []string) (float64, []string) {
	if s.Threshold > 0 {
		threshold = s.Threshold
	}
	if len(s.Tags) > 0 {
		tags = s.Tags
	}
	return threshold, tags
}

func isKnownSource(name string) bool {
	for _, s := range KnownSources {
		if s == name {
			return true
		}
	}
	return false
}

// HasSource reports whether the run queries the named source
func (c Config) HasSource(name string) bool {
	for _, s := range c.Configuration.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// Validate checks the settings a run cannot start without
func (c Config) Validate() error {
	var errs []error

	if len(c.Configuration.Sources) == 0 {
		errs = append(errs, errors.New("no lyrics sources configured"))
	}
	seen := map[string]bool{}
	for _, s := range c.Configuration.Sources {
		switch {
		case !isKnownSource(s):
			errs = append(errs, fmt.Errorf("unknown lyrics source %q", s))
		case seen[s]:
			errs = append(errs, fmt.Errorf("lyrics source %q listed twice", s))
		}
		seen[s] = true

		if !isKnownSource(s) {
			continue
		}
		ps := c.Provider(s)
		if ps.Threshold <= 0 || ps.Threshold > 100 {
			errs = append(errs, fmt.Errorf("%s threshold %v outside (0, 100]", s, ps.Threshold))
		}
		if _, err := matching.ParseTagPolicy(ps.Tags); err != nil {
			errs = append(errs, fmt.Errorf("%s tags: %w", s, err))
		}
	}

	if len(c.Configuration.AudioExtensions) == 0 {
		errs = append(errs, errors.New("no audio extensions configured"))
	}

	if _, err := c.Mode(); err != nil {
		errs = append(errs, err)
	}

	if c.HasSource(SourceGenius) && c.Credentials.GeniusAccessToken == "" {
		errs = append(errs, fmt.Errorf("%w: GENIUS_ACCESS_TOKEN is required for %s", ErrMissingCredential, SourceGenius))
	}
	if c.HasSource(SourceSpotify) && c.Credentials.SpotifySPDC == "" {
		errs = append(errs, fmt.Errorf("%w: SP_DC_TOKEN is required for %s", ErrMissingCredential, SourceSpotify))
	}

	return errors.Join(errs...)
}
