package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"synced-lyrics-go/services/lyrics"
)

var envVars = []string{
	"MUSIC_DIRECTORY",
	"OUTPUT_DIRECTORY",
	"LYRICS_FETCH_MODE",
	"LYRICS_SOURCES",
	"PREFERENCES_FILE",
	"SESSION_ROTATE_EVERY",
	"SERVER_ERROR_RETRIES",
	"RATE_LIMIT_BACKOFF_MIN_SECS",
	"RATE_LIMIT_BACKOFF_MAX_SECS",
	"PACING_ENABLED",
	"LRCLIB_THRESHOLD",
	"GENIUS_THRESHOLD",
	"GENIUS_TAGS",
	"BROWSER_HEADLESS",
	"GENIUS_ACCESS_TOKEN",
	"SP_DC_TOKEN",
}

// clearEnv unsets every variable the tests touch and restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestConfigDefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"FetchMode default", cfg.Configuration.FetchMode, "synced_with_fallback"},
		{"Sources default", cfg.Configuration.Sources, []string{"musixmatch-via-spotify", "lrclib"}},
		{"RotateEvery default", cfg.Session.RotateEvery, 7},
		{"ServerErrorRetries default", cfg.Session.ServerErrorRetries, 3},
		{"RateLimitBackoffMinSecs default", cfg.Session.RateLimitBackoffMinSecs, 60},
		{"RateLimitBackoffMaxSecs default", cfg.Session.RateLimitBackoffMaxSecs, 120},
		{"PacingEnabled default", cfg.Session.PacingEnabled, false},
		{"LrclibThreshold default", cfg.Providers.LrclibThreshold, 70.0},
		{"SpotifyThreshold default", cfg.Providers.SpotifyThreshold, 70.0},
		{"GeniusThreshold default", cfg.Providers.GeniusThreshold, 60.0},
		{"GeniusTags default", cfg.Providers.GeniusTags, []string{"title", "artist"}},
		{"BrowserHeadless default", cfg.Providers.BrowserHeadless, true},
		{"LogFile default", cfg.Configuration.LogFile, "main.log"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}

	mode, err := cfg.Mode()
	if err != nil || mode != lyrics.SyncedWithFallback {
		t.Errorf("Mode() = %v, %v", mode, err)
	}
}

func TestConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LYRICS_FETCH_MODE", "unsynced")
	t.Setenv("LYRICS_SOURCES", "genius,lrclib")
	t.Setenv("SESSION_ROTATE_EVERY", "3")
	t.Setenv("GENIUS_THRESHOLD", "85")
	t.Setenv("OUTPUT_DIRECTORY", "/tmp/lrc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if mode, _ := cfg.Mode(); mode != lyrics.UnsyncedOnly {
		t.Errorf("Mode() = %v, expected unsynced", mode)
	}
	if !reflect.DeepEqual(cfg.Configuration.Sources, []string{"genius", "lrclib"}) {
		t.Errorf("Sources = %v", cfg.Configuration.Sources)
	}
	if cfg.Session.RotateEvery != 3 {
		t.Errorf("RotateEvery = %d, expected 3", cfg.Session.RotateEvery)
	}
	if got := cfg.Provider(SourceGenius).Threshold; got != 85 {
		t.Errorf("genius threshold = %v, expected 85", got)
	}
	if got := cfg.OutputDir(); got != "/tmp/lrc" {
		t.Errorf("OutputDir() = %q", got)
	}
}

func TestOutputDirFallsBackToMusicDir(t *testing.T) {
	var cfg Config
	cfg.Configuration.MusicDirectory = "/music"
	if got := cfg.OutputDir(); got != "/music" {
		t.Errorf("OutputDir() = %q, expected /music", got)
	}
	if got := cfg.BrowserProfileDir(); !strings.HasSuffix(got, filepath.Join("synced-lyrics", "chrome-profile")) {
		t.Errorf("BrowserProfileDir() = %q", got)
	}
}

func validConfig() Config {
	var cfg Config
	cfg.Configuration.FetchMode = "synced_with_fallback"
	cfg.Configuration.Sources = []string{SourceLrclib}
	cfg.Configuration.AudioExtensions = []string{".mp3", ".flac"}
	cfg.Providers.LrclibThreshold = 70
	cfg.Providers.LrclibTags = []string{"title", "artist", "album"}
	cfg.Providers.GeniusThreshold = 60
	cfg.Providers.GeniusTags = []string{"title", "artist"}
	cfg.Providers.SpotifyThreshold = 70
	cfg.Providers.SpotifyTags = []string{"title", "artist", "album"}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     string
		wantMissing bool
	}{
		{name: "valid lrclib only", mutate: func(c *Config) {}},
		{
			name:        "genius without token",
			mutate:      func(c *Config) { c.Configuration.Sources = []string{SourceGenius} },
			wantErr:     "GENIUS_ACCESS_TOKEN",
			wantMissing: true,
		},
		{
			name: "genius with token",
			mutate: func(c *Config) {
				c.Configuration.Sources = []string{SourceGenius}
				c.Credentials.GeniusAccessToken = "tok"
			},
		},
		{
			name:        "spotify without cookie",
			mutate:      func(c *Config) { c.Configuration.Sources = []string{SourceSpotify, SourceLrclib} },
			wantErr:     "SP_DC_TOKEN",
			wantMissing: true,
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Configuration.Sources = []string{"azlyrics"} },
			wantErr: "unknown lyrics source",
		},
		{
			name:    "duplicate source",
			mutate:  func(c *Config) { c.Configuration.Sources = []string{SourceLrclib, SourceLrclib} },
			wantErr: "listed twice",
		},
		{
			name:    "no sources",
			mutate:  func(c *Config) { c.Configuration.Sources = nil },
			wantErr: "no lyrics sources",
		},
		{
			name:    "bad fetch mode",
			mutate:  func(c *Config) { c.Configuration.FetchMode = "karaoke" },
			wantErr: "karaoke",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Providers.LrclibThreshold = 150 },
			wantErr: "threshold",
		},
		{
			name:    "no audio extensions",
			mutate:  func(c *Config) { c.Configuration.AudioExtensions = nil },
			wantErr: "no audio extensions",
		},
		{
			name:    "bad tag",
			mutate:  func(c *Config) { c.Providers.LrclibTags = []string{"genre"} },
			wantErr: "unknown tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, expected error containing %q", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrMissingCredential); got != tt.wantMissing {
				t.Errorf("errors.Is(ErrMissingCredential) = %v, expected %v", got, tt.wantMissing)
			}
		})
	}
}

func TestLoadPreferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.toml")
	content := `fetch_mode = "synced"
sources = ["genius", "lrclib"]

[providers.genius]
threshold = 65
tags = ["title"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	prefs, err := LoadPreferences(path)
	if err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}

	cfg := validConfig()
	cfg.Apply(prefs)

	if cfg.Configuration.FetchMode != "synced" {
		t.Errorf("FetchMode = %q", cfg.Configuration.FetchMode)
	}
	if !reflect.DeepEqual(cfg.Configuration.Sources, []string{"genius", "lrclib"}) {
		t.Errorf("Sources = %v", cfg.Configuration.Sources)
	}
	genius := cfg.Provider(SourceGenius)
	if genius.Threshold != 65 || !reflect.DeepEqual(genius.Tags, []string{"title"}) {
		t.Errorf("genius settings = %+v", genius)
	}
	// untouched sources keep their values
	if got := cfg.Provider(SourceLrclib).Threshold; got != 70 {
		t.Errorf("lrclib threshold = %v, expected 70", got)
	}
}

func TestLoadPreferencesRejectsUnknown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "fetchmode = \"synced\"\n", "unknown preference keys"},
		{"unknown source", "[providers.azlyrics]\nthreshold = 50\n", "unknown source"},
		{"malformed", "sources = [\n", "read preferences"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "preferences.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadPreferences(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadPreferences() = %v, expected error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAppliesPreferencesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "preferences.toml")
	if err := os.WriteFile(path, []byte("fetch_mode = \"unsynced\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PREFERENCES_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Configuration.FetchMode != "unsynced" {
		t.Errorf("FetchMode = %q, expected unsynced", cfg.Configuration.FetchMode)
	}
}
