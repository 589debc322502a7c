package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"synced-lyrics-go/circuitbreaker"
	"synced-lyrics-go/config"
	"synced-lyrics-go/logcolors"
	"synced-lyrics-go/services/lyrics"
	"synced-lyrics-go/services/matching"
	"synced-lyrics-go/services/providers"
	"synced-lyrics-go/services/providers/genius"
	"synced-lyrics-go/services/providers/jiosaavn"
	"synced-lyrics-go/services/providers/lrclib"
	"synced-lyrics-go/services/providers/spotify"
	"synced-lyrics-go/services/session"

	log "github.com/sirupsen/logrus"
)

// setupLogging applies LOG_LEVEL and LOG_FORMAT and tees output into LOG_FILE.
// The returned file, if any, must be closed by the caller.
func setupLogging(conf config.Config) (*os.File, error) {
	c := conf.Configuration

	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true, TimestampFormat: time.DateTime})
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if c.LogFile == "" {
		return nil, nil
	}
	f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("log file %s unavailable, logging to stderr only: %w", c.LogFile, err)
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return f, nil
}

// newSession builds the HTTP session owned by one source
func newSession(conf config.Config, name string) *session.Session {
	s := conf.Session

	var pacer *session.Pacer
	if s.PacingEnabled {
		pacer = session.NewPacer(s.PacingMeanSecs, s.PacingJitter, s.PacingMinSecs)
	}

	return session.New(session.Options{
		Name:                name,
		Timeout:             time.Duration(s.RequestTimeoutSecs) * time.Second,
		RotateEvery:         s.RotateEvery,
		MaxRetries:          s.ServerErrorRetries,
		RetryBackoff:        time.Duration(s.RetryBackoffMs) * time.Millisecond,
		RateLimitBackoffMin: time.Duration(s.RateLimitBackoffMinSecs) * time.Second,
		RateLimitBackoffMax: time.Duration(s.RateLimitBackoffMaxSecs) * time.Second,
		RequestsPerSecond:   s.RequestsPerSecond,
		Pacer:               pacer,
		Breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:      name,
			Threshold: s.CircuitBreakerThreshold,
			Cooldown:  time.Duration(s.CircuitBreakerCooldownSecs) * time.Second,
		}),
	})
}

// browserFactory starts the browser the Spotify source searches with, presenting
// the same user agent as the source's HTTP session
type browserFactory func(conf config.Config, userAgent string) (spotify.Browser, error)

func newChromeBrowser(conf config.Config, userAgent string) (spotify.Browser, error) {
	p := conf.Providers
	browser, err := spotify.NewChromeBrowser(spotify.ChromeOptions{
		ProfileDir: conf.BrowserProfileDir(),
		Headless:   p.BrowserHeadless,
		UserAgent:  userAgent,
		Timeout:    time.Duration(p.BrowserTimeoutSecs) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return browser, nil
}

// buildRegistry registers one adapter per configured source. Sources that are not
// configured are never built, so their credentials are not required.
func buildRegistry(conf config.Config, mode lyrics.FetchMode, newBrowser browserFactory) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	for _, name := range conf.Configuration.Sources {
		if registry.Has(name) {
			continue
		}
		settings := conf.Provider(name)
		tags, err := matching.ParseTagPolicy(settings.Tags)
		if err != nil {
			registry.Close()
			return nil, fmt.Errorf("%s tags: %w", name, err)
		}

		switch name {
		case config.SourceLrclib:
			registry.Register(lrclib.New(lrclib.Options{
				Session:   newSession(conf, name),
				Threshold: settings.Threshold,
				Tags:      tags,
				Mode:      mode,
			}))

		case config.SourceGenius:
			registry.Register(genius.New(genius.Options{
				Session:     newSession(conf, name),
				AccessToken: conf.Credentials.GeniusAccessToken,
				Threshold:   settings.Threshold,
				Tags:        tags,
			}))

		case config.SourceJioSaavn:
			registry.Register(jiosaavn.New(jiosaavn.Options{
				Session:   newSession(conf, name),
				Threshold: settings.Threshold,
				Tags:      tags,
			}))

		case config.SourceSpotify:
			client, err := newSpotify(conf, settings.Threshold, tags, newBrowser)
			if err != nil {
				registry.Close()
				return nil, err
			}
			registry.Register(client)

		default:
			registry.Close()
			return nil, fmt.Errorf("unknown lyrics source %q", name)
		}
		log.Infof("%s %s enabled (threshold %.0f)", logcolors.LogConfig, logcolors.Provider(name), settings.Threshold)
	}

	return registry, nil
}

func newSpotify(conf config.Config, threshold float64, tags matching.TagPolicy, newBrowser browserFactory) (*spotify.Client, error) {
	p := conf.Providers

	cipher := spotify.DefaultTOTPCipher
	if p.SpotifyTOTPSecret != "" {
		parsed, err := spotify.ParseCipher(p.SpotifyTOTPSecret)
		if err != nil {
			return nil, fmt.Errorf("SPOTIFY_TOTP_SECRET: %w", err)
		}
		cipher = parsed
	}

	sess := newSession(conf, config.SourceSpotify)

	browser, err := newBrowser(conf, sess.UserAgent())
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	log.Infof("%s Browser started with profile %s", logcolors.LogBrowser, conf.BrowserProfileDir())
	auth := spotify.NewAuthManager(spotify.AuthOptions{
		Session: sess,
		SPDC:    conf.Credentials.SpotifySPDC,
		TOTP:    spotify.TOTP{Version: p.SpotifyTOTPVersion, Cipher: cipher},
	})

	return spotify.New(spotify.Options{
		Session:       sess,
		Auth:          auth,
		Browser:       browser,
		ProfileDir:    conf.BrowserProfileDir(),
		TrackSelector: p.SpotifyTrackSelector,
		Timeout:       time.Duration(p.BrowserTimeoutSecs) * time.Second,
		Threshold:     threshold,
		Tags:          tags,
	}), nil
}
