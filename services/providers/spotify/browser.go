package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"synced-lyrics-go/logcolors"

	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

// Browser is the automation capability the search flow needs. Implementations
// are single-owner and not safe for concurrent use.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	WaitURL(ctx context.Context, contains string, timeout time.Duration) error
	CurrentURL(ctx context.Context) (string, error)
	Close() error
}

// ChromeOptions configures the headless Chrome browser
type ChromeOptions struct {
	ProfileDir string
	Headless   bool
	UserAgent  string
	Timeout    time.Duration
}

// ChromeBrowser drives a local Chrome through the DevTools protocol
type ChromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// NewChromeBrowser launches Chrome with a persistent profile so the web player
// session survives between runs.
func NewChromeBrowser(opts ChromeOptions) (*ChromeBrowser, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(1280, 900),
	)
	if opts.ProfileDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.ProfileDir))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))

	// An empty Run starts the browser
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	log.Infof("%s Chrome started (headless=%t profile=%q)", logcolors.LogBrowser, opts.Headless, opts.ProfileDir)
	return &ChromeBrowser{ctx: ctx, cancel: cancel, allocCancel: allocCancel, timeout: opts.Timeout}, nil
}

// run executes actions on the browser tab, bounded by timeout and by the caller's ctx
func (b *ChromeBrowser) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, b.timeout, chromedp.Navigate(url))
}

func (b *ChromeBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return b.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (b *ChromeBrowser) Click(ctx context.Context, selector string) error {
	return b.run(ctx, b.timeout, chromedp.Click(selector, chromedp.ByQuery))
}

func (b *ChromeBrowser) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := b.run(ctx, b.timeout, chromedp.Location(&u))
	return u, err
}

// WaitURL polls the tab location until it contains the given fragment
func (b *ChromeBrowser) WaitURL(ctx context.Context, contains string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		u, err := b.CurrentURL(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(u, contains) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %v waiting for url containing %q (at %s)", timeout, contains, u)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close shuts Chrome down. The profile directory is only safe to touch afterwards.
func (b *ChromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	log.Infof("%s Chrome closed", logcolors.LogBrowser)
	return err
}
