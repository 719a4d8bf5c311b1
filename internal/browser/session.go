// Package browser drives a headless Chrome instance to render the
// explorer's transaction listing pages. The listing is a client-rendered
// React app, so a plain HTTP GET returns an empty shell; the session
// navigates, waits for the table to render, and hands back the HTML.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	// DefaultBaseURL is the explorer transaction listing.
	DefaultBaseURL = "https://solscan.io/txs"

	// DefaultPageSize matches the listing's native page size.
	DefaultPageSize = 25

	// DefaultPageTimeout bounds a single page render. The listing
	// sometimes stalls on ad scripts; waiting longer does not help.
	DefaultPageTimeout = 30 * time.Second

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrSessionClosed is returned by FetchListingPage after Close.
var ErrSessionClosed = errors.New("browser: session closed")

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	BaseURL     string
	PageSize    int
	PageTimeout time.Duration
	UserAgent   string
	Headless    bool
}

// Session owns one browser instance for the life of a crawl.
type Session struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// New launches a browser and verifies it responds. The caller must call
// Close to release the browser process.
func New(ctx context.Context, opts Options) (*Session, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = DefaultPageTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(opts.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	// Start the browser eagerly so launch failures surface here rather
	// than on the first page fetch.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return &Session{opts: opts, ctx: browserCtx, cancel: cancel}, nil
}

// FetchListingPage navigates to the given 1-based listing page, waits for
// the transaction table to render, and returns the page HTML. A render
// that exceeds the per-page timeout returns an error; the session stays
// usable for the next page.
func (s *Session) FetchListingPage(ctx context.Context, page int) (string, error) {
	if s.closed {
		return "", ErrSessionClosed
	}
	if page < 1 {
		return "", fmt.Errorf("browser: invalid page %d", page)
	}

	offset := (page - 1) * s.opts.PageSize
	url := fmt.Sprintf("%s?cluster=mainnet&offset=%d&limit=%d", s.opts.BaseURL, offset, s.opts.PageSize)

	// Honor both the caller's context and the per-page budget.
	runCtx, cancel := context.WithTimeout(s.ctx, s.opts.PageTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("table", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("fetch listing page %d: %w", page, err)
	}
	return html, nil
}

// PageSize reports the effective listing page size.
func (s *Session) PageSize() int {
	return s.opts.PageSize
}

// Close releases the browser process. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancel()
}
