package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrNoResult is returned when neither selector pass finds an organic
// result link.
var ErrNoResult = errors.New("no suitable result link found")

// Browser is the narrow port the pipeline depends on, so the chromedp
// implementation can be swapped for fakes in tests.
type Browser interface {
	Search(ctx context.Context, query string) (string, error)
	FetchReadableText(ctx context.Context, link string) (string, error)
	Close() error
}

// Session drives one headless-or-visible Chrome instance. At most one
// session is live at a time; the pipeline owns it for the duration of
// a single request.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	log         *slog.Logger
}

// NewSession launches Chrome. Failure here aborts the whole pipeline
// before any navigation happens.
func NewSession(ctx context.Context, headless bool, timeout time.Duration) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.WindowSize(1920, 1080),
	)

	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	cctx, cancelCtx := chromedp.NewContext(actx)

	// start the browser process now so acquisition failures surface here
	if err := chromedp.Run(cctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Session{
		ctx:         cctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		timeout:     timeout,
		log:         slog.Default().With("part", "browser"),
	}, nil
}

func (s *Session) Close() error {
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}

// Search runs a search-engine query and returns the first organic
// result link.
func (s *Session) Search(ctx context.Context, query string) (string, error) {
	searchURL := "https://www.google.com/search?q=" + url.QueryEscape(query)

	nctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := chromedp.Run(nctx, chromedp.Navigate(searchURL)); err != nil {
		return "", fmt.Errorf("navigate search: %w", err)
	}

	s.dismissConsent()

	var pageHTML string
	if err := chromedp.Run(nctx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("read results page: %w", err)
	}

	link := SelectResultLink(pageHTML)
	if link == "" {
		return "", ErrNoResult
	}

	s.log.Info("selected result link", "link", link)
	return link, nil
}

// dismissConsent clicks through a cookie-consent interstitial when one
// shows up. Best effort with a short bound; not finding one is normal.
func (s *Session) dismissConsent() {
	cctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	const consentXPath = `//button[.//div[contains(text(), "Accept all")]] | //button[.//div[contains(text(), "Reject all")]] | //button[contains(., "Accept all")] | //button[contains(., "Reject all")]`

	err := chromedp.Run(cctx,
		chromedp.Click(consentXPath, chromedp.BySearch),
		chromedp.Sleep(500*time.Millisecond),
	)
	if err != nil {
		s.log.Debug("no consent interstitial", "err", err)
		return
	}
	s.log.Info("dismissed cookie consent")
}

// FetchReadableText navigates to link, waits (bounded) for the page to
// report itself loaded, and reduces it to readable text. A load-state
// timeout is not fatal; whatever rendered is extracted.
func (s *Session) FetchReadableText(ctx context.Context, link string) (string, error) {
	nctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := chromedp.Run(nctx, chromedp.Navigate(link)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", link, err)
	}

	wctx, wcancel := context.WithTimeout(s.ctx, s.timeout)
	if err := chromedp.Run(wctx,
		chromedp.Poll("document.readyState === 'complete'", nil),
	); err != nil {
		s.log.Warn("page load wait expired, proceeding", "link", link, "err", err)
	}
	wcancel()

	var pageHTML string
	hctx, hcancel := context.WithTimeout(s.ctx, s.timeout)
	defer hcancel()
	if err := chromedp.Run(hctx, chromedp.OuterHTML("html", &pageHTML, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page %s: %w", link, err)
	}

	text, err := ExtractReadable(pageHTML)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", link, err)
	}

	s.log.Info("extracted page text", "link", link, "chars", len(text))
	return text, nil
}
