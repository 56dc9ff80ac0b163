package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/vendorfeed/internal/logger"
	"github.com/jmylchreest/vendorfeed/internal/scraper"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

// DefaultMaxPages bounds the listing pages walked per vendor.
const DefaultMaxPages = 20

// ErrStopWalk may be returned by a visit function to end a walk early
// without error.
var ErrStopWalk = errors.New("stop walk")

// ErrNoListingPages is returned when every listing page of a vendor failed
// to load.
var ErrNoListingPages = errors.New("no listing page could be fetched")

// Config holds crawler configuration.
type Config struct {
	MaxPages  int           // listing pages per vendor across all listing URLs (0 = DefaultMaxPages)
	UserAgent string        // overrides the fetcher default when set
	Timeout   time.Duration // per request; 0 uses the fetcher default
}

// DefaultConfig returns sensible crawler defaults.
func DefaultConfig() Config {
	return Config{MaxPages: DefaultMaxPages}
}

// Page is a fetched and parsed page.
type Page struct {
	URL     string // final URL after redirects
	Number  int    // 1-based listing page count within the vendor walk
	Content scraper.PageContent
	Doc     *goquery.Document
}

// WalkStats summarizes a listing walk.
type WalkStats struct {
	Pages  int // listing pages fetched and visited
	Failed int // listing pages that could not be fetched
}

// Crawler walks listing pages sequentially.
type Crawler struct {
	fetcher scraper.Fetcher
	config  Config
	log     *slog.Logger
}

// New creates a new Crawler.
func New(fetcher scraper.Fetcher, cfg Config) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Crawler{
		fetcher: fetcher,
		config:  cfg,
	}
}

// WithLogger returns a copy of c whose walks log through l as-is. Without
// it, walks log through the process logger tagged with the vendor name.
func (c *Crawler) WithLogger(l *slog.Logger) *Crawler {
	cp := *c
	cp.log = l
	return &cp
}

// FetchOptions builds the request options for a vendor.
func (c *Crawler) FetchOptions(v vendor.Vendor) scraper.FetchOptions {
	return scraper.FetchOptions{
		UserAgent: c.config.UserAgent,
		Timeout:   c.config.Timeout,
		Cookie:    v.Cookie(),
		Headers:   v.Headers,
	}
}

// Fetch retrieves and parses one page with the vendor's cookie and headers.
func (c *Crawler) Fetch(ctx context.Context, v vendor.Vendor, url string) (Page, error) {
	content, err := c.fetcher.Fetch(ctx, url, c.FetchOptions(v))
	if err != nil {
		return Page{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return Page{
		URL:     content.BaseURL(),
		Content: content,
		Doc:     doc,
	}, nil
}

// MaxPages returns the listing page limit for v.
func (c *Crawler) MaxPages(v vendor.Vendor) int {
	if v.MaxPages > 0 {
		return v.MaxPages
	}
	return c.config.MaxPages
}

// Walk visits the vendor's listing pages in order, following next-page
// links from each listing URL. It stops a chain when no next link is found,
// the next link was already visited, or a page fails to load; failures are
// logged and the walk moves on to the next listing URL. The page limit
// applies across all listing URLs.
//
// An error from visit ends the walk and is returned, except ErrStopWalk.
func (c *Crawler) Walk(ctx context.Context, v vendor.Vendor, visit func(Page) error) (WalkStats, error) {
	var stats WalkStats
	log := c.log
	if log == nil {
		log = logger.With("vendor", v.Name)
	}
	maxPages := c.MaxPages(v)
	queue := NewURLQueue()
	pagination := NewPaginationSelector(v.Selectors.Next)

	for _, start := range v.ListingURLs() {
		if !queue.Add(start, 1) {
			log.Debug("listing URL already visited", "url", start)
			continue
		}

		for {
			current, depth, ok := queue.Pop()
			if !ok {
				break
			}
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if stats.Pages >= maxPages {
				log.Info("page limit reached", "max_pages", maxPages)
				return stats, nil
			}

			page, err := c.Fetch(ctx, v, current)
			if err != nil {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				stats.Failed++
				log.Warn("listing page failed, skipping", "url", current, "error", err)
				continue
			}
			if normalizeURL(page.URL) != normalizeURL(current) && !queue.MarkVisited(page.URL) {
				log.Debug("redirected to a visited page, stopping", "url", current, "final_url", page.URL)
				continue
			}

			stats.Pages++
			page.Number = stats.Pages
			log.Info("listing page",
				"url", page.URL,
				"page", depth,
				"size", humanize.Bytes(uint64(len(page.Content.HTML))),
				"took", page.Content.Duration.Round(time.Millisecond))

			if err := visit(page); err != nil {
				if errors.Is(err, ErrStopWalk) {
					return stats, nil
				}
				return stats, err
			}

			next, found := pagination.FindNextPage(page.Doc.Selection, page.URL)
			if !found {
				log.Debug("no next page", "url", page.URL)
				continue
			}
			if !queue.Add(next, depth+1) {
				log.Debug("next page already visited, stopping", "next", next)
			}
		}
	}

	if stats.Pages == 0 && stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d failed", ErrNoListingPages, stats.Failed)
	}
	return stats, nil
}
