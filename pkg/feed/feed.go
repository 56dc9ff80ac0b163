// Package feed runs the vendor scraping pipeline: walk listing pages,
// extract rows per strategy, normalize, dedup.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jmylchreest/vendorfeed/internal/crawler"
	"github.com/jmylchreest/vendorfeed/internal/logger"
	"github.com/jmylchreest/vendorfeed/internal/scraper"
	"github.com/jmylchreest/vendorfeed/pkg/cleaner"
	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

// ErrNoRows is returned with an otherwise valid Result when no vendor
// produced a row.
var ErrNoRows = errors.New("no product rows extracted")

// VendorReport summarizes one vendor's run.
type VendorReport struct {
	Vendor       string
	Strategy     vendor.Strategy
	Pages        int // listing pages visited
	ProductPages int // product pages fetched
	Rows         int // rows kept after normalization
	Skipped      int // cards or product pages skipped on error or missing name
	Err          error
	Duration     time.Duration
}

// OK reports whether the vendor finished without a fatal error.
func (r VendorReport) OK() bool {
	return r.Err == nil
}

// Result is the outcome of a run.
type Result struct {
	RunID      string
	Rows       []product.Row
	Reports    []VendorReport
	Duplicates int // rows collapsed by dedup
}

// Failed returns the reports of vendors that failed.
func (r Result) Failed() []VendorReport {
	var out []VendorReport
	for _, rep := range r.Reports {
		if !rep.OK() {
			out = append(out, rep)
		}
	}
	return out
}

// Feed runs the pipeline over a set of vendors.
type Feed struct {
	fetcher scraper.Fetcher
	crawler *crawler.Crawler
	config  Config
}

// New creates a Feed.
func New(opts ...Option) *Feed {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f := cfg.Fetcher
	if f == nil {
		f = scraper.NewPoliteFetcher(scraper.NewStaticFetcher(scraper.FetcherConfig{
			UserAgent:   cfg.UserAgent,
			Timeout:     cfg.Timeout,
			MaxBodySize: cfg.MaxBodySize,
		}), cfg.Delay)
	}

	return &Feed{
		fetcher: f,
		crawler: crawler.New(f, crawler.Config{
			MaxPages:  cfg.MaxPages,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout,
		}),
		config: cfg,
	}
}

// Run scrapes every vendor in order. A vendor that fails is logged and
// recorded in its report; the others still run. Rows are normalized,
// stripped of nameless entries and deduplicated across the run.
//
// Run only returns an error when ctx ends or nothing was extracted
// (ErrNoRows); the Result is valid in both cases.
func (f *Feed) Run(ctx context.Context, vendors []vendor.Vendor) (Result, error) {
	runID := f.config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	res := Result{RunID: runID}
	runLog := logger.With("run_id", runID)
	runLog.Info("run started", "vendors", len(vendors), "fetcher", f.fetcher.Type())

	var rows []product.Row
	for _, v := range vendors {
		vendorRows, report := f.scrapeVendor(ctx, v, runLog.With("vendor", v.Name))
		res.Reports = append(res.Reports, report)
		rows = append(rows, vendorRows...)

		if err := ctx.Err(); err != nil {
			res.Rows = product.Dedup(rows)
			res.Duplicates = len(rows) - len(res.Rows)
			return res, err
		}
	}

	res.Rows = product.Dedup(rows)
	res.Duplicates = len(rows) - len(res.Rows)
	runLog.Info("run finished",
		"rows", len(res.Rows),
		"duplicates", res.Duplicates,
		"failed_vendors", len(res.Failed()))

	if len(res.Rows) == 0 {
		return res, ErrNoRows
	}
	return res, nil
}

// ScrapeVendor extracts the normalized rows of one vendor. Errors are
// reported in the VendorReport; rows gathered before a failure are kept.
func (f *Feed) ScrapeVendor(ctx context.Context, v vendor.Vendor) ([]product.Row, VendorReport) {
	return f.scrapeVendor(ctx, v, logger.With("vendor", v.Name))
}

func (f *Feed) scrapeVendor(ctx context.Context, v vendor.Vendor, log *slog.Logger) ([]product.Row, VendorReport) {
	start := time.Now()
	report := VendorReport{Vendor: v.Name, Strategy: v.EffectiveStrategy()}
	log = log.With("strategy", report.Strategy)

	rows, err := f.collect(ctx, v, log, &report)
	report.Duration = time.Since(start)

	var kept []product.Row
	for _, r := range rows {
		r = product.Normalize(r)
		if r.Name == "" {
			report.Skipped++
			continue
		}
		kept = append(kept, r)
	}
	report.Rows = len(kept)

	if err != nil {
		report.Err = err
		log.Warn("vendor failed, skipping", "error", err, "rows", report.Rows)
		return kept, report
	}
	log.Info("vendor done",
		"pages", report.Pages,
		"product_pages", report.ProductPages,
		"rows", report.Rows,
		"skipped", report.Skipped,
		"duration", report.Duration.Round(time.Millisecond))
	return kept, report
}

func (f *Feed) collect(ctx context.Context, v vendor.Vendor, log *slog.Logger, report *VendorReport) ([]product.Row, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vendor: %w", err)
	}
	cl, err := f.cleanerFor(v)
	if err != nil {
		return nil, err
	}

	s := &session{
		feed:        f,
		vendor:      v,
		log:         log,
		cleaner:     cl,
		report:      report,
		seenLinks:   crawler.NewURLQueue(),
		maxProducts: f.maxProducts(v),
	}

	stats, err := f.crawler.WithLogger(log).Walk(ctx, v, func(page crawler.Page) error {
		return s.visit(ctx, page)
	})
	report.Pages = stats.Pages
	return s.rows, err
}

func (f *Feed) cleanerFor(v vendor.Vendor) (cleaner.Cleaner, error) {
	if f.config.Cleaner != nil {
		return f.config.Cleaner, nil
	}
	return cleaner.ForFormat(v.DescriptionFormat)
}

func (f *Feed) maxProducts(v vendor.Vendor) int {
	if v.MaxProducts > 0 {
		return v.MaxProducts
	}
	return f.config.MaxProducts
}

// Close releases the fetcher.
func (f *Feed) Close() error {
	return f.fetcher.Close()
}
