package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/vendorfeed/internal/crawler"
	"github.com/jmylchreest/vendorfeed/internal/logger"
	"github.com/jmylchreest/vendorfeed/internal/output"
	"github.com/jmylchreest/vendorfeed/internal/scraper"
	"github.com/jmylchreest/vendorfeed/pkg/feed"
	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

// errVendorsFailed is returned in strict mode when at least one vendor failed.
var errVendorsFailed = errors.New("one or more vendors failed")

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape vendors and write the product feed",
	Long: `Scrape every vendor in the vendors file and write one row per product.

Rows are normalized and deduplicated per vendor by SKU, falling back to the
product URL. A vendor that fails is logged and skipped; the feed is still
written from the others. Use --strict to turn vendor failures into a
non-zero exit status.

The output format follows the file extension unless --format is given.

Examples:
  # All vendors, CSV feed
  vendorfeed scrape -v vendors.yaml -o products.csv

  # One vendor as JSON lines on stdout
  vendorfeed scrape --only acme -o - --format jsonl

  # Slow down and cap the crawl
  vendorfeed scrape --delay 1s --max-pages 5 --max-products 200`,
	Args: cobra.NoArgs,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	flags := scrapeCmd.Flags()

	// Vendor selection
	flags.StringSlice("only", nil, "scrape only these vendors (comma separated names)")

	// Output settings
	flags.StringP("output", "o", "products.csv", "output file (- for stdout)")
	flags.String("format", "", "output format: "+output.FormatNames()+" (default: from output extension)")
	flags.Bool("no-header", false, "omit the CSV header row")
	flags.Bool("compact", false, "write JSON on one line instead of indented")

	// Crawl limits
	flags.Int("max-pages", crawler.DefaultMaxPages, fmt.Sprintf("max listing pages per vendor (0 = default %d)", crawler.DefaultMaxPages))
	flags.Int("max-products", 0, "max products per vendor (0=unlimited)")

	// Fetch settings
	flags.Duration("delay", 200*time.Millisecond, "delay between requests")
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.String("user-agent", scraper.DefaultUserAgent, "User-Agent header")
	flags.String("max-body-size", "10MB", "max response body size (e.g., 512KB, 10MB, 0=unlimited)")

	flags.Bool("strict", false, "exit non-zero when any vendor fails")

	// Bind to viper so .vendorfeed.yaml and VENDORFEED_* can set them
	_ = viper.BindPFlag("only", flags.Lookup("only"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("no_header", flags.Lookup("no-header"))
	_ = viper.BindPFlag("compact", flags.Lookup("compact"))
	_ = viper.BindPFlag("max_pages", flags.Lookup("max-pages"))
	_ = viper.BindPFlag("max_products", flags.Lookup("max-products"))
	_ = viper.BindPFlag("delay", flags.Lookup("delay"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("user_agent", flags.Lookup("user-agent"))
	_ = viper.BindPFlag("max_body_size", flags.Lookup("max-body-size"))
	_ = viper.BindPFlag("strict", flags.Lookup("strict"))
}

func runScrape(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Debug("scrape command starting")

	vendors, err := loadVendors(viper.GetString("vendors"), viper.GetStringSlice("only"))
	if err != nil {
		logError("%v", err)
		return err
	}

	outPath := viper.GetString("output")
	format, err := outputFormat(viper.GetString("format"), outPath)
	if err != nil {
		logError("%v", err)
		return err
	}

	maxBodySize, err := parseSize(viper.GetString("max_body_size"))
	if err != nil {
		logger.Error("invalid max-body-size", "value", viper.GetString("max_body_size"), "error", err)
		return err
	}
	logger.Debug("fetch settings",
		"timeout", viper.GetDuration("timeout"),
		"delay", viper.GetDuration("delay"),
		"max_body_size", humanize.Bytes(uint64(maxBodySize)))

	f := feed.New(
		feed.WithUserAgent(viper.GetString("user_agent")),
		feed.WithTimeout(viper.GetDuration("timeout")),
		feed.WithMaxBodySize(maxBodySize),
		feed.WithDelay(viper.GetDuration("delay")),
		feed.WithMaxPages(viper.GetInt("max_pages")),
		feed.WithMaxProducts(viper.GetInt("max_products")),
	)
	defer func() { _ = f.Close() }()

	start := time.Now()
	res, runErr := f.Run(ctx, vendors)
	switch {
	case runErr == nil:
	case errors.Is(runErr, feed.ErrNoRows):
		logger.Warn("no rows extracted; writing an empty feed")
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		logger.Warn("run interrupted; writing rows collected so far", "error", runErr)
	default:
		logError("%v", runErr)
		return runErr
	}

	if err := writeFeed(cmd.OutOrStdout(), outPath, format, res.Rows,
		output.WithHeader(!viper.GetBool("no_header")),
		output.WithPretty(!viper.GetBool("compact"))); err != nil {
		logError("%v", err)
		return err
	}
	logInfo("Wrote %d rows to %s", len(res.Rows), displayPath(outPath))
	printReports(cmd.ErrOrStderr(), res, time.Since(start))

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if failed := res.Failed(); len(failed) > 0 && viper.GetBool("strict") {
		return fmt.Errorf("%w: %d of %d", errVendorsFailed, len(failed), len(res.Reports))
	}
	return nil
}

// loadVendors reads, validates and filters the vendors file.
func loadVendors(path string, only []string) ([]vendor.Vendor, error) {
	file, err := vendor.FromFile(path)
	if err != nil {
		return nil, err
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vendors file %s: %w", path, err)
	}
	return file.Select(only)
}

func outputFormat(flag, path string) (output.Format, error) {
	if flag != "" {
		return output.ParseFormat(flag)
	}
	if path == "-" || path == "" {
		return output.FormatCSV, nil
	}
	return output.FormatFromPath(path), nil
}

// parseSize reads a human size; empty or "0" means unlimited.
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// writeFeed writes rows to path, or to stdout when path is "-".
func writeFeed(stdout io.Writer, path string, format output.Format, rows []product.Row, opts ...output.WriterOption) (err error) {
	var dst io.Writer = stdout
	if path != "-" && path != "" {
		file, createErr := os.Create(path) //#nosec G304 -- output path is user-supplied
		if createErr != nil {
			return fmt.Errorf("failed to create output file: %w", createErr)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close output file: %w", cerr)
			}
		}()
		dst = file
	}

	w, err := output.NewWriter(dst, format, opts...)
	if err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return w.Close()
}

func displayPath(path string) string {
	if path == "-" || path == "" {
		return "stdout"
	}
	return path
}

func printReports(w io.Writer, res feed.Result, elapsed time.Duration) {
	if viper.GetBool("quiet") {
		return
	}
	for _, r := range res.Reports {
		status := "ok"
		if !r.OK() {
			status = "failed: " + r.Err.Error()
		}
		_, _ = fmt.Fprintf(w, "  %-20s %-8s pages=%d product_pages=%d rows=%d skipped=%d %s\n",
			r.Vendor, r.Strategy, r.Pages, r.ProductPages, r.Rows, r.Skipped, status)
	}
	_, _ = fmt.Fprintf(w, "%d rows, %d duplicates removed, %d/%d vendors failed in %s\n",
		len(res.Rows), res.Duplicates, len(res.Failed()), len(res.Reports), elapsed.Round(time.Millisecond))
}
