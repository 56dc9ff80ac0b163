package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/vendorfeed/internal/crawler"
	"github.com/jmylchreest/vendorfeed/internal/logger"
	"github.com/jmylchreest/vendorfeed/internal/output"
	"github.com/jmylchreest/vendorfeed/internal/scraper"
	"github.com/jmylchreest/vendorfeed/pkg/cleaner"
	"github.com/jmylchreest/vendorfeed/pkg/extract"
	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url-or-file>",
	Short: "Run one vendor's selectors against a single page",
	Long: `Extract rows from a single page with one vendor's selectors and print
them, without following pagination or product links.

The input is a URL, a local HTML file, or - for stdin. By default the page
is treated as a listing and every product card becomes a row; with --page
it is treated as a product page and yields one row.

Examples:
  # Check the card selectors of a vendor against a saved listing
  vendorfeed extract --vendor acme listing.html

  # Check the product page selectors against the live site
  vendorfeed extract --vendor acme --page https://acme.example/p/anvil`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.String("vendor", "", "vendor name (optional when the vendors file has one vendor)")
	flags.Bool("page", false, "treat the input as a product page")
	flags.String("format", "json", "output format: "+output.FormatNames())
	flags.Bool("compact", false, "write JSON on one line instead of indented")
	flags.Duration("timeout", 30*time.Second, "request timeout")
}

func runExtract(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flags := cmd.Flags()
	name, _ := flags.GetString("vendor")
	asPage, _ := flags.GetBool("page")
	formatStr, _ := flags.GetString("format")
	compact, _ := flags.GetBool("compact")
	timeout, _ := flags.GetDuration("timeout")

	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	v, err := pickVendor(viper.GetString("vendors"), name)
	if err != nil {
		logError("%v", err)
		return err
	}

	source := args[0]
	doc, pageURL, err := loadDocument(ctx, cmd.InOrStdin(), v, source, timeout)
	if err != nil {
		logError("%v", err)
		return err
	}
	logger.Debug("document loaded", "source", source, "base", pageURL)

	rows, err := extractRows(doc, v, pageURL, asPage)
	if err != nil {
		logError("%v", err)
		return err
	}

	w, err := output.NewWriter(cmd.OutOrStdout(), format, output.WithPretty(!compact))
	if err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logInfo("%d rows extracted from %s (%s)", len(rows), source, fieldCoverage(rows))
	return nil
}

// pickVendor loads the vendors file and returns the named vendor, or the
// only vendor when name is empty.
func pickVendor(path, name string) (vendor.Vendor, error) {
	file, err := vendor.FromFile(path)
	if err != nil {
		return vendor.Vendor{}, err
	}
	var v vendor.Vendor
	switch {
	case name != "":
		selected, err := file.Select([]string{name})
		if err != nil {
			return vendor.Vendor{}, err
		}
		v = selected[0]
	case len(file.Vendors) == 1:
		v = file.Vendors[0]
	default:
		return vendor.Vendor{}, fmt.Errorf("%s defines %d vendors; pick one with --vendor", path, len(file.Vendors))
	}
	if err := v.Validate(); err != nil {
		return vendor.Vendor{}, err
	}
	return v, nil
}

// loadDocument parses the page at source. Local input resolves links
// against the vendor's domain.
func loadDocument(ctx context.Context, stdin io.Reader, v vendor.Vendor, source string, timeout time.Duration) (*goquery.Document, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		f := scraper.NewStaticFetcher(scraper.FetcherConfig{Timeout: timeout})
		defer func() { _ = f.Close() }()
		page, err := crawler.New(f, crawler.Config{Timeout: timeout}).Fetch(ctx, v, source)
		if err != nil {
			return nil, "", err
		}
		return page.Doc, page.URL, nil
	}

	var r io.Reader = stdin
	if source != "-" {
		file, err := os.Open(source) //#nosec G304 -- input path is user-supplied
		if err != nil {
			return nil, "", fmt.Errorf("failed to open input: %w", err)
		}
		defer func() { _ = file.Close() }()
		r = file
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, v.BaseURL(), nil
}

// extractRows applies the vendor's card or product page selectors and
// normalizes the result the way a scrape does.
func extractRows(doc *goquery.Document, v vendor.Vendor, pageURL string, asPage bool) ([]product.Row, error) {
	cl, err := cleaner.ForFormat(v.DescriptionFormat)
	if err != nil {
		return nil, err
	}

	var raw []product.Row
	if asPage {
		raw = append(raw, extract.Page(doc.Selection, v.ProductPage, pageURL))
	} else {
		extract.Cards(doc.Selection, v.Selectors.Product).Each(func(_ int, card *goquery.Selection) {
			raw = append(raw, extract.Card(card, v.Selectors, pageURL))
		})
	}

	rows := make([]product.Row, 0, len(raw))
	for _, r := range raw {
		r.Vendor = v.Name
		if r.Description != "" {
			if desc, err := cl.Clean(r.Description); err == nil {
				r.Description = desc
			}
		}
		rows = append(rows, product.Normalize(r))
	}
	return rows, nil
}

// fieldCoverage summarizes how many rows filled each key field.
func fieldCoverage(rows []product.Row) string {
	var name, price, sku, image, avail int
	for _, r := range rows {
		if r.Name != "" {
			name++
		}
		if r.Price != "" {
			price++
		}
		if r.SKU != "" {
			sku++
		}
		if r.ImageURL != "" {
			image++
		}
		if r.Availability != "" {
			avail++
		}
	}
	n := len(rows)
	return fmt.Sprintf("name %d/%d, price %d/%d, sku %d/%d, image %d/%d, availability %d/%d",
		name, n, price, n, sku, n, image, n, avail, n)
}
