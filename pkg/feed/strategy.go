package feed

import (
	"context"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/vendorfeed/internal/crawler"
	"github.com/jmylchreest/vendorfeed/pkg/cleaner"
	"github.com/jmylchreest/vendorfeed/pkg/extract"
	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

// session holds the state of one vendor walk.
type session struct {
	feed        *Feed
	vendor      vendor.Vendor
	log         *slog.Logger
	cleaner     cleaner.Cleaner
	report      *VendorReport
	seenLinks   *crawler.URLQueue
	maxProducts int
	rows        []product.Row
}

// visit extracts the rows of one listing page according to the vendor
// strategy. It returns crawler.ErrStopWalk once max_products is reached.
func (s *session) visit(ctx context.Context, page crawler.Page) error {
	switch s.vendor.EffectiveStrategy() {
	case vendor.StrategyDetail:
		return s.visitDetail(ctx, page)
	case vendor.StrategyHybrid:
		return s.visitHybrid(ctx, page)
	default:
		return s.visitListing(page)
	}
}

// visitListing builds rows from product cards only.
func (s *session) visitListing(page crawler.Page) error {
	var stop bool
	extract.Cards(page.Doc.Selection, s.vendor.Selectors.Product).EachWithBreak(func(_ int, card *goquery.Selection) bool {
		row, ok := s.card(card, page.URL)
		if !ok {
			return true
		}
		stop = s.add(row)
		return !stop
	})
	if stop {
		return crawler.ErrStopWalk
	}
	return nil
}

// visitDetail follows every product link on the page and builds rows from
// the product pages.
func (s *session) visitDetail(ctx context.Context, page crawler.Page) error {
	for _, link := range s.productLinks(page) {
		if !s.seenLinks.MarkVisited(link) {
			continue
		}
		row, ok, err := s.productPage(ctx, link)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if s.add(row) {
			return crawler.ErrStopWalk
		}
	}
	return nil
}

// visitHybrid builds rows from cards and fills their gaps from the linked
// product pages. A card whose product page fails is kept as it is.
func (s *session) visitHybrid(ctx context.Context, page crawler.Page) error {
	var queue []product.Row
	extract.Cards(page.Doc.Selection, s.vendor.Selectors.Product).Each(func(_ int, card *goquery.Selection) {
		raw := extract.Card(card, s.vendor.Selectors, page.URL)
		if raw.ProductURL != "" && !s.seenLinks.MarkVisited(raw.ProductURL) {
			s.log.Debug("duplicate product link", "url", raw.ProductURL)
			return
		}
		queue = append(queue, raw)
	})

	for _, row := range queue {
		if row.ProductURL != "" {
			detail, ok, err := s.productPage(ctx, row.ProductURL)
			if err != nil {
				return err
			}
			if ok {
				url := row.ProductURL
				row = product.Merge(row, detail)
				row.ProductURL = url
			}
		}
		if row.Name == "" {
			s.report.Skipped++
			s.log.Debug("card without name, skipping", "page", page.URL)
			continue
		}
		row.Vendor = s.vendor.Name
		row.Description = s.description(row.Description, row.ProductURL)
		if s.add(row) {
			return crawler.ErrStopWalk
		}
	}
	return nil
}

// card extracts one listing card. Cards without a name and cards whose
// product link was already seen are skipped.
func (s *session) card(card *goquery.Selection, pageURL string) (product.Row, bool) {
	row := extract.Card(card, s.vendor.Selectors, pageURL)
	if row.Name == "" {
		s.report.Skipped++
		s.log.Debug("card without name, skipping", "page", pageURL)
		return product.Row{}, false
	}
	if row.ProductURL != "" && !s.seenLinks.MarkVisited(row.ProductURL) {
		s.log.Debug("duplicate product link", "url", row.ProductURL)
		return product.Row{}, false
	}
	row.Vendor = s.vendor.Name
	row.Description = s.description(row.Description, row.ProductURL)
	return row, true
}

// productPage fetches and extracts one product page. Fetch failures are
// logged and reported as skipped; only context errors are returned.
func (s *session) productPage(ctx context.Context, link string) (product.Row, bool, error) {
	page, err := s.feed.crawler.Fetch(ctx, s.vendor, link)
	if err != nil {
		if ctx.Err() != nil {
			return product.Row{}, false, ctx.Err()
		}
		s.report.Skipped++
		s.log.Warn("product page failed, skipping", "url", link, "error", err)
		return product.Row{}, false, nil
	}
	s.report.ProductPages++

	row := extract.Page(page.Doc.Selection, s.vendor.ProductPage, page.URL)
	if s.vendor.EffectiveStrategy() == vendor.StrategyHybrid {
		return row, true, nil
	}
	if row.Name == "" {
		s.report.Skipped++
		s.log.Debug("product page without name, skipping", "url", link)
		return product.Row{}, false, nil
	}
	row.Vendor = s.vendor.Name
	row.Description = s.description(row.Description, link)
	return row, true, nil
}

// productLinks lists the product links of a listing page: the link chain
// inside each card when cards are configured, else the link chain over the
// whole page.
func (s *session) productLinks(page crawler.Page) []string {
	sels := s.vendor.Selectors
	if sels.Product.Empty() {
		return crawler.NewLinkSelector(sels.Link, false).ExtractLinks(page.Doc.Selection, page.URL)
	}
	var links []string
	extract.Cards(page.Doc.Selection, sels.Product).Each(func(_ int, card *goquery.Selection) {
		if link := extract.Link(card, sels.Link, page.URL); link != "" {
			links = append(links, link)
		}
	})
	return links
}

// description formats raw description HTML with the vendor's cleaner. A
// cleaner error keeps the raw value.
func (s *session) description(raw, url string) string {
	if raw == "" {
		return ""
	}
	out, err := s.cleaner.Clean(raw)
	if err != nil {
		s.log.Warn("description cleanup failed", "url", url, "cleaner", s.cleaner.Name(), "error", err)
		return raw
	}
	return out
}

// add appends a row and reports whether max_products is reached.
func (s *session) add(row product.Row) bool {
	s.rows = append(s.rows, row)
	return s.maxProducts > 0 && len(s.rows) >= s.maxProducts
}
