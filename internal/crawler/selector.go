package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/vendorfeed/pkg/extract"
	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

// LinkSelector extracts product links from a listing page.
type LinkSelector struct {
	Chain          vendor.Chain // selectors for product links; empty means every a[href]
	SameDomainOnly bool         // drop links to other hosts
}

// NewLinkSelector creates a link selector.
func NewLinkSelector(chain vendor.Chain, sameDomainOnly bool) *LinkSelector {
	return &LinkSelector{
		Chain:          chain,
		SameDomainOnly: sameDomainOnly,
	}
}

// ExtractLinks returns absolute, fragment-free, deduplicated links found by
// the chain within root.
func (ls *LinkSelector) ExtractLinks(root *goquery.Selection, baseURL string) []string {
	links := extract.Links(root, ls.Chain, baseURL)
	if !ls.SameDomainOnly {
		return links
	}
	out := links[:0]
	for _, link := range links {
		if IsSameDomain(baseURL, link) {
			out = append(out, link)
		}
	}
	return out
}

// DefaultNextSelectors are tried after a vendor's own next-page selectors.
var DefaultNextSelectors = vendor.Chain{
	`a[rel="next"]`,
	`link[rel="next"]`,
	"a.next",
	"a.pagination__next",
	".pagination a.next",
	".pagination .next a",
}

// nextLabels are link texts and aria-labels that mean "next page".
var nextLabels = []string{"next", "next page", "›", "»", "→", "next ›", "next »"}

// PaginationSelector finds the next listing page link.
type PaginationSelector struct {
	Next vendor.Chain // vendor-specific selectors, tried first
}

// NewPaginationSelector creates a pagination selector.
func NewPaginationSelector(next vendor.Chain) *PaginationSelector {
	return &PaginationSelector{Next: next}
}

// FindNextPage returns the absolute URL of the next page. The vendor chain
// is tried first, then DefaultNextSelectors, then pagination links whose
// aria-label mentions "next", then any link whose text is a next label.
func (ps *PaginationSelector) FindNextPage(doc *goquery.Selection, baseURL string) (string, bool) {
	for _, chain := range []vendor.Chain{ps.Next, DefaultNextSelectors} {
		for _, e := range chain.Entries() {
			if u := firstHref(doc.Find(e.Selector), e.Attr, baseURL); u != "" {
				return u, true
			}
		}
	}

	ariaNext := doc.Find(".pagination a[aria-label], nav a[aria-label], a[aria-label]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.AttrOr("aria-label", "")), "next")
	})
	if u := firstHref(ariaNext, "", baseURL); u != "" {
		return u, true
	}

	byText := doc.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(product.CleanText(s.Text()))
		for _, label := range nextLabels {
			if text == label {
				return true
			}
		}
		return false
	})
	if u := firstHref(byText, "", baseURL); u != "" {
		return u, true
	}
	return "", false
}

// firstHref returns the first usable link in sel. Fragment-only and
// javascript: hrefs are skipped.
func firstHref(sel *goquery.Selection, attr, baseURL string) string {
	if attr == "" {
		attr = "href"
	}
	var out string
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr(attr)
		if !ok && attr == "href" {
			href, ok = s.Find("a[href]").First().Attr("href")
		}
		if ok {
			out = product.ResolveURL(baseURL, href)
		}
		return out == ""
	})
	return out
}
