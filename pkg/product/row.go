// Package product defines the feed row and the rules that normalize and
// collapse rows before they are written.
package product

import (
	"net/url"
	"strings"
)

// Row is one product in the output feed.
type Row struct {
	Vendor       string   `json:"vendor" yaml:"vendor"`
	SKU          string   `json:"sku" yaml:"sku"`
	Name         string   `json:"name" yaml:"name"`
	Price        string   `json:"price" yaml:"price"`
	Currency     string   `json:"currency" yaml:"currency"`
	Availability string   `json:"availability" yaml:"availability"`
	ProductURL   string   `json:"product_url" yaml:"product_url"`
	ImageURL     string   `json:"image_url" yaml:"image_url"`
	Gallery      []string `json:"gallery,omitempty" yaml:"gallery,omitempty"`
	Description  string   `json:"description" yaml:"description"`
	Slug         string   `json:"slug" yaml:"slug"`
}

// Columns is the CSV header, in order.
var Columns = []string{
	"vendor", "sku", "name", "price", "currency", "availability",
	"product_url", "image_url", "gallery", "description", "slug",
}

// GallerySeparator joins gallery URLs inside a single CSV cell.
const GallerySeparator = "|"

// Record returns the row as CSV cells matching Columns.
func (r Row) Record() []string {
	return []string{
		r.Vendor,
		r.SKU,
		r.Name,
		r.Price,
		r.Currency,
		r.Availability,
		r.ProductURL,
		r.ImageURL,
		strings.Join(r.Gallery, GallerySeparator),
		r.Description,
		r.Slug,
	}
}

// Score counts populated fields. Dedup keeps the row with the highest score.
func (r Row) Score() int {
	n := 0
	for _, v := range []string{r.SKU, r.Name, r.Price, r.Currency, r.Availability, r.ProductURL, r.ImageURL, r.Description} {
		if v != "" {
			n++
		}
	}
	if len(r.Gallery) > 0 {
		n++
	}
	return n
}

// Merge fills the empty fields of primary from secondary.
func Merge(primary, secondary Row) Row {
	out := primary
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&out.Vendor, secondary.Vendor)
	fill(&out.SKU, secondary.SKU)
	fill(&out.Name, secondary.Name)
	if out.Price == "" {
		out.Price = secondary.Price
		out.Currency = secondary.Currency
	}
	fill(&out.Currency, secondary.Currency)
	fill(&out.Availability, secondary.Availability)
	fill(&out.ProductURL, secondary.ProductURL)
	fill(&out.ImageURL, secondary.ImageURL)
	fill(&out.Description, secondary.Description)
	fill(&out.Slug, secondary.Slug)
	if len(out.Gallery) == 0 && len(secondary.Gallery) > 0 {
		out.Gallery = append([]string(nil), secondary.Gallery...)
	}
	return out
}

// ResolveURL makes ref absolute against base and drops the fragment.
// Empty, fragment-only and javascript: references resolve to "".
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(strings.ToLower(ref), "javascript:") {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if !refURL.IsAbs() {
		baseURL, err := url.Parse(base)
		if err != nil || base == "" {
			return ""
		}
		refURL = baseURL.ResolveReference(refURL)
	}
	refURL.Fragment = ""
	return refURL.String()
}
