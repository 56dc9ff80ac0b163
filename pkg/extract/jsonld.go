package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/vendorfeed/pkg/product"
)

// StructuredProduct holds the fields of a schema.org Product found in a
// page's JSON-LD.
type StructuredProduct struct {
	Name         string
	SKU          string
	Price        string
	Currency     string
	Availability string
	Description  string
	Images       []string
}

// JSONLD returns the first schema.org Product described by the
// application/ld+json scripts in sel. Top-level arrays and @graph containers
// are searched.
func JSONLD(sel *goquery.Selection) (StructuredProduct, bool) {
	var found StructuredProduct
	var ok bool
	sel.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if !gjson.Valid(raw) {
			return true
		}
		if node, hit := findProduct(gjson.Parse(raw)); hit {
			found, ok = structuredProduct(node), true
			return false
		}
		return true
	})
	return found, ok
}

func findProduct(node gjson.Result) (gjson.Result, bool) {
	switch {
	case node.IsArray():
		for _, item := range node.Array() {
			if p, ok := findProduct(item); ok {
				return p, true
			}
		}
	case node.IsObject():
		if isProductType(key(node, "@type")) {
			return node, true
		}
		if graph := key(node, "@graph"); graph.Exists() {
			return findProduct(graph)
		}
		if main := node.Get("mainEntity"); main.Exists() {
			return findProduct(main)
		}
	}
	return gjson.Result{}, false
}

// key reads a top-level member by exact name. gjson paths treat a leading
// '@' as a modifier, so "@type" and "@graph" cannot go through Get.
func key(node gjson.Result, name string) gjson.Result {
	var out gjson.Result
	node.ForEach(func(k, v gjson.Result) bool {
		if k.String() == name {
			out = v
			return false
		}
		return true
	})
	return out
}

func isProductType(t gjson.Result) bool {
	match := func(s string) bool {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "https://schema.org/"), "http://schema.org/")
		return s == "Product" || s == "ProductGroup"
	}
	if t.IsArray() {
		for _, v := range t.Array() {
			if match(v.String()) {
				return true
			}
		}
		return false
	}
	return match(t.String())
}

func structuredProduct(node gjson.Result) StructuredProduct {
	p := StructuredProduct{
		Name:        product.CleanText(node.Get("name").String()),
		SKU:         firstString(node, "sku", "mpn", "productID"),
		Description: strings.TrimSpace(node.Get("description").String()),
		Images:      imageList(node.Get("image")),
	}

	offer := node.Get("offers")
	if offer.IsArray() {
		offer = offer.Get("0")
	}
	if offer.Exists() {
		p.Price = firstString(offer, "price", "lowPrice", "priceSpecification.price")
		p.Currency = firstString(offer, "priceCurrency", "priceSpecification.priceCurrency")
		p.Availability = offer.Get("availability").String()
		if p.SKU == "" {
			p.SKU = offer.Get("sku").String()
		}
	}
	return p
}

func firstString(node gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := strings.TrimSpace(node.Get(path).String()); v != "" {
			return v
		}
	}
	return ""
}

// imageList accepts a URL, an ImageObject, or an array of either.
func imageList(node gjson.Result) []string {
	var out []string
	add := func(v gjson.Result) {
		u := v.String()
		if v.IsObject() {
			u = firstString(v, "url", "contentUrl")
		}
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	if node.IsArray() {
		for _, v := range node.Array() {
			add(v)
		}
	} else if node.Exists() {
		add(node)
	}
	return out
}
