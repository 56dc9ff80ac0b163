package product

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
)

// Normalized availability values.
const (
	InStock    = "in stock"
	OutOfStock = "out of stock"
	PreOrder   = "preorder"
	BackOrder  = "backorder"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	digitGroupRe  = regexp.MustCompile(`(\d)[\s\x{00a0}\x{202f}](\d{3})`)
	amountRe      = regexp.MustCompile(`\d[\d.,']*`)
	isoCurrencyRe = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD|NZD|CHF|JPY|SEK|NOK|DKK|PLN|CZK|INR|BRL|ZAR|MXN)\b`)
	skuLabelRe    = regexp.MustCompile(`(?i)^(sku|item\s*#|item\s*no\.?|art\.?\s*-?\s*nr\.?|mpn)(\s*[:#]\s*|\s+)`)
)

// currencySymbols is ordered so that multi-rune prefixes win over "$".
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"US$", "USD"},
	{"CA$", "CAD"},
	{"C$", "CAD"},
	{"AU$", "AUD"},
	{"A$", "AUD"},
	{"NZ$", "NZD"},
	{"R$", "BRL"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
	{"zł", "PLN"},
	{"Kč", "CZK"},
}

// CleanText collapses runs of whitespace and trims.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// NormalizePrice returns the first amount in s as a plain two-decimal number
// and the ISO currency code it was written in, if recognisable.
func NormalizePrice(s string) (price, currency string) {
	s = CleanText(s)
	if s == "" {
		return "", ""
	}
	currency = DetectCurrency(s)

	for {
		next := digitGroupRe.ReplaceAllString(s, "$1$2")
		if next == s {
			break
		}
		s = next
	}

	raw := amountRe.FindString(s)
	if raw == "" {
		return "", currency
	}
	value, ok := parseAmount(raw)
	if !ok {
		return "", currency
	}
	return strconv.FormatFloat(value, 'f', 2, 64), currency
}

// NormalizeStructuredPrice parses a machine-readable amount, as found in
// JSON-LD offers, microdata content attributes and Open Graph meta tags,
// where '.' is always the decimal separator. It reports false when s is not
// a plain number.
func NormalizeStructuredPrice(s string) (string, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return strconv.FormatFloat(v, 'f', 2, 64), true
}

// DetectCurrency maps a symbol or ISO code in s to an ISO code.
func DetectCurrency(s string) string {
	if m := isoCurrencyRe.FindString(strings.ToUpper(s)); m != "" {
		return m
	}
	for _, c := range currencySymbols {
		if strings.Contains(s, c.symbol) {
			return c.code
		}
	}
	return ""
}

// parseAmount decides which of '.' and ',' is the decimal separator.
func parseAmount(raw string) (float64, bool) {
	raw = strings.ReplaceAll(raw, "'", "")
	raw = strings.TrimRight(raw, ".,")
	if raw == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(raw, ".")
	lastComma := strings.LastIndex(raw, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		raw = resolveSingleSeparator(raw, ",")
	case lastDot >= 0:
		raw = resolveSingleSeparator(raw, ".")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// resolveSingleSeparator treats sep as a decimal point only when it occurs
// once and is not followed by exactly three digits.
func resolveSingleSeparator(raw, sep string) string {
	if strings.Count(raw, sep) == 1 {
		idx := strings.Index(raw, sep)
		if len(raw)-idx-1 != 3 {
			return strings.Replace(raw, sep, ".", 1)
		}
	}
	return strings.ReplaceAll(raw, sep, "")
}

// NormalizeAvailability maps free-form stock text and schema.org values onto
// the fixed vocabulary. Unrecognised text is returned cleaned.
func NormalizeAvailability(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	lower = strings.TrimPrefix(lower, "https://schema.org/")
	lower = strings.TrimPrefix(lower, "http://schema.org/")
	compact := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(lower)

	switch {
	case strings.Contains(compact, "notinstock"),
		strings.Contains(compact, "nolongeravailable"),
		strings.Contains(compact, "nolongerinstock"),
		strings.Contains(compact, "outofstock"),
		strings.Contains(compact, "soldout"),
		strings.Contains(compact, "unavailable"),
		strings.Contains(compact, "notavailable"),
		strings.Contains(compact, "discontinued"),
		compact == "sold":
		return OutOfStock
	case strings.Contains(compact, "preorder"):
		return PreOrder
	case strings.Contains(compact, "backorder"):
		return BackOrder
	case strings.Contains(compact, "instock"),
		strings.Contains(compact, "available"),
		strings.Contains(compact, "addtocart"),
		strings.Contains(compact, "addtobasket"),
		strings.Contains(compact, "limitedavailability"),
		strings.Contains(compact, "onlineonly"),
		strings.HasPrefix(compact, "only"):
		return InStock
	}
	return s
}

// NormalizeSKU strips a leading label, removes whitespace and upper-cases.
func NormalizeSKU(s string) string {
	s = CleanText(s)
	s = skuLabelRe.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")
	return strings.ToUpper(s)
}

// Slug builds the URL slug for a product name.
func Slug(name string) string {
	return slug.Make(name)
}

// Normalize applies every field rule to a raw extracted row.
func Normalize(r Row) Row {
	r.Vendor = CleanText(r.Vendor)
	r.Name = CleanText(r.Name)
	r.SKU = NormalizeSKU(r.SKU)

	price, currency := NormalizePrice(r.Price)
	r.Price = price
	if currency != "" {
		r.Currency = currency
	}
	r.Currency = strings.ToUpper(CleanText(r.Currency))

	r.Availability = NormalizeAvailability(r.Availability)
	r.ProductURL = ResolveURL("", r.ProductURL)
	r.ImageURL = ResolveURL("", r.ImageURL)
	r.Gallery = normalizeGallery(r.ImageURL, r.Gallery)
	if r.ImageURL == "" && len(r.Gallery) > 0 {
		r.ImageURL, r.Gallery = r.Gallery[0], r.Gallery[1:]
	}
	if len(r.Gallery) == 0 {
		r.Gallery = nil
	}
	r.Description = strings.TrimSpace(r.Description)
	if r.Name != "" {
		r.Slug = Slug(r.Name)
	}
	return r
}

func normalizeGallery(primary string, gallery []string) []string {
	seen := map[string]bool{}
	if primary != "" {
		seen[primary] = true
	}
	out := make([]string, 0, len(gallery))
	for _, g := range gallery {
		g = ResolveURL("", g)
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
