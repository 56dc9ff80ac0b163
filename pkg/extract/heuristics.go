package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

var (
	// priceRe matches an amount with a currency symbol or ISO code on
	// either side.
	priceRe = regexp.MustCompile(`(?i)(?:(?:US\$|CA\$|C\$|AU\$|A\$|NZ\$|R\$|[$€£¥₹]|\b(?:USD|EUR|GBP|CAD|AUD|NZD|CHF|JPY|SEK|NOK|DKK|PLN|CZK|INR)\b)\s?\d[\d.,'\x{00a0}\x{202f}]*|\d[\d.,'\x{00a0}\x{202f}]*\s?(?:[€£$]|zł|Kč|\b(?:USD|EUR|GBP|CHF|SEK|NOK|DKK|PLN|CZK)\b))`)

	skuTextRe = regexp.MustCompile(`(?i)\b(?:sku|item\s*#|item\s*no\.?|art\.?\s*-?\s*nr\.?|mpn)\s*[:#]?\s*([a-z0-9][a-z0-9._/-]{2,})`)

	stockTextRe = regexp.MustCompile(`(?i)\b(sold\s*out|out\s*of\s*stock|not\s+in\s*stock|no\s+longer\s+(?:available|in\s*stock)|in\s*stock|pre-?\s*order|back-?\s*order(?:ed)?|unavailable|add\s+to\s+(?:cart|basket|bag))\b`)
)

// Fallback chains tried after the configured selectors.
var (
	cardNameChain  = vendor.Chain{"[itemprop=name]", ".product-title", ".product-name", ".product__title", ".title", "h2", "h3", "h4", "a@title", "img@alt"}
	cardPriceChain = vendor.Chain{"[itemprop=price]@content", "[itemprop=price]", ".price ins", ".sale-price", ".price--sale", ".price", "[class*=price]"}
	cardImageChain = vendor.Chain{"img", "picture source"}
	skuAttrChain   = vendor.Chain{"@data-sku", "@data-product-sku", "[data-sku]@data-sku", "[data-product-sku]@data-product-sku", "[itemprop=sku]@content", "[itemprop=sku]", "@data-product-id", "[data-product-id]@data-product-id"}
	availChain     = vendor.Chain{"[itemprop=availability]@href", "[itemprop=availability]@content", "meta[property=\"product:availability\"]@content", "meta[property=\"og:availability\"]@content"}

	pageNameChain   = vendor.Chain{"[itemprop=name]", "meta[property=\"og:title\"]@content", "h1", "title"}
	pagePriceChain  = vendor.Chain{"[itemprop=price]@content", "[itemprop=price]", "meta[property=\"product:price:amount\"]@content", "meta[property=\"og:price:amount\"]@content", ".price ins", ".product-price", ".price", "[class*=price]"}
	pageCurrency    = vendor.Chain{"[itemprop=priceCurrency]@content", "meta[property=\"product:price:currency\"]@content", "meta[property=\"og:price:currency\"]@content"}
	pageImageChain  = vendor.Chain{"meta[property=\"og:image\"]@content", "[itemprop=image]@content", "[itemprop=image]@src", "[itemprop=image]@href"}
	pageDescChain   = vendor.Chain{"[itemprop=description]", "meta[property=\"og:description\"]@content", "meta[name=description]@content"}
	pageStockChain  = vendor.Chain{".stock", ".availability", "[class*=stock]", "[class*=availability]"}
	pageSKUTextArea = vendor.Chain{".sku", "[class*=sku]", ".product-meta", ".product_meta"}
	pageCartChain   = vendor.Chain{"button[name=add-to-cart]", "button[name=add]", ".single_add_to_cart_button", ".add-to-cart", "form[action*=cart] button[type=submit]"}
)

// PriceText returns the first currency amount found in s, as written.
func PriceText(s string) string {
	return strings.TrimSpace(priceRe.FindString(product.CleanText(s)))
}

// SKUText returns the code following an SKU-style label in s.
func SKUText(s string) string {
	if m := skuTextRe.FindStringSubmatch(product.CleanText(s)); m != nil {
		return m[1]
	}
	return ""
}

// StockText returns the first stock phrase in s, e.g. "Sold out".
func StockText(s string) string {
	return stockTextRe.FindString(product.CleanText(s))
}

// pricedText returns the first chain value that contains a price.
// Attribute and <meta> values are machine-readable amounts and are parsed
// as such.
func pricedText(sel *goquery.Selection, chain vendor.Chain) string {
	for _, e := range chain.Entries() {
		var value string
		find(sel, e).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v := entryValue(s, e.Attr)
			if e.Attr != "" || goquery.NodeName(s) == "meta" {
				value = structuredAmount(v)
			} else if p := PriceText(v); p != "" {
				value = p
			} else if isAmount(v) {
				value = v
			}
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// priceText is Text for price chains: attribute and <meta> values are
// machine-readable amounts and are parsed as such.
func priceText(sel *goquery.Selection, chain vendor.Chain) string {
	for _, e := range chain.Entries() {
		var value string
		find(sel, e).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value = entryValue(s, e.Attr)
			if value != "" && (e.Attr != "" || goquery.NodeName(s) == "meta") {
				value = structuredAmount(value)
			}
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// structuredAmount reads v as a dot-decimal amount, keeping v as it is when
// it is not a plain number.
func structuredAmount(v string) string {
	if p, ok := product.NormalizeStructuredPrice(v); ok {
		return p
	}
	return v
}

func isAmount(s string) bool {
	p, _ := product.NormalizePrice(s)
	return p != "" && strings.Trim(s, "0123456789.,' ") == ""
}

// spacedText is sel's text with a space between text nodes, so adjacent
// elements like <span>$3</span><span>Sold out</span> stay separate words.
func spacedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				parts = append(parts, c.Text())
			case "script", "style", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return strings.Join(parts, " ")
}

// soldOutClasses are class tokens that mark an element as out of stock.
var soldOutClasses = map[string]bool{
	"sold-out":     true,
	"soldout":      true,
	"sold_out":     true,
	"out-of-stock": true,
	"outofstock":   true,
	"out_of_stock": true,
	"unavailable":  true,
}

// soldClass reports whether the card's own class mentions "sold" or any
// element in the card carries an explicit sold-out class token. Descendant
// classes such as "sold-by" or "sold-count" do not count.
func soldClass(card *goquery.Selection) bool {
	for _, class := range strings.Fields(strings.ToLower(card.AttrOr("class", ""))) {
		if strings.Contains(class, "sold") || soldOutClasses[class] {
			return true
		}
	}
	hit := false
	card.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, class := range strings.Fields(strings.ToLower(s.AttrOr("class", ""))) {
			if soldOutClasses[class] {
				hit = true
				break
			}
		}
		return !hit
	})
	return hit
}

// cardAvailability derives stock status from microdata, sold-out classes
// and stock phrases anywhere in the card, in that order.
func cardAvailability(card *goquery.Selection) string {
	if v := Text(card, availChain); v != "" {
		return v
	}
	if soldClass(card) {
		return "Sold out"
	}
	return StockText(spacedText(card))
}

// pageAvailability only trusts microdata, dedicated stock elements and the
// add-to-cart button; the rest of a product page often lists related items.
func pageAvailability(doc *goquery.Selection) string {
	if v := Text(doc, availChain); v != "" {
		return v
	}
	if v := StockText(Text(doc, pageStockChain)); v != "" {
		return v
	}
	var disabled, found bool
	for _, e := range pageCartChain.Entries() {
		btn := doc.Find(e.Selector).First()
		if btn.Length() == 0 {
			continue
		}
		found = true
		_, disabled = btn.Attr("disabled")
		break
	}
	switch {
	case found && disabled:
		return "Sold out"
	case found:
		return "Add to cart"
	}
	return ""
}

// skuHint reads SKU data attributes and microdata, then SKU labels in the
// text areas, then anywhere in sel.
func skuHint(sel *goquery.Selection, textAreas vendor.Chain) string {
	if v := Text(sel, skuAttrChain); v != "" {
		return v
	}
	if len(textAreas) > 0 {
		if v := SKUText(Text(sel, textAreas)); v != "" {
			return v
		}
	}
	return SKUText(spacedText(sel))
}
