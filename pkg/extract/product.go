package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

// Cards returns the product cards matched by the first chain entry that
// matches anything, or an empty selection.
func Cards(doc *goquery.Selection, chain vendor.Chain) *goquery.Selection {
	for _, e := range chain.Entries() {
		if e.Selector == "" {
			continue
		}
		if sel := doc.Find(e.Selector); sel.Length() > 0 {
			return sel
		}
	}
	return doc.FindNodes()
}

// Card extracts a raw row from one product card on a listing page. URLs are
// resolved against base; other fields are returned as found and normalized
// later. Description holds HTML.
func Card(card *goquery.Selection, sels vendor.ListingSelectors, base string) product.Row {
	r := product.Row{
		Name:         firstOf(Text(card, sels.Name), Text(card, cardNameChain)),
		ProductURL:   Link(card, sels.Link, base),
		ImageURL:     firstOf(Image(card, sels.Image, base), Image(card, cardImageChain, base)),
		Price:        firstOf(priceText(card, sels.Price), pricedText(card, cardPriceChain), PriceText(spacedText(card))),
		Availability: firstOf(Text(card, sels.Availability), cardAvailability(card)),
		SKU:          firstOf(Text(card, sels.SKU), skuHint(card, nil)),
		Description:  HTML(card, sels.Description),
	}
	if r.ProductURL == "" && !sels.Link.Empty() {
		r.ProductURL = Link(card, nil, base)
	}
	return r
}

// Page extracts a raw row from a product page. Configured chains win; JSON-LD
// then microdata, Open Graph and text heuristics fill what they miss.
func Page(doc *goquery.Selection, sels vendor.PageSelectors, base string) product.Row {
	ld, _ := JSONLD(doc)

	r := product.Row{
		ProductURL:   base,
		Name:         firstOf(Text(doc, sels.Name), ld.Name, Text(doc, pageNameChain)),
		SKU:          firstOf(Text(doc, sels.SKU), ld.SKU, skuHint(doc, pageSKUTextArea)),
		Description:  firstOf(HTML(doc, sels.Description), ld.Description, Text(doc, pageDescChain)),
		Availability: firstOf(Text(doc, sels.Availability), ld.Availability, pageAvailability(doc)),
	}

	switch configured := priceText(doc, sels.Price); {
	case configured != "":
		r.Price = configured
	case ld.Price != "":
		r.Price, r.Currency = structuredAmount(ld.Price), ld.Currency
	default:
		r.Price = pricedText(doc, pagePriceChain)
	}
	if r.Currency == "" {
		r.Currency = Text(doc, pageCurrency)
	}

	var ldImages []string
	for _, img := range ld.Images {
		if u := product.ResolveURL(base, img); u != "" {
			ldImages = append(ldImages, u)
		}
	}

	r.Gallery = Images(doc, sels.Images, base)
	if len(r.Gallery) == 0 {
		r.Gallery = ldImages
	}
	r.ImageURL = Image(doc, sels.Image, base)
	if r.ImageURL == "" && len(ldImages) > 0 {
		r.ImageURL = ldImages[0]
	}
	if r.ImageURL == "" {
		r.ImageURL = Image(doc, pageImageChain, base)
	}
	return r
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
