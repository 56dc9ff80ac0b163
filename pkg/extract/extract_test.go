package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const listingHTML = `<ul>
<li class="product" data-sku="ab-1">
  <a class="product-link" href="/p/widget#reviews"><h2 class="title">  Blue
    Widget </h2></a>
  <img src="data:image/gif;base64,R0lGOD" data-src="/img/w.jpg">
  <span class="price"><del>$20.00</del> <ins><span class="amount">$15.00</span></ins></span>
  <div class="desc"><p>Sturdy.</p></div>
</li>
<li class="product sold-out">
  <a href="https://shop.test/p/gadget"><h3>Gadget</h3></a>
  <img data-srcset="/img/g-1x.jpg 1x, /img/g-2x.jpg 2x">
  <div>Price: 1.299,00 €</div>
  <p>SKU: GAD-99</p>
</li>
</ul>`

func TestCards(t *testing.T) {
	doc := parse(t, listingHTML)

	assert.Equal(t, 2, Cards(doc.Selection, vendor.Chain{".tile", "li.product"}).Length())
	assert.Equal(t, 1, Cards(doc.Selection, vendor.Chain{"li.sold-out", "li.product"}).Length())
	assert.Zero(t, Cards(doc.Selection, vendor.Chain{".tile"}).Length())
	assert.Zero(t, Cards(doc.Selection, nil).Length())
}

func TestSpacedText(t *testing.T) {
	doc := parse(t, `<div id="c"><h2>Bucket</h2><span>$3</span><span>Sold out</span><script>var x</script></div>`)
	card := doc.Find("#c")

	assert.Equal(t, "Bucket $3 Sold out", product.CleanText(spacedText(card)))
	assert.Equal(t, "Sold out", cardAvailability(card))
	assert.Equal(t, "$3", PriceText(spacedText(card)))
}

func TestCard(t *testing.T) {
	doc := parse(t, listingHTML)
	sels := vendor.ListingSelectors{
		Product:     vendor.Chain{"li.product"},
		Name:        vendor.Chain{"h2.title"},
		Link:        vendor.Chain{"a.product-link"},
		Price:       vendor.Chain{".price ins .amount", ".price"},
		Description: vendor.Chain{".desc"},
	}
	cards := doc.Find("li.product")
	require.Equal(t, 2, cards.Length())

	first := Card(cards.Eq(0), sels, "https://shop.test/shop")
	assert.Equal(t, "Blue Widget", first.Name)
	assert.Equal(t, "https://shop.test/p/widget", first.ProductURL)
	assert.Equal(t, "https://shop.test/img/w.jpg", first.ImageURL)
	assert.Equal(t, "$15.00", first.Price)
	assert.Equal(t, "ab-1", first.SKU)
	assert.Equal(t, "", first.Availability)
	assert.Equal(t, "<p>Sturdy.</p>", first.Description)

	second := Card(cards.Eq(1), sels, "https://shop.test/shop")
	assert.Equal(t, "Gadget", second.Name)
	assert.Equal(t, "https://shop.test/p/gadget", second.ProductURL)
	assert.Equal(t, "https://shop.test/img/g-1x.jpg", second.ImageURL)
	assert.Equal(t, "1.299,00 €", second.Price)
	assert.Equal(t, "Sold out", second.Availability)
	assert.Equal(t, "GAD-99", second.SKU)
}

const ldPageHTML = `<html><head>
<title>Ignored</title>
<meta property="og:image" content="/og.jpg">
<script type="application/ld+json">{not json</script>
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[
  {"@type":"BreadcrumbList"},
  {"@type":"Product","name":"Trail Shoe","sku":"TS-1","description":"Light shoe",
   "image":["/i/1.jpg",{"@type":"ImageObject","url":"/i/2.jpg"}],
   "offers":[{"@type":"Offer","price":89.5,"priceCurrency":"EUR","availability":"https://schema.org/InStock"}]}
]}</script>
</head><body><h1>Trail Shoe (H1)</h1></body></html>`

func TestPage_JSONLD(t *testing.T) {
	doc := parse(t, ldPageHTML)

	r := Page(doc.Selection, vendor.PageSelectors{}, "https://shop.test/p/ts")
	assert.Equal(t, "https://shop.test/p/ts", r.ProductURL)
	assert.Equal(t, "Trail Shoe", r.Name)
	assert.Equal(t, "TS-1", r.SKU)
	assert.Equal(t, "Light shoe", r.Description)
	assert.Equal(t, "https://schema.org/InStock", r.Availability)
	assert.Equal(t, "89.50", r.Price)
	assert.Equal(t, "EUR", r.Currency)
	assert.Equal(t, "https://shop.test/i/1.jpg", r.ImageURL)
	assert.Equal(t, []string{"https://shop.test/i/1.jpg", "https://shop.test/i/2.jpg"}, r.Gallery)
}

func TestPage_SelectorsWin(t *testing.T) {
	doc := parse(t, ldPageHTML)

	r := Page(doc.Selection, vendor.PageSelectors{Name: vendor.Chain{"h1"}, Image: vendor.Chain{"meta[property=\"og:image\"]"}}, "https://shop.test/p/ts")
	assert.Equal(t, "Trail Shoe (H1)", r.Name)
	assert.Equal(t, "https://shop.test/og.jpg", r.ImageURL)
}

const metaPageHTML = `<html><head>
<meta property="product:price:amount" content="12.00">
<meta property="product:price:currency" content="GBP">
<meta name="description" content="Meta desc">
</head><body>
<h1 class="name">Mug</h1>
<div class="gallery"><img src="/m1.jpg"><img data-large="/m2-large.jpg" src="/m2.jpg"><img src="/m1.jpg"></div>
<div class="stock">Only 2 left - In stock</div>
<span class="sku">Item #: MUG-7</span>
</body></html>`

func TestPage_Heuristics(t *testing.T) {
	doc := parse(t, metaPageHTML)

	r := Page(doc.Selection, vendor.PageSelectors{
		Name:   vendor.Chain{"h1.name"},
		Images: vendor.Chain{".gallery img"},
	}, "https://shop.test/mug")

	assert.Equal(t, "Mug", r.Name)
	assert.Equal(t, "12.00", r.Price)
	assert.Equal(t, "GBP", r.Currency)
	assert.Equal(t, "Meta desc", r.Description)
	assert.Equal(t, "In stock", r.Availability)
	assert.Equal(t, "MUG-7", r.SKU)
	assert.Equal(t, []string{"https://shop.test/m1.jpg", "https://shop.test/m2.jpg"}, r.Gallery)
	assert.Equal(t, "", r.ImageURL)

	large := Images(doc.Selection, vendor.Chain{".gallery img@data-large"}, "https://shop.test/")
	assert.Equal(t, []string{"https://shop.test/m2-large.jpg"}, large)
}

func TestPage_StructuredPricesAreDotDecimal(t *testing.T) {
	tests := []struct {
		name string
		html string
		sels vendor.PageSelectors
		want string
	}{
		{
			name: "json-ld three decimals",
			html: `<script type="application/ld+json">{"@type":"Product","name":"Pin",
				"offers":{"price":"0.750","priceCurrency":"USD"}}</script>`,
			want: "0.75",
		},
		{
			name: "open graph meta",
			html: `<meta property="product:price:amount" content="19.990"><h1>Pin</h1>`,
			want: "19.99",
		},
		{
			name: "configured content attribute",
			html: `<h1>Pin</h1><span itemprop="price" content="1.250">1,25 €</span>`,
			sels: vendor.PageSelectors{Price: vendor.Chain{"[itemprop=price]@content"}},
			want: "1.25",
		},
		{
			name: "visible text keeps locale guess",
			html: `<h1>Pin</h1><span class="product-price">1.250 €</span>`,
			want: "1250.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := Page(parse(t, tt.html).Selection, tt.sels, "https://shop.test/pin")
			assert.Equal(t, tt.want, product.Normalize(raw).Price)
		})
	}
}

func TestCard_StructuredPrice(t *testing.T) {
	doc := parse(t, `<li class="product"><h2>Pin</h2><meta itemprop="price" content="2.500"><span>2,50 €</span></li>`)
	sels := vendor.ListingSelectors{Price: vendor.Chain{"meta[itemprop=price]"}}
	row := product.Normalize(Card(doc.Find("li.product"), sels, "https://shop.test/"))
	assert.Equal(t, "2.50", row.Price)
}

func TestPage_DisabledCartButton(t *testing.T) {
	doc := parse(t, `<html><body><h1>X</h1><button name="add" disabled>Add to cart</button></body></html>`)
	r := Page(doc.Selection, vendor.PageSelectors{}, "https://shop.test/x")
	assert.Equal(t, "Sold out", r.Availability)
}

func TestText_Chain(t *testing.T) {
	doc := parse(t, `<div><span class="a"> </span><span class="b">second</span>
		<meta itemprop="sku" content="M-1"><a class="c" title="T">x</a></div>`)

	assert.Equal(t, "second", Text(doc.Selection, vendor.Chain{".missing", ".a", ".b"}))
	assert.Equal(t, "M-1", Text(doc.Selection, vendor.Chain{"meta[itemprop=sku]"}))
	assert.Equal(t, "T", Text(doc.Selection, vendor.Chain{"a.c@title"}))
	assert.Equal(t, "", Text(doc.Selection, nil))
}

func TestAttrAny(t *testing.T) {
	doc := parse(t, `<img id="a" src="" data-original="/o.jpg" srcset="/s.jpg 1x">
		<img id="b" srcset="/s1.jpg 480w, /s2.jpg 800w">`)

	assert.Equal(t, "/o.jpg", AttrAny(doc.Find("#a"), ImageAttrs...))
	assert.Equal(t, "/s1.jpg", AttrAny(doc.Find("#b"), ImageAttrs...))
	assert.Equal(t, "", AttrAny(doc.Find("#missing"), ImageAttrs...))
}

func TestFirstSrcsetURL(t *testing.T) {
	assert.Equal(t, "a.jpg", FirstSrcsetURL("a.jpg 1x, b.jpg 2x"))
	assert.Equal(t, "a.jpg", FirstSrcsetURL(" a.jpg "))
	assert.Equal(t, "", FirstSrcsetURL(""))
}

func TestLinks(t *testing.T) {
	doc := parse(t, `<div>
		<a class="p" href="/p/1">1</a>
		<a class="p" href="/p/1#x">1 again</a>
		<a class="p" href="javascript:void(0)">js</a>
		<div class="p"><a href="/p/2">2</a></div>
		<a href="/about">about</a>
	</div>`)

	got := Links(doc.Selection, vendor.Chain{".none", ".p"}, "https://shop.test/list")
	assert.Equal(t, []string{"https://shop.test/p/1", "https://shop.test/p/2"}, got)

	all := Links(doc.Selection, nil, "https://shop.test/list")
	assert.Len(t, all, 3)
}

func TestPriceText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"$1,299.00", "$1,299.00"},
		{"Now only 19,99 € incl. VAT", "19,99 €"},
		{"From USD 25", "USD 25"},
		{"£5", "£5"},
		{"no price here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PriceText(tt.in), tt.in)
	}
}

func TestSKUText(t *testing.T) {
	assert.Equal(t, "ABC-123", SKUText("SKU: ABC-123"))
	assert.Equal(t, "778", SKUText("Item # 778"))
	assert.Equal(t, "4711-B", SKUText("Art.-Nr. 4711-B"))
	assert.Equal(t, "", SKUText("no code"))
}

func TestStockText(t *testing.T) {
	assert.Equal(t, "Sold Out", StockText("This item is Sold Out!"))
	assert.Equal(t, "pre-order", StockText("Available for pre-order"))
	assert.Equal(t, "", StockText("Ships in 3 days"))
	assert.Equal(t, "Not in stock", StockText("Sorry, Not in stock"))
	assert.Equal(t, "no longer available", StockText("This item is no longer available"))
	assert.Equal(t, "In stock", StockText("In stock, ships today"))
}

func TestSoldClass(t *testing.T) {
	tests := []struct {
		html string
		want bool
	}{
		{`<li class="product sold">x</li>`, true},
		{`<li class="product is-soldout">x</li>`, true},
		{`<li class="product"><span class="badge sold-out">Gone</span></li>`, true},
		{`<li class="product"><span class="out-of-stock">x</span></li>`, true},
		{`<li class="product"><span class="sold-by">Sold by Acme</span></li>`, false},
		{`<li class="product"><span class="sold-count">120 sold</span></li>`, false},
		{`<li class="product"><span class="price">$3</span></li>`, false},
	}
	for _, tt := range tests {
		card := parse(t, tt.html).Find("li")
		assert.Equal(t, tt.want, soldClass(card), tt.html)
	}
}

func TestCard_SoldByIsNotSoldOut(t *testing.T) {
	doc := parse(t, `<li class="product"><h2>Mug</h2><span class="price">$8</span><span class="sold-by">Sold by Acme</span></li>`)
	row := Card(doc.Find("li.product"), vendor.ListingSelectors{}, "https://shop.test/")
	assert.Equal(t, "", row.Availability)
}

func TestCard_NegatedStockPhrase(t *testing.T) {
	doc := parse(t, `<li class="product"><h2>Kettle</h2><span class="price">$20</span><span class="stock">Not in stock</span></li>`)
	row := product.Normalize(Card(doc.Find("li.product"), vendor.ListingSelectors{}, "https://shop.test/"))
	assert.Equal(t, product.OutOfStock, row.Availability)
}

func TestJSONLD(t *testing.T) {
	doc := parse(t, `<script type="application/ld+json">[
		{"@type":"Organization","name":"Shop"},
		{"@type":["Product"],"name":"Lamp","mpn":"L-9","image":"https://cdn.test/l.jpg",
		 "offers":{"@type":"AggregateOffer","lowPrice":"30.00","priceCurrency":"USD","availability":"OutOfStock"}}
	]</script>`)

	p, ok := JSONLD(doc.Selection)
	require.True(t, ok)
	assert.Equal(t, "Lamp", p.Name)
	assert.Equal(t, "L-9", p.SKU)
	assert.Equal(t, "30.00", p.Price)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "OutOfStock", p.Availability)
	assert.Equal(t, []string{"https://cdn.test/l.jpg"}, p.Images)

	_, ok = JSONLD(parse(t, `<p>nothing</p>`).Selection)
	assert.False(t, ok)
}
