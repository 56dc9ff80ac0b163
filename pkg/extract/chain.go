// Package extract pulls product fields out of HTML using selector fallback
// chains, with structured-data and text heuristics when the chains come up
// empty.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/vendorfeed/pkg/product"
	"github.com/jmylchreest/vendorfeed/pkg/vendor"
)

// ImageAttrs lists the attributes an image URL is read from, in priority
// order. Lazy-loading themes keep the real URL in a data attribute.
var ImageAttrs = []string{"src", "data-src", "data-original", "data-image", "data-lazy-src", "data-srcset", "srcset"}

// find evaluates an entry selector inside sel. An empty selector means sel
// itself.
func find(sel *goquery.Selection, e vendor.Entry) *goquery.Selection {
	if e.Selector == "" {
		return sel
	}
	return sel.Find(e.Selector)
}

// Text returns the first non-empty value produced by chain within sel.
// Entries without an attribute read the element text; <meta> elements fall
// back to their content attribute.
func Text(sel *goquery.Selection, chain vendor.Chain) string {
	for _, e := range chain.Entries() {
		var value string
		find(sel, e).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value = entryValue(s, e.Attr)
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

func entryValue(s *goquery.Selection, attr string) string {
	if attr != "" {
		v := product.CleanText(s.AttrOr(attr, ""))
		if strings.Contains(strings.ToLower(attr), "srcset") {
			v = FirstSrcsetURL(v)
		}
		return v
	}
	if v := product.CleanText(s.Text()); v != "" {
		return v
	}
	return product.CleanText(s.AttrOr("content", ""))
}

// HTML returns the inner HTML of the first element matched by chain that
// has visible text. Entries with an attribute return the attribute value.
func HTML(sel *goquery.Selection, chain vendor.Chain) string {
	for _, e := range chain.Entries() {
		var value string
		find(sel, e).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if e.Attr != "" {
				value = strings.TrimSpace(s.AttrOr(e.Attr, ""))
				return value == ""
			}
			if product.CleanText(s.Text()) == "" {
				return true
			}
			h, err := s.Html()
			if err != nil {
				return true
			}
			value = strings.TrimSpace(h)
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// AttrAny returns the first non-empty attribute of the first element in sel,
// trying names in order. srcset-style values reduce to their first URL and
// inline data: placeholders are skipped.
func AttrAny(sel *goquery.Selection, names ...string) string {
	first := sel.First()
	for _, name := range names {
		v, ok := first.Attr(name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			continue
		}
		if strings.Contains(name, "srcset") {
			v = FirstSrcsetURL(v)
		}
		if v == "" || strings.HasPrefix(strings.ToLower(v), "data:") {
			continue
		}
		return v
	}
	return ""
}

// FirstSrcsetURL returns the URL of the first candidate in a srcset value,
// e.g. "a.jpg 1x, b.jpg 2x" yields "a.jpg".
func FirstSrcsetURL(v string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(v), ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Image returns the first image URL produced by chain within sel, absolute
// against base.
func Image(sel *goquery.Selection, chain vendor.Chain, base string) string {
	for _, e := range chain.Entries() {
		var value string
		find(sel, e).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value = product.ResolveURL(base, imageValue(s, e.Attr))
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// Images returns every image URL produced by the first chain entry that
// yields any, in document order and without duplicates.
func Images(sel *goquery.Selection, chain vendor.Chain, base string) []string {
	for _, e := range chain.Entries() {
		var out []string
		seen := map[string]bool{}
		find(sel, e).Each(func(_ int, s *goquery.Selection) {
			u := product.ResolveURL(base, imageValue(s, e.Attr))
			if u == "" || seen[u] {
				return
			}
			seen[u] = true
			out = append(out, u)
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// imageValue reads an image URL from s: the named attribute, the image
// attributes of s when it is an <img> or <source>, the content of a <meta>,
// or else the first <img> inside s.
func imageValue(s *goquery.Selection, attr string) string {
	if attr != "" {
		v := strings.TrimSpace(s.AttrOr(attr, ""))
		if strings.Contains(strings.ToLower(attr), "srcset") {
			v = FirstSrcsetURL(v)
		}
		return v
	}
	switch goquery.NodeName(s) {
	case "img", "source":
		return AttrAny(s, ImageAttrs...)
	case "meta":
		return strings.TrimSpace(s.AttrOr("content", ""))
	case "a":
		if v := AttrAny(s.Find("img"), ImageAttrs...); v != "" {
			return v
		}
		return strings.TrimSpace(s.AttrOr("href", ""))
	}
	return AttrAny(s.Find("img, source"), ImageAttrs...)
}

// Link returns the first link produced by chain within sel, absolute against
// base. With an empty chain it uses sel itself when it is a link, else the
// first link inside it.
func Link(sel *goquery.Selection, chain vendor.Chain, base string) string {
	entries := chain.Entries()
	if len(entries) == 0 {
		entries = []vendor.Entry{{Selector: ""}}
	}
	for _, e := range entries {
		var value string
		find(sel, e).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			value = product.ResolveURL(base, hrefValue(s, e.Attr))
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// Links returns every link produced by the first chain entry that yields
// any, deduplicated in document order. An empty chain selects a[href].
func Links(sel *goquery.Selection, chain vendor.Chain, base string) []string {
	entries := chain.Entries()
	if len(entries) == 0 {
		entries = []vendor.Entry{{Selector: "a[href]"}}
	}
	for _, e := range entries {
		var out []string
		seen := map[string]bool{}
		find(sel, e).Each(func(_ int, s *goquery.Selection) {
			u := product.ResolveURL(base, hrefValue(s, e.Attr))
			if u == "" || seen[u] {
				return
			}
			seen[u] = true
			out = append(out, u)
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func hrefValue(s *goquery.Selection, attr string) string {
	if attr != "" {
		return s.AttrOr(attr, "")
	}
	if href, ok := s.Attr("href"); ok {
		return href
	}
	return s.Find("a[href]").First().AttrOr("href", "")
}
