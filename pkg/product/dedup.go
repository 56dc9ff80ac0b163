package product

// Key returns the dedup key: vendor plus SKU when present, otherwise vendor
// plus product URL. Rows with neither have no key.
func Key(r Row) (string, bool) {
	switch {
	case r.SKU != "":
		return r.Vendor + "\x00sku\x00" + r.SKU, true
	case r.ProductURL != "":
		return r.Vendor + "\x00url\x00" + r.ProductURL, true
	}
	return "", false
}

// better reports whether candidate should replace current.
func better(candidate, current Row) bool {
	cs, ks := candidate.Score(), current.Score()
	if cs != ks {
		return cs > ks
	}
	if len(candidate.Gallery) != len(current.Gallery) {
		return len(candidate.Gallery) > len(current.Gallery)
	}
	return len(candidate.Description) > len(current.Description)
}

// Dedup collapses rows sharing a key into the highest-information variant in
// a single pass. Output order follows the first occurrence of each key; ties
// keep the earlier row. Rows without a key pass through untouched.
func Dedup(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	index := make(map[string]int, len(rows))

	for _, r := range rows {
		key, ok := Key(r)
		if !ok {
			out = append(out, r)
			continue
		}
		if i, seen := index[key]; seen {
			if better(r, out[i]) {
				out[i] = r
			}
			continue
		}
		index[key] = len(out)
		out = append(out, r)
	}
	return out
}
