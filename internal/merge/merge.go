// Package merge concatenates proxy batches from several vendors and removes
// duplicates by display name.
package merge

import (
	"unicode/utf8"

	"github.com/samber/lo"

	"chiaotu/internal/domain"
)

// Merge flattens batches in the order given and keeps the first element seen
// for every key. Later elements with the same key are dropped whole; fields
// are never combined.
func Merge[T any](batches [][]T, key func(T) string) []T {
	return lo.UniqBy(lo.Flatten(batches), key)
}

// Proxies merges decoded share-link descriptors by GroupKey, before they are
// converted to Clash proxies.
func Proxies(batches ...[]domain.Proxy) []domain.Proxy {
	return Merge(batches, domain.Proxy.GroupKey)
}

// VendorSuffix tags a proxy name with the first and last rune of the vendor
// it came from, e.g. "香港 01" from "example" becomes "香港 01@e..e".
// An empty vendor leaves the name unchanged.
func VendorSuffix(name, vendor string) string {
	if vendor == "" {
		return name
	}
	first, _ := utf8.DecodeRuneInString(vendor)
	last, _ := utf8.DecodeLastRuneInString(vendor)
	return name + "@" + string(first) + ".." + string(last)
}
