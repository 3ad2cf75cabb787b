// Package group buckets proxy names by region and builds the proxy groups of
// a Clash document.
package group

import (
	"strings"

	"github.com/samber/lo"
)

// Region is one row of the classification table. A name belongs to the
// region when it contains any of the keywords.
type Region struct {
	Label    string
	Keywords []string
}

// Regions is tried top to bottom and the first match wins, so a name with
// both 香港 and 日本 lands in Hong Kong.
var Regions = []Region{
	{Label: "Germany", Keywords: []string{"德国", "DE"}},
	{Label: "Taiwan", Keywords: []string{"台湾", "TW"}},
	{Label: "Hong Kong", Keywords: []string{"香港", "HK"}},
	{Label: "Japan", Keywords: []string{"日本", "JP"}},
	{Label: "Singapore", Keywords: []string{"新加坡", "SG"}},
	{Label: "US", Keywords: []string{"美国", "US"}},
	{Label: "UK", Keywords: []string{"英国", "UK"}},
}

// OtherLabel collects names that match no region.
const OtherLabel = "Other"

// ExcludeKeywords mark provider notices (traffic left, expiry date) that are
// listed as proxies. They are only checked after every region.
var ExcludeKeywords = []string{"剩余", "到期"}

func containsAny(name string, keywords []string) bool {
	return lo.SomeBy(keywords, func(k string) bool {
		return strings.Contains(name, k)
	})
}

// Classify returns the region label for name. The second result is false
// when the name is a provider notice and belongs to no group.
func Classify(name string) (string, bool) {
	if region, ok := lo.Find(Regions, func(r Region) bool {
		return containsAny(name, r.Keywords)
	}); ok {
		return region.Label, true
	}
	if containsAny(name, ExcludeKeywords) {
		return "", false
	}
	return OtherLabel, true
}
