// Package dedup detects groups of directory records that likely represent
// the same real-world entity. Independent detection strategies scan the
// record store, overlapping raw matches are merged into disjoint groups via
// union-find, and results are cached with a short TTL.
package dedup

import (
	"sort"
)

// Method identifies a detection strategy.
type Method string

// Detection methods.
const (
	MethodExactTitle      Method = "exact_title"
	MethodNormalizedTitle Method = "normalized_title"
	MethodTitleCity       Method = "title_city"
	MethodTitleAddress    Method = "title_address"
	MethodPhone           Method = "phone"
	MethodWebsite         Method = "website"
)

// AllowedMethods returns every detection method, in canonical order.
func AllowedMethods() []Method {
	return []Method{
		MethodExactTitle,
		MethodNormalizedTitle,
		MethodTitleCity,
		MethodTitleAddress,
		MethodPhone,
		MethodWebsite,
	}
}

// Valid reports whether the method is a known detection method.
func (m Method) Valid() bool {
	switch m {
	case MethodExactTitle, MethodNormalizedTitle, MethodTitleCity,
		MethodTitleAddress, MethodPhone, MethodWebsite:
		return true
	default:
		return false
	}
}

// Label returns the human-readable name of the method.
func (m Method) Label() string {
	switch m {
	case MethodExactTitle:
		return "Exact Title Match"
	case MethodNormalizedTitle:
		return "Similar Title"
	case MethodTitleCity:
		return "Title + City"
	case MethodTitleAddress:
		return "Title + Address"
	case MethodPhone:
		return "Phone Number"
	case MethodWebsite:
		return "Website"
	default:
		return string(m)
	}
}

// Confidence is how likely a group's members are true duplicates.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// weight orders confidences for sorting and max-merging. Unknown values
// sort last.
func (c Confidence) weight() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Higher reports whether c outranks other.
func (c Confidence) Higher(other Confidence) bool {
	return c.weight() > other.weight()
}

// Group is a set of record ids believed to represent the same entity.
// After overlap merging no record id appears in two groups.
type Group struct {
	MatchKey   string     `json:"match_key"`
	Methods    []Method   `json:"methods"`
	Confidence Confidence `json:"confidence"`
	RecordIDs  []int64    `json:"record_ids"`
	Count      int        `json:"count"`
}

// rawGroup is a single strategy's match before overlap merging.
type rawGroup struct {
	key        string
	method     Method
	confidence Confidence
	ids        []int64
}

// sortMethods orders a method set canonically in place.
func sortMethods(methods []Method) {
	rank := make(map[Method]int, 6)
	for i, m := range AllowedMethods() {
		rank[m] = i
	}
	sort.Slice(methods, func(i, j int) bool {
		return rank[methods[i]] < rank[methods[j]]
	})
}
