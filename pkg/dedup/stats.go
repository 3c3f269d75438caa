package dedup

import (
	"context"
)

// Statistics summarizes a set of duplicate groups.
type Statistics struct {
	TotalGroups     int                `json:"total_groups"`
	TotalDuplicates int                `json:"total_duplicates"`
	ByMethod        map[Method]int     `json:"by_method"`
	ByConfidence    map[Confidence]int `json:"by_confidence"`
}

// Statistics aggregates counters over the given groups. Pass nil to
// compute over a fresh Find. A group counts once toward every method in
// its method set.
func (f *Finder) Statistics(ctx context.Context, groups []Group) (*Statistics, error) {
	if groups == nil {
		var err error
		if groups, err = f.Find(ctx); err != nil {
			return nil, err
		}
	}

	stats := &Statistics{
		TotalGroups: len(groups),
		ByMethod:    make(map[Method]int),
		ByConfidence: map[Confidence]int{
			ConfidenceHigh:   0,
			ConfidenceMedium: 0,
			ConfidenceLow:    0,
		},
	}
	for _, group := range groups {
		stats.TotalDuplicates += group.Count
		for _, method := range group.Methods {
			stats.ByMethod[method]++
		}
		stats.ByConfidence[group.Confidence]++
	}
	return stats, nil
}
