// Package grouping clusters fingerprinted records into groups of matching
// images.
package grouping

import (
	"context"
	"fmt"
	"sort"

	"imagesync/imageprocessor"
	"imagesync/logging"
	"imagesync/types"
)

// ProgressFunc receives a percentage in [0, 100] and a human-readable message
type ProgressFunc func(percent float64, message string)

const (
	progressStart = 50.0
	progressShare = 30.0
	reportEvery   = 100
)

// cluster tracks the naming state of one union-find root
type cluster struct {
	created int // creation sequence, lower is older
	key     string
}

// Stats summarises one FindGroups pass
type Stats struct {
	Comparisons  int
	ExactMatches int
	Matches      int
}

// FindGroups compares every unordered pair of records from a followed by b
// exactly once and returns the resulting groups in creation order. Members
// are ordered by their position in the combined sequence. When ctx is
// cancelled the loop stops and the groups found so far are returned.
func FindGroups(ctx context.Context, a, b []*types.ImageRecord, threshold float64, report ProgressFunc) []*types.Group {
	groups, _ := FindGroupsWithStats(ctx, a, b, threshold, report)
	return groups
}

// FindGroupsWithStats is FindGroups that also returns comparison counters
func FindGroupsWithStats(ctx context.Context, a, b []*types.ImageRecord, threshold float64, report ProgressFunc) ([]*types.Group, Stats) {
	records := make([]*types.ImageRecord, 0, len(a)+len(b))
	records = append(records, a...)
	records = append(records, b...)

	n := len(records)
	total := n * (n - 1) / 2
	uf := newUnionFind(n)
	clusters := make(map[int]*cluster)
	created := 0
	var stats Stats

	match := func(i, j int) bool {
		if imageprocessor.IsExactMatch(records[i], records[j]) {
			stats.ExactMatches++
			return true
		}
		return imageprocessor.Similar(records[i].Perceptual, records[j].Perceptual, threshold)
	}

	merge := func(i, j int) {
		ri, rj := uf.find(i), uf.find(j)
		if ri == rj {
			return
		}
		ci, cj := clusters[ri], clusters[rj]
		delete(clusters, ri)
		delete(clusters, rj)

		var keep *cluster
		switch {
		case ci == nil && cj == nil:
			created++
			keep = &cluster{created: created, key: newClusterKey(records[i], records[j], created)}
		case ci == nil:
			keep = cj
		case cj == nil:
			keep = ci
		case ci.created < cj.created:
			keep = ci
		default:
			keep = cj
		}
		clusters[uf.union(ri, rj)] = keep
	}

	progress := func() {
		if report != nil && total > 0 {
			percent := progressStart + float64(stats.Comparisons)/float64(total)*progressShare
			report(percent, fmt.Sprintf("Comparing images... %d/%d", stats.Comparisons, total))
		}
	}

outer:
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if ctx.Err() != nil {
				break outer
			}
			if match(i, j) {
				stats.Matches++
				merge(i, j)
			}
			stats.Comparisons++
			if stats.Comparisons%reportEvery == 0 {
				progress()
			}
		}
	}
	if stats.Comparisons%reportEvery != 0 {
		progress()
	}

	groups := collectGroups(records, uf, clusters)

	logging.WithFields(map[string]interface{}{
		"records":       n,
		"comparisons":   stats.Comparisons,
		"exact_matches": stats.ExactMatches,
		"matches":       stats.Matches,
		"groups":        len(groups),
	}).Debug("similarity grouping finished")

	return groups, stats
}

// newClusterKey names a fresh cluster after the first operand's context,
// then the second's, then a synthetic sequence name
func newClusterKey(first, second *types.ImageRecord, seq int) string {
	switch {
	case first.Context != "":
		return first.Context
	case second.Context != "":
		return second.Context
	default:
		return fmt.Sprintf("group_%d", seq)
	}
}

// collectGroups materialises clusters in creation order with unique keys
func collectGroups(records []*types.ImageRecord, uf *unionFind, clusters map[int]*cluster) []*types.Group {
	if len(clusters) == 0 {
		return []*types.Group{}
	}

	byCluster := make(map[*cluster]*types.Group, len(clusters))
	ordered := make([]*cluster, 0, len(clusters))
	for i, rec := range records {
		c, ok := clusters[uf.find(i)]
		if !ok {
			continue
		}
		g, seen := byCluster[c]
		if !seen {
			g = &types.Group{}
			byCluster[c] = g
			ordered = append(ordered, c)
		}
		g.Add(rec)
	}

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].created < ordered[j].created
	})

	used := make(map[string]bool, len(ordered))
	groups := make([]*types.Group, 0, len(ordered))
	for _, c := range ordered {
		g := byCluster[c]
		g.Key = uniqueKey(c.key, used)
		groups = append(groups, g)
	}
	return groups
}

// uniqueKey appends _2, _3, ... until the key has not been used
func uniqueKey(key string, used map[string]bool) string {
	candidate := key
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", key, n)
	}
	used[candidate] = true
	return candidate
}

// Ungrouped returns the records of a followed by b that belong to no group,
// in their original order
func Ungrouped(a, b []*types.ImageRecord, groups []*types.Group) []*types.ImageRecord {
	grouped := make(map[*types.ImageRecord]bool)
	for _, g := range groups {
		for _, m := range g.Members {
			grouped[m] = true
		}
	}

	var out []*types.ImageRecord
	for _, list := range [][]*types.ImageRecord{a, b} {
		for _, rec := range list {
			if !grouped[rec] {
				out = append(out, rec)
			}
		}
	}
	return out
}
