package grouping

import (
	"context"
	"fmt"
	"testing"

	"imagesync/imageprocessor"
	"imagesync/types"
)

// fingerprints builds a perceptual set whose every family has the first
// `flipped` bits set out of 64
func fingerprints(flipped int) map[string]types.Fingerprint {
	set := make(map[string]types.Fingerprint, len(imageprocessor.Families))
	for _, family := range imageprocessor.Families {
		fp := types.NewFingerprint(64)
		for i := 0; i < flipped; i++ {
			fp.Set(i)
		}
		set[family] = fp
	}
	return set
}

func record(name, context string, flipped int) *types.ImageRecord {
	rec := types.NewImageRecord("/src/"+name, types.SourceA, 1)
	rec.Context = context
	rec.ExactHash = "hash-" + name
	rec.Perceptual = fingerprints(flipped)
	rec.Processed = true
	return rec
}

func memberNames(g *types.Group) []string {
	names := make([]string, len(g.Members))
	for i, m := range g.Members {
		names[i] = m.Path
	}
	return names
}

func TestChainCollapsesIntoOneGroup(t *testing.T) {
	// a~b and b~c clear 0.9, but a and c are only about 0.81 apart
	a := record("a.jpg", "beach", 0)
	b := record("b.jpg", "", 6)
	c := record("c.jpg", "", 12)

	groups := FindGroups(context.Background(), []*types.ImageRecord{a, b}, []*types.ImageRecord{c}, 0.9, nil)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	g := groups[0]
	if g.Key != "beach" {
		t.Fatalf("key = %q, want beach", g.Key)
	}
	want := []string{a.Path, b.Path, c.Path}
	if fmt.Sprint(memberNames(g)) != fmt.Sprint(want) {
		t.Fatalf("members = %v, want %v", memberNames(g), want)
	}
}

func TestChainDiscoveredOutOfOrder(t *testing.T) {
	// x~z and y~z match, but x and y do not: the cluster built from (x,z)
	// must absorb y rather than spawning a second group
	x := record("x.jpg", "first", 0)
	y := record("y.jpg", "second", 20)
	z := record("z.jpg", "third", 10)

	groups := FindGroups(context.Background(), []*types.ImageRecord{x, y, z}, nil, 0.84, nil)
	if len(groups) != 1 || len(groups[0].Members) != 3 {
		t.Fatalf("expected a single group of three, got %+v", groups)
	}
	if groups[0].Key != "first" {
		t.Fatalf("key = %q, want first", groups[0].Key)
	}
}

func TestMergingClustersKeepsOlderKey(t *testing.T) {
	// {p,q,t} and {r,s} form separately, then r~t bridges them
	p := record("p.jpg", "older", 0)
	q := record("q.jpg", "", 1)
	r := record("r.jpg", "newer", 40)
	s := record("s.jpg", "", 41)
	bridge := record("t.jpg", "bridge", 20)

	groups := FindGroups(context.Background(), []*types.ImageRecord{p, q, r, s, bridge}, nil, 0.68, nil)
	if len(groups) != 1 {
		t.Fatalf("expected clusters to merge, got %d groups", len(groups))
	}
	if groups[0].Key != "older" {
		t.Fatalf("merged key = %q, want older", groups[0].Key)
	}
}

func TestNoRecordSharedAcrossGroups(t *testing.T) {
	var a []*types.ImageRecord
	for i := 0; i < 3; i++ {
		a = append(a, record(fmt.Sprintf("low%d.jpg", i), "low", i))
	}
	var b []*types.ImageRecord
	for i := 0; i < 3; i++ {
		b = append(b, record(fmt.Sprintf("high%d.jpg", i), "high", 60-i))
	}

	groups := FindGroups(context.Background(), a, b, 0.9, nil)
	if len(groups) != 2 {
		t.Fatalf("expected two groups, got %d", len(groups))
	}
	seen := map[*types.ImageRecord]string{}
	for _, g := range groups {
		for _, m := range g.Members {
			if other, dup := seen[m]; dup {
				t.Fatalf("record %s in both %s and %s", m.Path, other, g.Key)
			}
			seen[m] = g.Key
		}
	}
	if groups[0].Key != "low" || groups[1].Key != "high" {
		t.Fatalf("groups out of creation order: %s, %s", groups[0].Key, groups[1].Key)
	}
}

func TestDuplicateKeysAreSuffixed(t *testing.T) {
	a := []*types.ImageRecord{
		record("a1.jpg", "holiday", 0),
		record("a2.jpg", "holiday", 0),
		record("b1.jpg", "holiday", 40),
		record("b2.jpg", "holiday", 40),
		record("c1.jpg", "holiday", 20),
		record("c2.jpg", "holiday", 20),
	}
	groups := FindGroups(context.Background(), a, nil, 0.95, nil)
	if len(groups) != 3 {
		t.Fatalf("expected three groups, got %d", len(groups))
	}
	want := []string{"holiday", "holiday_2", "holiday_3"}
	for i, g := range groups {
		if g.Key != want[i] {
			t.Fatalf("group %d key = %q, want %q", i, g.Key, want[i])
		}
	}
}

func TestSyntheticKeyWhenNoContext(t *testing.T) {
	a := record("a.jpg", "", 0)
	b := record("b.jpg", "", 0)
	groups := FindGroups(context.Background(), []*types.ImageRecord{a}, []*types.ImageRecord{b}, 0.9, nil)
	if len(groups) != 1 || groups[0].Key != "group_1" {
		t.Fatalf("expected group_1, got %+v", groups)
	}
}

func TestExactMatchShortCircuitsAtThresholdOne(t *testing.T) {
	a := record("a.jpg", "copy", 0)
	b := record("b.jpg", "copy", 0)
	b.ExactHash = a.ExactHash
	a.Perceptual = map[string]types.Fingerprint{}
	b.Perceptual = map[string]types.Fingerprint{}

	groups, stats := FindGroupsWithStats(context.Background(), []*types.ImageRecord{a}, []*types.ImageRecord{b}, 1.0, nil)
	if len(groups) != 1 || len(groups[0].Members) != 2 {
		t.Fatalf("byte-identical files must group even without fingerprints, got %+v", groups)
	}
	if stats.ExactMatches != 1 || stats.Comparisons != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestEmptyExactHashesNeverMatch(t *testing.T) {
	a := record("a.jpg", "x", 0)
	b := record("b.jpg", "y", 0)
	a.ExactHash, b.ExactHash = "", ""
	a.Perceptual, b.Perceptual = map[string]types.Fingerprint{}, map[string]types.Fingerprint{}

	if groups := FindGroups(context.Background(), []*types.ImageRecord{a, b}, nil, 0.5, nil); len(groups) != 0 {
		t.Fatalf("records without any fingerprint must not group, got %+v", groups)
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	var records []*types.ImageRecord
	for i, flipped := range []int{0, 3, 7, 12, 20, 33, 50} {
		records = append(records, record(fmt.Sprintf("r%d.jpg", i), fmt.Sprintf("r%d", i), flipped))
	}
	pairs := func(threshold float64) map[[2]int]bool {
		out := map[[2]int]bool{}
		for _, g := range FindGroups(context.Background(), records, nil, threshold, nil) {
			for i := range g.Members {
				for j := i + 1; j < len(g.Members); j++ {
					out[[2]int{indexOf(records, g.Members[i]), indexOf(records, g.Members[j])}] = true
				}
			}
		}
		return out
	}

	strict := pairs(0.95)
	loose := pairs(0.8)
	for pair := range strict {
		if !loose[pair] {
			t.Fatalf("pair %v grouped at 0.95 but not at 0.8", pair)
		}
	}
}

func indexOf(records []*types.ImageRecord, rec *types.ImageRecord) int {
	for i, r := range records {
		if r == rec {
			return i
		}
	}
	return -1
}

func TestProgressReporting(t *testing.T) {
	var records []*types.ImageRecord
	for i := 0; i < 20; i++ {
		records = append(records, record(fmt.Sprintf("p%d.jpg", i), "", i*3))
	}
	var calls []float64
	var last string
	FindGroups(context.Background(), records, nil, 0.99, func(percent float64, message string) {
		calls = append(calls, percent)
		last = message
	})

	// 190 comparisons: one report at 100 and a final one
	if len(calls) != 2 {
		t.Fatalf("expected 2 progress reports, got %d (%v)", len(calls), calls)
	}
	if calls[0] <= 50 || calls[1] != 80 {
		t.Fatalf("unexpected progress values %v", calls)
	}
	if last != "Comparing images... 190/190" {
		t.Fatalf("unexpected final message %q", last)
	}
}

func TestCancelledContextStopsComparisons(t *testing.T) {
	var records []*types.ImageRecord
	for i := 0; i < 10; i++ {
		records = append(records, record(fmt.Sprintf("c%d.jpg", i), "", 0))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	groups, stats := FindGroupsWithStats(ctx, records, nil, 0.9, nil)
	if stats.Comparisons != 0 || len(groups) != 0 {
		t.Fatalf("expected no work after cancellation, got %d comparisons", stats.Comparisons)
	}
}

func TestUngrouped(t *testing.T) {
	a := record("a.jpg", "k", 0)
	b := record("b.jpg", "k", 0)
	c := record("c.jpg", "other", 50)
	groups := FindGroups(context.Background(), []*types.ImageRecord{a, c}, []*types.ImageRecord{b}, 0.9, nil)

	rest := Ungrouped([]*types.ImageRecord{a, c}, []*types.ImageRecord{b}, groups)
	if len(rest) != 1 || rest[0] != c {
		t.Fatalf("expected only c to be ungrouped, got %v", rest)
	}
}
