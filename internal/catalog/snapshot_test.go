package catalog

import (
	"strings"
	"testing"
	"time"
)

func TestNewSnapshotCollapsesDuplicateKeys(t *testing.T) {
	t.Parallel()

	loaded := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	snap := NewSnapshot(7, []Record{
		{Title: "Amaran (2024)", PosterRef: "p1", Files: map[Variant]string{Variant480p: "a"}},
		{Title: "Leo", PosterRef: "p2"},
		{Title: "  AMARAN (2024) ", PosterRef: "p3", Files: map[Variant]string{Variant720p: "b", Variant1080p: ""}},
		{Title: "★★★", PosterRef: "skip"},
	}, loaded)

	if snap.Generation() != 7 || !snap.LoadedAt().Equal(loaded) {
		t.Fatalf("unexpected metadata: gen=%d loaded=%v", snap.Generation(), snap.LoadedAt())
	}
	if snap.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d (%v)", snap.Len(), snap.Keys())
	}
	if keys := snap.Keys(); keys[0] != "amaran (2024)" || keys[1] != "leo" {
		t.Fatalf("unexpected key order: %v", keys)
	}
	entry, ok := snap.Get("amaran (2024)")
	if !ok {
		t.Fatal("expected amaran entry")
	}
	if entry.PosterRef != "p3" {
		t.Fatalf("expected last record to win, got poster %q", entry.PosterRef)
	}
	if _, ok := entry.File(Variant1080p); ok {
		t.Fatal("empty file reference should not count as a variant")
	}
	if ref, ok := entry.File(Variant720p); !ok || ref != "b" {
		t.Fatalf("unexpected 720p ref: %q %v", ref, ok)
	}
	if _, ok := snap.Get("★★★"); ok {
		t.Fatal("empty keys must be skipped")
	}
}

func TestNilSnapshotIsEmpty(t *testing.T) {
	t.Parallel()

	var snap *Snapshot
	if snap.Len() != 0 || snap.Keys() != nil || snap.Generation() != 0 {
		t.Fatal("nil snapshot should be empty")
	}
	if _, ok := snap.Get("x"); ok {
		t.Fatal("nil snapshot lookup should miss")
	}
}

func TestSnapshotLookupByRef(t *testing.T) {
	t.Parallel()

	long := "பொன்னியின் செல்வன் (2022)"
	snap := NewSnapshot(1, []Record{
		{Title: long, PosterRef: "p1"},
		{Title: "Leo", PosterRef: "p2"},
	}, time.Now())

	ref := Ref(long)
	if !strings.HasPrefix(ref, RefPrefix) || len(ref) != 12 {
		t.Fatalf("unexpected ref %q", ref)
	}
	if Ref(long) != ref {
		t.Fatal("ref should be stable for a key")
	}
	entry, ok := snap.Lookup(ref)
	if !ok || entry.Key != long {
		t.Fatalf("lookup by ref: %+v %v", entry, ok)
	}
	if entry, ok := snap.Lookup("leo"); !ok || entry.PosterRef != "p2" {
		t.Fatalf("lookup by key: %+v %v", entry, ok)
	}
	if _, ok := snap.ByRef(Ref("missing")); ok {
		t.Fatal("unknown ref should not resolve")
	}
	if _, ok := (*Snapshot)(nil).Lookup(ref); ok {
		t.Fatal("nil snapshot should not resolve")
	}
}
