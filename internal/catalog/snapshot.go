package catalog

import (
	"encoding/base64"
	"encoding/binary"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// RefPrefix marks a compact entry reference in place of a key. Normalized
// keys never contain it.
const RefPrefix = "#"

// Ref returns the compact reference of key: RefPrefix followed by the
// base64url form of the key's 64-bit xxhash. It depends only on the key, so
// it survives reloads.
func Ref(key string) string {
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64String(key))
	return RefPrefix + base64.RawURLEncoding.EncodeToString(sum[:])
}

// Snapshot is an immutable view of the catalog as of one reload. It is
// replaced wholesale, never edited, so readers always see a consistent set.
type Snapshot struct {
	generation uint64
	loadedAt   time.Time
	keys       []string
	entries    map[string]Entry
	refs       map[string]string
}

// NewSnapshot indexes records by normalized title. Records that normalize
// to the same key collapse onto the first position with the last values.
func NewSnapshot(generation uint64, records []Record, loadedAt time.Time) *Snapshot {
	snap := &Snapshot{
		generation: generation,
		loadedAt:   loadedAt,
		keys:       make([]string, 0, len(records)),
		entries:    make(map[string]Entry, len(records)),
		refs:       make(map[string]string, len(records)),
	}
	for _, rec := range records {
		key := Normalize(rec.Title)
		if key == "" {
			continue
		}
		if _, exists := snap.entries[key]; !exists {
			snap.keys = append(snap.keys, key)
			if _, taken := snap.refs[Ref(key)]; !taken {
				snap.refs[Ref(key)] = key
			}
		}
		variants := make(map[Variant]string, len(rec.Files))
		for v, ref := range rec.Files {
			if ref != "" {
				variants[v] = ref
			}
		}
		snap.entries[key] = Entry{
			Key:        key,
			PosterRef:  rec.PosterRef,
			Variants:   variants,
			UploadedAt: rec.UploadedAt,
		}
	}
	return snap
}

// Generation increases with every successful reload.
func (s *Snapshot) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation
}

// LoadedAt is when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// Len returns the number of distinct keys.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the keys in store order. The slice is shared; do not modify it.
func (s *Snapshot) Keys() []string {
	if s == nil {
		return nil
	}
	return s.keys
}

// Get looks up an entry by normalized key.
func (s *Snapshot) Get(key string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.entries[key]
	return e, ok
}

// ByRef looks up an entry by the compact reference returned by Ref.
func (s *Snapshot) ByRef(ref string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	key, ok := s.refs[ref]
	if !ok {
		return Entry{}, false
	}
	return s.Get(key)
}

// Lookup accepts either a key or a compact reference.
func (s *Snapshot) Lookup(keyOrRef string) (Entry, bool) {
	if strings.HasPrefix(keyOrRef, RefPrefix) {
		return s.ByRef(keyOrRef)
	}
	return s.Get(keyOrRef)
}
