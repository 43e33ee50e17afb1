package catalog

import (
	"errors"
	"time"
)

// Variant is one of the fixed quality tiers an entry may offer.
type Variant string

const (
	Variant480p  Variant = "480p"
	Variant720p  Variant = "720p"
	Variant1080p Variant = "1080p"
)

// Variants lists every tier in display order.
var Variants = []Variant{Variant480p, Variant720p, Variant1080p}

// ParseVariant reports whether raw names a known tier.
func ParseVariant(raw string) (Variant, bool) {
	for _, v := range Variants {
		if string(v) == raw {
			return v, true
		}
	}
	return "", false
}

func (v Variant) String() string { return string(v) }

var (
	ErrNotFound  = errors.New("catalog entry not found")
	ErrDuplicate = errors.New("catalog entry already exists")
	ErrNotSaved  = errors.New("catalog entry not saved")
	ErrEmptyKey  = errors.New("catalog key is empty")
)

// Record is one row of the remote store.
type Record struct {
	ID         string
	Title      string
	PosterRef  string
	Files      map[Variant]string
	UploadedAt time.Time
}

// Entry is the in-memory view of a record, keyed by its normalized title.
type Entry struct {
	Key        string
	PosterRef  string
	Variants   map[Variant]string
	UploadedAt time.Time
}

// File returns the artifact reference for v, if present.
func (e Entry) File(v Variant) (string, bool) {
	ref, ok := e.Variants[v]
	return ref, ok && ref != ""
}

// DisplayTitle renders the entry key for humans.
func (e Entry) DisplayTitle() string {
	return DisplayTitle(e.Key)
}

// Stats summarizes the store for the admin status command.
type Stats struct {
	Total      int
	LastTitle  string
	LastUpload time.Time
}
