package session

import (
	"errors"

	"github.com/memohai/cinebot/internal/catalog"
)

// UploadCapacity is the number of variant files an upload collects.
const UploadCapacity = 3

var (
	ErrNoSession   = errors.New("no upload session")
	ErrSessionFull = errors.New("upload session already has all files")
)

// Artifact is an uploaded file reference with the name it was sent under.
type Artifact struct {
	Ref      string
	Filename string
}

// Upload is an admin's in-progress catalog entry.
type Upload struct {
	Poster   string
	Variants []Artifact
}

// Complete reports whether the upload can become a catalog entry.
func (u Upload) Complete() bool {
	return u.Poster != "" && len(u.Variants) == UploadCapacity
}

// Assign maps collected files to tiers. When every file names a distinct
// resolution the names decide, otherwise files take tiers in arrival order.
func (u Upload) Assign() map[catalog.Variant]string {
	out := make(map[catalog.Variant]string, len(u.Variants))
	for _, a := range u.Variants {
		v, ok := catalog.VariantFromFilename(a.Filename)
		if !ok {
			break
		}
		if _, dup := out[v]; dup {
			break
		}
		out[v] = a.Ref
	}
	if len(out) == len(u.Variants) {
		return out
	}
	out = make(map[catalog.Variant]string, len(u.Variants))
	for i, a := range u.Variants {
		if i < len(catalog.Variants) {
			out[catalog.Variants[i]] = a.Ref
		}
	}
	return out
}

// Title guesses the entry title from the first file name.
func (u Upload) Title() string {
	if len(u.Variants) == 0 {
		return ""
	}
	return catalog.ExtractTitle(u.Variants[0].Filename)
}

// Uploads tracks one Upload per admin.
type Uploads struct {
	store *Store[int64, Upload]
}

func NewUploads() *Uploads {
	return &Uploads{store: NewStore[int64, Upload]()}
}

// Begin starts a fresh upload for adminID, discarding any previous one.
func (u *Uploads) Begin(adminID int64) {
	u.store.Put(adminID, Upload{})
}

func (u *Uploads) Active(adminID int64) bool {
	_, ok := u.store.Get(adminID)
	return ok
}

func (u *Uploads) Get(adminID int64) (Upload, bool) {
	return u.store.Get(adminID)
}

// SetPoster records or replaces the poster of the admin's upload.
func (u *Uploads) SetPoster(adminID int64, ref string) error {
	var err error
	u.store.Update(adminID, func(up Upload, ok bool) (Upload, bool) {
		if !ok {
			err = ErrNoSession
			return up, false
		}
		up.Poster = ref
		return up, true
	})
	return err
}

// AddVariant appends a file and returns how many the upload now holds.
func (u *Uploads) AddVariant(adminID int64, a Artifact) (int, error) {
	var (
		n   int
		err error
	)
	u.store.Update(adminID, func(up Upload, ok bool) (Upload, bool) {
		if !ok {
			err = ErrNoSession
			return up, false
		}
		if len(up.Variants) >= UploadCapacity {
			err = ErrSessionFull
			n = len(up.Variants)
			return up, true
		}
		up.Variants = append(append([]Artifact(nil), up.Variants...), a)
		n = len(up.Variants)
		return up, true
	})
	return n, err
}

// TakeComplete removes and returns the upload once it is complete. Only one
// caller can take a given upload.
func (u *Uploads) TakeComplete(adminID int64) (Upload, bool) {
	var (
		taken Upload
		done  bool
	)
	u.store.Update(adminID, func(up Upload, ok bool) (Upload, bool) {
		if !ok {
			return up, false
		}
		if up.Complete() {
			taken, done = up, true
			return up, false
		}
		return up, true
	})
	return taken, done
}

// Cancel drops the admin's upload and reports whether one existed.
func (u *Uploads) Cancel(adminID int64) bool {
	return u.store.Delete(adminID)
}
