package handoff

import (
	"github.com/memohai/cinebot/internal/catalog"
	"github.com/memohai/cinebot/internal/session"
)

// Pending is a delivery deferred because the direct chat refused the bot.
type Pending struct {
	CatalogKey string
	Variant    catalog.Variant
}

// PendingStore holds at most one deferred delivery per requester; a newer
// handoff replaces the older one.
type PendingStore struct {
	store *session.Store[int64, Pending]
}

func NewPendingStore() *PendingStore {
	return &PendingStore{store: session.NewStore[int64, Pending]()}
}

func (p *PendingStore) Put(userID int64, pending Pending) {
	p.store.Put(userID, pending)
}

func (p *PendingStore) Get(userID int64) (Pending, bool) {
	return p.store.Get(userID)
}

// Resolve clears the pending entry of userID if it names key and variant.
// It reports whether an entry was cleared.
func (p *PendingStore) Resolve(userID int64, key string, variant catalog.Variant) bool {
	return p.store.DeleteIf(userID, func(pending Pending) bool {
		return pending.CatalogKey == key && pending.Variant == variant
	})
}

func (p *PendingStore) Len() int {
	return p.store.Len()
}
