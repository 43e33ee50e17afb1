package bot

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrAlreadyAdmin = errors.New("already an admin")
	ErrNotAdmin     = errors.New("not an admin")
	ErrLastAdmin    = errors.New("cannot remove the last admin")
)

// AdminSet is the in-memory list of admin user IDs, seeded from config.
type AdminSet struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
}

func NewAdminSet(ids []int64) *AdminSet {
	s := &AdminSet{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id > 0 {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *AdminSet) Contains(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *AdminSet) Add(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return ErrAlreadyAdmin
	}
	s.ids[id] = struct{}{}
	return nil
}

func (s *AdminSet) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; !ok {
		return ErrNotAdmin
	}
	if len(s.ids) == 1 {
		return ErrLastAdmin
	}
	delete(s.ids, id)
	return nil
}

// List returns the IDs in ascending order.
func (s *AdminSet) List() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
