package session

import (
	"sync"
	"testing"
)

func TestStoreBasics(t *testing.T) {
	t.Parallel()

	s := NewStore[string, int]()
	s.Put("a", 1)
	s.Put("a", 2)
	if v, ok := s.Get("a"); !ok || v != 2 {
		t.Fatalf("expected last write, got %d %v", v, ok)
	}
	if s.DeleteIf("a", func(v int) bool { return v == 1 }) {
		t.Fatal("predicate should have rejected")
	}
	if !s.DeleteIf("a", func(v int) bool { return v == 2 }) {
		t.Fatal("predicate should have accepted")
	}
	if s.Delete("a") {
		t.Fatal("key already gone")
	}
	s.Update("b", func(v int, ok bool) (int, bool) { return v + 5, true })
	if v, _ := s.Get("b"); v != 5 {
		t.Fatalf("update on missing key: got %d", v)
	}
	s.Update("b", func(int, bool) (int, bool) { return 0, false })
	if s.Len() != 0 || len(s.Keys()) != 0 {
		t.Fatal("update returning false should delete")
	}
}

func TestStoreConcurrentUpdates(t *testing.T) {
	t.Parallel()

	s := NewStore[int, int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update(1, func(v int, _ bool) (int, bool) { return v + 1, true })
		}()
	}
	wg.Wait()
	if v, _ := s.Get(1); v != 50 {
		t.Fatalf("expected 50, got %d", v)
	}
}
