package handoff

import (
	"testing"

	"github.com/memohai/cinebot/internal/catalog"
)

func TestPendingLastWriteWins(t *testing.T) {
	t.Parallel()

	p := NewPendingStore()
	p.Put(7, Pending{CatalogKey: "leo", Variant: catalog.Variant480p})
	p.Put(7, Pending{CatalogKey: "amaran (2024)", Variant: catalog.Variant1080p})

	got, ok := p.Get(7)
	if !ok || got.CatalogKey != "amaran (2024)" || got.Variant != catalog.Variant1080p {
		t.Fatalf("expected newest pending, got %+v (ok=%v)", got, ok)
	}
	if p.Resolve(7, "leo", catalog.Variant480p) {
		t.Fatal("superseded handoff must not resolve")
	}
	if !p.Resolve(7, "amaran (2024)", catalog.Variant1080p) {
		t.Fatal("expected current handoff to resolve")
	}
	if _, ok := p.Get(7); ok || p.Len() != 0 {
		t.Fatal("resolved handoff should be cleared")
	}
}
