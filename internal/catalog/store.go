package catalog

import "context"

// Store is the remote catalog table. Mutations that touch no rows return
// ErrNotFound; the store owns durability and consistency.
type Store interface {
	SelectAll(ctx context.Context) ([]Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	UpdateTitle(ctx context.Context, oldTitle, newTitle string) ([]Record, error)
	Delete(ctx context.Context, title string) ([]Record, error)
	ListTitles(ctx context.Context, limit, offset int) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
}
