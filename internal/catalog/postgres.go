package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

const uniqueViolation = "23505"

const recordColumns = `id, title, poster_ref, file_480p, file_720p, file_1080p, uploaded_at`

// Querier is the subset of pgxpool.Pool used by PostgresStore.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps catalog rows in the catalog_entries table.
type PostgresStore struct {
	db  Querier
	now func() time.Time
}

// NewPostgresStore creates a store over a pool or transaction.
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) SelectAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.Query(ctx, `SELECT `+recordColumns+` FROM catalog_entries ORDER BY uploaded_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select catalog: %w", err)
	}
	records, err := pgx.CollectRows(rows, collectRecord)
	if err != nil {
		return nil, fmt.Errorf("select catalog: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec Record) (Record, error) {
	id := uuid.New()
	uploadedAt := rec.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = s.now().UTC()
	}
	row := s.db.QueryRow(ctx,
		`INSERT INTO catalog_entries (id, title, poster_ref, file_480p, file_720p, file_1080p, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+recordColumns,
		pgtype.UUID{Bytes: id, Valid: true},
		rec.Title,
		rec.PosterRef,
		nullableText(rec.Files[Variant480p]),
		nullableText(rec.Files[Variant720p]),
		nullableText(rec.Files[Variant1080p]),
		uploadedAt,
	)
	saved, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotSaved
		}
		if isUniqueViolation(err) {
			return Record{}, ErrDuplicate
		}
		return Record{}, fmt.Errorf("insert catalog entry: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) UpdateTitle(ctx context.Context, oldTitle, newTitle string) ([]Record, error) {
	rows, err := s.db.Query(ctx,
		`UPDATE catalog_entries SET title = $2 WHERE title = $1 RETURNING `+recordColumns,
		oldTitle, newTitle,
	)
	if err != nil {
		return nil, fmt.Errorf("update catalog title: %w", err)
	}
	return collectAffected(rows, "update catalog title")
}

func (s *PostgresStore) Delete(ctx context.Context, title string) ([]Record, error) {
	rows, err := s.db.Query(ctx,
		`DELETE FROM catalog_entries WHERE title = $1 RETURNING `+recordColumns,
		title,
	)
	if err != nil {
		return nil, fmt.Errorf("delete catalog entry: %w", err)
	}
	return collectAffected(rows, "delete catalog entry")
}

func (s *PostgresStore) ListTitles(ctx context.Context, limit, offset int) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT title FROM catalog_entries ORDER BY title LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list catalog titles: %w", err)
	}
	titles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list catalog titles: %w", err)
	}
	return titles, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM catalog_entries`).Scan(&stats.Total); err != nil {
		return Stats{}, fmt.Errorf("count catalog: %w", err)
	}
	err := s.db.QueryRow(ctx,
		`SELECT title, uploaded_at FROM catalog_entries ORDER BY uploaded_at DESC, id DESC LIMIT 1`,
	).Scan(&stats.LastTitle, &stats.LastUpload)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, fmt.Errorf("latest catalog entry: %w", err)
	}
	return stats, nil
}

func collectAffected(rows pgx.Rows, op string) ([]Record, error) {
	records, err := pgx.CollectRows(rows, collectRecord)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func collectRecord(row pgx.CollectableRow) (Record, error) {
	return scanRecord(row)
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		id                pgtype.UUID
		rec               Record
		f480, f720, f1080 pgtype.Text
		uploadedAt        pgtype.Timestamptz
	)
	if err := row.Scan(&id, &rec.Title, &rec.PosterRef, &f480, &f720, &f1080, &uploadedAt); err != nil {
		return Record{}, err
	}
	if id.Valid {
		rec.ID = uuid.UUID(id.Bytes).String()
	}
	rec.Files = map[Variant]string{}
	for v, text := range map[Variant]pgtype.Text{Variant480p: f480, Variant720p: f720, Variant1080p: f1080} {
		if text.Valid && text.String != "" {
			rec.Files[v] = text.String
		}
	}
	if uploadedAt.Valid {
		rec.UploadedAt = uploadedAt.Time
	}
	return rec, nil
}

func nullableText(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
