package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/dynval"
	"github.com/GyroZepelix/mithril-admin/internal/search"
)

const entryColumns = `id, content_model_id, title, fields, status, published_at,
	COALESCE(created_by::text, ''), created_at, updated_at`

// searchColumns are matched by the q list parameter.
var searchColumns = []string{"title", "fields::text"}

// Repository stores entries in the content_entries table. Field values are
// kept as one jsonb document per entry.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new entry Repository. A nil db makes every call
// fail with database.ErrNotConfigured.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts e. The caller assigns the entry id.
func (r *Repository) Create(ctx context.Context, e Entry) (Entry, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Entry{}, err
	}
	fields, err := encodeFields(e.Fields)
	if err != nil {
		return Entry{}, err
	}

	row := q.QueryRow(ctx,
		`INSERT INTO content_entries (id, content_model_id, title, fields, status, published_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+entryColumns,
		e.ID, e.ContentModelID, e.Title, fields, string(e.Status), e.PublishedAt, nullableUUID(e.CreatedBy),
	)
	created, err := scanEntry(row)
	if err != nil {
		return Entry{}, fmt.Errorf("creating entry: %w", err)
	}
	return created, nil
}

// Update replaces the mutable columns of the entry with e.ID.
// content_model_id and created_by are never written.
func (r *Repository) Update(ctx context.Context, e Entry) (Entry, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Entry{}, err
	}
	fields, err := encodeFields(e.Fields)
	if err != nil {
		return Entry{}, err
	}

	row := q.QueryRow(ctx,
		`UPDATE content_entries
		 SET title = $2, fields = $3, status = $4, published_at = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+entryColumns,
		e.ID, e.Title, fields, string(e.Status), e.PublishedAt,
	)
	updated, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("updating entry: %w", err)
	}
	return updated, nil
}

// Delete removes the entry.
func (r *Repository) Delete(ctx context.Context, id string) error {
	q, err := r.db.Querier()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM content_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the entry with the given id.
func (r *Repository) Get(ctx context.Context, id string) (Entry, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Entry{}, err
	}
	e, err := scanEntry(q.QueryRow(ctx, `SELECT `+entryColumns+` FROM content_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("querying entry: %w", err)
	}
	return e, nil
}

// List retrieves a page of entries with optional model, status and search
// filters. Search results are ranked before the newest-first order.
func (r *Repository) List(ctx context.Context, f EntryFilter) ([]Entry, int, error) {
	q, err := r.db.Querier()
	if err != nil {
		return nil, 0, err
	}

	var whereParts []string
	var args []any
	argIdx := 1

	if f.ModelID != "" {
		whereParts = append(whereParts, fmt.Sprintf("content_model_id = $%d", argIdx))
		args = append(args, f.ModelID)
		argIdx++
	}
	if f.Status != "" {
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(f.Status))
		argIdx++
	}

	searchWhere, searchOrder, searchArgs := search.BuildSearchClause(f.Search, searchColumns, argIdx)
	if searchWhere != "" {
		whereParts = append(whereParts, searchWhere)
		args = append(args, searchArgs...)
		argIdx += len(searchArgs)
	}

	whereClause := ""
	if len(whereParts) > 0 {
		whereClause = "WHERE " + strings.Join(whereParts, " AND ")
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM content_entries "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting entries: %w", err)
	}

	var orderParts []string
	if searchOrder != "" {
		orderParts = append(orderParts, searchOrder)
	}
	orderParts = append(orderParts, "created_at DESC", "id")

	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}

	dataSQL := fmt.Sprintf("SELECT %s FROM content_entries %s ORDER BY %s LIMIT $%d OFFSET $%d",
		entryColumns,
		whereClause,
		strings.Join(orderParts, ", "),
		argIdx,
		argIdx+1,
	)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := q.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, total, nil
}

func encodeFields(fields map[string]dynval.Value) ([]byte, error) {
	if fields == nil {
		fields = map[string]dynval.Value{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	return b, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e      Entry
		fields []byte
		status string
	)
	if err := row.Scan(&e.ID, &e.ContentModelID, &e.Title, &fields, &status, &e.PublishedAt,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Entry{}, err
	}
	decoded, err := dynval.DecodeFields(fields)
	if err != nil {
		return Entry{}, fmt.Errorf("decoding fields of entry %s: %w", e.ID, err)
	}
	e.Fields = decoded
	e.Status = Status(status)
	return e, nil
}

// nullableUUID maps an empty id to SQL NULL.
func nullableUUID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
