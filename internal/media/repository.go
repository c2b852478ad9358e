package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/GyroZepelix/mithril-admin/internal/database"
)

// ErrNotFound is returned when a media record does not exist.
var ErrNotFound = errors.New("media not found")

const recordColumns = `id, filename, url, mime_type, size, COALESCE(uploaded_by::text, ''), created_at`

// Record is the metadata stored for an uploaded object.
type Record struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mimeType"`
	Size       int64     `json:"size"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Store persists media records.
type Store interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, page, perPage int) ([]Record, int, error)
	Delete(ctx context.Context, id string) error
	GetMany(ctx context.Context, ids []string) ([]Record, error)
}

// Repository stores media records in the media_files table.
type Repository struct {
	db *database.DB
}

// NewRepository creates a new media Repository. A nil db makes every call
// fail with database.ErrNotConfigured.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts rec. The caller assigns the record id.
func (r *Repository) Create(ctx context.Context, rec Record) (Record, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Record{}, err
	}
	row := q.QueryRow(ctx,
		`INSERT INTO media_files (id, filename, url, mime_type, size, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+recordColumns,
		rec.ID, rec.Filename, rec.URL, rec.MimeType, rec.Size, nullableUUID(rec.UploadedBy),
	)
	created, err := scanRecord(row)
	if err != nil {
		return Record{}, fmt.Errorf("inserting media record: %w", err)
	}
	return created, nil
}

// Get returns the record with the given id.
func (r *Repository) Get(ctx context.Context, id string) (Record, error) {
	q, err := r.db.Querier()
	if err != nil {
		return Record{}, err
	}
	rec, err := scanRecord(q.QueryRow(ctx, `SELECT `+recordColumns+` FROM media_files WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("querying media record: %w", err)
	}
	return rec, nil
}

// List returns a page of records, newest first, with the total count.
func (r *Repository) List(ctx context.Context, page, perPage int) ([]Record, int, error) {
	q, err := r.db.Querier()
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM media_files`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting media: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+recordColumns+` FROM media_files ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing media: %w", err)
	}
	recs, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// Delete removes the record with the given id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	q, err := r.db.Querier()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM media_files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting media record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMany returns the records among ids in a single query. Unknown ids are
// absent from the result.
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, err := r.db.Querier()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT `+recordColumns+` FROM media_files WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("querying media records: %w", err)
	}
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning media record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating media records: %w", err)
	}
	return recs, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.Filename, &rec.URL, &rec.MimeType, &rec.Size, &rec.UploadedBy, &rec.CreatedAt)
	return rec, err
}

// nullableUUID maps an empty id to SQL NULL.
func nullableUUID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
