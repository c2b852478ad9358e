package contenttypes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GyroZepelix/mithril-admin/internal/database"
	"github.com/GyroZepelix/mithril-admin/internal/schema"
)

const modelColumns = `id, name, api_identifier, description, icon, fields,
	COALESCE(created_by::text, ''), created_at, updated_at`

// Repository stores content models in the content_models table. Field
// definitions are kept as a jsonb document.
type Repository struct {
	db *database.DB
}

// NewRepository creates a Repository backed by db. A nil or unconfigured db
// makes every call fail with database.ErrNotConfigured.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts m. The caller assigns the model id.
func (r *Repository) Create(ctx context.Context, m schema.ContentModel) (schema.ContentModel, error) {
	q, err := r.db.Querier()
	if err != nil {
		return schema.ContentModel{}, err
	}
	fields, err := json.Marshal(m.Fields)
	if err != nil {
		return schema.ContentModel{}, fmt.Errorf("encoding fields: %w", err)
	}

	row := q.QueryRow(ctx,
		`INSERT INTO content_models (id, name, api_identifier, description, icon, fields, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+modelColumns,
		m.ID, m.Name, m.APIIdentifier, m.Description, m.Icon, fields, nullableUUID(m.CreatedBy),
	)
	created, err := scanModel(row)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return schema.ContentModel{}, ErrConflict
		}
		return schema.ContentModel{}, fmt.Errorf("creating content model: %w", err)
	}
	return created, nil
}

// Update replaces the mutable columns of the model with m.ID.
func (r *Repository) Update(ctx context.Context, m schema.ContentModel) (schema.ContentModel, error) {
	q, err := r.db.Querier()
	if err != nil {
		return schema.ContentModel{}, err
	}
	fields, err := json.Marshal(m.Fields)
	if err != nil {
		return schema.ContentModel{}, fmt.Errorf("encoding fields: %w", err)
	}

	row := q.QueryRow(ctx,
		`UPDATE content_models
		 SET name = $2, api_identifier = $3, description = $4, icon = $5, fields = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+modelColumns,
		m.ID, m.Name, m.APIIdentifier, m.Description, m.Icon, fields,
	)
	updated, err := scanModel(row)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return schema.ContentModel{}, ErrNotFound
		case database.IsUniqueViolation(err):
			return schema.ContentModel{}, ErrConflict
		}
		return schema.ContentModel{}, fmt.Errorf("updating content model: %w", err)
	}
	return updated, nil
}

// Delete removes the model. Its entries are left in place.
func (r *Repository) Delete(ctx context.Context, id string) error {
	q, err := r.db.Querier()
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM content_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting content model: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all models, newest first.
func (r *Repository) List(ctx context.Context) ([]schema.ContentModel, error) {
	q, err := r.db.Querier()
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT `+modelColumns+` FROM content_models ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing content models: %w", err)
	}
	defer rows.Close()

	var models []schema.ContentModel
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning content model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content models: %w", err)
	}
	return models, nil
}

// GetByID returns the model with the given id.
func (r *Repository) GetByID(ctx context.Context, id string) (schema.ContentModel, error) {
	return r.getOne(ctx, `SELECT `+modelColumns+` FROM content_models WHERE id = $1`, id)
}

// GetByAPIIdentifier returns the model whose api_identifier equals
// apiIdentifier exactly.
func (r *Repository) GetByAPIIdentifier(ctx context.Context, apiIdentifier string) (schema.ContentModel, error) {
	return r.getOne(ctx, `SELECT `+modelColumns+` FROM content_models WHERE api_identifier = $1`, apiIdentifier)
}

func (r *Repository) getOne(ctx context.Context, sql string, arg string) (schema.ContentModel, error) {
	q, err := r.db.Querier()
	if err != nil {
		return schema.ContentModel{}, err
	}
	m, err := scanModel(q.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schema.ContentModel{}, ErrNotFound
		}
		return schema.ContentModel{}, fmt.Errorf("querying content model: %w", err)
	}
	return m, nil
}

func scanModel(row pgx.Row) (schema.ContentModel, error) {
	var (
		m      schema.ContentModel
		fields []byte
	)
	if err := row.Scan(&m.ID, &m.Name, &m.APIIdentifier, &m.Description, &m.Icon, &fields,
		&m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return schema.ContentModel{}, err
	}
	if err := json.Unmarshal(fields, &m.Fields); err != nil {
		return schema.ContentModel{}, fmt.Errorf("decoding fields of model %s: %w", m.ID, err)
	}
	return m, nil
}

// nullableUUID maps an empty id to SQL NULL.
func nullableUUID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
