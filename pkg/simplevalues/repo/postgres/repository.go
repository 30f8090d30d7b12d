package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-values/pkg/simplevalues"
	"github.com/tendant/simple-values/pkg/simplevalues/snapshot"
)

var (
	_ simplevalues.Repository = (*Repository)(nil)
	_ snapshot.EntitySource   = (*Repository)(nil)
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements the content, content type and entity sources using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate creates the tables if they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return r.handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: referenced content item does not exist", simplevalues.ErrContentNotFound)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Content operations

func (r *Repository) GetContentItem(ctx context.Context, id uuid.UUID) (*simplevalues.ContentItem, error) {
	query := `SELECT id, content_type_alias, revision FROM content_item WHERE id = $1`

	var item simplevalues.ContentItem
	err := r.db.QueryRow(ctx, query, id).Scan(&item.ID, &item.ContentTypeAlias, &item.Revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simplevalues.ErrContentNotFound
		}
		return nil, r.handlePostgresError("get content item", err)
	}

	return &item, nil
}

func (r *Repository) GetRawValue(ctx context.Context, contentID uuid.UUID, propertyAlias string) (any, bool, error) {
	query := `SELECT value FROM property_value WHERE content_id = $1 AND property_alias = $2`

	var value *string
	err := r.db.QueryRow(ctx, query, contentID, propertyAlias).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, r.handlePostgresError("get raw value", err)
	}

	if value == nil {
		return nil, true, nil
	}
	return *value, true, nil
}

// PutContentItem inserts a content item or updates its content type
func (r *Repository) PutContentItem(ctx context.Context, item *simplevalues.ContentItem) error {
	query := `
		INSERT INTO content_item (id, content_type_alias, revision)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			content_type_alias = EXCLUDED.content_type_alias`

	if _, err := r.db.Exec(ctx, query, item.ID, item.ContentTypeAlias, item.Revision); err != nil {
		return r.handlePostgresError("put content item", err)
	}
	return nil
}

// SetRawValue stores the raw value of a property and bumps the item revision
func (r *Repository) SetRawValue(ctx context.Context, contentID uuid.UUID, propertyAlias string, value *string) error {
	query := `
		INSERT INTO property_value (content_id, property_alias, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (content_id, property_alias) DO UPDATE SET value = EXCLUDED.value`

	if _, err := r.db.Exec(ctx, query, contentID, propertyAlias, value); err != nil {
		return r.handlePostgresError("set raw value", err)
	}

	if _, err := r.db.Exec(ctx, `UPDATE content_item SET revision = revision + 1 WHERE id = $1`, contentID); err != nil {
		return r.handlePostgresError("bump revision", err)
	}
	return nil
}

// Content type operations

// PutPropertyDescriptor inserts or replaces a property descriptor
func (r *Repository) PutPropertyDescriptor(ctx context.Context, d *simplevalues.PropertyDescriptor, sortOrder int) error {
	query := `
		INSERT INTO property_type (content_type_alias, alias, editor_alias, configuration, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (content_type_alias, alias) DO UPDATE SET
			editor_alias = EXCLUDED.editor_alias,
			configuration = EXCLUDED.configuration,
			sort_order = EXCLUDED.sort_order`

	var configuration []byte
	if len(d.Configuration) > 0 {
		configuration = d.Configuration
	}
	if _, err := r.db.Exec(ctx, query, d.ContentTypeAlias, d.Alias, d.EditorAlias, configuration, sortOrder); err != nil {
		return r.handlePostgresError("put property descriptor", err)
	}
	return nil
}

func (r *Repository) GetPropertyDescriptor(ctx context.Context, contentTypeAlias, propertyAlias string) (*simplevalues.PropertyDescriptor, error) {
	query := `
		SELECT content_type_alias, alias, editor_alias, configuration
		FROM property_type WHERE content_type_alias = $1 AND alias = $2`

	d, err := scanDescriptor(r.db.QueryRow(ctx, query, contentTypeAlias, propertyAlias))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s.%s", simplevalues.ErrPropertyNotFound, contentTypeAlias, propertyAlias)
		}
		return nil, r.handlePostgresError("get property descriptor", err)
	}
	return d, nil
}

func (r *Repository) ListPropertyDescriptors(ctx context.Context, contentTypeAlias string) ([]*simplevalues.PropertyDescriptor, error) {
	query := `
		SELECT content_type_alias, alias, editor_alias, configuration
		FROM property_type WHERE content_type_alias = $1
		ORDER BY sort_order, alias`

	rows, err := r.db.Query(ctx, query, contentTypeAlias)
	if err != nil {
		return nil, r.handlePostgresError("list property descriptors", err)
	}
	defer rows.Close()

	var descriptors []*simplevalues.PropertyDescriptor
	for rows.Next() {
		d, err := scanDescriptor(rows)
		if err != nil {
			return nil, r.handlePostgresError("list property descriptors", err)
		}
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list property descriptors", err)
	}

	if len(descriptors) == 0 {
		return nil, fmt.Errorf("%w: %s", simplevalues.ErrContentTypeNotFound, contentTypeAlias)
	}
	return descriptors, nil
}

func (r *Repository) ListContentTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT content_type_alias FROM property_type ORDER BY content_type_alias`)
	if err != nil {
		return nil, r.handlePostgresError("list content types", err)
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, r.handlePostgresError("list content types", err)
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}

func scanDescriptor(row pgx.Row) (*simplevalues.PropertyDescriptor, error) {
	var typeAlias, alias, editorAlias string
	var configuration []byte
	if err := row.Scan(&typeAlias, &alias, &editorAlias, &configuration); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if len(configuration) > 0 {
		raw = json.RawMessage(configuration)
	}
	return simplevalues.NewPropertyDescriptor(typeAlias, alias, editorAlias, raw), nil
}

// Entity operations

// SaveDraft stores the draft version of a media entity
func (r *Repository) SaveDraft(ctx context.Context, e *simplevalues.Entity) error {
	return r.putEntity(ctx, e, false)
}

// Publish stores the published version of a media entity and drops its draft
func (r *Repository) Publish(ctx context.Context, e *simplevalues.Entity) error {
	if err := r.putEntity(ctx, e, true); err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM media_entity WHERE key = $1 AND NOT published`, e.Key); err != nil {
		return r.handlePostgresError("publish entity", err)
	}
	return nil
}

func (r *Repository) putEntity(ctx context.Context, e *simplevalues.Entity, published bool) error {
	query := `
		INSERT INTO media_entity (key, published, content_type_alias, name, file_path, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key, published) DO UPDATE SET
			content_type_alias = EXCLUDED.content_type_alias,
			name = EXCLUDED.name,
			file_path = EXCLUDED.file_path,
			updated_at = EXCLUDED.updated_at`

	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	if _, err := r.db.Exec(ctx, query, e.Key, published, e.ContentTypeAlias, e.Name, e.FilePath, updatedAt); err != nil {
		return r.handlePostgresError("put entity", err)
	}
	return nil
}

// GetEntity returns the published entity, or for preview reads the draft
// when one exists.
func (r *Repository) GetEntity(ctx context.Context, key uuid.UUID, preview bool) (*simplevalues.Entity, error) {
	query := `
		SELECT key, published, content_type_alias, name, file_path, updated_at
		FROM media_entity
		WHERE key = $1 AND (published OR $2)
		ORDER BY published ASC
		LIMIT 1`

	var e simplevalues.Entity
	err := r.db.QueryRow(ctx, query, key, preview).Scan(
		&e.Key, &e.Published, &e.ContentTypeAlias, &e.Name, &e.FilePath, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", simplevalues.ErrEntityNotFound, key)
		}
		return nil, r.handlePostgresError("get entity", err)
	}
	return &e, nil
}
