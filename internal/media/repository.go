package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const mediaColumns = `id, title, description, file_url, type, likes, created_at`

// Repository handles all media database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new record and returns it with its assigned id and defaults.
func (r *Repository) Create(ctx context.Context, in CreateInput) (*Media, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrValidation, in.Type)
	}

	m, err := scanMedia(r.db.QueryRow(ctx,
		`INSERT INTO media (title, description, file_url, type)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+mediaColumns,
		in.Title, in.Description, in.FileURL, string(in.Type),
	))
	if err != nil {
		return nil, fmt.Errorf("insert media: %w", err)
	}
	return m, nil
}

// List returns every record, newest first.
func (r *Repository) List(ctx context.Context) ([]Media, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+mediaColumns+` FROM media ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Media, error) {
		m, err := scanMedia(row)
		if err != nil {
			return Media{}, err
		}
		return *m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan media: %w", err)
	}
	return items, nil
}

// GetByID fetches a record by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Media, error) {
	m, err := scanMedia(r.db.QueryRow(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media by id: %w", err)
	}
	return m, nil
}

// Update applies the non-nil fields of in and returns the number of rows matched.
func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE media
		 SET title       = COALESCE($2, title),
		     description = COALESCE($3, description),
		     file_url    = COALESCE($4, file_url)
		 WHERE id = $1`,
		id, in.Title, in.Description, in.FileURL,
	)
	if err != nil {
		return 0, fmt.Errorf("update media: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes the record and returns the number of rows deleted.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete media: %w", err)
	}
	return tag.RowsAffected(), nil
}

// IncrementLikes adds one like in a single statement.
func (r *Repository) IncrementLikes(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE media SET likes = likes + 1 WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("increment likes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DecrementLikes removes one like only while the counter is positive.
// Zero rows means the record is missing or already at zero.
func (r *Repository) DecrementLikes(ctx context.Context, id int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE media SET likes = likes - 1 WHERE id = $1 AND likes > 0`, id)
	if err != nil {
		return 0, fmt.Errorf("decrement likes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMedia(row pgx.Row) (*Media, error) {
	m := &Media{}
	var typ string
	if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.FileURL, &typ, &m.Likes, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = Type(typ)
	return m, nil
}
