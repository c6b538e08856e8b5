package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/title-review-service/internal/model"
)

// ErrSlugTaken is returned when a category or genre slug is already in
// use. Slugs are unique per table, enforced by a UNIQUE KEY.
var ErrSlugTaken = errors.New("slug already in use")

// Categories and genres share one shape: a named row addressed by a
// unique slug, listed in name order. nameSlugStore implements that
// shape once against a table; CategoryRepo and GenreRepo wrap it with
// their concrete model types.
type nameSlugStore struct {
	db    *sql.DB
	table string
}

type slugRow struct {
	ID   uint64
	Name string
	Slug string
}

func (s *nameSlugStore) insert(ctx context.Context, name, slug string) (uint64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO "+s.table+" (name, slug) VALUES (?,?)", name, slug)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrSlugTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (s *nameSlugStore) bySlug(ctx context.Context, slug string) (slugRow, error) {
	var row slugRow
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, slug FROM "+s.table+" WHERE slug=? LIMIT 1", slug).
		Scan(&row.ID, &row.Name, &row.Slug)
	if err == sql.ErrNoRows {
		return slugRow{}, ErrNotFound
	}
	return row, err
}

func (s *nameSlugStore) deleteBySlug(ctx context.Context, slug string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+s.table+" WHERE slug=?", slug)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// list returns rows in name order, optionally filtered by a
// case-insensitive name prefix, plus the unpaged total.
func (s *nameSlugStore) list(ctx context.Context, search string, limit, offset int) ([]slugRow, int64, error) {
	cond := "1=1"
	args := []any{}
	if search != "" {
		cond = "LOWER(name) LIKE ?"
		args = append(args, strings.ToLower(search)+"%")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+s.table+" WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, slug FROM "+s.table+" WHERE "+cond+" ORDER BY name LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]slugRow, 0, limit)
	for rows.Next() {
		var row slugRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Slug); err != nil {
			return nil, 0, err
		}
		out = append(out, row)
	}
	return out, total, rows.Err()
}

// CategoryRepo provides persistence for categories.
type CategoryRepo struct{ store nameSlugStore }

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{store: nameSlugStore{db: db, table: "categories"}}
}

func (r *CategoryRepo) Create(ctx context.Context, name, slug string) (model.Category, error) {
	id, err := r.store.insert(ctx, name, slug)
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{ID: id, Name: name, Slug: slug}, nil
}

func (r *CategoryRepo) GetBySlug(ctx context.Context, slug string) (model.Category, error) {
	row, err := r.store.bySlug(ctx, slug)
	if err != nil {
		return model.Category{}, err
	}
	return model.Category(row), nil
}

// Delete removes a category. Titles that referenced it keep existing
// with a null category (ON DELETE SET NULL).
func (r *CategoryRepo) Delete(ctx context.Context, slug string) error {
	return r.store.deleteBySlug(ctx, slug)
}

func (r *CategoryRepo) List(ctx context.Context, search string, limit, offset int) ([]model.Category, int64, error) {
	rows, total, err := r.store.list(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.Category, len(rows))
	for i, row := range rows {
		out[i] = model.Category(row)
	}
	return out, total, nil
}

// GenreRepo provides persistence for genres.
type GenreRepo struct{ store nameSlugStore }

func NewGenreRepo(db *sql.DB) *GenreRepo {
	return &GenreRepo{store: nameSlugStore{db: db, table: "genres"}}
}

func (r *GenreRepo) Create(ctx context.Context, name, slug string) (model.Genre, error) {
	id, err := r.store.insert(ctx, name, slug)
	if err != nil {
		return model.Genre{}, err
	}
	return model.Genre{ID: id, Name: name, Slug: slug}, nil
}

func (r *GenreRepo) GetBySlug(ctx context.Context, slug string) (model.Genre, error) {
	row, err := r.store.bySlug(ctx, slug)
	if err != nil {
		return model.Genre{}, err
	}
	return model.Genre(row), nil
}

// Delete removes a genre. The join rows to titles cascade away, which
// drops the genre from every title's set.
func (r *GenreRepo) Delete(ctx context.Context, slug string) error {
	return r.store.deleteBySlug(ctx, slug)
}

func (r *GenreRepo) List(ctx context.Context, search string, limit, offset int) ([]model.Genre, int64, error) {
	rows, total, err := r.store.list(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.Genre, len(rows))
	for i, row := range rows {
		out[i] = model.Genre(row)
	}
	return out, total, nil
}
