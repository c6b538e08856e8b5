package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/title-review-service/internal/model"
)

// TitleRepo provides persistence for titles, their category/genre links
// and the derived rating projection. The rating is always computed at
// read time from the reviews table, never stored.
type TitleRepo struct{ db *sql.DB }

func NewTitleRepo(db *sql.DB) *TitleRepo { return &TitleRepo{db: db} }

// TitleWrite carries the write representation of a title: category and
// genres arrive as slug references and are resolved at write time.
// Unresolved slugs fail the whole write with ErrNotFound before any row
// is touched.
type TitleWrite struct {
	Name         string
	Year         int
	Description  string
	CategorySlug string   // empty = no category
	GenreSlugs   []string // empty = no genres
}

// TitlePatch carries a partial update. Nil fields stay untouched; a
// non-nil empty CategorySlug detaches the category and a non-nil empty
// GenreSlugs slice clears the genre set.
type TitlePatch struct {
	Name         *string
	Year         *int
	Description  *string
	CategorySlug *string
	GenreSlugs   *[]string
}

// TitleFilter holds list filters. All present filters combine with AND;
// the genre slugs combine with OR among themselves.
type TitleFilter struct {
	CategorySlug string
	GenreSlugs   []string
	NamePrefix   string
	Year         *int
}

// resolveCategory maps a slug to its id inside tx.
func resolveCategory(ctx context.Context, tx *sql.Tx, slug string) (uint64, error) {
	var id uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM categories WHERE slug=?", slug).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("category %q: %w", slug, ErrNotFound)
	}
	return id, err
}

// resolveGenres maps slugs to ids inside tx, failing on the first
// unknown slug.
func resolveGenres(ctx context.Context, tx *sql.Tx, slugs []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(slugs))
	for _, slug := range slugs {
		var id uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM genres WHERE slug=?", slug).Scan(&id)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("genre %q: %w", slug, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func replaceGenres(ctx context.Context, tx *sql.Tx, titleID uint64, genreIDs []uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM title_genres WHERE title_id=?", titleID); err != nil {
		return err
	}
	for _, gid := range genreIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO title_genres (title_id, genre_id) VALUES (?,?)", titleID, gid); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a title with its category/genre references resolved by
// slug, then reads the full representation back so the response equals
// what a subsequent GET would return.
func (r *TitleRepo) Create(ctx context.Context, w TitleWrite) (model.Title, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Title{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var categoryID *uint64
	if w.CategorySlug != "" {
		id, err := resolveCategory(ctx, tx, w.CategorySlug)
		if err != nil {
			return model.Title{}, err
		}
		categoryID = &id
	}
	genreIDs, err := resolveGenres(ctx, tx, w.GenreSlugs)
	if err != nil {
		return model.Title{}, err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO titles (name, year, description, category_id) VALUES (?,?,?,?)",
		w.Name, w.Year, nullEmpty(w.Description), categoryID)
	if err != nil {
		return model.Title{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Title{}, err
	}
	for _, gid := range genreIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO title_genres (title_id, genre_id) VALUES (?,?)", uint64(id), gid); err != nil {
			return model.Title{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Title{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update applies a partial update and returns the fresh read
// representation.
func (r *TitleRepo) Update(ctx context.Context, id uint64, p TitlePatch) (model.Title, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Title{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, "SELECT 1 FROM titles WHERE id=?", id).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return model.Title{}, ErrNotFound
		}
		return model.Title{}, err
	}

	sets := []string{}
	args := []any{}
	if p.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *p.Name)
	}
	if p.Year != nil {
		sets = append(sets, "year=?")
		args = append(args, *p.Year)
	}
	if p.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, nullEmpty(*p.Description))
	}
	if p.CategorySlug != nil {
		if *p.CategorySlug == "" {
			sets = append(sets, "category_id=NULL")
		} else {
			cid, err := resolveCategory(ctx, tx, *p.CategorySlug)
			if err != nil {
				return model.Title{}, err
			}
			sets = append(sets, "category_id=?")
			args = append(args, cid)
		}
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx,
			"UPDATE titles SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
			return model.Title{}, err
		}
	}
	if p.GenreSlugs != nil {
		gids, err := resolveGenres(ctx, tx, *p.GenreSlugs)
		if err != nil {
			return model.Title{}, err
		}
		if err := replaceGenres(ctx, tx, id, gids); err != nil {
			return model.Title{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Title{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a title; reviews and their comments cascade away.
func (r *TitleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM titles WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const titleSelect = `SELECT
		t.id, t.name, t.year, COALESCE(t.description,''),
		c.id, c.name, c.slug,
		AVG(r.score)
	FROM titles t
	LEFT JOIN categories c ON c.id = t.category_id
	LEFT JOIN reviews r ON r.title_id = t.id`

// GetByID returns a title with its nested category, genres and the
// average review score (nil when the title has no reviews).
func (r *TitleRepo) GetByID(ctx context.Context, id uint64) (model.Title, error) {
	row := r.db.QueryRowContext(ctx, titleSelect+" WHERE t.id=? GROUP BY t.id, c.id", id)
	t, err := scanTitle(row)
	if err != nil {
		return model.Title{}, err
	}
	genres, err := r.genresFor(ctx, []uint64{t.ID})
	if err != nil {
		return model.Title{}, err
	}
	t.Genres = genres[t.ID]
	return t, nil
}

func scanTitle(row *sql.Row) (model.Title, error) {
	var (
		t       model.Title
		catID   sql.NullInt64
		catName sql.NullString
		catSlug sql.NullString
		rating  sql.NullFloat64
	)
	err := row.Scan(&t.ID, &t.Name, &t.Year, &t.Description, &catID, &catName, &catSlug, &rating)
	if err == sql.ErrNoRows {
		return model.Title{}, ErrNotFound
	}
	if err != nil {
		return model.Title{}, err
	}
	if catID.Valid {
		t.Category = &model.Category{ID: uint64(catID.Int64), Name: catName.String, Slug: catSlug.String}
	}
	if rating.Valid {
		v := rating.Float64
		t.Rating = &v
	}
	return t, nil
}

// genresFor batch-loads the genre sets for the given title ids, in name
// order, keyed by title id.
func (r *TitleRepo) genresFor(ctx context.Context, titleIDs []uint64) (map[uint64][]model.Genre, error) {
	out := make(map[uint64][]model.Genre, len(titleIDs))
	if len(titleIDs) == 0 {
		return out, nil
	}
	ph := make([]string, len(titleIDs))
	args := make([]any, len(titleIDs))
	for i, id := range titleIDs {
		ph[i] = "?"
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT tg.title_id, g.id, g.name, g.slug
		 FROM title_genres tg
		 JOIN genres g ON g.id = tg.genre_id
		 WHERE tg.title_id IN (`+strings.Join(ph, ",")+`)
		 ORDER BY g.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tid uint64
		var g model.Genre
		if err := rows.Scan(&tid, &g.ID, &g.Name, &g.Slug); err != nil {
			return nil, err
		}
		out[tid] = append(out[tid], g)
	}
	return out, rows.Err()
}

// Search lists titles matching the filter in name order. Filters are
// ANDed together; multiple genre slugs are OR within the genre filter.
// The name filter matches case-insensitively from the start of the name.
func (r *TitleRepo) Search(ctx context.Context, f TitleFilter, limit, offset int) ([]model.Title, int64, error) {
	where := []string{}
	args := []any{}

	if f.CategorySlug != "" {
		where = append(where, "c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if len(f.GenreSlugs) > 0 {
		ph := make([]string, len(f.GenreSlugs))
		for i, slug := range f.GenreSlugs {
			ph[i] = "?"
			args = append(args, slug)
		}
		where = append(where, `EXISTS (
			SELECT 1 FROM title_genres tg
			JOIN genres g ON g.id = tg.genre_id
			WHERE tg.title_id = t.id AND g.slug IN (`+strings.Join(ph, ",")+`))`)
	}
	if f.NamePrefix != "" {
		where = append(where, "LOWER(t.name) LIKE ?")
		args = append(args, strings.ToLower(f.NamePrefix)+"%")
	}
	if f.Year != nil {
		where = append(where, "t.year = ?")
		args = append(args, *f.Year)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM titles t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := titleSelect + `
		WHERE ` + cond + `
		GROUP BY t.id, c.id
		ORDER BY t.name, t.id
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Title, 0, limit)
	ids := make([]uint64, 0, limit)
	for rows.Next() {
		var (
			t       model.Title
			catID   sql.NullInt64
			catName sql.NullString
			catSlug sql.NullString
			rating  sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Year, &t.Description,
			&catID, &catName, &catSlug, &rating); err != nil {
			return nil, 0, err
		}
		if catID.Valid {
			t.Category = &model.Category{ID: uint64(catID.Int64), Name: catName.String, Slug: catSlug.String}
		}
		if rating.Valid {
			v := rating.Float64
			t.Rating = &v
		}
		out = append(out, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	genres, err := r.genresFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Genres = genres[out[i].ID]
	}
	return out, total, nil
}

// nullEmpty maps "" to NULL for optional text columns.
func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
