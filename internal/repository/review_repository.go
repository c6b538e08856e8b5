package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/title-review-service/internal/model"
)

// ErrReviewExists is returned when an author already has a review for
// the title. The (author_id, title_id) UNIQUE KEY makes this hold under
// concurrent creation attempts: exactly one insert wins.
var ErrReviewExists = errors.New("author already reviewed this title")

// ReviewRepo provides persistence for reviews. Author identity is only
// ever exposed as a username, joined in from the users table.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

const reviewSelect = `SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.created_at
	FROM reviews r
	JOIN users u ON u.id = r.author_id`

func scanReview(row *sql.Row) (model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.TitleID, &rv.AuthorID, &rv.AuthorUsername,
		&rv.Text, &rv.Score, &rv.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Review{}, ErrNotFound
	}
	return rv, err
}

// Create inserts a review and reads it back with the author username
// and creation timestamp filled in.
func (r *ReviewRepo) Create(ctx context.Context, titleID, authorID uint64, text string, score int) (model.Review, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (title_id, author_id, text, score) VALUES (?,?,?,?)",
		titleID, authorID, text, score)
	if err != nil {
		if isDuplicate(err) {
			return model.Review{}, ErrReviewExists
		}
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	return scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE r.id=?", uint64(id)))
}

// GetByID fetches a review scoped under its title; a review id that
// exists under a different title is NotFound here.
func (r *ReviewRepo) GetByID(ctx context.Context, titleID, reviewID uint64) (model.Review, error) {
	return scanReview(r.db.QueryRowContext(ctx,
		reviewSelect+" WHERE r.id=? AND r.title_id=?", reviewID, titleID))
}

// ListByTitle returns a title's reviews newest first.
func (r *ReviewRepo) ListByTitle(ctx context.Context, titleID uint64, limit, offset int) ([]model.Review, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reviews WHERE title_id=?", titleID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		reviewSelect+" WHERE r.title_id=? ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?",
		titleID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Review, 0, limit)
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.TitleID, &rv.AuthorID, &rv.AuthorUsername,
			&rv.Text, &rv.Score, &rv.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, rv)
	}
	return out, total, rows.Err()
}

// Update rewrites text and/or score of a review and returns the fresh row.
func (r *ReviewRepo) Update(ctx context.Context, reviewID uint64, text *string, score *int) (model.Review, error) {
	if text != nil {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE reviews SET text=? WHERE id=?", *text, reviewID); err != nil {
			return model.Review{}, err
		}
	}
	if score != nil {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE reviews SET score=? WHERE id=?", *score, reviewID); err != nil {
			return model.Review{}, err
		}
	}
	return scanReview(r.db.QueryRowContext(ctx, reviewSelect+" WHERE r.id=?", reviewID))
}

// Delete removes a review; its comments cascade away.
func (r *ReviewRepo) Delete(ctx context.Context, reviewID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reviews WHERE id=?", reviewID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
