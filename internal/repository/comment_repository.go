package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/title-review-service/internal/model"
)

// CommentRepo provides persistence for comments under reviews.
type CommentRepo struct{ db *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{db: db} }

const commentSelect = `SELECT c.id, c.review_id, c.author_id, u.username, c.text, c.created_at
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanComment(row *sql.Row) (model.Comment, error) {
	var cm model.Comment
	err := row.Scan(&cm.ID, &cm.ReviewID, &cm.AuthorID, &cm.AuthorUsername, &cm.Text, &cm.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Comment{}, ErrNotFound
	}
	return cm, err
}

// Create inserts a comment and reads it back with the author username
// and timestamp filled in. The caller verifies the review exists under
// the addressed title first.
func (r *CommentRepo) Create(ctx context.Context, reviewID, authorID uint64, text string) (model.Comment, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (review_id, author_id, text) VALUES (?,?,?)",
		reviewID, authorID, text)
	if err != nil {
		return model.Comment{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Comment{}, err
	}
	return scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id=?", uint64(id)))
}

// GetByID fetches a comment scoped under its review.
func (r *CommentRepo) GetByID(ctx context.Context, reviewID, commentID uint64) (model.Comment, error) {
	return scanComment(r.db.QueryRowContext(ctx,
		commentSelect+" WHERE c.id=? AND c.review_id=?", commentID, reviewID))
}

// ListByReview returns a review's comments newest first.
func (r *CommentRepo) ListByReview(ctx context.Context, reviewID uint64, limit, offset int) ([]model.Comment, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comments WHERE review_id=?", reviewID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		commentSelect+" WHERE c.review_id=? ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?",
		reviewID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Comment, 0, limit)
	for rows.Next() {
		var cm model.Comment
		if err := rows.Scan(&cm.ID, &cm.ReviewID, &cm.AuthorID, &cm.AuthorUsername,
			&cm.Text, &cm.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, cm)
	}
	return out, total, rows.Err()
}

// UpdateText rewrites a comment's text and returns the fresh row.
func (r *CommentRepo) UpdateText(ctx context.Context, commentID uint64, text string) (model.Comment, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE comments SET text=? WHERE id=?", text, commentID); err != nil {
		return model.Comment{}, err
	}
	return scanComment(r.db.QueryRowContext(ctx, commentSelect+" WHERE c.id=?", commentID))
}

// Delete removes a comment.
func (r *CommentRepo) Delete(ctx context.Context, commentID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id=?", commentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
