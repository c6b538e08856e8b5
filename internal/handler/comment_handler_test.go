package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/title-review-service/internal/repository"
)

func TestCommentCreateAnonymous(t *testing.T) {
	h := NewCommentHandler(nil, nil, nil)
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/2/reviews/14/comments",
		`{"text":"agreed"}`)

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestCommentCreateUnderForeignReview(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Review 14 does not exist under title 99.
	mock.ExpectQuery("SELECT (.+) FROM reviews r").
		WithArgs(uint64(14), uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := NewCommentHandler(nil, repository.NewReviewRepo(db), nil)
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/99/reviews/14/comments",
		`{"text":"agreed"}`)
	c.SetParamNames("id", "review_id")
	c.SetParamValues("99", "14")
	asIdentity(c, reader())

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM reviews r").
		WithArgs(uint64(14), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title_id", "author_id", "username", "text", "score", "created_at"}).
			AddRow(14, 2, 9, "reader", "first take", 8, time.Now().UTC()))
	mock.ExpectExec("INSERT INTO comments").
		WithArgs(uint64(14), uint64(4), "agreed").
		WillReturnResult(sqlmock.NewResult(33, 1))
	mock.ExpectQuery("SELECT (.+) FROM comments c").
		WithArgs(uint64(33)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "review_id", "author_id", "username", "text", "created_at"}).
			AddRow(33, 14, 4, "mod", "agreed", time.Now().UTC()))

	h := NewCommentHandler(nil, repository.NewReviewRepo(db), repository.NewCommentRepo(db))
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/2/reviews/14/comments",
		`{"text":"agreed"}`)
	c.SetParamNames("id", "review_id")
	c.SetParamValues("2", "14")
	asIdentity(c, moderator())

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusCreated)
	assert.Contains(t, rec.Body.String(), `"author":"mod"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
