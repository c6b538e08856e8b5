package handler

import (
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/policy"
	"github.com/iliyamo/title-review-service/internal/repository"
)

func reader() policy.Identity {
	return policy.Identity{ID: 9, Username: "reader", Role: model.RoleUser, Authenticated: true}
}

func moderator() policy.Identity {
	return policy.Identity{ID: 4, Username: "mod", Role: model.RoleModerator, Authenticated: true}
}

func errDuplicateReview() error {
	return errors.New("Error 1062 (23000): Duplicate entry '9-2' for key 'reviews.uq_reviews_author_title'")
}

func TestReviewCreateAnonymous(t *testing.T) {
	h := NewReviewHandler(nil, nil)
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/2/reviews",
		`{"text":"great","score":8}`)

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestReviewCreateScoreOutOfRange(t *testing.T) {
	h := NewReviewHandler(nil, nil)
	for _, score := range []int{0, 11, -3} {
		c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/2/reviews",
			`{"text":"great","score":`+strconv.Itoa(score)+`}`)
		asIdentity(c, reader())

		require.NoError(t, h.Create(c))
		requireStatus(t, rec, http.StatusBadRequest)
	}
}

func TestReviewCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Title existence check, then the insert and read-back.
	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs(uint64(2)).
		WillReturnRows(titleRow(2, "Heat", 1995))
	mock.ExpectQuery("SELECT tg.title_id").
		WithArgs(uint64(2)).
		WillReturnRows(noGenres())
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(uint64(2), uint64(9), "great watch", 8).
		WillReturnResult(sqlmock.NewResult(14, 1))
	mock.ExpectQuery("SELECT (.+) FROM reviews r").
		WithArgs(uint64(14)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title_id", "author_id", "username", "text", "score", "created_at"}).
			AddRow(14, 2, 9, "reader", "great watch", 8, time.Now().UTC()))

	h := NewReviewHandler(repository.NewTitleRepo(db), repository.NewReviewRepo(db))
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/2/reviews",
		`{"text":"great watch","score":8}`)
	c.SetParamNames("id")
	c.SetParamValues("2")
	asIdentity(c, reader())

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusCreated)
	assert.Contains(t, rec.Body.String(), `"author":"reader"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs(uint64(2)).
		WillReturnRows(titleRow(2, "Heat", 1995))
	mock.ExpectQuery("SELECT tg.title_id").
		WithArgs(uint64(2)).
		WillReturnRows(noGenres())
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnError(errDuplicateReview())

	h := NewReviewHandler(repository.NewTitleRepo(db), repository.NewReviewRepo(db))
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/2/reviews",
		`{"text":"again","score":5}`)
	c.SetParamNames("id")
	c.SetParamValues("2")
	asIdentity(c, reader())

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "already reviewed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCreateMissingTitle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := NewReviewHandler(repository.NewTitleRepo(db), repository.NewReviewRepo(db))
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/titles/99/reviews",
		`{"text":"great","score":8}`)
	c.SetParamNames("id")
	c.SetParamValues("99")
	asIdentity(c, reader())

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// expectReviewScoped queues the queries loadScoped issues: title check
// plus the scoped review fetch.
func expectReviewScoped(mock sqlmock.Sqlmock, titleID, reviewID, authorID uint64, author string) {
	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs(titleID).
		WillReturnRows(titleRow(titleID, "Heat", 1995))
	mock.ExpectQuery("SELECT tg.title_id").
		WithArgs(titleID).
		WillReturnRows(noGenres())
	mock.ExpectQuery("SELECT (.+) FROM reviews r").
		WithArgs(reviewID, titleID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title_id", "author_id", "username", "text", "score", "created_at"}).
			AddRow(reviewID, titleID, authorID, author, "first take", 8, time.Now().UTC()))
}

func TestReviewPatchByStrangerForbidden(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReviewScoped(mock, 2, 14, 9, "reader")

	h := NewReviewHandler(repository.NewTitleRepo(db), repository.NewReviewRepo(db))
	c, rec := newTestCtx(t, http.MethodPatch, "/api/v1/titles/2/reviews/14",
		`{"text":"hijacked"}`)
	c.SetParamNames("id", "review_id")
	c.SetParamValues("2", "14")
	asIdentity(c, policy.Identity{ID: 33, Username: "other", Role: model.RoleUser, Authenticated: true})

	require.NoError(t, h.Patch(c))
	requireStatus(t, rec, http.StatusForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDeleteByModerator(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReviewScoped(mock, 2, 14, 9, "reader")
	mock.ExpectExec("DELETE FROM reviews WHERE id=").
		WithArgs(uint64(14)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewReviewHandler(repository.NewTitleRepo(db), repository.NewReviewRepo(db))
	c, rec := newTestCtx(t, http.MethodDelete, "/api/v1/titles/2/reviews/14", "")
	c.SetParamNames("id", "review_id")
	c.SetParamValues("2", "14")
	asIdentity(c, moderator())

	require.NoError(t, h.Delete(c))
	requireStatus(t, rec, http.StatusNoContent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDeleteAnonymous(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReviewScoped(mock, 2, 14, 9, "reader")

	h := NewReviewHandler(repository.NewTitleRepo(db), repository.NewReviewRepo(db))
	c, rec := newTestCtx(t, http.MethodDelete, "/api/v1/titles/2/reviews/14", "")
	c.SetParamNames("id", "review_id")
	c.SetParamValues("2", "14")

	require.NoError(t, h.Delete(c))
	requireStatus(t, rec, http.StatusUnauthorized)
	assert.NoError(t, mock.ExpectationsWereMet())
}
