package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/title-review-service/internal/repository"
)

func TestCreateCategoryValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"slug":"movie"}`},
		{"missing slug", `{"name":"Movies"}`},
		{"slug with spaces", `{"name":"Movies","slug":"not a slug"}`},
		{"slug with slash", `{"name":"Movies","slug":"a/b"}`},
	}
	h := NewTaxonomyHandler(nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestCtx(t, http.MethodPost, "/api/v1/categories", tc.body)
			require.NoError(t, h.CreateCategory(c))
			requireStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestCreateGenreDuplicateSlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO genres").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'drama' for key 'genres.uq_genres_slug'"))

	h := NewTaxonomyHandler(nil, repository.NewGenreRepo(db))
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/genres",
		`{"name":"Drama","slug":"drama"}`)

	require.NoError(t, h.CreateGenre(c))
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "unique")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM categories WHERE slug=").
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := NewTaxonomyHandler(repository.NewCategoryRepo(db), nil)
	c, rec := newTestCtx(t, http.MethodDelete, "/api/v1/categories/nope", "")
	c.SetParamNames("slug")
	c.SetParamValues("nope")

	require.NoError(t, h.DeleteCategory(c))
	requireStatus(t, rec, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCategories(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM categories`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT id, name, slug FROM categories").
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).
			AddRow(2, "Books", "book").
			AddRow(1, "Movies", "movie"))

	h := NewTaxonomyHandler(repository.NewCategoryRepo(db), nil)
	c, rec := newTestCtx(t, http.MethodGet, "/api/v1/categories", "")

	require.NoError(t, h.ListCategories(c))
	requireStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	assert.Contains(t, body, `"total":2`)
	assert.Contains(t, body, `"slug":"book"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
