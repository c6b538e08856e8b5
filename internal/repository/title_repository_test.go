package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titleColumns() []string {
	return []string{"id", "name", "year", "description", "c_id", "c_name", "c_slug", "rating"}
}

func TestTitleRepoCreateResolvesSlugs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM categories WHERE slug=").
		WithArgs("movie").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("SELECT id FROM genres WHERE slug=").
		WithArgs("drama").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectExec("INSERT INTO titles").
		WithArgs("Heat", 1995, "bank heist", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("INSERT INTO title_genres").
		WithArgs(uint64(2), uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Read-after-write: the full representation comes back.
	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(titleColumns()).
			AddRow(2, "Heat", 1995, "bank heist", 1, "Movies", "movie", nil))
	mock.ExpectQuery("SELECT tg.title_id").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"title_id", "id", "name", "slug"}).
			AddRow(2, 4, "Drama", "drama"))

	repo := NewTitleRepo(db)
	title, err := repo.Create(context.Background(), TitleWrite{
		Name:         "Heat",
		Year:         1995,
		Description:  "bank heist",
		CategorySlug: "movie",
		GenreSlugs:   []string{"drama"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), title.ID)
	require.NotNil(t, title.Category)
	assert.Equal(t, "movie", title.Category.Slug)
	require.Len(t, title.Genres, 1)
	assert.Equal(t, "drama", title.Genres[0].Slug)
	assert.Nil(t, title.Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepoCreateUnknownCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM categories WHERE slug=").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	repo := NewTitleRepo(db)
	_, err = repo.Create(context.Background(), TitleWrite{Name: "Heat", Year: 1995, CategorySlug: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepoGetByIDWithRating(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(titleColumns()).
			AddRow(2, "Heat", 1995, "", nil, nil, nil, 7.5))
	mock.ExpectQuery("SELECT tg.title_id").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"title_id", "id", "name", "slug"}))

	repo := NewTitleRepo(db)
	title, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, title.Category)
	require.NotNil(t, title.Rating)
	assert.InDelta(t, 7.5, *title.Rating, 0.001)
	assert.Empty(t, title.Genres)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepoUpdateDetachCategory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM titles WHERE id=").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("UPDATE titles SET category_id=NULL").
		WithArgs(uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows(titleColumns()).
			AddRow(2, "Heat", 1995, "", nil, nil, nil, nil))
	mock.ExpectQuery("SELECT tg.title_id").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"title_id", "id", "name", "slug"}))

	repo := NewTitleRepo(db)
	empty := ""
	title, err := repo.Update(context.Background(), 2, TitlePatch{CategorySlug: &empty})
	require.NoError(t, err)
	assert.Nil(t, title.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepoUpdateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT 1 FROM titles WHERE id=").
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))
	mock.ExpectRollback()

	repo := NewTitleRepo(db)
	name := "Renamed"
	_, err = repo.Update(context.Background(), 99, TitlePatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTitleRepoSearchByGenreAndYear(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	year := 1995
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("drama", "crime", year).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT(.+)FROM titles t").
		WithArgs("drama", "crime", year, 10, 0).
		WillReturnRows(sqlmock.NewRows(titleColumns()).
			AddRow(2, "Heat", 1995, "", 1, "Movies", "movie", 8.0))
	mock.ExpectQuery("SELECT tg.title_id").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"title_id", "id", "name", "slug"}).
			AddRow(2, 4, "Drama", "drama").
			AddRow(2, 5, "Crime", "crime"))

	repo := NewTitleRepo(db)
	titles, total, err := repo.Search(context.Background(),
		TitleFilter{GenreSlugs: []string{"drama", "crime"}, Year: &year}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, titles, 1)
	assert.Len(t, titles[0].Genres, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
