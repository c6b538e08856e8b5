package handler

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/repository"
)

func TestUpdateMeKeepsRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := model.User{ID: 9, Username: "reader", Email: "reader@example.com", Role: model.RoleUser}
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(9)).
		WillReturnRows(userRow(u))
	// The role written back is the caller's current one, not "admin".
	mock.ExpectExec("UPDATE users SET username=").
		WithArgs("reader", "reader@example.com", "", "", "new bio", model.RoleUser, false, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewUserHandler(repository.NewUserRepo(db))
	c, rec := newTestCtx(t, http.MethodPatch, "/api/v1/users/me",
		`{"bio":"new bio","role":"admin"}`)
	asIdentity(c, reader())

	require.NoError(t, h.UpdateMe(c))
	requireStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMeRejectsReservedUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	u := model.User{ID: 9, Username: "reader", Email: "reader@example.com", Role: model.RoleUser}
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WithArgs(uint64(9)).
		WillReturnRows(userRow(u))

	h := NewUserHandler(repository.NewUserRepo(db))
	c, rec := newTestCtx(t, http.MethodPatch, "/api/v1/users/me", `{"username":"me"}`)
	asIdentity(c, reader())

	require.NoError(t, h.UpdateMe(c))
	requireStatus(t, rec, http.StatusBadRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminCreateUserUnknownRole(t *testing.T) {
	h := NewUserHandler(nil)
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/users",
		`{"username":"boss","email":"boss@example.com","role":"owner"}`)

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "unknown role")
}

func TestAdminCreateUserWithRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("mod2", "mod2@example.com", "", "", "", model.RoleModerator, false, "").
		WillReturnResult(sqlmock.NewResult(11, 1))

	h := NewUserHandler(repository.NewUserRepo(db))
	c, rec := newTestCtx(t, http.MethodPost, "/api/v1/users",
		`{"username":"mod2","email":"mod2@example.com","role":"moderator"}`)

	require.NoError(t, h.Create(c))
	requireStatus(t, rec, http.StatusCreated)
	assert.Contains(t, rec.Body.String(), `"role":"moderator"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminGetUserMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username=").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h := NewUserHandler(repository.NewUserRepo(db))
	c, rec := newTestCtx(t, http.MethodGet, "/api/v1/users/ghost", "")
	c.SetParamNames("username")
	c.SetParamValues("ghost")

	require.NoError(t, h.Get(c))
	requireStatus(t, rec, http.StatusNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminDeleteUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM users WHERE username=").
		WithArgs("reader").
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewUserHandler(repository.NewUserRepo(db))
	c, rec := newTestCtx(t, http.MethodDelete, "/api/v1/users/reader", "")
	c.SetParamNames("username")
	c.SetParamValues("reader")

	require.NoError(t, h.Delete(c))
	requireStatus(t, rec, http.StatusNoContent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
