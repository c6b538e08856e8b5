package handler

// Shared plumbing for handler tests: an Echo context factory, a
// capturing mail stub and sqlmock row builders.

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/policy"
)

type mailStub struct {
	to      string
	subject string
	body    string
	err     error
}

func (m *mailStub) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

// newTestCtx builds an Echo context around a JSON request body.
func newTestCtx(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// asIdentity stores an authenticated identity the way the middleware
// would have.
func asIdentity(c echo.Context, id policy.Identity) {
	c.Set("identity", id)
}

func userRow(u model.User) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "first_name", "last_name",
		"bio", "role", "is_superuser", "confirmation_hash", "created_at", "updated_at",
	}).AddRow(u.ID, u.Username, u.Email, u.FirstName, u.LastName,
		u.Bio, u.Role, u.IsSuperuser, u.ConfirmationHash, now, now)
}

func titleRow(id uint64, name string, year int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "year", "description", "c_id", "c_name", "c_slug", "rating"}).
		AddRow(id, name, year, "", nil, nil, nil, nil)
}

func noGenres() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"title_id", "id", "name", "slug"})
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
