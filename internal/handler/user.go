package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/middleware"
	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/repository"
)

// UserHandler serves the self-service profile endpoints and the
// admin-only user management surface. The router puts the management
// routes behind the admin gate; the handlers re-read the caller
// identity only for the profile rules.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler { return &UserHandler{Users: u} }

// profileResp is the read representation of a user. The confirmation
// hash and internal ids never leave the service.
type profileResp struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      string `json:"role"`
}

func toProfile(u model.User) profileResp {
	return profileResp{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
	}
}

// userPatch distinguishes absent fields from empty strings so PATCH
// only rewrites what the client sent.
type userPatch struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

func applyPatch(u *model.User, p userPatch) {
	if p.Username != nil {
		u.Username = strings.TrimSpace(*p.Username)
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

func mapUserWriteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrUsernameTaken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already registered"})
	case errors.Is(err, repository.ErrEmailTaken):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user write failed"})
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(c echo.Context) error {
	id := middleware.CurrentIdentity(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// UpdateMe applies a self-service profile patch. A role field in the
// body is not rejected; it is silently replaced with the caller's
// current role, so self-promotion is a no-op rather than an error.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	id := middleware.CurrentIdentity(c)

	var p userPatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	currentRole := u.Role
	applyPatch(&u, p)
	u.Role = currentRole // self-service may never change its own role
	if u.Username == "" || u.Username == "me" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid username"})
	}

	if err := h.Users.Update(ctx, u); err != nil {
		return mapUserWriteError(c, err)
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// List returns users ordered by username. Admin only (via router).
func (h *UserHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, total, err := h.Users.List(ctx, c.QueryParam("search"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]profileResp, len(users))
	for i, u := range users {
		items[i] = toProfile(u)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

type createUserReq struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Bio         string `json:"bio"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Create registers a user directly, role included. Admin only.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email required"})
	}
	if req.Username == "me" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "can't use 'me' as username"})
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		Role:        req.Role,
		IsSuperuser: req.IsSuperuser,
	}
	if _, err := h.Users.Create(ctx, u); err != nil {
		return mapUserWriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toProfile(u))
}

// Get returns one user by username. Admin only.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// Update patches any user, role included. Admin only.
func (h *UserHandler) Update(c echo.Context) error {
	var p userPatch
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if p.Role != nil && !model.ValidRole(*p.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	applyPatch(&u, p)
	if u.Username == "" || u.Username == "me" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid username"})
	}
	if err := h.Users.Update(ctx, u); err != nil {
		return mapUserWriteError(c, err)
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// Delete removes a user; their reviews and comments cascade away.
// Admin only.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, c.Param("username")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
