package handler

// taxonomy.go serves categories and genres. The two resources share one
// shape (name + unique slug) and one permission model: anyone may list,
// only admins create and delete. The router applies the admin gate.

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/repository"
)

// TaxonomyHandler bundles the category and genre repositories.
type TaxonomyHandler struct {
	Categories *repository.CategoryRepo
	Genres     *repository.GenreRepo
}

func NewTaxonomyHandler(c *repository.CategoryRepo, g *repository.GenreRepo) *TaxonomyHandler {
	return &TaxonomyHandler{Categories: c, Genres: g}
}

type slugResp struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type slugReq struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func (r slugReq) validate() string {
	if r.Name == "" || len(r.Name) > 256 {
		return "name required, at most 256 characters"
	}
	if r.Slug == "" || len(r.Slug) > 50 || !slugPattern.MatchString(r.Slug) {
		return "slug must be a URL-safe string of at most 50 characters"
	}
	return ""
}

// ListCategories returns categories in name order, optionally filtered
// by a name prefix via ?search=.
func (h *TaxonomyHandler) ListCategories(c echo.Context) error {
	limit, offset := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cats, total, err := h.Categories.List(ctx, c.QueryParam("search"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]slugResp, len(cats))
	for i, cat := range cats {
		items[i] = slugResp{Name: cat.Name, Slug: cat.Slug}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// CreateCategory creates a category. Admin only.
func (h *TaxonomyHandler) CreateCategory(c echo.Context) error {
	var req slugReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cat, err := h.Categories.Create(ctx, req.Name, req.Slug)
	if err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug must be unique"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, slugResp{Name: cat.Name, Slug: cat.Slug})
}

// DeleteCategory removes a category by slug; titles that referenced it
// keep existing without a category. Admin only.
func (h *TaxonomyHandler) DeleteCategory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Categories.Delete(ctx, c.Param("slug")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "category not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListGenres returns genres in name order.
func (h *TaxonomyHandler) ListGenres(c echo.Context) error {
	limit, offset := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	genres, total, err := h.Genres.List(ctx, c.QueryParam("search"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]slugResp, len(genres))
	for i, g := range genres {
		items[i] = slugResp{Name: g.Name, Slug: g.Slug}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// CreateGenre creates a genre. Admin only.
func (h *TaxonomyHandler) CreateGenre(c echo.Context) error {
	var req slugReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Genres.Create(ctx, req.Name, req.Slug)
	if err != nil {
		if errors.Is(err, repository.ErrSlugTaken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug must be unique"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, slugResp{Name: g.Name, Slug: g.Slug})
}

// DeleteGenre removes a genre by slug; it disappears from every title's
// genre set. Admin only.
func (h *TaxonomyHandler) DeleteGenre(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Genres.Delete(ctx, c.Param("slug")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "genre not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
