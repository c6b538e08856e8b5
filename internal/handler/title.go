package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/repository"
)

// TitleHandler serves the catalog's title endpoints. Reads are public;
// create, patch and delete sit behind the admin gate in the router.
type TitleHandler struct {
	Titles *repository.TitleRepo
}

func NewTitleHandler(t *repository.TitleRepo) *TitleHandler { return &TitleHandler{Titles: t} }

// titleResp is the read representation: category and genres expanded to
// full nested objects, rating derived. Writes accept slug references
// but always answer with this shape, so the response to a write equals
// what the next read returns.
type titleResp struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Year        int        `json:"year"`
	Rating      *float64   `json:"rating"`
	Description string     `json:"description"`
	Genre       []slugResp `json:"genre"`
	Category    *slugResp  `json:"category"`
}

func toTitleResp(t model.Title) titleResp {
	out := titleResp{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      t.Rating,
		Description: t.Description,
		Genre:       make([]slugResp, len(t.Genres)),
	}
	for i, g := range t.Genres {
		out.Genre[i] = slugResp{Name: g.Name, Slug: g.Slug}
	}
	if t.Category != nil {
		out.Category = &slugResp{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	return out
}

type titleCreateReq struct {
	Name        string   `json:"name"`
	Year        int      `json:"year"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genre       []string `json:"genre"`
}

type titlePatchReq struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

func validYear(year int) bool { return year <= time.Now().UTC().Year() }

// List returns titles in name order. Filters: category (slug), genre
// (slug, repeatable, OR among values), name (case-insensitive prefix)
// and year; all present filters are ANDed.
func (h *TitleHandler) List(c echo.Context) error {
	limit, offset := pageParams(c)

	f := repository.TitleFilter{
		CategorySlug: c.QueryParam("category"),
		GenreSlugs:   c.QueryParams()["genre"],
		NamePrefix:   c.QueryParam("name"),
	}
	if y := c.QueryParam("year"); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year filter"})
		}
		f.Year = &n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	titles, total, err := h.Titles.Search(ctx, f, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]titleResp, len(titles))
	for i, t := range titles {
		items[i] = toTitleResp(t)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Get returns one title with its derived rating.
func (h *TitleHandler) Get(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Titles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toTitleResp(t))
}

// Create adds a title. Admin only. Fails fast on a future year before
// any row is written; unknown category/genre slugs are 404.
func (h *TitleHandler) Create(c echo.Context) error {
	var req titleCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || len(req.Name) > 128 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required, at most 128 characters"})
	}
	if !validYear(req.Year) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year must not be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Titles.Create(ctx, repository.TitleWrite{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toTitleResp(t))
}

// Patch partially updates a title. Admin only.
func (h *TitleHandler) Patch(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req titlePatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name != nil && (*req.Name == "" || len(*req.Name) > 128) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required, at most 128 characters"})
	}
	if req.Year != nil && !validYear(*req.Year) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "year must not be in the future"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Titles.Update(ctx, id, repository.TitlePatch{
		Name:         req.Name,
		Year:         req.Year,
		Description:  req.Description,
		CategorySlug: req.Category,
		GenreSlugs:   req.Genre,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toTitleResp(t))
}

// Delete removes a title and, through the storage layer, its reviews
// and their comments. Admin only.
func (h *TitleHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Titles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
