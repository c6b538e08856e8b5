package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/middleware"
	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/policy"
	"github.com/iliyamo/title-review-service/internal/repository"
)

// ReviewHandler serves reviews nested under titles. Listing is public;
// creating needs any authenticated caller; editing and deleting go
// through the object-level policy check against the review's author.
type ReviewHandler struct {
	Titles  *repository.TitleRepo
	Reviews *repository.ReviewRepo
}

func NewReviewHandler(t *repository.TitleRepo, r *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{Titles: t, Reviews: r}
}

// reviewResp exposes the author as a username reference only.
type reviewResp struct {
	ID      uint64    `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func toReviewResp(r model.Review) reviewResp {
	return reviewResp{ID: r.ID, Text: r.Text, Author: r.AuthorUsername, Score: r.Score, PubDate: r.CreatedAt}
}

type reviewCreateReq struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

type reviewPatchReq struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

func validScore(s int) bool { return s >= 1 && s <= 10 }

// titleExists resolves the :id path segment and confirms the title is
// real; every nested route 404s before anything else when it is not.
func (h *ReviewHandler) titleExists(ctx context.Context, c echo.Context) (uint64, bool, error) {
	id, ok := paramID(c, "id")
	if !ok {
		return 0, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Titles.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, false, c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
		}
		return 0, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return id, true, nil
}

// List returns a title's reviews newest first.
func (h *ReviewHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	titleID, ok, err := h.titleExists(ctx, c)
	if !ok {
		return err
	}
	limit, offset := pageParams(c)
	reviews, total, err := h.Reviews.ListByTitle(ctx, titleID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]reviewResp, len(reviews))
	for i, r := range reviews {
		items[i] = toReviewResp(r)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Create posts a review. One per (author, title): a second attempt by
// the same author loses to the storage constraint and returns 400.
func (h *ReviewHandler) Create(c echo.Context) error {
	id := middleware.CurrentIdentity(c)
	if !policy.CanCreateContent(id) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req reviewCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text required"})
	}
	if !validScore(req.Score) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "score must be between 1 and 10"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	titleID, ok, err := h.titleExists(ctx, c)
	if !ok {
		return err
	}
	review, err := h.Reviews.Create(ctx, titleID, id.ID, req.Text, req.Score)
	if err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "you already reviewed this title"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toReviewResp(review))
}

// loadScoped fetches the addressed review under its title, answering
// 404 for a missing title, a missing review or a review that belongs
// to a different title.
func (h *ReviewHandler) loadScoped(ctx context.Context, c echo.Context) (model.Review, bool, error) {
	titleID, ok, err := h.titleExists(ctx, c)
	if !ok {
		return model.Review{}, false, err
	}
	reviewID, ok := paramID(c, "review_id")
	if !ok {
		return model.Review{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	review, err := h.Reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Review{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return model.Review{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return review, true, nil
}

// Get returns one review under its title.
func (h *ReviewHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	review, ok, err := h.loadScoped(ctx, c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, toReviewResp(review))
}

// Patch edits a review's text and/or score. Author, moderator, admin or
// superuser only.
func (h *ReviewHandler) Patch(c echo.Context) error {
	var req reviewPatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Score != nil && !validScore(*req.Score) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "score must be between 1 and 10"})
	}
	if req.Text != nil && *req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	review, ok, err := h.loadScoped(ctx, c)
	if !ok {
		return err
	}

	id := middleware.CurrentIdentity(c)
	if !policy.CanModifyAuthored(id, review.AuthorID) {
		if !id.Authenticated {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	updated, err := h.Reviews.Update(ctx, review.ID, req.Text, req.Score)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toReviewResp(updated))
}

// Delete removes a review and its comments. Author, moderator, admin or
// superuser only.
func (h *ReviewHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	review, ok, err := h.loadScoped(ctx, c)
	if !ok {
		return err
	}

	id := middleware.CurrentIdentity(c)
	if !policy.CanModifyAuthored(id, review.AuthorID) {
		if !id.Authenticated {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Reviews.Delete(ctx, review.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
