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

// CommentHandler serves comments nested under a title's review. The
// permission model mirrors reviews on purpose: reading is public,
// commenting needs authentication, and editing goes through the same
// object-level policy check.
type CommentHandler struct {
	Titles   *repository.TitleRepo
	Reviews  *repository.ReviewRepo
	Comments *repository.CommentRepo
}

func NewCommentHandler(t *repository.TitleRepo, r *repository.ReviewRepo, cm *repository.CommentRepo) *CommentHandler {
	return &CommentHandler{Titles: t, Reviews: r, Comments: cm}
}

type commentResp struct {
	ID      uint64    `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func toCommentResp(cm model.Comment) commentResp {
	return commentResp{ID: cm.ID, Text: cm.Text, Author: cm.AuthorUsername, PubDate: cm.CreatedAt}
}

type commentReq struct {
	Text string `json:"text"`
}

// reviewScoped resolves :id/:review_id and confirms the review exists
// under that exact title; a review under a different title is 404.
func (h *CommentHandler) reviewScoped(ctx context.Context, c echo.Context) (model.Review, bool, error) {
	titleID, ok := paramID(c, "id")
	if !ok {
		return model.Review{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
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

// List returns a review's comments newest first.
func (h *CommentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	review, ok, err := h.reviewScoped(ctx, c)
	if !ok {
		return err
	}
	limit, offset := pageParams(c)
	comments, total, err := h.Comments.ListByReview(ctx, review.ID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]commentResp, len(comments))
	for i, cm := range comments {
		items[i] = toCommentResp(cm)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// Create posts a comment under a review.
func (h *CommentHandler) Create(c echo.Context) error {
	id := middleware.CurrentIdentity(c)
	if !policy.CanCreateContent(id) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req commentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	review, ok, err := h.reviewScoped(ctx, c)
	if !ok {
		return err
	}
	comment, err := h.Comments.Create(ctx, review.ID, id.ID, req.Text)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	return c.JSON(http.StatusCreated, toCommentResp(comment))
}

// loadScoped fetches the addressed comment under its review and title.
func (h *CommentHandler) loadScoped(ctx context.Context, c echo.Context) (model.Comment, bool, error) {
	review, ok, err := h.reviewScoped(ctx, c)
	if !ok {
		return model.Comment{}, false, err
	}
	commentID, ok := paramID(c, "comment_id")
	if !ok {
		return model.Comment{}, false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid comment id"})
	}
	comment, err := h.Comments.GetByID(ctx, review.ID, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Comment{}, false, c.JSON(http.StatusNotFound, echo.Map{"error": "comment not found"})
		}
		return model.Comment{}, false, c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return comment, true, nil
}

// Get returns one comment under its review.
func (h *CommentHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comment, ok, err := h.loadScoped(ctx, c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResp(comment))
}

// Patch edits a comment's text. Author, moderator, admin or superuser
// only.
func (h *CommentHandler) Patch(c echo.Context) error {
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "text required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comment, ok, err := h.loadScoped(ctx, c)
	if !ok {
		return err
	}

	id := middleware.CurrentIdentity(c)
	if !policy.CanModifyAuthored(id, comment.AuthorID) {
		if !id.Authenticated {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	updated, err := h.Comments.UpdateText(ctx, comment.ID, req.Text)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, toCommentResp(updated))
}

// Delete removes a comment. Author, moderator, admin or superuser only.
func (h *CommentHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	comment, ok, err := h.loadScoped(ctx, c)
	if !ok {
		return err
	}

	id := middleware.CurrentIdentity(c)
	if !policy.CanModifyAuthored(id, comment.AuthorID) {
		if !id.Authenticated {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
