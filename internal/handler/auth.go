package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/auth"
	"github.com/iliyamo/title-review-service/internal/config"
	"github.com/iliyamo/title-review-service/internal/model"
	"github.com/iliyamo/title-review-service/internal/repository"
	mailer "github.com/iliyamo/title-review-service/internal/service"
)

// AuthHandler bundles dependencies for the signup and token endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Mail  mailer.Sender
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, m mailer.Sender) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Mail: m}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type tokenReq struct {
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

// Signup registers an unconfirmed account and mails a confirmation
// code. The mail hop is fire-and-forget: a broker failure is logged and
// the signup still succeeds.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/email required"})
	}
	if req.Username == "me" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "can't use 'me' as username"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u := model.User{Username: req.Username, Email: req.Email, Role: model.RoleUser}
	uid, err := h.Users.Create(ctx, u)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already registered"})
		case errors.Is(err, repository.ErrEmailTaken):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	u.ID = uid

	code := auth.NewConfirmationCode(h.Cfg.ConfirmSecret, u, h.Cfg.ConfirmTTLMin)
	hash, err := auth.HashCode(code, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}
	if err := h.Users.SetConfirmationHash(ctx, uid, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
	}

	body := fmt.Sprintf("User %s! Your confirmation code is %s", u.Username, code)
	if err := h.Mail.Send(ctx, u.Email, "Confirmation code", body); err != nil {
		log.Printf("signup: confirmation mail for %s not queued: %v", u.Username, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"username": u.Username, "email": u.Email})
}

// Token exchanges a confirmation code for a signed access token. Codes
// are single-use: the stored hash is wiped after the first successful
// exchange.
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.ConfirmationCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/confirmation_code required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if !auth.CheckConfirmationCode(h.Cfg.ConfirmSecret, u, req.ConfirmationCode) ||
		!auth.MatchesStoredCode(u.ConfirmationHash, req.ConfirmationCode) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid confirmation code"})
	}

	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	if err := h.Users.ClearConfirmation(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "consume code failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"token": access.Token})
}
