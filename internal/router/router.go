package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/title-review-service/internal/config"
	"github.com/iliyamo/title-review-service/internal/handler"
	"github.com/iliyamo/title-review-service/internal/middleware"
)

// Handlers bundles every handler the API mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Users    *handler.UserHandler
	Taxonomy *handler.TaxonomyHandler
	Titles   *handler.TitleHandler
	Reviews  *handler.ReviewHandler
	Comments *handler.CommentHandler
}

// Register wires up the whole HTTP surface under /api/v1.
//
// The Identity middleware runs on the entire group: it resolves an
// optional bearer token into the caller identity (rejecting invalid
// tokens with 401) and leaves anonymous requests alone. Admin-only
// routes add the RequireAdmin gate, which answers 403 to anyone who is
// not admin or superuser, anonymous callers included. Object-level
// checks (own review/comment) happen inside the handlers through the
// policy package, after the resource has been loaded.
//
// The Redis-backed response cache wraps only the public catalog reads;
// the rate limiter covers the whole group. Both disappear when rdb is
// nil.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	api := e.Group("/api/v1")
	api.Use(middleware.Identity(cfg.JWTSecret))
	api.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	// Signup and token exchange are the only unauthenticated writes.
	api.POST("/auth/signup", h.Auth.Signup)
	api.POST("/auth/token", h.Auth.Token)

	// Self-service profile.
	me := api.Group("/users/me", middleware.RequireAuth())
	me.GET("", h.Users.Me)
	me.PATCH("", h.Users.UpdateMe)

	// Admin-only user management. Echo routes the literal "me" segment
	// above before the :username parameter here.
	admin := middleware.RequireAdmin()
	api.GET("/users", h.Users.List, admin)
	api.POST("/users", h.Users.Create, admin)
	api.GET("/users/:username", h.Users.Get, admin)
	api.PATCH("/users/:username", h.Users.Update, admin)
	api.DELETE("/users/:username", h.Users.Delete, admin)

	// Categories and genres: public reads, admin writes.
	api.GET("/categories", h.Taxonomy.ListCategories, cache)
	api.POST("/categories", h.Taxonomy.CreateCategory, admin)
	api.DELETE("/categories/:slug", h.Taxonomy.DeleteCategory, admin)
	api.GET("/genres", h.Taxonomy.ListGenres, cache)
	api.POST("/genres", h.Taxonomy.CreateGenre, admin)
	api.DELETE("/genres/:slug", h.Taxonomy.DeleteGenre, admin)

	// Titles: public reads with the derived rating, admin writes.
	api.GET("/titles", h.Titles.List, cache)
	api.GET("/titles/:id", h.Titles.Get, cache)
	api.POST("/titles", h.Titles.Create, admin)
	api.PATCH("/titles/:id", h.Titles.Patch, admin)
	api.DELETE("/titles/:id", h.Titles.Delete, admin)

	// Reviews under a title. Creation requires authentication; edits go
	// through the object-level policy inside the handlers.
	api.GET("/titles/:id/reviews", h.Reviews.List)
	api.POST("/titles/:id/reviews", h.Reviews.Create)
	api.GET("/titles/:id/reviews/:review_id", h.Reviews.Get)
	api.PATCH("/titles/:id/reviews/:review_id", h.Reviews.Patch)
	api.DELETE("/titles/:id/reviews/:review_id", h.Reviews.Delete)

	// Comments under a review, same model as reviews.
	api.GET("/titles/:id/reviews/:review_id/comments", h.Comments.List)
	api.POST("/titles/:id/reviews/:review_id/comments", h.Comments.Create)
	api.GET("/titles/:id/reviews/:review_id/comments/:comment_id", h.Comments.Get)
	api.PATCH("/titles/:id/reviews/:review_id/comments/:comment_id", h.Comments.Patch)
	api.DELETE("/titles/:id/reviews/:review_id/comments/:comment_id", h.Comments.Delete)
}
