package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/title-review-service/internal/config"
	"github.com/iliyamo/title-review-service/internal/database"
	"github.com/iliyamo/title-review-service/internal/handler"
	"github.com/iliyamo/title-review-service/internal/queue"
	"github.com/iliyamo/title-review-service/internal/repository"
	"github.com/iliyamo/title-review-service/internal/router"
	mailer "github.com/iliyamo/title-review-service/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins either way

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; caching and rate limits disable themselves

	// Drain the outbound mail queue in the background. The consumer
	// reconnects on its own, so a broker outage never blocks signups.
	go func() {
		if err := queue.StartMailConsumer(); err != nil {
			log.Printf("mail consumer stopped: %v", err)
		}
	}()

	users := repository.NewUserRepo(db)
	titles := repository.NewTitleRepo(db)
	reviews := repository.NewReviewRepo(db)
	comments := repository.NewCommentRepo(db)

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, mailer.NewQueueSender(cfg.MailSender)),
		Users:    handler.NewUserHandler(users),
		Taxonomy: handler.NewTaxonomyHandler(repository.NewCategoryRepo(db), repository.NewGenreRepo(db)),
		Titles:   handler.NewTitleHandler(titles),
		Reviews:  handler.NewReviewHandler(titles, reviews),
		Comments: handler.NewCommentHandler(titles, reviews, comments),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, h, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
