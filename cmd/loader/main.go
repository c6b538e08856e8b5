package main // CSV import tool

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/title-review-service/internal/config"
	"github.com/iliyamo/title-review-service/internal/database"
	"github.com/iliyamo/title-review-service/internal/loader"
)

// step couples an import function with its file path and a label for
// the log line. Steps run in dependency order so foreign keys resolve.
type step struct {
	name string
	path string
	run  func(context.Context, string) (int, error)
}

func main() {
	var (
		categories = flag.String("categories", "", "path to category CSV")
		genres     = flag.String("genres", "", "path to genre CSV")
		users      = flag.String("users", "", "path to users CSV")
		titles     = flag.String("titles", "", "path to titles CSV")
		links      = flag.String("genre-title", "", "path to title/genre link CSV")
		reviews    = flag.String("reviews", "", "path to review CSV")
		comments   = flag.String("comments", "", "path to comments CSV")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	im := loader.New(db)
	steps := []step{
		{"categories", *categories, im.Categories},
		{"genres", *genres, im.Genres},
		{"users", *users, im.Users},
		{"titles", *titles, im.Titles},
		{"title-genre links", *links, im.TitleGenres},
		{"reviews", *reviews, im.Reviews},
		{"comments", *comments, im.Comments},
	}

	for _, s := range steps {
		if s.path == "" {
			continue
		}
		n, err := s.run(ctx, s.path)
		if err != nil {
			log.Fatalf("import %s from %s: %v", s.name, s.path, err)
		}
		log.Printf("imported %d %s from %s", n, s.name, s.path)
	}
}
