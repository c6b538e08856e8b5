// Package loader seeds the database from delimited files. Every write
// is an upsert keyed on the row's identifier, so re-running an import
// is safe: existing rows are refreshed, duplicates are impossible, and
// the same uniqueness constraints that guard the API guard the import.
// Rows that fail the domain's validation rules (future year, score out
// of range, reserved username) are rejected, never silently inserted.
package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/iliyamo/title-review-service/internal/model"
)

// Importer runs CSV imports against the primary database.
type Importer struct {
	db *sql.DB
}

func New(db *sql.DB) *Importer { return &Importer{db: db} }

// eachRecord opens a CSV file, skips the header row and invokes fn for
// every remaining record. The returned count is the number of records
// fn accepted.
func eachRecord(path string, fn func(row []string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil { // header
		if err == io.EOF {
			return 0, nil
		}
		return 0, err
	}

	n := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if err := fn(row); err != nil {
			return n, err
		}
		n++
	}
}

func parseID(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }

// parseStamp accepts the RFC 3339 timestamps the export files use and
// falls back to a plain date-time without zone.
func parseStamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
}

// Categories imports rows of (id, name, slug).
func (im *Importer) Categories(ctx context.Context, path string) (int, error) {
	return eachRecord(path, func(row []string) error {
		if len(row) < 3 {
			return fmt.Errorf("category row too short: %v", row)
		}
		id, err := parseID(row[0])
		if err != nil {
			return fmt.Errorf("category id %q: %w", row[0], err)
		}
		_, err = im.db.ExecContext(ctx,
			`INSERT INTO categories (id, name, slug) VALUES (?,?,?)
			 ON DUPLICATE KEY UPDATE name=VALUES(name), slug=VALUES(slug)`,
			id, row[1], row[2])
		return err
	})
}

// Genres imports rows of (id, name, slug).
func (im *Importer) Genres(ctx context.Context, path string) (int, error) {
	return eachRecord(path, func(row []string) error {
		if len(row) < 3 {
			return fmt.Errorf("genre row too short: %v", row)
		}
		id, err := parseID(row[0])
		if err != nil {
			return fmt.Errorf("genre id %q: %w", row[0], err)
		}
		_, err = im.db.ExecContext(ctx,
			`INSERT INTO genres (id, name, slug) VALUES (?,?,?)
			 ON DUPLICATE KEY UPDATE name=VALUES(name), slug=VALUES(slug)`,
			id, row[1], row[2])
		return err
	})
}

// Users imports rows of (id, username, email, role, bio, first_name,
// last_name). Imported accounts have no outstanding confirmation code.
func (im *Importer) Users(ctx context.Context, path string) (int, error) {
	return eachRecord(path, func(row []string) error {
		if len(row) < 7 {
			return fmt.Errorf("user row too short: %v", row)
		}
		id, err := parseID(row[0])
		if err != nil {
			return fmt.Errorf("user id %q: %w", row[0], err)
		}
		username, email, role := row[1], row[2], row[3]
		if username == "me" {
			return fmt.Errorf("user %d: reserved username %q", id, username)
		}
		if role == "" {
			role = model.RoleUser
		}
		if !model.ValidRole(role) {
			return fmt.Errorf("user %d: unknown role %q", id, role)
		}
		_, err = im.db.ExecContext(ctx,
			`INSERT INTO users (id, username, email, role, bio, first_name, last_name)
			 VALUES (?,?,?,?,?,?,?)
			 ON DUPLICATE KEY UPDATE email=VALUES(email), role=VALUES(role),
				bio=VALUES(bio), first_name=VALUES(first_name), last_name=VALUES(last_name)`,
			id, username, email, role, row[4], row[5], row[6])
		return err
	})
}

// Titles imports rows of (id, name, year, category_id). An empty
// category id leaves the title uncategorized.
func (im *Importer) Titles(ctx context.Context, path string) (int, error) {
	return eachRecord(path, func(row []string) error {
		if len(row) < 4 {
			return fmt.Errorf("title row too short: %v", row)
		}
		id, err := parseID(row[0])
		if err != nil {
			return fmt.Errorf("title id %q: %w", row[0], err)
		}
		year, err := strconv.Atoi(row[2])
		if err != nil {
			return fmt.Errorf("title %d: year %q: %w", id, row[2], err)
		}
		if year > time.Now().UTC().Year() {
			return fmt.Errorf("title %d: year %d is in the future", id, year)
		}
		var categoryID any
		if row[3] != "" {
			cid, err := parseID(row[3])
			if err != nil {
				return fmt.Errorf("title %d: category id %q: %w", id, row[3], err)
			}
			categoryID = cid
		}
		_, err = im.db.ExecContext(ctx,
			`INSERT INTO titles (id, name, year, category_id) VALUES (?,?,?,?)
			 ON DUPLICATE KEY UPDATE name=VALUES(name), year=VALUES(year), category_id=VALUES(category_id)`,
			id, row[1], year, categoryID)
		return err
	})
}

// TitleGenres imports rows of (id, title_id, genre_id) into the join
// table. The composite primary key makes re-imports no-ops.
func (im *Importer) TitleGenres(ctx context.Context, path string) (int, error) {
	return eachRecord(path, func(row []string) error {
		if len(row) < 3 {
			return fmt.Errorf("title-genre row too short: %v", row)
		}
		titleID, err := parseID(row[1])
		if err != nil {
			return fmt.Errorf("title-genre title id %q: %w", row[1], err)
		}
		genreID, err := parseID(row[2])
		if err != nil {
			return fmt.Errorf("title-genre genre id %q: %w", row[2], err)
		}
		_, err = im.db.ExecContext(ctx,
			`INSERT IGNORE INTO title_genres (title_id, genre_id) VALUES (?,?)`,
			titleID, genreID)
		return err
	})
}

// Reviews imports rows of (id, title_id, text, author, score,
// pub_date). Scores outside [1,10] fail the import; the one-review-
// per-author-per-title constraint still applies to fresh rows.
func (im *Importer) Reviews(ctx context.Context, path string) (int, error) {
	return eachRecord(path, func(row []string) error {
		if len(row) < 6 {
			return fmt.Errorf("review row too short: %v", row)
		}
		id, err := parseID(row[0])
		if err != nil {
			return fmt.Errorf("review id %q: %w", row[0], err)
		}
		titleID, err := parseID(row[1])
		if err != nil {
			return fmt.Errorf("review %d: title id %q: %w", id, row[1], err)
		}
		authorID, err := parseID(row[3])
		if err != nil {
			return fmt.Errorf("review %d: author id %q: %w", id, row[3], err)
		}
		score, err := strconv.Atoi(row[4])
		if err != nil || score < 1 || score > 10 {
			return fmt.Errorf("review %d: score %q out of range", id, row[4])
		}
		stamp, err := parseStamp(row[5])
		if err != nil {
			return fmt.Errorf("review %d: pub date %q: %w", id, row[5], err)
		}
		_, err = im.db.ExecContext(ctx,
			`INSERT INTO reviews (id, title_id, author_id, text, score, created_at)
			 VALUES (?,?,?,?,?,?)
			 ON DUPLICATE KEY UPDATE text=VALUES(text), score=VALUES(score)`,
			id, titleID, authorID, row[2], score, stamp)
		return err
	})
}

// Comments imports rows of (id, review_id, text, author, pub_date).
func (im *Importer) Comments(ctx context.Context, path string) (int, error) {
	return eachRecord(path, func(row []string) error {
		if len(row) < 5 {
			return fmt.Errorf("comment row too short: %v", row)
		}
		id, err := parseID(row[0])
		if err != nil {
			return fmt.Errorf("comment id %q: %w", row[0], err)
		}
		reviewID, err := parseID(row[1])
		if err != nil {
			return fmt.Errorf("comment %d: review id %q: %w", id, row[1], err)
		}
		authorID, err := parseID(row[3])
		if err != nil {
			return fmt.Errorf("comment %d: author id %q: %w", id, row[3], err)
		}
		stamp, err := parseStamp(row[4])
		if err != nil {
			return fmt.Errorf("comment %d: pub date %q: %w", id, row[4], err)
		}
		_, err = im.db.ExecContext(ctx,
			`INSERT INTO comments (id, review_id, author_id, text, created_at)
			 VALUES (?,?,?,?,?)
			 ON DUPLICATE KEY UPDATE text=VALUES(text)`,
			id, reviewID, authorID, row[2], stamp)
		return err
	})
}
