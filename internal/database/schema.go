package database

import (
	"context"
	"database/sql"
)

// Schema statements executed at startup. The uniqueness rules the
// service depends on are declared here as UNIQUE KEYs so that racing
// writers are settled by the storage engine: duplicate usernames,
// emails, slugs and second reviews for the same (author, title) pair
// all fail with a duplicate-key error no matter how many requests try
// at once. Cascade behaviour is likewise declared on the foreign keys:
// removing a category detaches its titles, everything else cascades.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		username VARCHAR(150) NOT NULL,
		email VARCHAR(254) NOT NULL,
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		last_name VARCHAR(150) NOT NULL DEFAULT '',
		bio TEXT NULL,
		role ENUM('user','moderator','admin') NOT NULL DEFAULT 'user',
		is_superuser TINYINT(1) NOT NULL DEFAULT 0,
		confirmation_hash VARCHAR(100) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS categories (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(256) NOT NULL,
		slug VARCHAR(50) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_categories_slug (slug),
		KEY idx_categories_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS genres (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(256) NOT NULL,
		slug VARCHAR(50) NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_genres_slug (slug),
		KEY idx_genres_name (name)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS titles (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name VARCHAR(128) NOT NULL,
		year INT NOT NULL,
		description TEXT NULL,
		category_id BIGINT UNSIGNED NULL,
		PRIMARY KEY (id),
		KEY idx_titles_name (name),
		KEY idx_titles_year (year),
		CONSTRAINT fk_titles_category FOREIGN KEY (category_id)
			REFERENCES categories (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS title_genres (
		title_id BIGINT UNSIGNED NOT NULL,
		genre_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (title_id, genre_id),
		CONSTRAINT fk_title_genres_title FOREIGN KEY (title_id)
			REFERENCES titles (id) ON DELETE CASCADE,
		CONSTRAINT fk_title_genres_genre FOREIGN KEY (genre_id)
			REFERENCES genres (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title_id BIGINT UNSIGNED NOT NULL,
		author_id BIGINT UNSIGNED NOT NULL,
		text TEXT NOT NULL,
		score TINYINT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_reviews_author_title (author_id, title_id),
		KEY idx_reviews_title_created (title_id, created_at),
		CONSTRAINT fk_reviews_title FOREIGN KEY (title_id)
			REFERENCES titles (id) ON DELETE CASCADE,
		CONSTRAINT fk_reviews_author FOREIGN KEY (author_id)
			REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		review_id BIGINT UNSIGNED NOT NULL,
		author_id BIGINT UNSIGNED NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_comments_review_created (review_id, created_at),
		CONSTRAINT fk_comments_review FOREIGN KEY (review_id)
			REFERENCES reviews (id) ON DELETE CASCADE,
		CONSTRAINT fk_comments_author FOREIGN KEY (author_id)
			REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates all tables when they do not exist yet. It is safe
// to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
