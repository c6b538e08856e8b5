package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/title-review-service/internal/model"
)

// Sentinels for the two uniqueness rules on users. Both map to a 400
// response: the account cannot be created as requested.
var (
	ErrUsernameTaken = errors.New("username already registered")
	ErrEmailTaken    = errors.New("email already registered")
)

// UserRepo provides persistence for user accounts.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, email, first_name, last_name, COALESCE(bio,''), role, is_superuser, confirmation_hash, created_at, updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.Bio, &u.Role, &u.IsSuperuser, &u.ConfirmationHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a new user and returns its ID. Username is stored as
// given (reserved-name checks happen before this point); email is
// normalized to lower case. Duplicate username/email lose to the UNIQUE
// KEYs and come back as the matching sentinel.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, first_name, last_name, bio, role, is_superuser, confirmation_hash)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, u.Role, u.IsSuperuser, u.ConfirmationHash)
	if err != nil {
		switch {
		case duplicateOn(err, "uq_users_username"):
			return 0, ErrUsernameTaken
		case duplicateOn(err, "uq_users_email"):
			return 0, ErrEmailTaken
		case isDuplicate(err):
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", username))
}

// SetConfirmationHash stores the bcrypt hash of a freshly issued
// confirmation code. Only the newest hash is kept, so reissuing a code
// retires the previous one.
func (r *UserRepo) SetConfirmationHash(ctx context.Context, id uint64, hash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET confirmation_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearConfirmation wipes the stored code hash after a successful token
// exchange, making confirmation codes single-use.
func (r *UserRepo) ClearConfirmation(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE users SET confirmation_hash='' WHERE id=?", id)
	return err
}

// Update rewrites the mutable fields of a user record. Role and
// superuser changes also travel through here; the handlers decide who
// may set what before the call.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET username=?, email=?, first_name=?, last_name=?, bio=?, role=?, is_superuser=?
		 WHERE id=?`,
		u.Username, u.Email, u.FirstName, u.LastName, u.Bio, u.Role, u.IsSuperuser, u.ID)
	if err != nil {
		switch {
		case duplicateOn(err, "uq_users_username"):
			return ErrUsernameTaken
		case duplicateOn(err, "uq_users_email"):
			return ErrEmailTaken
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero affected rows can also mean a no-op update; confirm the row exists.
		var one int
		if qerr := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", u.ID).Scan(&one); qerr == sql.ErrNoRows {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a user by username. Reviews and comments authored by
// the user cascade away at the storage layer.
func (r *UserRepo) Delete(ctx context.Context, username string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE username=?", username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns users ordered by username, optionally filtered by a
// username prefix, with the total row count for pagination.
func (r *UserRepo) List(ctx context.Context, search string, limit, offset int) ([]model.User, int64, error) {
	cond := "1=1"
	args := []any{}
	if search != "" {
		cond = "LOWER(username) LIKE ?"
		args = append(args, strings.ToLower(search)+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+cond+" ORDER BY username LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
			&u.Bio, &u.Role, &u.IsSuperuser, &u.ConfirmationHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}
