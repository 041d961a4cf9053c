package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jkamau/filamu/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,telegram_id,username,first_name,last_name,is_active,created_at,updated_at"

// FindOrCreate returns the user with the given Telegram id, inserting a new
// row on first contact. The insert races with itself when two updates from
// a brand-new user arrive back to back, so a duplicate-key failure falls
// through to a second lookup.
func (r *UserRepo) FindOrCreate(ctx context.Context, telegramID int64, username, firstName, lastName string) (model.User, error) {
	u, err := r.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return model.User{}, err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (telegram_id, username, first_name, last_name) VALUES (?,?,?,?)",
		telegramID, username, firstName, lastName)
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "1062") {
		return model.User{}, err
	}
	return r.GetByTelegramID(ctx, telegramID)
}

// GetByTelegramID fetches a user by Telegram account id.
func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (model.User, error) {
	var u model.User
	var username, first, last sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE telegram_id=? LIMIT 1",
		telegramID).Scan(&u.ID, &u.TelegramID, &username, &first, &last, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.Username, u.FirstName, u.LastName = username.String, first.String, last.String
	return u, nil
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var username, first, last sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.TelegramID, &username, &first, &last, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.Username, u.FirstName, u.LastName = username.String, first.String, last.String
	return u, nil
}

// List returns users page by page for the admin panel, newest first.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.User
	for rows.Next() {
		var u model.User
		var username, first, last sql.NullString
		if err := rows.Scan(&u.ID, &u.TelegramID, &username, &first, &last, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Username, u.FirstName, u.LastName = username.String, first.String, last.String
		result = append(result, u)
	}
	return result, rows.Err()
}

// SetActive flips the soft-deactivation flag from the admin panel.  A
// no-op update (flag already at the requested value) is not an error.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	return err
}
