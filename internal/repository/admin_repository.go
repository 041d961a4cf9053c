package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jkamau/filamu/internal/model"
	"github.com/jkamau/filamu/internal/utils"
)

type AdminRepo struct{ DB *sql.DB }

func NewAdminRepo(db *sql.DB) *AdminRepo { return &AdminRepo{DB: db} }

var ErrAdminExists = errors.New("admin already exists")

// Create inserts a panel operator and returns its ID.
func (r *AdminRepo) Create(ctx context.Context, username, password, email string, cost int) (uint64, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO admins (username, password_hash, email) VALUES (?,?,?)",
		username, hash, email)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrAdminExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches an admin by normalized username.
func (r *AdminRepo) GetByUsername(ctx context.Context, username string) (model.Admin, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var a model.Admin
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,email,created_at,updated_at FROM admins WHERE username=? LIMIT 1",
		username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
