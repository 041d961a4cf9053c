// Package repository contains data access logic for the catalog and ledger.
// This file covers movies: the bot reads them during browsing and
// fulfillment, the admin API manages them.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jkamau/filamu/internal/model"
)

// MovieRepo manages persistence for movies.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

const movieCols = "id, title, thumbnail, file_id, cost, created_at, updated_at"

func scanMovie(row interface{ Scan(...any) error }) (model.Movie, error) {
	var m model.Movie
	var thumb sql.NullString
	err := row.Scan(&m.ID, &m.Title, &thumb, &m.FileID, &m.Cost, &m.CreatedAt, &m.UpdatedAt)
	m.Thumbnail = thumb.String
	return m, err
}

// SearchByTitle returns up to limit movies whose title contains the given
// text, case-insensitively.  Matching is plain LIKE so that partial words
// still hit; results come back in title order.
func (r *MovieRepo) SearchByTitle(ctx context.Context, title string, limit int) ([]model.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies WHERE title LIKE ? ORDER BY title ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, "%"+title+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// GetByID retrieves a movie by its ID.  It returns ErrMovieNotFound if
// there is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (model.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies WHERE id = ?`
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Movie{}, ErrMovieNotFound
		}
		return model.Movie{}, err
	}
	return m, nil
}

// List returns movies page by page for the admin API, optionally filtered
// by a title substring.
func (r *MovieRepo) List(ctx context.Context, search string, limit, offset int) ([]model.Movie, error) {
	const q = `SELECT ` + movieCols + ` FROM movies WHERE title LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, "%"+search+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Create inserts a new movie and assigns the generated ID back to the
// struct.  Timestamps are filled from the freshly inserted row.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, thumbnail, file_id, cost) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.Thumbnail, m.FileID, m.Cost)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	const sel = `SELECT ` + movieCols + ` FROM movies WHERE id = ?`
	got, err := scanMovie(r.db.QueryRowContext(ctx, sel, m.ID))
	if err != nil {
		return err
	}
	*m = got
	return nil
}

// Update rewrites a movie's attributes.  It returns ErrMovieNotFound when
// the row does not exist and ErrNoChange when the values are identical.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies
               SET title = ?, thumbnail = ?, file_id = ?, cost = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?
                 AND (title <> ? OR thumbnail <> ? OR file_id <> ? OR cost <> ?)`
	res, err := r.db.ExecContext(ctx, q,
		m.Title, m.Thumbnail, m.FileID, m.Cost,
		m.ID,
		m.Title, m.Thumbnail, m.FileID, m.Cost,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Distinguish "not found" from "no change".
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ? LIMIT 1`, m.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMovieNotFound
		}
		return err
	}
	return ErrNoChange
}

// Delete removes a movie.  Historical transactions keep referencing the id;
// fulfillment treats a missing movie as a skipped delivery, so no FK blocks
// the delete.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}
