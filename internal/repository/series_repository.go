// This file covers series and their episodes.  The conversation engine uses
// FirstByTitle and EpisodesInRange; the fulfillment dispatcher additionally
// falls back to EpisodesBySeries for legacy transactions that predate range
// storage.  Admin CRUD shares the same repository.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jkamau/filamu/internal/model"
)

// SeriesRepo manages persistence for series and episodes.
type SeriesRepo struct {
	db *sql.DB
}

// NewSeriesRepo constructs a SeriesRepo with the given DB handle.
func NewSeriesRepo(db *sql.DB) *SeriesRepo {
	return &SeriesRepo{db: db}
}

const seriesCols = "id, title, thumbnail, created_at, updated_at"
const episodeCols = "id, series_id, episode_number, file_id, poster, cost, created_at, updated_at"

func scanSeries(row interface{ Scan(...any) error }) (model.Series, error) {
	var s model.Series
	var thumb sql.NullString
	err := row.Scan(&s.ID, &s.Title, &thumb, &s.CreatedAt, &s.UpdatedAt)
	s.Thumbnail = thumb.String
	return s, err
}

func scanEpisode(row interface{ Scan(...any) error }) (model.Episode, error) {
	var e model.Episode
	var poster sql.NullString
	err := row.Scan(&e.ID, &e.SeriesID, &e.EpisodeNumber, &e.FileID, &poster, &e.Cost, &e.CreatedAt, &e.UpdatedAt)
	e.Poster = poster.String
	return e, err
}

// FirstByTitle resolves the first series whose title contains the given
// text, case-insensitively.  The conversation flow presents a single series
// per search, so only the best (alphabetically first) match is returned.
func (r *SeriesRepo) FirstByTitle(ctx context.Context, title string) (model.Series, error) {
	const q = `SELECT ` + seriesCols + ` FROM series WHERE title LIKE ? ORDER BY title ASC LIMIT 1`
	s, err := scanSeries(r.db.QueryRowContext(ctx, q, "%"+title+"%"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Series{}, ErrSeriesNotFound
		}
		return model.Series{}, err
	}
	return s, nil
}

// GetByID retrieves a series by its ID, returning ErrSeriesNotFound when absent.
func (r *SeriesRepo) GetByID(ctx context.Context, id uint64) (model.Series, error) {
	const q = `SELECT ` + seriesCols + ` FROM series WHERE id = ?`
	s, err := scanSeries(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Series{}, ErrSeriesNotFound
		}
		return model.Series{}, err
	}
	return s, nil
}

// List returns series page by page for the admin API.
func (r *SeriesRepo) List(ctx context.Context, search string, limit, offset int) ([]model.Series, error) {
	const q = `SELECT ` + seriesCols + ` FROM series WHERE title LIKE ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, "%"+search+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Series
	for rows.Next() {
		s, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Create inserts a new series and assigns the generated ID back.
func (r *SeriesRepo) Create(ctx context.Context, s *model.Series) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO series (title, thumbnail) VALUES (?, ?)`, s.Title, s.Thumbnail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	got, err := scanSeries(r.db.QueryRowContext(ctx, `SELECT `+seriesCols+` FROM series WHERE id = ?`, s.ID))
	if err != nil {
		return err
	}
	*s = got
	return nil
}

// Update rewrites title and thumbnail.
func (r *SeriesRepo) Update(ctx context.Context, s *model.Series) error {
	const q = `UPDATE series
               SET title = ?, thumbnail = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND (title <> ? OR thumbnail <> ?)`
	res, err := r.db.ExecContext(ctx, q, s.Title, s.Thumbnail, s.ID, s.Title, s.Thumbnail)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM series WHERE id = ? LIMIT 1`, s.ID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSeriesNotFound
		}
		return err
	}
	return ErrNoChange
}

// Delete removes a series.  Episodes cascade at the DB level.
func (r *SeriesRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM series WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeriesNotFound
	}
	return nil
}

// EpisodesInRange returns the episodes of a series whose number falls in
// [start, end], ascending by episode number.  Gaps in the range are simply
// absent from the result; callers compare against the requested bounds to
// report missing episodes.
func (r *SeriesRepo) EpisodesInRange(ctx context.Context, seriesID uint64, start, end int) ([]model.Episode, error) {
	const q = `SELECT ` + episodeCols + ` FROM episodes
               WHERE series_id = ? AND episode_number BETWEEN ? AND ?
               ORDER BY episode_number ASC`
	rows, err := r.db.QueryContext(ctx, q, seriesID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// EpisodesBySeries returns every episode of a series ascending by number.
// Fulfillment uses this only for legacy transactions without a stored range.
func (r *SeriesRepo) EpisodesBySeries(ctx context.Context, seriesID uint64) ([]model.Episode, error) {
	const q = `SELECT ` + episodeCols + ` FROM episodes WHERE series_id = ? ORDER BY episode_number ASC`
	rows, err := r.db.QueryContext(ctx, q, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CreateEpisode inserts an episode.  The (series_id, episode_number) unique
// key rejects duplicates; that surfaces as ErrNoChange so the admin API can
// answer with a conflict instead of a plain 500.
func (r *SeriesRepo) CreateEpisode(ctx context.Context, e *model.Episode) error {
	const q = `INSERT INTO episodes (series_id, episode_number, file_id, poster, cost) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.SeriesID, e.EpisodeNumber, e.FileID, e.Poster, e.Cost)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrNoChange
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	got, err := scanEpisode(r.db.QueryRowContext(ctx, `SELECT `+episodeCols+` FROM episodes WHERE id = ?`, e.ID))
	if err != nil {
		return err
	}
	*e = got
	return nil
}

// DeleteEpisode removes a single episode by id.
func (r *SeriesRepo) DeleteEpisode(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM episodes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrEpisodeNotFound
	}
	return nil
}
