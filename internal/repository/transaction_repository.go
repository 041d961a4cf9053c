// This file is the payment ledger.  A transaction row is created pending
// when a purchase is confirmed in chat, and moved to exactly one terminal
// status when the gateway callback arrives.  MarkTerminal is the only write
// path to a terminal status and is guarded at the SQL layer, which is what
// makes duplicate callbacks harmless.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkamau/filamu/internal/model"
)

// TransactionRepo manages persistence for the payment ledger.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo constructs a TransactionRepo with the given DB handle.
func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const txCols = `id, user_id, transaction_code, amount, type, content_id,
                episode_range, start_ep, end_ep, payment_method, status, created_at, updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (model.Transaction, error) {
	var t model.Transaction
	var rng sql.NullString
	var startEp, endEp sql.NullInt64
	err := row.Scan(&t.ID, &t.UserID, &t.Code, &t.Amount, &t.Kind, &t.ContentID,
		&rng, &startEp, &endEp, &t.PaymentMethod, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Transaction{}, err
	}
	t.EpisodeRange = rng.String
	if startEp.Valid {
		v := int(startEp.Int64)
		t.StartEp = &v
	}
	if endEp.Valid {
		v := int(endEp.Int64)
		t.EndEp = &v
	}
	return t, nil
}

// newCode builds a transaction code: a kind prefix, the trailing eight
// digits of the current unix-millisecond clock, and three random digits.
// The UNIQUE column is the real collision guard; the random suffix just
// keeps two purchases in the same millisecond from retrying.
func newCode(kind string) string {
	prefix := "MOV"
	if kind == model.KindSeries {
		prefix = "SER"
	}
	ms := fmt.Sprintf("%d", time.Now().UnixMilli())
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("%s%s%03d", prefix, ms, rand.IntN(1000))
}

// CreatePending inserts a pending ledger row and returns its generated
// transaction code.  startEp/endEp are nil for movie purchases.  On the
// unlikely duplicate-code collision the insert is retried with a fresh code.
func (r *TransactionRepo) CreatePending(ctx context.Context, userID uint64, amount decimal.Decimal, kind string, contentID uint64, episodeRange string, startEp, endEp *int) (string, error) {
	const q = `INSERT INTO transactions
               (user_id, transaction_code, amount, type, content_id, episode_range, start_ep, end_ep, payment_method, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var rng any
	if episodeRange != "" {
		rng = episodeRange
	}
	for attempt := 0; ; attempt++ {
		code := newCode(kind)
		_, err := r.db.ExecContext(ctx, q,
			userID, code, amount, kind, contentID, rng, startEp, endEp, "M-Pesa", model.StatusPending)
		if err == nil {
			return code, nil
		}
		if strings.Contains(strings.ToLower(err.Error()), "1062") && attempt < 3 {
			continue
		}
		return "", err
	}
}

// GetByCode retrieves a transaction by its code.  It returns
// ErrTransactionNotFound if there is no matching row.
func (r *TransactionRepo) GetByCode(ctx context.Context, code string) (model.Transaction, error) {
	const q = `SELECT ` + txCols + ` FROM transactions WHERE transaction_code = ?`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, q, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Transaction{}, ErrTransactionNotFound
		}
		return model.Transaction{}, err
	}
	return t, nil
}

// MarkTerminal moves a transaction from pending to the given terminal
// status.  The WHERE clause only matches pending rows, so the update is a
// compare-and-swap: the first caller wins and every duplicate or racing
// callback observes took=false.  Passing a non-terminal status is a
// programming error and is rejected.
func (r *TransactionRepo) MarkTerminal(ctx context.Context, code, status string) (bool, error) {
	if status != model.StatusCompleted && status != model.StatusFailed {
		return false, fmt.Errorf("mark terminal: invalid status %q", status)
	}
	const q = `UPDATE transactions
               SET status = ?, updated_at = CURRENT_TIMESTAMP
               WHERE transaction_code = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, status, code, model.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns a user's most recent transactions for the history view.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.Transaction, error) {
	const q = `SELECT ` + txCols + ` FROM transactions WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// List returns transactions page by page for the admin API, optionally
// filtered by status ("" means all), newest first.
func (r *TransactionRepo) List(ctx context.Context, status string, limit, offset int) ([]model.Transaction, error) {
	q := `SELECT ` + txCols + ` FROM transactions`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
