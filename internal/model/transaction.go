package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Transaction kinds.  The kind decides how ContentID is resolved during
// fulfillment: a movie id or a series id.
const (
    KindMovie  = "movie"
    KindSeries = "series"
)

// Transaction statuses.  Rows only ever move pending -> completed or
// pending -> failed; the transition is guarded at the SQL layer so a
// duplicate callback can never flip a terminal row.
const (
    StatusPending   = "pending"
    StatusCompleted = "completed"
    StatusFailed    = "failed"
)

// Transaction records a purchase intent and its payment outcome.  The
// human-readable Code correlates the STK push with the asynchronous
// gateway callback.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – purchasing user.
//  Code          – globally unique transaction code (e.g. "MOV17259301543").
//  Amount        – total price in KES of the purchased content.
//  Kind          – "movie" or "series".
//  ContentID     – movie id or series id depending on Kind.
//  EpisodeRange  – textual range as entered ("3" or "1-10"), series only.
//  StartEp/EndEp – parsed inclusive bounds of EpisodeRange (nullable).
//  PaymentMethod – always "M-Pesa" today; kept for future gateways.
//  Status        – pending, completed or failed.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Transaction struct {
    ID            uint64          // transactions.id
    UserID        uint64          // transactions.user_id
    Code          string          // transactions.transaction_code
    Amount        decimal.Decimal // transactions.amount
    Kind          string          // transactions.type
    ContentID     uint64          // transactions.content_id
    EpisodeRange  string          // transactions.episode_range (empty for movies)
    StartEp       *int            // transactions.start_ep (nullable)
    EndEp         *int            // transactions.end_ep (nullable)
    PaymentMethod string          // transactions.payment_method
    Status        string          // transactions.status
    CreatedAt     time.Time       // transactions.created_at
    UpdatedAt     time.Time       // transactions.updated_at
}

// Terminal reports whether the transaction has reached a final status.
func (t *Transaction) Terminal() bool {
    return t.Status == StatusCompleted || t.Status == StatusFailed
}
