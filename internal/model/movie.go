package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Movie is a standalone purchasable item.  FileID is the Telegram file
// reference of the deliverable media; Thumbnail is shown during browsing.
//
// Fields:
//  ID        – primary key identifier.
//  Title     – movie title used for substring search.
//  Thumbnail – Telegram file id or URL of the poster image.
//  FileID    – Telegram file id of the full movie, sent on fulfillment.
//  Cost      – unit price in KES (non-negative).
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Movie struct {
    ID        uint64          // movies.id
    Title     string          // movies.title
    Thumbnail string          // movies.thumbnail
    FileID    string          // movies.file_id
    Cost      decimal.Decimal // movies.cost
    CreatedAt time.Time       // movies.created_at
    UpdatedAt time.Time       // movies.updated_at
}
