package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Series groups episodes under one title.  A series has no price of its
// own; purchases always resolve to a set of episodes.
type Series struct {
    ID        uint64    // series.id
    Title     string    // series.title
    Thumbnail string    // series.thumbnail
    CreatedAt time.Time // series.created_at
    UpdatedAt time.Time // series.updated_at
}

// Episode belongs to exactly one series.  Episode numbers are unique per
// series and deliveries are ordered by them ascending.
//
// Fields:
//  ID            – primary key identifier.
//  SeriesID      – owning series; deleting the series cascades here.
//  EpisodeNumber – position within the series (unique per series).
//  FileID        – Telegram file id of the deliverable media.
//  Poster        – optional episode artwork.
//  Cost          – unit price in KES (non-negative).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Episode struct {
    ID            uint64          // episodes.id
    SeriesID      uint64          // episodes.series_id
    EpisodeNumber int             // episodes.episode_number
    FileID        string          // episodes.file_id
    Poster        string          // episodes.poster
    Cost          decimal.Decimal // episodes.cost
    CreatedAt     time.Time       // episodes.created_at
    UpdatedAt     time.Time       // episodes.updated_at
}
