// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// conversation engine and HTTP handlers to distinguish between different
// failure scenarios without string matching. For example, ErrMovieNotFound
// lets the bot tell a vanished catalog item apart from a database outage.
package repository

import "errors"

// ErrMovieNotFound indicates that a movie was not located in the DB.
var ErrMovieNotFound = errors.New("movie not found")

// ErrSeriesNotFound indicates that a series was not located in the DB.
var ErrSeriesNotFound = errors.New("series not found")

// ErrEpisodeNotFound indicates that an episode was not located in the DB.
var ErrEpisodeNotFound = errors.New("episode not found")

// ErrTransactionNotFound indicates that no ledger row matches the given
// transaction code.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrUserNotFound indicates that a Telegram user has no DB row yet.
var ErrUserNotFound = errors.New("user not found")

// ErrNoChange indicates the UPDATE attempted to set fields equal to current values.
var ErrNoChange = errors.New("no change")
