package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in getAdminID
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/jkamau/filamu/internal/repository" // repository holds data access layer
)

// AdminHandler bundles repositories for panel operators to manage the catalog,
// users, transactions and runtime settings.
type AdminHandler struct {
    MovieRepo       *repository.MovieRepo       // MovieRepo provides movie persistence
    SeriesRepo      *repository.SeriesRepo      // SeriesRepo provides series and episode persistence
    UserRepo        *repository.UserRepo        // UserRepo provides bot user persistence
    TransactionRepo *repository.TransactionRepo // TransactionRepo provides ledger access
    SettingsRepo    *repository.SettingsRepo    // SettingsRepo provides runtime settings
}

// NewAdminHandler constructs a new AdminHandler and panics if any dependency is nil
func NewAdminHandler(movies *repository.MovieRepo, series *repository.SeriesRepo, users *repository.UserRepo, txs *repository.TransactionRepo, settings *repository.SettingsRepo) *AdminHandler {
    if movies == nil || series == nil || users == nil || txs == nil || settings == nil {
        panic("nil repository passed to NewAdminHandler")
    }
    return &AdminHandler{
        MovieRepo:       movies,
        SeriesRepo:      series,
        UserRepo:        users,
        TransactionRepo: txs,
        SettingsRepo:    settings,
    }
}

// getAdminID extracts the admin_id from echo.Context and converts it to uint64
func getAdminID(c echo.Context) (uint64, error) {
    v := c.Get("admin_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid admin_id in context")
}

// pageParams reads limit/offset query parameters with sane defaults and caps.
func pageParams(c echo.Context) (limit, offset int) {
    limit = 50
    if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 200 {
        limit = v
    }
    if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
        offset = v
    }
    return limit, offset
}
