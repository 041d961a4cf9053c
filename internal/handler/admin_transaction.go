package handler // handler package contains admin ledger handlers

import (
    "net/http" // http defines status codes
    "strings"  // strings normalizes the status filter

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/jkamau/filamu/internal/model"      // model defines transaction statuses
    "github.com/jkamau/filamu/internal/repository" // repository defines sentinel errors
)

// ListTransactions handles GET /v1/admin/transactions with an optional
// ?status= filter (pending, completed, failed) and pagination.
func (h *AdminHandler) ListTransactions(c echo.Context) error {
    status := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
    switch status {
    case "", model.StatusPending, model.StatusCompleted, model.StatusFailed:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    limit, offset := pageParams(c)
    items, err := h.TransactionRepo.List(c.Request().Context(), status, limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load transactions"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetTransaction handles GET /v1/admin/transactions/:code and looks up a
// single ledger row by its transaction code.
func (h *AdminHandler) GetTransaction(c echo.Context) error {
    code := strings.TrimSpace(c.Param("code"))
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
    }
    tx, err := h.TransactionRepo.GetByCode(c.Request().Context(), code)
    if err != nil {
        if err == repository.ErrTransactionNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load transaction"})
    }
    return c.JSON(http.StatusOK, tx)
}
