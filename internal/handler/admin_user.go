package handler // handler package contains admin user management handlers

import (
    "net/http" // http defines status codes
    "strconv"  // strconv converts path params to integers

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/jkamau/filamu/internal/repository" // repository defines sentinel errors
)

// ListUsers handles GET /v1/admin/users with limit/offset pagination.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    limit, offset := pageParams(c)
    users, err := h.UserRepo.List(c.Request().Context(), limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load users"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// SetUserActive handles PATCH /v1/admin/users/:id/active and toggles the
// soft-deactivation flag.  Deactivated users are still kept in the ledger.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var body struct {
        Active *bool `json:"active"`
    }
    if err := c.Bind(&body); err != nil || body.Active == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "active is required"})
    }
    if _, err := h.UserRepo.GetByID(c.Request().Context(), id); err != nil {
        if err == repository.ErrUserNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load user"})
    }
    if err := h.UserRepo.SetActive(c.Request().Context(), id, *body.Active); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "active": *body.Active})
}
