package handler // handler package contains admin catalog handlers

import (
    "net/http" // http defines status codes
    "strconv"  // strconv converts path params to integers
    "strings"  // strings helps with trimming whitespace

    "github.com/labstack/echo/v4"  // echo provides the web context and JSON helpers
    "github.com/shopspring/decimal" // decimal parses prices without float drift

    "github.com/jkamau/filamu/internal/model"      // model defines catalog entities
    "github.com/jkamau/filamu/internal/repository" // repository defines sentinel errors
)

// ListMovies handles GET /v1/admin/movies.  Supports an optional ?search=
// substring filter and limit/offset pagination.
func (h *AdminHandler) ListMovies(c echo.Context) error {
    limit, offset := pageParams(c)
    movies, err := h.MovieRepo.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("search")), limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// CreateMovie handles POST /v1/admin/movies and adds a purchasable movie.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
    var body struct {
        Title     string `json:"title"`     // display title used for substring search
        Thumbnail string `json:"thumbnail"` // poster file id or URL shown while browsing
        FileID    string `json:"file_id"`   // Telegram file id of the deliverable media
        Cost      string `json:"cost"`      // price in KES as a decimal string
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    title := strings.TrimSpace(body.Title)
    if title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
    }
    if strings.TrimSpace(body.FileID) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "file_id is required"})
    }
    cost, err := decimal.NewFromString(strings.TrimSpace(body.Cost))
    if err != nil || cost.IsNegative() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost must be a non-negative decimal"})
    }

    m := &model.Movie{
        Title:     title,
        Thumbnail: strings.TrimSpace(body.Thumbnail),
        FileID:    strings.TrimSpace(body.FileID),
        Cost:      cost,
    }
    if err := h.MovieRepo.Create(c.Request().Context(), m); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create movie"})
    }
    return c.JSON(http.StatusCreated, m)
}

// UpdateMovie handles PATCH /v1/admin/movies/:id.  Only the provided fields
// are changed; sending values identical to the stored row yields a 409.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    cur, err := h.MovieRepo.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrMovieNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
    }

    var body struct {
        Title     *string `json:"title"`
        Thumbnail *string `json:"thumbnail"`
        FileID    *string `json:"file_id"`
        Cost      *string `json:"cost"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.Title != nil && strings.TrimSpace(*body.Title) != "" {
        cur.Title = strings.TrimSpace(*body.Title)
    }
    if body.Thumbnail != nil {
        cur.Thumbnail = strings.TrimSpace(*body.Thumbnail)
    }
    if body.FileID != nil && strings.TrimSpace(*body.FileID) != "" {
        cur.FileID = strings.TrimSpace(*body.FileID)
    }
    if body.Cost != nil {
        cost, err := decimal.NewFromString(strings.TrimSpace(*body.Cost))
        if err != nil || cost.IsNegative() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost must be a non-negative decimal"})
        }
        cur.Cost = cost
    }

    if err := h.MovieRepo.Update(c.Request().Context(), &cur); err != nil {
        switch err {
        case repository.ErrMovieNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        case repository.ErrNoChange:
            return c.JSON(http.StatusConflict, echo.Map{"error": "movie already has these parameters"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    fresh, err := h.MovieRepo.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusOK, cur)
    }
    return c.JSON(http.StatusOK, fresh)
}

// DeleteMovie handles DELETE /v1/admin/movies/:id.
func (h *AdminHandler) DeleteMovie(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.MovieRepo.Delete(c.Request().Context(), id); err != nil {
        if err == repository.ErrMovieNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
