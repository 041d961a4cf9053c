package handler // handler package contains admin series and episode handlers

import (
    "net/http" // http defines status codes
    "strconv"  // strconv converts path params to integers
    "strings"  // strings helps with trimming whitespace

    "github.com/labstack/echo/v4"  // echo provides the web context and JSON helpers
    "github.com/shopspring/decimal" // decimal parses prices without float drift

    "github.com/jkamau/filamu/internal/model"      // model defines catalog entities
    "github.com/jkamau/filamu/internal/repository" // repository defines sentinel errors
)

// ListSeries handles GET /v1/admin/series with optional ?search= and pagination.
func (h *AdminHandler) ListSeries(c echo.Context) error {
    limit, offset := pageParams(c)
    items, err := h.SeriesRepo.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("search")), limit, offset)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load series"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// CreateSeries handles POST /v1/admin/series.  A series has no price of its
// own; pricing lives on episodes.
func (h *AdminHandler) CreateSeries(c echo.Context) error {
    var body struct {
        Title     string `json:"title"`
        Thumbnail string `json:"thumbnail"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    title := strings.TrimSpace(body.Title)
    if title == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
    }
    s := &model.Series{Title: title, Thumbnail: strings.TrimSpace(body.Thumbnail)}
    if err := h.SeriesRepo.Create(c.Request().Context(), s); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create series"})
    }
    return c.JSON(http.StatusCreated, s)
}

// UpdateSeries handles PATCH /v1/admin/series/:id.
func (h *AdminHandler) UpdateSeries(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    cur, err := h.SeriesRepo.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrSeriesNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load series"})
    }

    var body struct {
        Title     *string `json:"title"`
        Thumbnail *string `json:"thumbnail"`
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

    if err := h.SeriesRepo.Update(c.Request().Context(), &cur); err != nil {
        switch err {
        case repository.ErrSeriesNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
        case repository.ErrNoChange:
            return c.JSON(http.StatusConflict, echo.Map{"error": "series already has these parameters"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    fresh, err := h.SeriesRepo.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusOK, cur)
    }
    return c.JSON(http.StatusOK, fresh)
}

// DeleteSeries handles DELETE /v1/admin/series/:id.  Episodes cascade at the
// database level.
func (h *AdminHandler) DeleteSeries(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.SeriesRepo.Delete(c.Request().Context(), id); err != nil {
        if err == repository.ErrSeriesNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// ListEpisodes handles GET /v1/admin/series/:id/episodes and returns the
// full episode list ordered by episode number.
func (h *AdminHandler) ListEpisodes(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if _, err := h.SeriesRepo.GetByID(c.Request().Context(), id); err != nil {
        if err == repository.ErrSeriesNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load series"})
    }
    eps, err := h.SeriesRepo.EpisodesBySeries(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load episodes"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": eps})
}

// CreateEpisode handles POST /v1/admin/series/:id/episodes.  Episode numbers
// are unique per series; a duplicate number yields a 409.
func (h *AdminHandler) CreateEpisode(c echo.Context) error {
    seriesID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if _, err := h.SeriesRepo.GetByID(c.Request().Context(), seriesID); err != nil {
        if err == repository.ErrSeriesNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load series"})
    }

    var body struct {
        EpisodeNumber int    `json:"episode_number"`
        FileID        string `json:"file_id"`
        Poster        string `json:"poster"`
        Cost          string `json:"cost"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.EpisodeNumber < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "episode_number must be positive"})
    }
    if strings.TrimSpace(body.FileID) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "file_id is required"})
    }
    cost, err := decimal.NewFromString(strings.TrimSpace(body.Cost))
    if err != nil || cost.IsNegative() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "cost must be a non-negative decimal"})
    }

    e := &model.Episode{
        SeriesID:      seriesID,
        EpisodeNumber: body.EpisodeNumber,
        FileID:        strings.TrimSpace(body.FileID),
        Poster:        strings.TrimSpace(body.Poster),
        Cost:          cost,
    }
    if err := h.SeriesRepo.CreateEpisode(c.Request().Context(), e); err != nil {
        if err == repository.ErrNoChange {
            return c.JSON(http.StatusConflict, echo.Map{"error": "episode number already exists for this series"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create episode"})
    }
    return c.JSON(http.StatusCreated, e)
}

// DeleteEpisode handles DELETE /v1/admin/episodes/:id.
func (h *AdminHandler) DeleteEpisode(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    if err := h.SeriesRepo.DeleteEpisode(c.Request().Context(), id); err != nil {
        if err == repository.ErrEpisodeNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "episode not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
