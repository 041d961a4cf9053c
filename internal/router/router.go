package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/jkamau/filamu/internal/handler"    // import the handlers that implement business logic
    "github.com/jkamau/filamu/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterCallback registers the M-Pesa gateway callback endpoint.  The
// gateway authenticates by origin, not by token, so no JWT middleware is
// applied here; the dispatcher's idempotency guards against replays.
func RegisterCallback(e *echo.Echo, cb *handler.CallbackHandler) {
    e.POST("/api/mpesa/callback", cb.Receive)
}

// RegisterAuth registers admin authentication routes.  Login lives under
// /v1/auth, while /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    // Register a POST endpoint to handle admin login at /v1/auth/login.
    g.POST("/login", a.Login)

    auth := e.Group("/v1")
    // Apply the JWTAuth middleware to the protected group using the provided secret.
    auth.Use(middleware.JWTAuth(jwtSecret))
    // Register a GET endpoint at /v1/me that returns the authenticated admin's information.
    auth.GET("/me", a.Me)
}

// RegisterAdmin registers the protected catalog, user, ledger and settings
// management routes under /v1/admin.  All routes require a valid admin JWT.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))

    // Movie catalog management.
    g.GET("/movies", h.ListMovies)
    g.POST("/movies", h.CreateMovie)
    g.PATCH("/movies/:id", h.UpdateMovie)
    g.DELETE("/movies/:id", h.DeleteMovie)

    // Series and episode management.  Episodes are nested under their series
    // for listing and creation; deletion addresses the episode directly.
    g.GET("/series", h.ListSeries)
    g.POST("/series", h.CreateSeries)
    g.PATCH("/series/:id", h.UpdateSeries)
    g.DELETE("/series/:id", h.DeleteSeries)
    g.GET("/series/:id/episodes", h.ListEpisodes)
    g.POST("/series/:id/episodes", h.CreateEpisode)
    g.DELETE("/episodes/:id", h.DeleteEpisode)

    // Ledger inspection.
    g.GET("/transactions", h.ListTransactions)
    g.GET("/transactions/:code", h.GetTransaction)

    // Bot user management.
    g.GET("/users", h.ListUsers)
    g.PATCH("/users/:id/active", h.SetUserActive)

    // Runtime settings.
    g.GET("/settings", h.GetSettings)
    g.PATCH("/settings", h.UpdateSettings)
}
