package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkamau/filamu/internal/utils"
)

func runProtected(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/movies", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := JWTAuth(secret)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, c
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	at, err := utils.NewAccessToken("test-secret", 42, "jane", 15)
	require.NoError(t, err)

	rec, c := runProtected(t, "test-secret", "Bearer "+at.Token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(42), c.Get("admin_id"))
	assert.Equal(t, "jane", c.Get("admin_username"))
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	rec, _ := runProtected(t, "test-secret", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", 42, "jane", 15)
	require.NoError(t, err)

	rec, _ := runProtected(t, "test-secret", "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsExpiredToken(t *testing.T) {
	at, err := utils.NewAccessToken("test-secret", 42, "jane", -5)
	require.NoError(t, err)

	rec, _ := runProtected(t, "test-secret", "Bearer "+at.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
