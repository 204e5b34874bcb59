package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bimcer/task-tracker/internal/auth"
	"github.com/bimcer/task-tracker/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func setupMiddlewareRouter(t *testing.T, tokens *auth.TokenManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/protected", RequireAuth(tokens), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/admin", RequireAuth(tokens), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r *gin.Engine, url, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "task-tracker", "task-tracker-api", time.Hour, time.Hour)
	r := setupMiddlewareRouter(t, tokens)

	token, _, err := tokens.CreateAccessToken(&models.User{
		ID:       "u1",
		Username: "alice",
		Email:    "alice@x.com",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)

	ok := doRequest(r, "/protected", token)
	require.Equal(t, http.StatusOK, ok.Code)
	require.Contains(t, ok.Body.String(), "u1")

	require.Equal(t, http.StatusUnauthorized, doRequest(r, "/protected", "").Code)
	require.Equal(t, http.StatusUnauthorized, doRequest(r, "/protected", "garbage").Code)
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", "task-tracker", "task-tracker-api", time.Hour, time.Hour)
	r := setupMiddlewareRouter(t, tokens)

	userToken, _, err := tokens.CreateAccessToken(&models.User{ID: "u1", Role: models.RoleUser})
	require.NoError(t, err)
	adminToken, _, err := tokens.CreateAccessToken(&models.User{ID: "a1", Role: models.RoleAdmin})
	require.NoError(t, err)

	require.Equal(t, http.StatusForbidden, doRequest(r, "/admin", userToken).Code)
	require.Equal(t, http.StatusOK, doRequest(r, "/admin", adminToken).Code)
}
