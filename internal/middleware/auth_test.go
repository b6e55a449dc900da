package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func newAuthRouter(secret string, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	chain := append([]gin.HandlerFunc{AuthMiddleware(secret)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		id, _ := UserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	router.GET("/protected", chain...)
	return router
}

func doGet(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := IssueToken(testSecret, 42, "alice", []string{"user"}, time.Hour)
	assert.NoError(t, err)

	w := doGet(newAuthRouter(testSecret), token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":42`)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	w := doGet(newAuthRouter(testSecret), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_TOKEN")
}

func TestAuthMiddlewareBadFormat(t *testing.T) {
	router := newAuthRouter(testSecret)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN_FORMAT")
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	token, err := IssueToken("other-secret", 1, "bob", nil, time.Hour)
	assert.NoError(t, err)

	w := doGet(newAuthRouter(testSecret), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareExpiredToken(t *testing.T) {
	token, err := IssueToken(testSecret, 1, "bob", nil, -time.Minute)
	assert.NoError(t, err)

	w := doGet(newAuthRouter(testSecret), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleAllowsRole(t *testing.T) {
	token, _ := IssueToken(testSecret, 2, "carol", []string{"editor"}, time.Hour)

	w := doGet(newAuthRouter(testSecret, RequireRole("editor")), token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleAdminOverride(t *testing.T) {
	token, _ := IssueToken(testSecret, 3, "dave", []string{"admin"}, time.Hour)

	w := doGet(newAuthRouter(testSecret, RequireRole("editor")), token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	token, _ := IssueToken(testSecret, 4, "eve", []string{"user"}, time.Hour)

	w := doGet(newAuthRouter(testSecret, RequireRole("editor")), token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INSUFFICIENT_PERMISSIONS")
}
