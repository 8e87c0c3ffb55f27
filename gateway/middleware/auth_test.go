package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

func newRouter(fallback *backend.Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", SessionAuth(fallback), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "token": SessionFrom(c).Token()})
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionAuth(t *testing.T) {
	valid := signed(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	expired := signed(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})

	cases := []struct {
		name     string
		fallback *backend.Session
		header   string
		want     int
		body     string
	}{
		{"no header no fallback", nil, "", http.StatusUnauthorized, "missing Authorization header"},
		{"empty bearer", nil, "Bearer  ", http.StatusUnauthorized, "empty bearer token"},
		{"expired", nil, "Bearer " + expired, http.StatusUnauthorized, "token expired"},
		{"valid jwt", nil, "Bearer " + valid, http.StatusOK, "user-1"},
		{"opaque token", nil, "Bearer opaque", http.StatusOK, "opaque"},
		{"fallback session", backend.NewTokenSession("operator"), "", http.StatusOK, "operator"},
		{"empty fallback", backend.NewTokenSession(""), "", http.StatusUnauthorized, "missing Authorization header"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(newRouter(tc.fallback), tc.header)
			assert.Equal(t, tc.want, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestSessionFromWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, SessionFrom(c))
}
