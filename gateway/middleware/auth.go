package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// SessionAuth 中间件：提取 Bearer token -> 包装成 backend.Session -> 注入上下文
// Requests without a header use fallback, the operator session stored by
// the login command, when it holds a token.
func SessionAuth(fallback *backend.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := fallback
		if header := c.GetHeader("Authorization"); header != "" {
			token := header
			if after, ok := strings.CutPrefix(header, "Bearer "); ok {
				token = after
			}
			token = strings.TrimSpace(token)
			if token == "" {
				unauthorized(c, "empty bearer token")
				return
			}
			sess = backend.NewTokenSession(token)
		}
		if !sess.Authenticated() {
			unauthorized(c, "missing Authorization header")
			return
		}
		if sess.Expired(time.Now()) {
			unauthorized(c, "token expired")
			return
		}
		if claims, err := sess.Claims(); err == nil && claims.Subject != "" {
			c.Set("user_id", claims.Subject)
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// SessionFrom returns the session SessionAuth stored, or nil.
func SessionFrom(c *gin.Context) *backend.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*backend.Session)
	return sess
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	c.Abort()
}
