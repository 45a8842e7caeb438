package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/noticeboard/internal/auth"
	"github.com/charlesng35/noticeboard/pkg/errors"
	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"

	// DefaultSessionCookie carries the access token for browser clients.
	DefaultSessionCookie = "noticeboard_session"
)

// AuthOptions tunes where access tokens are read from and which sessions are rejected.
type AuthOptions struct {
	CookieName  string
	Revocations *iauth.RevocationList
}

// Auth enforces JWT authentication. The token is taken from the
// Authorization bearer header, falling back to the session cookie.
func Auth(jwt *iauth.JWTService, opts AuthOptions) gin.HandlerFunc {
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}

	return func(c *gin.Context) {
		token := accessToken(c, cookieName)
		if token == "" {
			unauthorized(c)
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			unauthorized(c)
			return
		}

		revoked, err := opts.Revocations.IsRevoked(c.Request.Context(), claims.SessionID)
		if err != nil {
			logger.WithModule("auth").Warn("revocation lookup failed", zap.Error(err))
		}
		if revoked {
			unauthorized(c)
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		if claims.SessionID != "" {
			c.Set(CtxSessionIDKey, claims.SessionID)
		}

		c.Next()
	}
}

func accessToken(c *gin.Context, cookieName string) string {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Error(c, errors.ErrUnauthorized)
	c.Abort()
}
