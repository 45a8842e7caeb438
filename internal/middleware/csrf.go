package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/noticeboard/pkg/crypto"
	"github.com/charlesng35/noticeboard/pkg/errors"
	"github.com/charlesng35/noticeboard/pkg/logger"
	"github.com/charlesng35/noticeboard/pkg/response"
)

const (
	// CSRFCookieName carries the double-submit token; dismiss.js reads it.
	CSRFCookieName = "noticeboard_csrf"
	// CSRFHeaderName is the header unsafe requests must echo the cookie in.
	CSRFHeaderName = "X-CSRF-Token"

	csrfTokenLength = 48
	csrfCookieTTL   = 12 * time.Hour
)

// CSRF applies the double-submit-cookie check to cookie-authenticated
// requests. Every request without a bearer token gets the cookie; POST, PUT,
// PATCH and DELETE must also present the same value in X-CSRF-Token.
func CSRF() gin.HandlerFunc {
	log := logger.WithModule("csrf")

	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || hasBearer(c) {
			c.Next()
			return
		}

		token, err := c.Cookie(CSRFCookieName)
		issued := err != nil || token == ""
		if issued {
			if token, err = crypto.GenerateToken(csrfTokenLength); err != nil {
				response.Error(c, errors.ErrInternalServer.WithInternal(err))
				c.Abort()
				return
			}
		}
		writeCSRFCookie(c, token)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			presented := strings.TrimSpace(c.GetHeader(CSRFHeaderName))
			if subtle.ConstantTimeCompare([]byte(token), []byte(presented)) != 1 {
				log.Warn("csrf validation failed",
					zap.String("method", c.Request.Method),
					zap.String("path", c.FullPath()),
					zap.Bool("cookie_issued", issued),
				)
				response.Error(c, errors.ErrCSRFInvalid)
				c.Abort()
				return
			}
		default:
			c.Header(CSRFHeaderName, token)
		}

		c.Next()
	}
}

// writeCSRFCookie refreshes the cookie. It stays readable by scripts so the
// client can echo it.
func writeCSRFCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(csrfCookieTTL.Seconds()),
		Secure:   c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https"),
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func hasBearer(c *gin.Context) bool {
	authz := c.GetHeader("Authorization")
	return len(authz) > len("Bearer ") && strings.EqualFold(authz[:len("Bearer ")], "Bearer ")
}
