package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "boardview_session"

const sessionContextKey = "sessionID"

// Session extracts the session cookie and exposes its id to handlers. It
// never validates the credential itself; handlers resolve the id against the
// credential store per request.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			if id := strings.TrimSpace(cookie); id != "" {
				c.Set(sessionContextKey, id)
			}
		}
		c.Next()
	}
}

// SessionID returns the caller's session id when a session cookie was
// presented.
func SessionID(c *gin.Context) (string, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}
