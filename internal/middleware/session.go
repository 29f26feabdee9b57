// File: internal/middleware/session.go
package middleware

import (
	"net/http"

	"minitorque_web/internal/common"
	"minitorque_web/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIPrefix is the path prefix of the JSON API.
const APIPrefix = "/api/"

// SessionMiddleware resolves the browser session (issuing a session id cookie if needed)
// and stores its state in the Gin context.
func SessionMiddleware(provider *session.Provider, cookies *session.Cookies, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := cookies.EnsureSessionID(c)
		if err != nil {
			logger.Error("Failed to issue session id", zap.Error(err))
			common.RespondWithError(c, common.ErrInternalServer.WithDetails("Could not start a browser session."))
			return
		}

		token := cookies.Token(c)
		state := provider.Current(c.Request.Context(), sid, token)
		if token != "" && !state.Loading && !state.SignedIn() {
			cookies.ClearToken(c)
		}

		c.Set(common.SessionIDKey, sid)
		c.Set(common.SessionStateKey, state)
		if state.SignedIn() {
			c.Set(common.SessionUserIDKey, state.Session.UserID)
		}
		c.Next()
	}
}

// RequireSession guards server-rendered views. While the session check is running the
// response is an empty 202 asking the browser to refresh; without a session it redirects
// to the sign-in view.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch session.Guard(CurrentState(c)) {
		case session.Withhold:
			c.Header("Refresh", "1")
			c.Header("Cache-Control", "no-store")
			c.AbortWithStatus(http.StatusAccepted)
		case session.Redirect:
			c.Redirect(http.StatusSeeOther, session.SignInPath)
			c.Abort()
		default:
			c.Next()
		}
	}
}

// RequireSessionAPI is RequireSession for JSON clients.
func RequireSessionAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch session.Guard(CurrentState(c)) {
		case session.Withhold:
			c.Header("Retry-After", "1")
			c.AbortWithStatus(http.StatusAccepted)
		case session.Redirect:
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Sign in to continue."))
		default:
			c.Next()
		}
	}
}

// CurrentState returns the session state resolved by SessionMiddleware.
func CurrentState(c *gin.Context) session.State {
	val, exists := c.Get(common.SessionStateKey)
	if !exists {
		return session.State{}
	}
	state, ok := val.(session.State)
	if !ok {
		return session.State{}
	}
	return state
}

// SessionID returns the browser session id resolved by SessionMiddleware.
func SessionID(c *gin.Context) string {
	return c.GetString(common.SessionIDKey)
}
