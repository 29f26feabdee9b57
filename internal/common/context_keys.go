// File: internal/common/context_keys.go
package common

const (
	// RequestIDHeader is the header carrying the request ID.
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "requestID"
	// LoggerKey is the gin context key for the request-scoped logger.
	LoggerKey = "logger"
	// SessionIDKey is the gin context key for the browser session ID.
	SessionIDKey = "sessionID"
	// SessionStateKey is the gin context key for the resolved session.State.
	SessionStateKey = "sessionState"
	// SessionUserIDKey is the gin context key for the signed-in user's ID, if any.
	SessionUserIDKey = "sessionUserID"
)
