// File: internal/auth/handler.go
package auth

import (
	"errors"
	"net/http"

	"minitorque_web/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionCookies is the cookie jar the handlers write the browser session into.
type SessionCookies interface {
	RotateSessionID(c *gin.Context) (sid, previous string, err error)
	SetToken(c *gin.Context, token string)
	ClearToken(c *gin.Context)
}

// Handler serves the JSON authentication API.
type Handler struct {
	client  *Client
	cookies SessionCookies
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(client *Client, cookies SessionCookies, logger *zap.Logger) *Handler {
	return &Handler{
		client:  client,
		cookies: cookies,
		logger:  logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signin", h.signIn)
		authGroup.POST("/signup", h.signUp)
		authGroup.POST("/signout", h.signOut)
	}
}

func (h *Handler) signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("SignIn: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	sid, err := h.rotateSession(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	signedIn, err := h.client.SignIn(c.Request.Context(), sid, req)
	if err != nil {
		common.RespondWithError(c, toAPIError(err, http.StatusUnauthorized, "SIGNIN_FAILED"))
		return
	}

	h.cookies.SetToken(c, signedIn.SessionToken)
	common.RespondOK(c, "Sign-in successful.", sessionResponse(signedIn))
}

func (h *Handler) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("SignUp: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	sid, err := h.rotateSession(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	signedIn, err := h.client.SignUp(c.Request.Context(), sid, req)
	if err != nil {
		common.RespondWithError(c, toAPIError(err, http.StatusBadRequest, "SIGNUP_FAILED"))
		return
	}

	h.cookies.SetToken(c, signedIn.SessionToken)
	common.RespondCreated(c, "Account created.", sessionResponse(signedIn))
}

func (h *Handler) signOut(c *gin.Context) {
	h.client.SignOut(c.Request.Context(), c.GetString(common.SessionIDKey), c.GetString(common.SessionUserIDKey))
	h.cookies.ClearToken(c)
	common.RespondNoContent(c)
}

// rotateSession moves the browser to a fresh session id and releases the one it had.
func (h *Handler) rotateSession(c *gin.Context) (string, error) {
	sid, previous, err := h.cookies.RotateSessionID(c)
	if err != nil {
		h.logger.Error("Failed to issue session id", zap.Error(err))
		return "", err
	}
	if previous != sid {
		h.client.Release(c.Request.Context(), previous)
	}
	return sid, nil
}

func sessionResponse(s *SignedIn) gin.H {
	return gin.H{
		"user":       s.Identity,
		"expires_in": int64(s.ExpiresIn.Seconds()),
	}
}

// toAPIError keeps the user-facing message of a failed sign-in or sign-up intact.
func toAPIError(err error, providerStatus int, code string) error {
	if apiErr, ok := common.IsAPIError(err); ok {
		return apiErr
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if len(ve.Fields) == 0 {
			return common.NewValidationAPIError(ve.Message, nil)
		}
		return common.NewValidationAPIError(ve.Message, ve.Fields)
	}
	status := HTTPStatus(err, providerStatus)
	if status == http.StatusInternalServerError {
		return err
	}
	return common.NewAPIError(status, code, Message(err))
}
