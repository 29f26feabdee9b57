// File: internal/web/handler.go
package web

import (
	"errors"
	"net/http"

	"minitorque_web/internal/auth"
	"minitorque_web/internal/common"
	"minitorque_web/internal/middleware"
	"minitorque_web/internal/profile"
	"minitorque_web/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HomePath is where a successful sign-in or sign-up lands.
const HomePath = "/"

// page is the data every view template receives.
type page struct {
	Title   string
	Error   string
	Form    interface{}
	Session *session.Session
	Profile *profile.Response
}

// Handler serves the server-rendered views.
type Handler struct {
	client   *auth.Client
	profiles profile.Service
	cookies  *session.Cookies
	logger   *zap.Logger
}

// NewHandler creates a new view handler.
func NewHandler(client *auth.Client, profiles profile.Service, cookies *session.Cookies, logger *zap.Logger) *Handler {
	return &Handler{
		client:   client,
		profiles: profiles,
		cookies:  cookies,
		logger:   logger.Named("WebHandler"),
	}
}

// RegisterRoutes sets up the public and protected views. requireSession guards the
// protected ones.
func (h *Handler) RegisterRoutes(router gin.IRouter, requireSession gin.HandlerFunc) {
	router.GET("/signin", h.signInForm)
	router.POST("/signin", h.signIn)
	router.GET("/signup", h.signUpForm)
	router.POST("/signup", h.signUp)
	router.POST("/signout", h.signOut)

	protected := router.Group("", requireSession)
	{
		protected.GET("/", h.home)
		protected.GET("/profile", h.profile)
	}
}

func (h *Handler) signInForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signin", page{Title: "Sign In", Form: auth.SignInRequest{}})
}

func (h *Handler) signIn(c *gin.Context) {
	var req auth.SignInRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("SignIn: Invalid form", zap.Error(err))
	}

	signedIn, err := h.startSession(c, func(sid string) (*auth.SignedIn, error) {
		return h.client.SignIn(c.Request.Context(), sid, req)
	})
	if err != nil {
		req.Password = ""
		c.HTML(auth.HTTPStatus(err, http.StatusUnauthorized), "signin", page{Title: "Sign In", Error: auth.Message(err), Form: req})
		return
	}

	h.cookies.SetToken(c, signedIn.SessionToken)
	c.Redirect(http.StatusSeeOther, HomePath)
}

func (h *Handler) signUpForm(c *gin.Context) {
	c.HTML(http.StatusOK, "signup", page{Title: "Sign Up", Form: auth.SignUpRequest{}})
}

func (h *Handler) signUp(c *gin.Context) {
	var req auth.SignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("SignUp: Invalid form", zap.Error(err))
	}

	signedIn, err := h.startSession(c, func(sid string) (*auth.SignedIn, error) {
		return h.client.SignUp(c.Request.Context(), sid, req)
	})
	if err != nil {
		req.Password = ""
		c.HTML(auth.HTTPStatus(err, http.StatusBadRequest), "signup", page{Title: "Sign Up", Error: auth.Message(err), Form: req})
		return
	}

	h.cookies.SetToken(c, signedIn.SessionToken)
	c.Redirect(http.StatusSeeOther, HomePath)
}

// startSession runs fn under a fresh session id so a signed-in session never reuses the
// id it had while anonymous. The previous id's session is released.
func (h *Handler) startSession(c *gin.Context, fn func(sid string) (*auth.SignedIn, error)) (*auth.SignedIn, error) {
	sid, previous, err := h.cookies.RotateSessionID(c)
	if err != nil {
		h.logger.Error("Failed to issue session id", zap.Error(err))
		return nil, err
	}
	if previous != sid {
		h.client.Release(c.Request.Context(), previous)
	}
	return fn(sid)
}

func (h *Handler) signOut(c *gin.Context) {
	var uid string
	if state := middleware.CurrentState(c); state.SignedIn() {
		uid = state.Session.UserID
	}
	h.client.SignOut(c.Request.Context(), middleware.SessionID(c), uid)
	h.cookies.ClearToken(c)
	c.Redirect(http.StatusSeeOther, session.SignInPath)
}

func (h *Handler) home(c *gin.Context) {
	c.HTML(http.StatusOK, "home", page{Title: "Home", Session: middleware.CurrentState(c).Session})
}

func (h *Handler) profile(c *gin.Context) {
	current := middleware.CurrentState(c).Session
	data := page{Title: "Profile", Session: current}

	record, err := h.profiles.Get(c.Request.Context(), current.UserID)
	switch {
	case err == nil:
		resp := profile.ToResponse(record)
		data.Profile = &resp
	case errors.Is(err, common.ErrNotFound):
		data.Error = "No profile has been saved for this account."
	default:
		middleware.RequestLogger(c, h.logger).Error("Failed to load profile", zap.Error(err), zap.String("uid", current.UserID))
		data.Error = "Your profile could not be loaded. Please try again."
		c.HTML(http.StatusInternalServerError, "profile", data)
		return
	}
	c.HTML(http.StatusOK, "profile", data)
}
