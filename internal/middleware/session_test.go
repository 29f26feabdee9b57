package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"minitorque_web/internal/auth"
	"minitorque_web/internal/auth/authtest"
	"minitorque_web/internal/common"
	"minitorque_web/internal/config"
	"minitorque_web/internal/profile"
	"minitorque_web/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func withState(state session.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(common.SessionStateKey, state)
		c.Next()
	}
}

func guardedRouter(state session.State) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", withState(state), RequireSession(), func(c *gin.Context) {
		c.String(http.StatusOK, "protected content")
	})
	r.GET("/api/v1/users/me", withState(state), RequireSessionAPI(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireSession(t *testing.T) {
	t.Run("loading renders neither content nor redirect", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(session.State{Loading: true}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Empty(t, w.Header().Get("Location"))
		assert.Equal(t, "1", w.Header().Get("Refresh"))
	})

	t.Run("no session redirects to sign-in", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(session.State{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/signin", w.Header().Get("Location"))
		assert.NotContains(t, w.Body.String(), "protected content")
	})

	t.Run("session renders content", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(session.State{Session: &session.Session{UserID: "uid-1"}}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "protected content", w.Body.String())
	})
}

func TestRequireSessionAPI(t *testing.T) {
	t.Run("loading asks the client to retry", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(session.State{Loading: true}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "1", w.Header().Get("Retry-After"))
		assert.Empty(t, w.Body.String())
	})

	t.Run("no session is unauthorized", func(t *testing.T) {
		w := httptest.NewRecorder()
		guardedRouter(session.State{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
	})
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := &config.Config{
		SessionCookieName:     "__session",
		SessionIDCookieName:   "sid",
		SessionTTL:            time.Hour,
		SessionRestoreTimeout: time.Second,
	}
	fake := authtest.NewProvider()
	client := auth.NewClient(fake, profile.NewService(authtest.NewProfileRepository(), logger), auth.NewLocalStream(), nil, cfg, logger)
	provider := session.NewProvider(client, cfg, logger)
	require.NoError(t, provider.Start())
	defer provider.Close()

	var seen session.State
	var seenSID string
	r := gin.New()
	r.Use(SessionMiddleware(provider, session.NewCookies(cfg), logger))
	r.GET("/", func(c *gin.Context) {
		seen = CurrentState(c)
		seenSID = SessionID(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("first visit issues a session id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seenSID)
		assert.False(t, seen.Loading)
		assert.False(t, seen.SignedIn())
		var issued bool
		for _, ck := range w.Result().Cookies() {
			if ck.Name == "sid" && ck.Value == seenSID {
				issued = true
			}
		}
		assert.True(t, issued)
	})

	t.Run("unknown token starts loading", func(t *testing.T) {
		fake.AddUser("ada@example.com", "secret123", "Ada Lovelace")
		token := fake.IssueSession("ada@example.com")
		fake.VerifyGate = make(chan struct{})
		defer close(fake.VerifyGate)

		browserSID, err := session.NewSessionID()
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: browserSID})
		req.AddCookie(&http.Cookie{Name: "__session", Value: token})
		r.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, browserSID, seenSID)
		assert.True(t, seen.Loading)
	})

	t.Run("client-chosen session id is replaced, not restored", func(t *testing.T) {
		token := fake.IssueSession("ada@example.com")
		fake.VerifyGate = make(chan struct{})
		defer close(fake.VerifyGate)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "browser-3"})
		req.AddCookie(&http.Cookie{Name: "__session", Value: token})
		r.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, "browser-3", seenSID)
		assert.True(t, session.ValidSessionID(seenSID))
		assert.True(t, seen.Loading)
	})
}
