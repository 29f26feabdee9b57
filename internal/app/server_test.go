package app

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"minitorque_web/internal/auth"
	"minitorque_web/internal/auth/authtest"
	"minitorque_web/internal/config"
	"minitorque_web/internal/jobs"
	"minitorque_web/internal/platform/metrics"
	"minitorque_web/internal/profile"
	"minitorque_web/internal/session"
	"minitorque_web/internal/web"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serverFixture struct {
	server   *Server
	provider *authtest.Provider
}

func newServerFixture(t *testing.T, opts ...func(*config.Config)) *serverFixture {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{
		GinMode:                     "test",
		ServerHost:                  "127.0.0.1",
		ServerPort:                  "0",
		SessionCookieName:           "__session",
		SessionIDCookieName:         "sid",
		SessionTTL:                  time.Hour,
		SessionRestoreTimeout:       time.Second,
		SessionRevalidationSchedule: "@every 1h",
		MetricsEnabled:              true,
		CORSAllowedOrigins:          []string{"*"},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	provider := authtest.NewProvider()
	profileService := profile.NewService(authtest.NewProfileRepository(), logger)
	registry := metrics.NewRegistry()
	collector := metrics.ProvideCollector(registry)
	client := auth.NewClient(provider, profileService, auth.NewLocalStream(), collector, cfg, logger)
	sessions := session.NewProvider(client, cfg, logger)
	require.NoError(t, sessions.Start())
	t.Cleanup(sessions.Close)
	cookies := session.NewCookies(cfg)

	server, err := NewServer(
		cfg,
		logger,
		auth.NewHandler(client, cookies, logger),
		profile.NewHandler(profileService, logger),
		web.NewHandler(client, profileService, cookies, logger),
		sessions,
		cookies,
		jobs.NewSessionRevalidationJob(sessions, client, logger, cfg),
		collector,
		registry,
	)
	require.NoError(t, err)
	return &serverFixture{server: server, provider: provider}
}

func (f *serverFixture) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.server.Router().ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	f := newServerFixture(t)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_ViewsCarrySecurityHeaders(t *testing.T) {
	f := newServerFixture(t)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/signin", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestServer_ProtectedViewRedirects(t *testing.T) {
	f := newServerFixture(t)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/signin", w.Header().Get("Location"))
}

func TestServer_APIRequiresSession(t *testing.T) {
	f := newServerFixture(t)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.serve(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}

func TestServer_MetricsRecordSignIn(t *testing.T) {
	f := newServerFixture(t)
	f.provider.AddUser("ada@example.com", "secret123", "Ada Lovelace")

	form := url.Values{"email": {"ada@example.com"}, "password": {"secret123"}}
	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, f.serve(req).Code)

	w := f.serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `minitorque_signin_total{outcome="success"} 1`)
	assert.Contains(t, body, "minitorque_active_sessions 1")
	assert.Contains(t, body, `route="/signin"`)
}

func apiRequestFrom(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Origin", origin)
	return req
}

func TestServer_CORS(t *testing.T) {
	t.Run("wildcard origins never allow credentials", func(t *testing.T) {
		f := newServerFixture(t)

		w := f.serve(apiRequestFrom("https://elsewhere.example"))

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("listed origin gets credentials", func(t *testing.T) {
		f := newServerFixture(t, func(c *config.Config) {
			c.CORSAllowedOrigins = []string{"https://app.example"}
		})

		w := f.serve(apiRequestFrom("https://app.example"))

		assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unlisted origin is refused", func(t *testing.T) {
		f := newServerFixture(t, func(c *config.Config) {
			c.CORSAllowedOrigins = []string{"https://app.example"}
		})

		w := f.serve(apiRequestFrom("https://elsewhere.example"))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("wildcard mixed into a list still drops credentials", func(t *testing.T) {
		f := newServerFixture(t, func(c *config.Config) {
			c.CORSAllowedOrigins = []string{"https://app.example", "*"}
		})

		w := f.serve(apiRequestFrom("https://app.example"))

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}
