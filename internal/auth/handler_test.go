package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiFixture struct {
	router   *gin.Engine
	provider *authtest.Provider
	profiles *authtest.ProfileRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	cfg := &config.Config{
		SessionCookieName:   "__session",
		SessionIDCookieName: "sid",
		SessionTTL:          time.Hour,
	}
	provider := authtest.NewProvider()
	profiles := authtest.NewProfileRepository()
	client := auth.NewClient(provider, profile.NewService(profiles, logger), auth.NewLocalStream(), nil, cfg, logger)

	r := gin.New()
	auth.NewHandler(client, session.NewCookies(cfg), logger).RegisterRoutes(r.Group("/api/v1"))
	return &apiFixture{router: r, provider: provider, profiles: profiles}
}

func (f *apiFixture) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func cookieValue(w *httptest.ResponseRecorder, name string) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func TestHandler_SignIn(t *testing.T) {
	f := newAPIFixture(t)
	f.provider.AddUser("ada@example.com", "secret123", "Ada Lovelace")

	w := f.post("/api/v1/auth/signin", `{"email":"ada@example.com","password":"secret123"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, cookieValue(w, "sid"))
	assert.NotEmpty(t, cookieValue(w, "__session"))

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			User auth.Identity `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Ada Lovelace", resp.Data.User.DisplayName)
}

func TestHandler_SignIn_InvalidCredentials(t *testing.T) {
	f := newAPIFixture(t)
	f.provider.AddUser("ada@example.com", "secret123", "Ada Lovelace")

	w := f.post("/api/v1/auth/signin", `{"email":"ada@example.com","password":"nope"}`)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var apiErr common.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	assert.Equal(t, "SIGNIN_FAILED", apiErr.Code)
	assert.Equal(t, authtest.MsgInvalidPassword, apiErr.Message)
	assert.Empty(t, cookieValue(w, "__session"))
}

func TestHandler_SignUp(t *testing.T) {
	t.Run("blank field", func(t *testing.T) {
		f := newAPIFixture(t)

		w := f.post("/api/v1/auth/signup", `{"first_name":"Ada","last_name":"","email":"ada@example.com","password":"secret123","phone":"555","address":"x"}`)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var apiErr common.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
		assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
		assert.Equal(t, auth.MsgMissingSignUpFields, apiErr.Message)
		assert.Contains(t, w.Body.String(), `"details":{`)
		f.provider.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("complete form", func(t *testing.T) {
		f := newAPIFixture(t)

		w := f.post("/api/v1/auth/signup", `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","password":"secret123","phone":"555","address":"12 Analytical Way"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		f.provider.AssertNumberOfCalls(t, "CreateAccount", 1)
		assert.Len(t, f.profiles.Records(), 1)
		assert.NotEmpty(t, cookieValue(w, "__session"))
	})
}

func TestHandler_SignOut(t *testing.T) {
	f := newAPIFixture(t)

	w := f.post("/api/v1/auth/signout", ``)

	assert.Equal(t, http.StatusNoContent, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == "__session" {
			assert.Empty(t, c.Value)
			assert.Less(t, c.MaxAge, 0)
		}
	}
}
