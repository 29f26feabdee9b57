package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetails_LeavesPredefinedErrorUntouched(t *testing.T) {
	withDetails := ErrNotFound.WithDetails("Profile not found for this user.")

	assert.Nil(t, ErrNotFound.Details)
	assert.Equal(t, "Profile not found for this user.", withDetails.Details)
	assert.True(t, errors.Is(withDetails, ErrNotFound))
	assert.False(t, errors.Is(withDetails, ErrConflict))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", withDetails), ErrNotFound))
}

func TestFormatValidationErrors(t *testing.T) {
	type form struct {
		Email string `validate:"required"`
		Name  string `validate:"max=3"`
	}
	err := validator.New().Struct(form{Name: "toolong"})
	var ve validator.ValidationErrors
	require.True(t, errors.As(err, &ve))

	got := FormatValidationErrors(ve)

	assert.Equal(t, "The email field is required.", got["Email"])
	assert.Equal(t, "The name field may not be greater than 3 characters.", got["Name"])
}

func TestNewValidationAPIError(t *testing.T) {
	withMessage := NewValidationAPIError("Please fill in all required fields.", map[string]string{"Email": "required"})
	assert.Equal(t, http.StatusUnprocessableEntity, withMessage.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", withMessage.Code)
	assert.Equal(t, "Please fill in all required fields.", withMessage.Message)

	generic := NewValidationAPIError("", nil)
	assert.Equal(t, "Input validation failed.", generic.Message)
	assert.Nil(t, generic.Details)
}

func TestRespondOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondOK(c, "ok", gin.H{"n": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"ok","data":{"n":1}}`, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("API error keeps its status", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondWithError(c, ErrUnauthorized.WithDetails("Sign in to continue."))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"Authentication is required and has failed or has not yet been provided.","details":"Sign in to continue."}`, w.Body.String())
	})

	t.Run("unknown error becomes internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		RespondWithError(c, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"INTERNAL_SERVER_ERROR"`)
	})
}
