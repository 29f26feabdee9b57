// File: internal/auth/provider.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"minitorque_web/internal/common"
)

// Provider is the hosted authentication service. Password handling, token issuance and
// revocation all happen on the provider side.
type Provider interface {
	// SignInWithPassword returns the identity and a short-lived ID token.
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, string, error)
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
	UpdateDisplayName(ctx context.Context, uid, displayName string) error
	// CreateSessionToken exchanges an ID token for a long-lived session token.
	CreateSessionToken(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	// VerifySessionToken validates a session token, including revocation.
	VerifySessionToken(ctx context.Context, token string) (*Identity, error)
	RevokeSessions(ctx context.Context, uid string) error
}

// ProviderError wraps a provider failure. Message is the provider's text, unmodified.
type ProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Message returns the string a form shows for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	if apiErr, ok := common.IsAPIError(err); ok {
		if details, ok := apiErr.Details.(string); ok && details != "" {
			return details
		}
		return apiErr.Message
	}
	return err.Error()
}

// HTTPStatus maps a sign-in or sign-up failure to a response status. Provider rejections
// use providerStatus.
func HTTPStatus(err error, providerStatus int) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return providerStatus
	}
	if apiErr, ok := common.IsAPIError(err); ok {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}
