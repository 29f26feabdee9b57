// File: internal/auth/client.go
package auth

import (
	"context"
	"errors"
	"time"

	"minitorque_web/internal/common"
	"minitorque_web/internal/config"
	"minitorque_web/internal/profile"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Outcome labels reported to the OutcomeRecorder.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
)

// OutcomeRecorder receives sign-in/sign-up outcomes (metrics).
type OutcomeRecorder interface {
	RecordSignIn(outcome string)
	RecordSignUp(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordSignIn(string) {}
func (nopRecorder) RecordSignUp(string) {}

// Client wraps the hosted provider and is the only publisher of auth-state changes.
type Client struct {
	provider       Provider
	profiles       profile.Service
	stream         Stream
	recorder       OutcomeRecorder
	validate       *validator.Validate
	sessionTTL     time.Duration
	restoreTimeout time.Duration
	logger         *zap.Logger
}

// NewClient creates a new auth client.
func NewClient(
	provider Provider,
	profiles profile.Service,
	stream Stream,
	recorder OutcomeRecorder,
	cfg *config.Config,
	logger *zap.Logger,
) *Client {
	restoreTimeout := cfg.SessionRestoreTimeout
	if restoreTimeout <= 0 {
		restoreTimeout = 10 * time.Second
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Client{
		provider:       provider,
		profiles:       profiles,
		stream:         stream,
		recorder:       recorder,
		validate:       newValidator(),
		sessionTTL:     cfg.SessionTTL,
		restoreTimeout: restoreTimeout,
		logger:         logger.Named("AuthClient"),
	}
}

// OnAuthStateChanged registers fn for every auth-state change.
func (c *Client) OnAuthStateChanged(fn func(Change)) (unsubscribe func()) {
	return c.stream.Subscribe(fn)
}

// SignIn forwards the credentials to the provider and starts a session for sid.
func (c *Client) SignIn(ctx context.Context, sid string, req SignInRequest) (*SignedIn, error) {
	if err := c.check(req, MsgMissingCredentials); err != nil {
		c.recorder.RecordSignIn(OutcomeInvalid)
		return nil, err
	}

	identity, idToken, err := c.provider.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		c.logger.Info("Sign-in rejected by provider", zap.String("reason", Message(err)))
		c.recorder.RecordSignIn(OutcomeRejected)
		return nil, err
	}

	signedIn, err := c.startSession(ctx, sid, identity, idToken)
	if err != nil {
		c.recorder.RecordSignIn(OutcomeRejected)
		return nil, err
	}
	c.recorder.RecordSignIn(OutcomeSuccess)
	c.logger.Info("User signed in", zap.String("uid", identity.UID))
	return signedIn, nil
}

// SignUp creates the account, sets its display name, writes the profile record and signs
// the new user in. Nothing reaches the provider unless every field is non-blank.
func (c *Client) SignUp(ctx context.Context, sid string, req SignUpRequest) (*SignedIn, error) {
	if err := c.check(req, MsgMissingSignUpFields); err != nil {
		c.recorder.RecordSignUp(OutcomeInvalid)
		return nil, err
	}

	signedIn, err := c.signUp(ctx, sid, req)
	if err != nil {
		c.logger.Info("Sign-up failed", zap.String("reason", Message(err)))
		c.recorder.RecordSignUp(OutcomeRejected)
		return nil, err
	}
	c.recorder.RecordSignUp(OutcomeSuccess)
	c.logger.Info("User signed up", zap.String("uid", signedIn.Identity.UID))
	return signedIn, nil
}

func (c *Client) signUp(ctx context.Context, sid string, req SignUpRequest) (*SignedIn, error) {
	identity, err := c.provider.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	displayName := req.DisplayName()
	if err := c.provider.UpdateDisplayName(ctx, identity.UID, displayName); err != nil {
		return nil, err
	}
	identity.DisplayName = displayName

	record := &profile.Record{
		UID:         identity.UID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DisplayName: displayName,
		Email:       identity.Email,
		PhoneNumber: req.Phone,
		Address:     req.Address,
	}
	if err := c.profiles.Create(ctx, record); err != nil {
		return nil, err
	}

	_, idToken, err := c.provider.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return c.startSession(ctx, sid, identity, idToken)
}

func (c *Client) startSession(ctx context.Context, sid string, identity *Identity, idToken string) (*SignedIn, error) {
	token, err := c.provider.CreateSessionToken(ctx, idToken, c.sessionTTL)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, Change{SessionID: sid, Identity: identity, Token: token})
	return &SignedIn{Identity: *identity, SessionToken: token, ExpiresIn: c.sessionTTL}, nil
}

// SignOut revokes the user's provider sessions and clears sid. A failed revocation is
// logged; the local session is cleared regardless.
func (c *Client) SignOut(ctx context.Context, sid, uid string) {
	if uid != "" {
		if err := c.provider.RevokeSessions(ctx, uid); err != nil {
			c.logger.Warn("Failed to revoke provider sessions", zap.Error(err), zap.String("uid", uid))
		}
	}
	c.publish(ctx, Change{SessionID: sid})
	c.logger.Info("User signed out", zap.String("uid", uid))
}

// Release drops the session held under sid after the browser moved to a new session id.
// Unlike SignOut it leaves the user's provider sessions alone.
func (c *Client) Release(ctx context.Context, sid string) {
	if sid == "" {
		return
	}
	c.publish(ctx, Change{SessionID: sid, Released: true})
}

// Restore marks sid as pending and verifies token in the background; the outcome is
// published when verification finishes.
func (c *Client) Restore(ctx context.Context, sid, token string) {
	c.publish(ctx, Change{SessionID: sid, Pending: true})

	go func() {
		verifyCtx, cancel := context.WithTimeout(context.Background(), c.restoreTimeout)
		defer cancel()

		identity, err := c.provider.VerifySessionToken(verifyCtx, token)
		if err != nil {
			c.logger.Info("Session token could not be restored", zap.Error(err))
			c.publish(verifyCtx, Change{SessionID: sid})
			return
		}
		c.publish(verifyCtx, Change{SessionID: sid, Identity: identity, Token: token})
	}()
}

// Revalidate re-verifies an active session token. sid is signed out only when the
// provider rejects the token; any other failure leaves the session in place.
func (c *Client) Revalidate(ctx context.Context, sid, token string) (signedOut bool, err error) {
	if _, err := c.provider.VerifySessionToken(ctx, token); err != nil {
		var providerErr *ProviderError
		if !errors.As(err, &providerErr) {
			c.logger.Warn("Session revalidation inconclusive, keeping session", zap.Error(err), zap.String("sid", sid))
			return false, err
		}
		c.publish(ctx, Change{SessionID: sid})
		return true, err
	}
	return false, nil
}

func (c *Client) check(req interface{}, message string) error {
	err := c.validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &ValidationError{Message: message, Fields: common.FormatValidationErrors(ve)}
	}
	return &ValidationError{Message: message}
}

func (c *Client) publish(ctx context.Context, change Change) {
	if err := c.stream.Publish(ctx, change); err != nil {
		c.logger.Error("Failed to publish auth-state change", zap.Error(err), zap.String("sid", change.SessionID))
	}
}
