package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath" // For cleaning the path
	"time"

	"minitorque_web/internal/auth"
	"minitorque_web/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

const emulatorHostEnv = "FIREBASE_AUTH_EMULATOR_HOST"

// FirebaseService is the auth.Provider backed by Firebase Authentication. Password sign-in
// goes through the Identity Toolkit REST API; everything else uses the Admin SDK.
type FirebaseService struct {
	authClient *fbauth.Client
	toolkit    *identitytoolkit.Service
	firestore  *firestore.Client
	logger     *zap.Logger
}

var _ auth.Provider = (*FirebaseService)(nil)

// NewFirebaseService initializes the Firebase Admin SDK, the Identity Toolkit client and,
// when profiles live in Firestore, the Firestore client.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, func(), error) {
	logger = logger.Named("FirebaseService")
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, nil, fmt.Errorf("firebase service account key path is required")
	}

	// The Admin SDK picks the emulator up from the environment only.
	if cfg.FirebaseAuthEmulatorHost != "" {
		if err := os.Setenv(emulatorHostEnv, cfg.FirebaseAuthEmulatorHost); err != nil {
			return nil, nil, fmt.Errorf("error configuring auth emulator: %w", err)
		}
		logger.Warn("Using Firebase Auth emulator", zap.String("host", cfg.FirebaseAuthEmulatorHost))
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	ctx := context.Background()
	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	toolkitOpts := []option.ClientOption{option.WithAPIKey(cfg.FirebaseAPIKey)}
	if cfg.FirebaseAuthEmulatorHost != "" {
		toolkitOpts = append(toolkitOpts,
			option.WithEndpoint(fmt.Sprintf("http://%s/www.googleapis.com/identitytoolkit/v3/relyingparty/", cfg.FirebaseAuthEmulatorHost)))
	}
	toolkit, err := identitytoolkit.NewService(ctx, toolkitOpts...)
	if err != nil {
		logger.Error("Failed to create Identity Toolkit client", zap.Error(err))
		return nil, nil, fmt.Errorf("error creating Identity Toolkit client: %w", err)
	}

	s := &FirebaseService{authClient: authClient, toolkit: toolkit, logger: logger}

	if cfg.ProfileStore == config.ProfileStoreFirestore {
		s.firestore, err = app.Firestore(ctx)
		if err != nil {
			logger.Error("Failed to get Firestore client", zap.Error(err))
			return nil, nil, fmt.Errorf("error getting Firestore client: %w", err)
		}
	}

	cleanup := func() {
		if s.firestore != nil {
			if err := s.firestore.Close(); err != nil {
				logger.Error("Error closing Firestore client", zap.Error(err))
			}
		}
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return s, cleanup, nil
}

// ProvideFirestore exposes the Firestore client to the profile store. It is nil unless
// PROFILE_STORE is firestore.
func ProvideFirestore(s *FirebaseService) *firestore.Client {
	return s.firestore
}

func (s *FirebaseService) SignInWithPassword(ctx context.Context, email, password string) (*auth.Identity, string, error) {
	resp, err := s.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, "", s.wrap("signInWithPassword", err)
	}
	return &auth.Identity{UID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName}, resp.IdToken, nil
}

func (s *FirebaseService) CreateAccount(ctx context.Context, email, password string) (*auth.Identity, error) {
	params := (&fbauth.UserToCreate{}).Email(email).Password(password)
	record, err := s.authClient.CreateUser(ctx, params)
	if err != nil {
		return nil, s.wrap("createUser", err)
	}
	s.logger.Info("Firebase account created", zap.String("uid", record.UID))
	return identityFromRecord(record), nil
}

func (s *FirebaseService) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	params := (&fbauth.UserToUpdate{}).DisplayName(displayName)
	if _, err := s.authClient.UpdateUser(ctx, uid, params); err != nil {
		return s.wrap("updateProfile", err)
	}
	return nil
}

func (s *FirebaseService) CreateSessionToken(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	cookie, err := s.authClient.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		return "", s.wrap("createSessionCookie", err)
	}
	return cookie, nil
}

// VerifySessionToken checks the session cookie signature, expiry and revocation.
func (s *FirebaseService) VerifySessionToken(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, &auth.ProviderError{Op: "verifySessionCookie", Message: "session token must not be empty"}
	}
	decoded, err := s.authClient.VerifySessionCookieAndCheckRevoked(ctx, token)
	if err != nil {
		s.logger.Debug("Firebase session cookie verification failed", zap.Error(err))
		return nil, s.wrap("verifySessionCookie", err)
	}
	identity := &auth.Identity{UID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := decoded.Claims["name"].(string); ok {
		identity.DisplayName = name
	}
	return identity, nil
}

// RevokeSessions revokes all refresh tokens, and with them all session cookies, for a user.
func (s *FirebaseService) RevokeSessions(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return s.wrap("revokeRefreshTokens", err)
	}
	s.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}

// wrap keeps the provider's own message; the REST API reports it in googleapi.Error.Message.
func (s *FirebaseService) wrap(op string, err error) error {
	message := err.Error()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		message = gerr.Message
	}
	return &auth.ProviderError{Op: op, Message: message, Err: err}
}

func identityFromRecord(record *fbauth.UserRecord) *auth.Identity {
	return &auth.Identity{UID: record.UID, Email: record.Email, DisplayName: record.DisplayName}
}
