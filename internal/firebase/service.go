package firebase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"therapylink_backend/internal/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Identity is the verified subset of an ID token the backend relies on.
type Identity struct {
	UID       string
	Email     string
	FirstName string
	LastName  string
	Role      string // raw "role" custom claim, may be empty
}

// IdentityProvider verifies bearer tokens and manages provider-side sessions.
type IdentityProvider interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseService implements IdentityProvider on the Firebase Admin SDK.
type FirebaseService struct {
	authClient *auth.Client
	logger     *zap.Logger
}

var _ IdentityProvider = (*FirebaseService)(nil)

// NewFirebaseService initializes the Firebase Admin SDK from the service
// account key file in config.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}

	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &FirebaseService{
		authClient: authClient,
		logger:     logger.Named("Firebase"),
	}, nil
}

// VerifyIDToken verifies the token signature and that the session has not
// been revoked by an account deletion.
func (s *FirebaseService) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return IdentityFromToken(token), nil
}

// RevokeRefreshTokens revokes all refresh tokens for a given user.
func (s *FirebaseService) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}

// IdentityFromToken reads email, display name and the role claim.
func IdentityFromToken(token *auth.Token) *Identity {
	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = strings.ToLower(strings.TrimSpace(email))
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.FirstName, id.LastName = splitName(name)
	}
	if role, ok := token.Claims["role"].(string); ok {
		id.Role = role
	}
	return id
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
