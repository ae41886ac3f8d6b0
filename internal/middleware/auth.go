// File: internal/middleware/auth.go
package middleware

import (
	"context"

	"therapylink_backend/internal/common"
	"therapylink_backend/internal/firebase"
	"therapylink_backend/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentityResolver maps a verified identity to the local user record,
// creating it on first sight.
type IdentityResolver interface {
	GetOrCreateFromIdentity(ctx context.Context, identity *firebase.Identity) (*user.User, error)
}

// FirebaseAuthMiddleware verifies the bearer ID token and loads (or
// provisions) the caller's user record.
func FirebaseAuthMiddleware(identity firebase.IdentityProvider, users IdentityResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization header missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header must be 'Bearer <token>'."))
			return
		}

		verified, err := identity.VerifyIDToken(c.Request.Context(), token)
		if err != nil {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired ID token."))
			return
		}

		u, err := users.GetOrCreateFromIdentity(c.Request.Context(), verified)
		if err != nil {
			logger.Error("Failed to resolve user for verified identity", zap.Error(err), zap.String("firebaseUID", verified.UID))
			common.RespondWithError(c, err)
			return
		}

		c.Set(common.UserIDKey, u.ID)
		c.Set(common.UserEmailKey, u.Email)
		c.Set(common.UserRoleKey, u.Role)
		c.Set(common.FirebaseUIDKey, verified.UID)

		logger.Debug("User authenticated successfully",
			zap.String("userID", u.ID.String()),
			zap.String("role", u.Role),
		)

		c.Next()
	}
}

// RequireRole lets the request through only for the given role, answering
// with denied otherwise. Must run after FirebaseAuthMiddleware.
func RequireRole(role string, denied *common.APIError) gin.HandlerFunc {
	return func(c *gin.Context) {
		if common.GetUserRoleFromContext(c) != role {
			common.RespondWithError(c, denied)
			return
		}
		c.Next()
	}
}

// TherapistOnly hides therapist routes from other roles behind a 404.
func TherapistOnly() gin.HandlerFunc {
	return RequireRole(common.RoleTherapist, common.ErrNotFound.WithDetails("Therapist profile not found."))
}
