package middleware

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/request"
	"github.com/benvon/postcraft/internal/services/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserProvisioner finds users by identity provider subject and creates new ones
type UserProvisioner interface {
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(r *http.Request) *models.User {
	return request.UserFromContext(r)
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth validates the bearer JWT and attaches the matching user to the request.
// A user seen for the first time is created on the free plan with freePostsLimit.
func Auth(verifier auth.TokenVerifier, users UserProvisioner, freePostsLimit int, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				WriteAppError(w, r, apperr.Unauthorized("Missing or malformed Authorization header"), log)
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				log.Info("token_verification_failed",
					zap.String("route", routeName(r)),
					zap.String("error", logger.SanitizeError(err)),
				)
				WriteAppError(w, r, apperr.Unauthorized("Invalid or expired token"), log)
				return
			}

			user, err := provisionUser(ctx, users, claims, freePostsLimit)
			if err != nil {
				if errors.Is(err, errMissingEmail) {
					WriteAppError(w, r, apperr.Unauthorized("Token missing email claim"), log)
					return
				}
				log.Error("user_provisioning_failed",
					zap.String("user_id", logger.SanitizeUserID(claims.Sub)),
					zap.String("error", logger.SanitizeError(err)),
				)
				WriteAppError(w, r, err, log)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

var errMissingEmail = errors.New("token missing email claim")

func provisionUser(ctx context.Context, users UserProvisioner, claims *models.JWTClaims, freePostsLimit int) (*models.User, error) {
	user, err := users.GetByProviderID(ctx, claims.Sub)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if claims.Email == "" {
		return nil, errMissingEmail
	}

	sub := claims.Sub
	user = &models.User{
		ID:               uuid.New(),
		Email:            claims.Email,
		ProviderID:       &sub,
		SubscriptionTier: models.SubscriptionTierFree,
		PostsLimit:       freePostsLimit,
	}
	if claims.Name != "" {
		name := claims.Name
		user.FullName = &name
	}
	if err := users.Create(ctx, user); err != nil {
		// A concurrent first request may have created the row already.
		if existing, getErr := users.GetByProviderID(ctx, claims.Sub); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return user, nil
}
