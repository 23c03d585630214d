package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/logging"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/respond"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
)

// NewAuthnMiddleware resolves the request principal through authenticator.
//
// Requests without credentials pass through unauthenticated; routes that
// need a principal add RequireAuthentication. Credentials that are present
// but invalid (expired, revoked, bad signature) are rejected here.
func NewAuthnMiddleware(authenticator iam.Authenticator, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, err := authenticator.Authenticate(ctx, iam.AuthRequest{Headers: r.Header})
			if err != nil {
				respond.Error(w, r, log, err)
				return
			}
			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			token, _ := auth.BearerToken(r)
			ctx = auth.SetPrincipal(ctx, *principal)
			ctx = auth.SetToken(ctx, token)
			fields := logrus.Fields{
				"user_id":    principal.UserID,
				"role":       principal.Role,
				"stadium_id": principal.StadiumID,
			}
			logging.AddRequestFields(ctx, fields)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx, log).WithFields(fields))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthentication rejects requests that carry no principal.
func RequireAuthentication(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.PrincipalFromContext(r.Context()); !ok {
				respond.Error(w, r, log, apperr.New(apperr.CodeInvalidToken, "authentication required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
