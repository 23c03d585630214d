package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/respond"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
)

// RequirePermission allows the request only when the principal holds perm
// in both its token snapshot and the role policy.
func RequirePermission(guard *iam.AccessGuard, perm string, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return authorize(log, func(p auth.Principal) error {
		return guard.RequirePermission(p, perm)
	})
}

// RequireRole allows the request only when the principal ranks at least min.
func RequireRole(guard *iam.AccessGuard, min auth.Role, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return authorize(log, func(p auth.Principal) error {
		return guard.RequireRole(p, min)
	})
}

func authorize(log logrus.FieldLogger, check func(auth.Principal) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				respond.Error(w, r, log, apperr.New(apperr.CodeInvalidToken, "authentication required"))
				return
			}
			if err := check(principal); err != nil {
				respond.Error(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
