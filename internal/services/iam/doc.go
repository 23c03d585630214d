// Package iam owns the session lifecycle and request scoping.
//
//   - TokenService: issue, refresh, validate and revoke HS256 token pairs,
//     consulting the blacklist on every validation.
//   - JWTAuthenticator: turns a bearer header into an auth.Principal.
//   - AccessGuard: resolves the effective stadium of a request and checks
//     role rank, permissions and hostess room assignments.
//
// Request flow:
//
//	Request → Authenticator.Authenticate() → Principal (permission snapshot)
//	       ↓
//	   Handler → AccessGuard.ScopeFor / RequirePermission / CanActOnRoom
package iam
