package iam

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/config"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/telemetry"
)

// Revocation reasons stored on blacklist entries.
const (
	ReasonLogout = "logout"
	ReasonAdmin  = "admin_revoke"
)

// TokenConfig is the signing configuration of a TokenService.
type TokenConfig struct {
	Secret     []byte
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenConfigFrom extracts the token settings from the application config.
func TokenConfigFrom(cfg *config.Config) TokenConfig {
	return TokenConfig{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}
}

// Credentials are the login inputs. StadiumID is optional.
type Credentials struct {
	Username  string
	Password  string
	StadiumID string
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// LoginResult bundles the issued tokens with the authenticated user.
type LoginResult struct {
	Tokens    TokenPair
	User      *models.User
	Principal auth.Principal
}

// AccessGrant is the result of a refresh.
type AccessGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenService issues, validates and revokes session tokens. It is the only
// component that fingerprints tokens.
type TokenService struct {
	cfg       TokenConfig
	users     repository.UserRepository
	blacklist repository.BlacklistRepository
	metrics   *telemetry.DomainMetrics
	log       logrus.FieldLogger
	now       func() time.Time

	// dummyHash is compared against for unknown usernames so the response
	// time does not reveal whether a user exists.
	dummyHash []byte
}

// NewTokenService creates a token service. metrics may be nil.
func NewTokenService(cfg TokenConfig, users repository.UserRepository, blacklist repository.BlacklistRepository, metrics *telemetry.DomainMetrics, log logrus.FieldLogger) (*TokenService, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, fmt.Errorf("generate dummy password: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword(random[:24], bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("generate dummy hash: %w", err)
	}

	return &TokenService{
		cfg:       cfg,
		users:     users,
		blacklist: blacklist,
		metrics:   metrics,
		log:       log.WithField("pkg", "iam"),
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Issue verifies credentials and returns a new token pair. Every credential
// failure maps to the same INVALID_CREDENTIALS error.
func (s *TokenService) Issue(ctx context.Context, creds Credentials) (*LoginResult, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Issue")
	defer span.End()

	invalid := apperr.New(apperr.CodeInvalidCredentials, "invalid username or password")

	if creds.Username == "" || creds.Password == "" {
		return nil, apperr.Validation("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(creds.Password))
			return nil, invalid
		}
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, invalid
	}
	if !user.Role.Valid() {
		s.log.WithField("user_id", user.ID).Warnf("user has unknown role %q", user.Role)
		return nil, invalid
	}
	if user.Role.RequiresStadium() {
		if user.Stadium() == "" {
			s.log.WithField("user_id", user.ID).Warn("stadium-bound user has no stadium")
			return nil, invalid
		}
		if creds.StadiumID != "" && creds.StadiumID != user.Stadium() {
			return nil, invalid
		}
	}

	now := s.now().UTC()
	pair, accessClaims, err := s.mintPair(user, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to record last login")
	}

	span.SetAttributes(
		attribute.String(telemetry.AttrPrincipalID, user.ID),
		attribute.String(telemetry.AttrPrincipalRole, user.Role.String()),
	)
	s.log.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"role":        user.Role,
		"stadium_id":  user.Stadium(),
		"fingerprint": auth.ShortFingerprint(pair.AccessToken),
	}).Info("login succeeded")

	return &LoginResult{
		Tokens:    *pair,
		User:      user,
		Principal: auth.PrincipalFromClaims(accessClaims),
	}, nil
}

// Refresh validates a refresh token and mints a new access token. The user
// is reloaded so role and permission changes apply. The refresh token's own
// lifetime is not extended.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*AccessGrant, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Refresh")
	defer span.End()

	claims, err := s.Validate(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return nil, apperr.New(apperr.CodeInvalidCredentials, "user no longer exists")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive || !user.Role.Valid() {
		return nil, apperr.New(apperr.CodeInvalidCredentials, "user is disabled")
	}

	now := s.now().UTC()
	token, accessClaims, err := s.sign(s.accessClaims(user, now))
	if err != nil {
		return nil, err
	}
	return &AccessGrant{AccessToken: token, ExpiresAt: accessClaims.ExpiresAt.Time}, nil
}

// Validate checks a token of the expected type.
//
// The blacklist lookup and the signature/expiry parse always both run
// before either result is used, so a revoked token and a never-issued one
// cost the same work. A blacklisted token is rejected even when its
// signature and expiry are valid.
func (s *TokenService) Validate(ctx context.Context, token string, typ auth.TokenType) (*auth.Claims, error) {
	revoked, lookupErr := s.blacklist.Contains(ctx, auth.HashToken(token))
	claims, parseErr := s.parse(token)

	err := decideValidation(revoked, lookupErr, claims, parseErr, typ)
	s.metrics.RecordValidation(ctx, string(typ), outcomeOf(err))
	if err != nil {
		if lookupErr != nil {
			s.log.WithError(lookupErr).Error("blacklist lookup failed")
		}
		return nil, err
	}
	return claims, nil
}

func decideValidation(revoked bool, lookupErr error, claims *auth.Claims, parseErr error, typ auth.TokenType) error {
	switch {
	case lookupErr != nil:
		// fail closed
		return apperr.Wrap(lookupErr, apperr.CodeInternal, "token revocation check unavailable")
	case revoked:
		return apperr.New(apperr.CodeTokenRevoked, "token has been revoked")
	case parseErr != nil:
		return parseErr
	case claims.Type != typ:
		return apperr.New(apperr.CodeInvalidToken, "expected %s token", typ)
	case claims.UserID == "" || !claims.Role.Valid():
		return apperr.New(apperr.CodeInvalidToken, "token is missing principal claims")
	case claims.Role.RequiresStadium() && claims.Stadium() == "":
		return apperr.New(apperr.CodeInvalidToken, "token is missing stadium claim")
	}
	return nil
}

// Decode verifies the signature and returns the claims without checking
// expiry, audience or the blacklist. Used to recover exp for revocation.
func (s *TokenService) Decode(token string) (*auth.Claims, error) {
	claims := &auth.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	return claims, nil
}

// Revoke blacklists a token until its own expiry. Already-expired tokens
// are accepted and ignored; revoking twice is a no-op.
func (s *TokenService) Revoke(ctx context.Context, token, reason string) error {
	ctx, span := telemetry.StartSpan(ctx, telemetry.TracerIAM, "iam.Revoke")
	defer span.End()

	claims, err := s.Decode(token)
	if err != nil {
		return err
	}
	if claims.ExpiresAt == nil {
		return apperr.New(apperr.CodeInvalidToken, "token has no expiry")
	}

	fingerprint := auth.ShortFingerprint(token)
	span.SetAttributes(attribute.String(telemetry.AttrFingerprint, fingerprint))

	if !claims.ExpiresAt.After(s.now()) {
		s.log.WithField("fingerprint", fingerprint).Debug("revoke skipped: token already expired")
		return nil
	}

	entry := &models.BlacklistEntry{
		TokenHash: auth.HashToken(token),
		UserID:    claims.UserID,
		StadiumID: claims.StadiumID,
		TokenType: string(claims.Type),
		ExpiresAt: claims.ExpiresAt.Time,
		Reason:    reason,
		RevokedAt: s.now().UTC(),
	}
	if err := s.blacklist.Add(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("revoke token: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"fingerprint": fingerprint,
		"user_id":     claims.UserID,
		"token_type":  claims.Type,
		"reason":      reason,
	}).Info("token revoked")
	return nil
}

// CleanupExpired removes blacklist entries whose tokens have expired.
func (s *TokenService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.blacklist.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.metrics.RecordPurge(ctx, n)
	return n, nil
}

func (s *TokenService) keyFunc(t *jwt.Token) (any, error) {
	return s.cfg.Secret, nil
}

func (s *TokenService) parse(token string) (*auth.Claims, error) {
	claims := &auth.Claims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Wrap(err, apperr.CodeTokenExpired, "token has expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperr.Wrap(err, apperr.CodeInvalidSignature, "token signature is invalid")
	default:
		return apperr.Wrap(err, apperr.CodeInvalidToken, "token is invalid")
	}
}

func (s *TokenService) registered(user *models.User, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   user.ID,
		Audience:  jwt.ClaimStrings{s.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        bunx.NewUUIDv7(),
	}
}

func (s *TokenService) accessClaims(user *models.User, now time.Time) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: s.registered(user, now, s.cfg.AccessTTL),
		UserID:           user.ID,
		Username:         user.Username,
		StadiumID:        user.StadiumID,
		Role:             user.Role,
		Permissions:      user.Role.Capabilities(),
		Type:             auth.TokenTypeAccess,
	}
}

func (s *TokenService) refreshClaims(user *models.User, now time.Time) *auth.Claims {
	return &auth.Claims{
		RegisteredClaims: s.registered(user, now, s.cfg.RefreshTTL),
		UserID:           user.ID,
		Username:         user.Username,
		StadiumID:        user.StadiumID,
		Role:             user.Role,
		Type:             auth.TokenTypeRefresh,
	}
}

func (s *TokenService) sign(claims *auth.Claims) (string, *auth.Claims, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign %s token: %w", claims.Type, err)
	}
	return token, claims, nil
}

func (s *TokenService) mintPair(user *models.User, now time.Time) (*TokenPair, *auth.Claims, error) {
	access, accessClaims, err := s.sign(s.accessClaims(user, now))
	if err != nil {
		return nil, nil, err
	}
	refresh, refreshClaims, err := s.sign(s.refreshClaims(user, now))
	if err != nil {
		return nil, nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, accessClaims, nil
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if e, ok := apperr.As(err); ok {
		return string(e.Code)
	}
	return string(apperr.CodeInternal)
}
