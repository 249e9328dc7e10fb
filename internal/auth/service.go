// Package auth implements registration, login, token refresh, and email
// verification.
package auth

import (
	"context"
	"time"

	"github.com/bomatic/bomatic-server/internal/auth/jwt"
	"github.com/bomatic/bomatic-server/internal/auth/password"
	"github.com/bomatic/bomatic-server/internal/errors"
	"github.com/bomatic/bomatic-server/internal/logger"
	"github.com/bomatic/bomatic-server/internal/user"
)

const (
	refreshTokenBytes = 32
	refreshTokenTTL   = 7 * 24 * time.Hour
)

// Mailer delivers verification email. The SMTP implementation lives in the
// mail package; tests use a recording fake.
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service implements the account operations.
type Service struct {
	store  *user.Store
	tokens *jwt.Service
	hasher password.Hasher
	mailer Mailer
	log    *logger.Logger
}

// NewService wires the auth service.
func NewService(store *user.Store, tokens *jwt.Service, hasher password.Hasher, mailer Mailer, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		hasher: hasher,
		mailer: mailer,
		log:    log.WithComponent("auth"),
	}
}

// Register creates an account and sends a verification email. The account
// starts unverified; login works regardless, verification gates nothing but
// the verified flag.
func (s *Service) Register(ctx context.Context, email, plainPassword string) (*user.User, error) {
	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, errors.Validation(err.Error())
	}

	u := &user.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.Create(u); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateVerification(u.ID, u.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.mailer.SendVerification(ctx, u.Email, token); err != nil {
		// The account exists; a failed email is not fatal to registration.
		s.log.Warn("Verification email failed", logger.Fields(
			logger.FieldEmail, u.Email,
			logger.FieldError, err.Error(),
		))
	}

	s.log.Info("User registered", logger.Fields(logger.FieldUserID, u.ID))
	return u, nil
}

// Login verifies credentials and issues an access/refresh token pair.
// Unknown email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (*TokenPair, error) {
	u, err := s.store.GetByEmail(email)
	if err != nil {
		return nil, errors.Unauthorized("invalid email or password")
	}
	if !u.IsActive {
		return nil, errors.Forbidden("account is disabled")
	}
	if err := s.hasher.Verify(plainPassword, u.PasswordHash); err != nil {
		return nil, errors.Unauthorized("invalid email or password")
	}
	return s.issueTokens(u)
}

// Refresh exchanges a live refresh token for a fresh pair. Issuing the new
// pair revokes the presented token along with any other live token for the
// user. A revoked or expired token is rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.store.GetRefreshToken(password.HashSHA256(refreshToken))
	if err != nil {
		return nil, err
	}
	if stored.Revoked {
		return nil, errors.InvalidToken()
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, errors.TokenExpired()
	}

	u, err := s.store.GetByID(stored.UserID)
	if err != nil {
		return nil, errors.InvalidToken()
	}
	if !u.IsActive {
		return nil, errors.Forbidden("account is disabled")
	}
	return s.issueTokens(u)
}

// Verify consumes an email verification token and marks the account
// verified. Verifying an already-verified account succeeds.
func (s *Service) Verify(ctx context.Context, token string) (*user.User, error) {
	claims, err := s.tokens.ParseOfType(token, jwt.TypeEmailVerification)
	if err != nil {
		return nil, err
	}

	u, err := s.store.GetByID(claims.UserID)
	if err != nil {
		return nil, errors.InvalidToken()
	}
	if !u.IsVerified {
		if err := s.store.MarkVerified(u.ID); err != nil {
			return nil, err
		}
		u.IsVerified = true
		s.log.Info("Email verified", logger.Fields(logger.FieldUserID, u.ID))
	}
	return u, nil
}

// ParseAccess validates a bearer token and returns its claims.
func (s *Service) ParseAccess(token string) (*jwt.Claims, error) {
	return s.tokens.ParseOfType(token, jwt.TypeAccess)
}

func (s *Service) issueTokens(u *user.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccess(u.ID, u.Email)
	if err != nil {
		return nil, errors.Internal(err)
	}

	refresh, err := password.GenerateToken(refreshTokenBytes)
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.store.SaveRefreshToken(&user.RefreshToken{
		TokenHash: password.HashSHA256(refresh),
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}
