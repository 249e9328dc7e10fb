// Package jwt issues and validates the service's signed tokens.
package jwt

import (
	stderrors "errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bomatic/bomatic-server/internal/errors"
)

// Token types carried in the token_type claim.
const (
	// TypeAccess marks a short-lived API access token.
	TypeAccess = "access"
	// TypeEmailVerification marks a one-shot email verification token.
	TypeEmailVerification = "email_verification"
)

// Claims is the service's JWT payload.
type Claims struct {
	gojwt.RegisteredClaims
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
}

// Config configures the token service.
type Config struct {
	// Secret is the HMAC signing key.
	Secret string `json:"secret" mapstructure:"secret"`
	// Issuer is the "iss" claim.
	Issuer string `json:"issuer" mapstructure:"issuer"`
	// AccessTokenTTL is the access token lifetime.
	AccessTokenTTL time.Duration `json:"access_token_ttl" mapstructure:"access_token_ttl"`
	// VerificationTTL is the email verification token lifetime.
	VerificationTTL time.Duration `json:"verification_ttl" mapstructure:"verification_ttl"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Issuer == "" {
		c.Issuer = "bomatic"
	}
	if c.AccessTokenTTL == 0 {
		c.AccessTokenTTL = 30 * time.Minute
	}
	if c.VerificationTTL == 0 {
		c.VerificationTTL = 24 * time.Hour
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("jwt: secret is required")
	}
	return nil
}

// Service signs and parses HS256 tokens.
type Service struct {
	cfg Config
}

// NewService creates a token service.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{cfg: cfg}, nil
}

// GenerateAccess creates a signed access token for the user.
func (s *Service) GenerateAccess(userID uint, email string) (string, error) {
	return s.generate(userID, email, TypeAccess, s.cfg.AccessTokenTTL)
}

// GenerateVerification creates a signed email verification token.
func (s *Service) GenerateVerification(userID uint, email string) (string, error) {
	return s.generate(userID, email, TypeEmailVerification, s.cfg.VerificationTTL)
}

func (s *Service) generate(userID uint, email, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ID:        uuid.NewString(),
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		Email:     email,
		TokenType: tokenType,
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token string and returns its claims. Expired tokens map
// to TokenExpired, everything else invalid to InvalidToken.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(s.cfg.Issuer),
	)
	if err != nil {
		if stderrors.Is(err, gojwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.InvalidToken()
	}
	if !token.Valid {
		return nil, errors.InvalidToken()
	}
	return claims, nil
}

// ParseOfType validates a token and checks its token_type claim.
func (s *Service) ParseOfType(tokenString, tokenType string) (*Claims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, errors.InvalidToken()
	}
	return claims, nil
}

func (s *Service) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}
