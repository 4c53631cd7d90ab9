// Package token issues and validates the service's API access tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"eligo/pkg/derrors"
)

const issuer = "eligo"

// Claims are the JWT claims carried by eligo access tokens.
type Claims struct {
	jwt.RegisteredClaims
}

// Client is an API client registered for the credentials exchange. The
// secret is held as a bcrypt hash only.
type Client struct {
	ID         string
	SecretHash string
}

// Service handles JWT creation and validation with a shared signing key.
type Service struct {
	signingKey []byte
	client     Client
}

// Option configures a Service.
type Option func(*Service)

// WithClient registers the API client allowed to exchange its secret for
// access tokens.
func WithClient(client Client) Option {
	return func(s *Service) {
		s.client = client
	}
}

// NewService constructs a token service.
func NewService(signingKey string, opts ...Option) (*Service, error) {
	if signingKey == "" {
		return nil, errors.New("signing key is required")
	}
	s := &Service{signingKey: []byte(signingKey)}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ExchangeClientCredentials verifies a registered client's secret and issues
// an access token with the client ID as subject. Unknown clients and wrong
// secrets fail identically so the exchange leaks nothing about which part
// was wrong.
func (s *Service) ExchangeClientCredentials(clientID, clientSecret string, expiresIn time.Duration) (string, error) {
	if s.client.ID == "" || clientID != s.client.ID {
		return "", derrors.New(derrors.CodeUnauthorized, "invalid client credentials")
	}
	if err := VerifyClientSecret(clientSecret, s.client.SecretHash); err != nil {
		return "", err
	}
	return s.GenerateAccessToken(clientID, expiresIn)
}

// GenerateAccessToken issues a signed token for the given subject.
func (s *Service) GenerateAccessToken(subject string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}
