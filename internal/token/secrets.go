package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"eligo/pkg/derrors"
)

// GenerateClientSecret creates a cryptographically secure random secret,
// base64-encoded for use as an API client credential.
func GenerateClientSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashClientSecret creates a bcrypt hash of the provided secret. Only the
// hash is stored; the plaintext exists solely in the client's hands.
func HashClientSecret(secret string) (string, error) {
	if secret == "" {
		return "", derrors.New(derrors.CodeValidation, "secret cannot be empty")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", derrors.New(derrors.CodeValidation, "secret is too long")
		}
		return "", fmt.Errorf("could not hash secret: %w", err)
	}
	return string(hashed), nil
}

// VerifyClientSecret checks a plaintext secret against a bcrypt hash.
func VerifyClientSecret(secret, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return derrors.New(derrors.CodeUnauthorized, "invalid client credentials")
		}
		return fmt.Errorf("could not verify secret: %w", err)
	}
	return nil
}
