package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrTokenRejected is returned by a TokenVerifier for unknown credentials.
var ErrTokenRejected = errors.New("http: token rejected")

// TokenVerifier checks a bearer credential presented by an API client.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) error
}

// BcryptTokenVerifier accepts the single token whose bcrypt hash it holds.
type BcryptTokenVerifier struct {
	hash []byte
}

// NewBcryptTokenVerifier validates hash and returns a verifier for it.
func NewBcryptTokenVerifier(hash string) (*BcryptTokenVerifier, error) {
	trimmed := []byte(strings.TrimSpace(hash))
	if _, err := bcrypt.Cost(trimmed); err != nil {
		return nil, fmt.Errorf("http: invalid token hash: %w", err)
	}
	return &BcryptTokenVerifier{hash: trimmed}, nil
}

// VerifyToken implements TokenVerifier.
func (v *BcryptTokenVerifier) VerifyToken(_ context.Context, token string) error {
	if v == nil || len(v.hash) == 0 {
		return ErrTokenRejected
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrTokenRejected
		}
		return err
	}
	return nil
}

// HashToken returns the bcrypt hash of token for use as the configured API
// token hash. A cost of zero selects bcrypt.DefaultCost.
func HashToken(token string, cost int) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errors.New("http: token must not be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", fmt.Errorf("http: hash token: %w", err)
	}
	return string(hash), nil
}

func extractBearerToken(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
