package service

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/lixenwraith/auth"
)

// TokenTTL bounds the lifetime of a session's bearer token
const TokenTTL = 24 * time.Hour

// WithSecret sets the HS256 signing secret for session tokens. Without it a
// random secret is generated, so tokens do not survive a restart.
func WithSecret(secret []byte) Option {
	return func(s *Service) {
		s.secret = secret
	}
}

func randomSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate token secret: %w", err)
	}
	return secret, nil
}

// IssueToken signs a bearer token whose subject is the session id
func (s *Service) IssueToken(sessionID string) (string, error) {
	claims := map[string]any{"scope": "session"}
	return auth.GenerateHS256Token(s.secret, sessionID, claims, TokenTTL)
}

// ValidateToken verifies a token and returns the session id it was issued for
func (s *Service) ValidateToken(token string) (string, map[string]any, error) {
	return auth.ValidateHS256Token(s.secret, token)
}
