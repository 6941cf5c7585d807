package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
)

// TokenStore maps panel tokens to the connector they were issued for.
// The embedded web view receives its token in the page URL and presents
// it when connecting to the bridge.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]string
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]string),
	}
}

// GenerateToken creates a random token
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Issue creates a new token for connector
func (s *TokenStore) Issue(connector string) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = connector
	return token, nil
}

// Validate checks if a token is valid and returns its connector
func (s *TokenStore) Validate(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	connector, exists := s.tokens[token]
	return connector, exists
}

// Revoke removes a token
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// GetTokenFromHeader extracts the token from the Authorization header
func GetTokenFromHeader(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Support both "Bearer token" and "token" formats
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return token, true
	}
	return authHeader, true
}

// GetTokenFromRequest looks at the Authorization header, then the token query parameter
func GetTokenFromRequest(r *http.Request) (string, bool) {
	if token, ok := GetTokenFromHeader(r); ok {
		return token, true
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}
	return "", false
}
