// Package auth resolves API credentials to user identities.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidToken is returned for unknown or malformed credentials.
var ErrInvalidToken = errors.New("invalid token")

// Verifier resolves a bearer token to the user it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// StaticVerifier holds a fixed token-to-user table, loaded from
// configuration. Good for single-household deployments; anything bigger
// plugs in a real identity provider behind the same interface.
type StaticVerifier struct {
	users map[string]string
}

func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	users := make(map[string]string, len(tokens))
	for token, user := range tokens {
		users[token] = user
	}
	return &StaticVerifier{users: users}
}

// ParseTokenList parses the API_TOKENS format: comma-separated
// "token:user" pairs.
func ParseTokenList(s string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, user, ok := strings.Cut(pair, ":")
		if !ok || token == "" || user == "" {
			return nil, errors.New("malformed token entry, want token:user")
		}
		tokens[token] = user
	}
	return tokens, nil
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (string, error) {
	user, ok := v.users[token]
	if !ok {
		return "", ErrInvalidToken
	}
	return user, nil
}
