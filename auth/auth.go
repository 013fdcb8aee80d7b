package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cowriter/vox2midi/errs"
)

// User is the authenticated identity attached to a request. Identity
// management itself is external; this package only defines the boundary
// the server depends on.
type User struct {
	ID    string
	Email string
}

type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (User, error)
}

// StaticAuthenticator resolves bearer tokens from a fixed table. It
// stands in for the real identity provider in development and tests.
type StaticAuthenticator struct {
	users map[string]User
}

func NewStaticAuthenticator(users map[string]User) *StaticAuthenticator {
	return &StaticAuthenticator{users: users}
}

// FromEnv builds a StaticAuthenticator from VOX2MIDI_API_TOKENS, a
// comma-separated list of token:userID pairs.
func FromEnv() (*StaticAuthenticator, error) {
	raw := os.Getenv("VOX2MIDI_API_TOKENS")
	if raw == "" {
		return nil, fmt.Errorf("VOX2MIDI_API_TOKENS is not set")
	}
	users := make(map[string]User)
	for _, pair := range strings.Split(raw, ",") {
		token, userID, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || token == "" || userID == "" {
			return nil, fmt.Errorf("malformed token pair %q in VOX2MIDI_API_TOKENS", pair)
		}
		users[token] = User{ID: userID}
	}
	return NewStaticAuthenticator(users), nil
}

func (a *StaticAuthenticator) Authenticate(ctx context.Context, bearerToken string) (User, error) {
	if bearerToken == "" {
		return User{}, fmt.Errorf("%w: missing bearer token", errs.ErrUnauthenticated)
	}
	user, ok := a.users[bearerToken]
	if !ok {
		return User{}, fmt.Errorf("%w: unknown token", errs.ErrUnauthenticated)
	}
	return user, nil
}
