// Package directory is the client side of the Pairsphere directory
// service: the external identity provider that verifies bearer tokens and
// the membership store that maps users to their active invite-code
// network. The hub consumes it through the narrow Verifier and Resolver
// interfaces; everything else in this package is HTTP plumbing.
package directory

import (
	"context"
	"errors"
)

// Identity is a verified user identity as reported by the identity
// provider. UserID is opaque and stable across connections.
type Identity struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Provider    string   `json:"provider"`
	Roles       []string `json:"roles"`
}

// Verifier validates a bearer credential and returns the user identity.
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

// Resolver maps a user to their active network. An empty network id means
// the user has no active network; such peers cannot discover or be
// discovered.
type Resolver interface {
	ActiveNetwork(ctx context.Context, userID string) (string, error)
}

// Token verification failure kinds.
var (
	ErrTokenMissing = errors.New("directory: token missing")
	ErrTokenInvalid = errors.New("directory: token invalid")
	ErrTokenExpired = errors.New("directory: token expired")
	ErrUnavailable  = errors.New("directory: service unavailable")
)
