package cache

import (
	"context"
	"errors"
	"time"
)

var ErrTokenNotFound = errors.New("no gateway token cached")

// GatewayToken is the wallet gateway's bearer credential. It is transient
// state: regenerated on demand, never part of any order record.
type GatewayToken struct {
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// TokenStore is a single-slot cache for the gateway token. The in-memory
// implementation is per-process; the Redis one shares the slot across
// processes so each instance does not grant its own credential.
type TokenStore interface {
	Get(ctx context.Context) (*GatewayToken, error)
	Put(ctx context.Context, token *GatewayToken) error
}
