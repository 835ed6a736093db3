package cache

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.Mutex
	token *GatewayToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (*GatewayToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil {
		return nil, ErrTokenNotFound
	}
	tok := *m.token
	return &tok, nil
}

func (m *MemoryStore) Put(_ context.Context, token *GatewayToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := *token
	m.token = &tok
	return nil
}
