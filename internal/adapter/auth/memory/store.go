package authstore

import (
	"context"
	"sync"

	"github.com/ssdl-lang/ssdlc/internal/pkg/auth"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

type MemoryStore struct {
	mu     sync.Mutex
	hashes map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string][]byte),
	}
}

func (s *MemoryStore) Add(ctx context.Context, id string, hash []byte) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[id] = hash
	return nil
}

func (s *MemoryStore) Verify(ctx context.Context, key string) (bool, error) {
	_ = ctx
	id, secret, err := auth.SplitKey(key)
	if err != nil {
		return false, nil
	}
	s.mu.Lock()
	hash, ok := s.hashes[id]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return auth.VerifySecret(hash, secret), nil
}

var _ port.KeyStore = (*MemoryStore)(nil)
