package session

import (
	"context"
	"errors"
	"sync"

	"journal/internal/storage"
)

// TokenKey is the fixed storage key holding the session token.
const TokenKey = "token"

// Store persists the session token across restarts.
type Store interface {
	// Load returns the stored token, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type kvBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// KVStore keeps the token in the durable key/value store.
type KVStore struct {
	kv kvBackend
}

func NewKVStore(kv *storage.KV) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Load(ctx context.Context) (string, error) {
	token, err := s.kv.Get(ctx, TokenKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	return token, err
}

func (s *KVStore) Save(ctx context.Context, token string) error {
	return s.kv.Set(ctx, TokenKey, token)
}

func (s *KVStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, TokenKey)
}

// MemoryStore keeps the token for the life of the process only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
