package vapid

import (
	"context"
	"sync"

	"github.com/bark-labs/push-relay/internal/model"
	"github.com/bark-labs/push-relay/internal/storage"
)

// KeyStore persists the VAPID key pair. GetKeyPair returns storage.ErrNotFound when
// no pair has been saved yet. The bolt store satisfies it.
type KeyStore interface {
	GetKeyPair(ctx context.Context) (*model.KeyPair, error)
	SaveKeyPair(ctx context.Context, keys *model.KeyPair) error
}

// MemoryKeyStore keeps the pair for the lifetime of the process only, so every
// restart produces a fresh identity.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys *model.KeyPair
}

// NewMemoryKeyStore returns an empty in-memory store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{}
}

func (s *MemoryKeyStore) GetKeyPair(_ context.Context) (*model.KeyPair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.keys == nil {
		return nil, storage.ErrNotFound
	}
	copied := *s.keys
	return &copied, nil
}

func (s *MemoryKeyStore) SaveKeyPair(_ context.Context, keys *model.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *keys
	s.keys = &copied
	return nil
}

// StaticKeyStore serves a pair supplied by configuration. It refuses writes.
type StaticKeyStore struct {
	keys model.KeyPair
}

// NewStaticKeyStore wraps a configured public/private pair.
func NewStaticKeyStore(publicKey, privateKey string) *StaticKeyStore {
	return &StaticKeyStore{keys: model.KeyPair{PublicKey: publicKey, PrivateKey: privateKey}}
}

func (s *StaticKeyStore) GetKeyPair(_ context.Context) (*model.KeyPair, error) {
	copied := s.keys
	return &copied, nil
}

func (s *StaticKeyStore) SaveKeyPair(_ context.Context, _ *model.KeyPair) error {
	return ErrReadOnly
}
