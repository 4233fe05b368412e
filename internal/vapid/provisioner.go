// Package vapid owns the VAPID key pair used to sign outgoing push messages.
package vapid

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/bark-labs/push-relay/internal/model"
	"github.com/bark-labs/push-relay/internal/storage"
)

var (
	// ErrNotReady is returned before Initialize has completed.
	ErrNotReady = errors.New("vapid keys not initialized")
	// ErrReadOnly is returned by key stores that cannot persist a generated pair.
	ErrReadOnly = errors.New("key store is read-only")
)

// GenerateFunc creates a new key pair; webpush.GenerateVAPIDKeys by default.
type GenerateFunc func() (privateKey, publicKey string, err error)

// Provisioner loads or generates the key pair once and then serves it read-only.
type Provisioner struct {
	store    KeyStore
	generate GenerateFunc

	mu    sync.RWMutex
	keys  model.KeyPair
	ready bool
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithGenerator overrides key generation.
func WithGenerator(fn GenerateFunc) Option {
	return func(p *Provisioner) {
		if fn != nil {
			p.generate = fn
		}
	}
}

// New builds an uninitialized provisioner backed by store.
func New(store KeyStore, opts ...Option) *Provisioner {
	p := &Provisioner{
		store:    store,
		generate: webpush.GenerateVAPIDKeys,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize moves the provisioner to the ready state. It reuses a stored pair when
// there is one and otherwise generates and saves a new one. Later calls return the
// pair chosen by the first successful call.
func (p *Provisioner) Initialize(ctx context.Context) (model.KeyPair, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return p.keys, nil
	}

	stored, err := p.store.GetKeyPair(ctx)
	switch {
	case err == nil:
		if stored.PublicKey == "" || stored.PrivateKey == "" {
			return model.KeyPair{}, fmt.Errorf("stored vapid key pair is incomplete")
		}
		p.keys = *stored
	case errors.Is(err, storage.ErrNotFound):
		privateKey, publicKey, genErr := p.generate()
		if genErr != nil {
			return model.KeyPair{}, fmt.Errorf("generate vapid keys: %w", genErr)
		}
		keys := model.KeyPair{PublicKey: publicKey, PrivateKey: privateKey, CreatedAt: time.Now().UTC()}
		if err := p.store.SaveKeyPair(ctx, &keys); err != nil {
			return model.KeyPair{}, fmt.Errorf("save vapid keys: %w", err)
		}
		p.keys = keys
	default:
		return model.KeyPair{}, fmt.Errorf("load vapid keys: %w", err)
	}
	p.ready = true
	return p.keys, nil
}

// Ready reports whether Initialize has succeeded.
func (p *Provisioner) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// PublicKey returns the application server key browsers subscribe with.
func (p *Provisioner) PublicKey() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ready {
		return "", ErrNotReady
	}
	return p.keys.PublicKey, nil
}

// KeyPair returns the full signing identity. Only the push client should call it.
func (p *Provisioner) KeyPair() (model.KeyPair, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ready {
		return model.KeyPair{}, ErrNotReady
	}
	return p.keys, nil
}
