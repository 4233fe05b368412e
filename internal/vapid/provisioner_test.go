package vapid

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bark-labs/push-relay/internal/model"
	"github.com/bark-labs/push-relay/internal/storage/bolt"
)

func TestProvisionerNotReadyBeforeInitialize(t *testing.T) {
	p := New(NewMemoryKeyStore())

	assert.False(t, p.Ready())
	_, err := p.PublicKey()
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = p.KeyPair()
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestProvisionerGeneratesOnce(t *testing.T) {
	calls := 0
	p := New(NewMemoryKeyStore(), WithGenerator(func() (string, string, error) {
		calls++
		return "private", "public", nil
	}))

	first, err := p.Initialize(context.Background())
	require.NoError(t, err)
	second, err := p.Initialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, p.Ready())

	pub, err := p.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, "public", pub)
}

func TestProvisionerGeneratesRealKeys(t *testing.T) {
	p := New(NewMemoryKeyStore())

	keys, err := p.Initialize(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, keys.PublicKey)
	assert.NotEmpty(t, keys.PrivateKey)
	assert.NotEqual(t, keys.PublicKey, keys.PrivateKey)
}

func TestProvisionerUsesStaticKeys(t *testing.T) {
	p := New(NewStaticKeyStore("configured-public", "configured-private"), WithGenerator(func() (string, string, error) {
		t.Fatal("generator must not run when keys are configured")
		return "", "", nil
	}))

	keys, err := p.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "configured-public", keys.PublicKey)
	assert.Equal(t, "configured-private", keys.PrivateKey)
}

func TestProvisionerPersistsWithBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.db")
	ctx := context.Background()

	store, err := bolt.New(path)
	require.NoError(t, err)
	first, err := New(store).Initialize(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = bolt.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	second, err := New(store, WithGenerator(func() (string, string, error) {
		return "", "", errors.New("should reuse the stored pair")
	})).Initialize(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.PublicKey, second.PublicKey)
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
}

func TestProvisionerGeneratorFailureLeavesUninitialized(t *testing.T) {
	p := New(NewMemoryKeyStore(), WithGenerator(func() (string, string, error) {
		return "", "", errors.New("no entropy")
	}))

	_, err := p.Initialize(context.Background())
	require.Error(t, err)
	assert.False(t, p.Ready())
}

func TestStaticKeyStoreIsReadOnly(t *testing.T) {
	s := NewStaticKeyStore("a", "b")
	assert.ErrorIs(t, s.SaveKeyPair(context.Background(), &model.KeyPair{}), ErrReadOnly)
}
