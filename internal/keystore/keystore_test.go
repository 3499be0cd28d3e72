package keystore

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "issuer_key.json")
	svc, err := New(NewFileStore(path))
	require.NoError(t, err)
	return svc, path
}

func TestGetOrCreateGeneratesOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFileService(t)

	first, err := svc.GetOrCreate(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, strings.HasPrefix(first.DID, "did:key:z"))

	second, err := svc.GetOrCreate(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.DID, second.DID)
	assert.Equal(t, first.PrivateKey, second.PrivateKey)
}

func TestGetOrCreateReloadsPersistedKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "issuer_key.json")

	svc1, err := New(NewFileStore(path))
	require.NoError(t, err)
	first, err := svc1.GetOrCreate(ctx)
	require.NoError(t, err)

	// A fresh service over the same file must load the same identity.
	svc2, err := New(NewFileStore(path))
	require.NoError(t, err)
	second, err := svc2.GetOrCreate(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.DID, second.DID)
	assert.Equal(t, first.PublicKey, second.PublicKey)
}

func TestGetOrCreateConcurrentFirstUse(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFileService(t)

	const callers = 16
	dids := make([]string, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := svc.GetOrCreate(ctx)
			if err == nil {
				dids[i] = key.DID
			}
		}()
	}
	wg.Wait()

	for i := range callers {
		assert.Equal(t, dids[0], dids[i], "all callers must observe the same issuer key")
	}
}

func TestCorruptKeyIsFatal(t *testing.T) {
	ctx := context.Background()

	t.Run("undecodable private key", func(t *testing.T) {
		svc, err := New(stubPersistence{key: &StoredKey{PrivateKey: "%%%not-base64%%%"}})
		require.NoError(t, err)
		_, err = svc.GetOrCreate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "corrupt")
	})

	t.Run("wrong seed length", func(t *testing.T) {
		svc, err := New(stubPersistence{key: &StoredKey{
			PrivateKey: base64.StdEncoding.EncodeToString([]byte("short")),
		}})
		require.NoError(t, err)
		_, err = svc.GetOrCreate(ctx)
		require.Error(t, err)
	})

	t.Run("mismatched public key", func(t *testing.T) {
		_, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		otherPub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		svc, err := New(stubPersistence{key: &StoredKey{
			PrivateKey: base64.StdEncoding.EncodeToString(priv.Seed()),
			PublicKey:  base64.StdEncoding.EncodeToString(otherPub),
		}})
		require.NoError(t, err)
		_, err = svc.GetOrCreate(ctx)
		require.Error(t, err)
	})
}

func TestDIDFromPublicKey(t *testing.T) {
	t.Run("deterministic for the same key", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		did1, err := DIDFromPublicKey(pub)
		require.NoError(t, err)
		did2, err := DIDFromPublicKey(pub)
		require.NoError(t, err)

		assert.Equal(t, did1, did2)
		assert.True(t, strings.HasPrefix(did1, "did:key:z"))
	})

	t.Run("known vector", func(t *testing.T) {
		// did:key test vector for an all-zero Ed25519 public key is not
		// published; instead pin the multicodec prefix behavior: two keys
		// differing in one byte yield different DIDs.
		pub := make([]byte, ed25519.PublicKeySize)
		did1, err := DIDFromPublicKey(pub)
		require.NoError(t, err)

		pub[31] = 1
		did2, err := DIDFromPublicKey(pub)
		require.NoError(t, err)

		assert.NotEqual(t, did1, did2)
	})

	t.Run("rejects wrong key size", func(t *testing.T) {
		_, err := DIDFromPublicKey([]byte{1, 2, 3})
		require.Error(t, err)
	})
}

type stubPersistence struct {
	key *StoredKey
}

func (s stubPersistence) Load(context.Context) (*StoredKey, error) { return s.key, nil }
func (s stubPersistence) Save(context.Context, *StoredKey) error   { return nil }
