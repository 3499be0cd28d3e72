// Package keystore owns the issuer's Ed25519 keypair and its did:key
// identifier. Exactly one issuer key exists per deployment; it is created
// lazily on first use and persisted to a side-channel (file or Redis).
package keystore

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/multiformats/go-multibase"

	"unicred/pkg/platform/sentinel"
)

// ed25519-pub multicodec prefix, varint encoded.
var multicodecEd25519Pub = []byte{0xed, 0x01}

// IssuerKey is the in-memory issuer keypair with its derived DID.
type IssuerKey struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	DID        string
}

// StoredKey is the persisted representation: base64 raw key material plus the
// DID, matching what external tooling expects to find in the keystore.
type StoredKey struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	DID        string `json:"did"`
}

// Persistence is the durable side-channel for the issuer key. Load returns
// sentinel.ErrNotFound when no key has been persisted yet.
type Persistence interface {
	Load(ctx context.Context) (*StoredKey, error)
	Save(ctx context.Context, key *StoredKey) error
}

// Service guards create-if-absent with a lock so concurrent first callers
// cannot generate two different issuer keys.
type Service struct {
	mu          sync.Mutex
	persistence Persistence
	logger      *slog.Logger

	key *IssuerKey
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a keystore service over the given persistence.
func New(persistence Persistence, opts ...Option) (*Service, error) {
	if persistence == nil {
		return nil, fmt.Errorf("key persistence is required")
	}
	s := &Service{persistence: persistence, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GetOrCreate returns the issuer key, generating and persisting a fresh
// keypair on first use. A corrupt persisted key is a fatal error: the engine
// cannot sign or verify without valid key material.
func (s *Service) GetOrCreate(ctx context.Context) (*IssuerKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	stored, err := s.persistence.Load(ctx)
	switch {
	case err == nil:
		key, err := stored.decode()
		if err != nil {
			return nil, fmt.Errorf("issuer key store is corrupt: %w", err)
		}
		s.key = key
		return key, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// First use; fall through to generation.
	default:
		return nil, fmt.Errorf("load issuer key: %w", err)
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate issuer key: %w", err)
	}
	did, err := DIDFromPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("derive issuer DID: %w", err)
	}
	key := &IssuerKey{PrivateKey: priv, PublicKey: pub, DID: did}
	if err := s.persistence.Save(ctx, key.encode()); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Another replica persisted first; adopt its key.
			stored, loadErr := s.persistence.Load(ctx)
			if loadErr != nil {
				return nil, fmt.Errorf("reload issuer key after save race: %w", loadErr)
			}
			winner, decodeErr := stored.decode()
			if decodeErr != nil {
				return nil, fmt.Errorf("issuer key store is corrupt: %w", decodeErr)
			}
			s.key = winner
			return winner, nil
		}
		return nil, fmt.Errorf("persist issuer key: %w", err)
	}
	s.logger.InfoContext(ctx, "generated issuer key", "did", did)
	s.key = key
	return key, nil
}

// DID returns the issuer DID, creating the key first if needed.
func (s *Service) DID(ctx context.Context) (string, error) {
	key, err := s.GetOrCreate(ctx)
	if err != nil {
		return "", err
	}
	return key.DID, nil
}

// DIDFromPublicKey derives the did:key identifier: the ed25519-pub multicodec
// prefix plus the raw public key, multibase base58btc encoded. The DID is a
// pure function of the public key.
func DIDFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub))
	}
	prefixed := append(append([]byte{}, multicodecEd25519Pub...), pub...)
	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return "", fmt.Errorf("multibase encode public key: %w", err)
	}
	return "did:key:" + encoded, nil
}

func (k *IssuerKey) encode() *StoredKey {
	return &StoredKey{
		PrivateKey: base64.StdEncoding.EncodeToString(k.PrivateKey.Seed()),
		PublicKey:  base64.StdEncoding.EncodeToString(k.PublicKey),
		DID:        k.DID,
	}
}

func (sk *StoredKey) decode() (*IssuerKey, error) {
	seed, err := base64.StdEncoding.DecodeString(sk.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	storedPub, err := base64.StdEncoding.DecodeString(sk.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	if !pub.Equal(ed25519.PublicKey(storedPub)) {
		return nil, fmt.Errorf("public key does not match private key")
	}

	did, err := DIDFromPublicKey(pub)
	if err != nil {
		return nil, err
	}
	if sk.DID != "" && sk.DID != did {
		return nil, fmt.Errorf("stored DID %q does not match derived DID %q", sk.DID, did)
	}

	return &IssuerKey{PrivateKey: priv, PublicKey: pub, DID: did}, nil
}
