// Package onest signs and dispatches Beckn-protocol callbacks to the ONEST
// network. Authorization headers follow the Beckn HTTP signature profile:
// an Ed25519 signature over "(created) (expires) digest" where the digest is
// BLAKE2b-512 of the request body.
package onest

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	dErrors "unicred/pkg/domain-errors"
)

// headerValidity is how long a signed header stays acceptable.
const headerValidity = 10 * time.Minute

// Signer produces and checks Beckn Authorization headers for one subscriber.
type Signer struct {
	subscriberID string
	uniqueKeyID  string
	privateKey   ed25519.PrivateKey

	now func() time.Time
}

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner builds a Signer from a hex-encoded Ed25519 seed, the format the
// ONEST registry hands out.
func NewSigner(subscriberID, uniqueKeyID, privateKeyHex string, opts ...SignerOption) (*Signer, error) {
	seed, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "decoding subscriber private key")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "subscriber private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	s := &Signer{
		subscriberID: subscriberID,
		uniqueKeyID:  uniqueKeyID,
		privateKey:   ed25519.NewKeyFromSeed(seed),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PublicKey returns the verification half of the subscriber key.
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.privateKey.Public().(ed25519.PublicKey)
}

// AuthHeader signs body and returns the Authorization header value.
func (s *Signer) AuthHeader(body []byte) string {
	created := s.now().Unix()
	expires := created + int64(headerValidity/time.Second)

	signingString := signingString(created, expires, body)
	signature := base64.StdEncoding.EncodeToString(ed25519.Sign(s.privateKey, []byte(signingString)))

	return fmt.Sprintf(
		`Signature keyId="%s|%s|ed25519", algorithm="ed25519", created=%d, expires=%d, headers="(created) (expires) digest", signature="%s"`,
		s.subscriberID, s.uniqueKeyID, created, expires, signature,
	)
}

// Header carries the fields parsed out of a Beckn Authorization header.
type Header struct {
	KeyID     string
	Algorithm string
	Created   int64
	Expires   int64
	Signature []byte
}

// SubscriberID returns the subscriber portion of the keyId triple.
func (h Header) SubscriberID() string {
	sub, _, _ := strings.Cut(h.KeyID, "|")
	return sub
}

// ParseHeader splits an Authorization header into its signature parameters.
func ParseHeader(value string) (*Header, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "Signature ") {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "not a Signature authorization header")
	}

	h := &Header{}
	for _, part := range strings.Split(strings.TrimPrefix(value, "Signature "), ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		val = strings.Trim(val, `"`)
		switch key {
		case "keyId":
			h.KeyID = val
		case "algorithm":
			h.Algorithm = val
		case "created":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "parsing created timestamp")
			}
			h.Created = n
		case "expires":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "parsing expires timestamp")
			}
			h.Expires = n
		case "signature":
			sig, err := base64.StdEncoding.DecodeString(val)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "decoding signature")
			}
			h.Signature = sig
		}
	}
	if h.KeyID == "" || len(h.Signature) == 0 {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authorization header missing keyId or signature")
	}
	return h, nil
}

// Verify checks an Authorization header against the body it claims to cover.
func (s *Signer) Verify(value string, body []byte, pub ed25519.PublicKey) error {
	h, err := ParseHeader(value)
	if err != nil {
		return err
	}
	if h.Expires != 0 && s.now().Unix() > h.Expires {
		return dErrors.New(dErrors.CodeUnauthorized, "authorization header expired")
	}
	signingString := signingString(h.Created, h.Expires, body)
	if !ed25519.Verify(pub, []byte(signingString), h.Signature) {
		return dErrors.New(dErrors.CodeUnauthorized, "signature verification failed")
	}
	return nil
}

func signingString(created, expires int64, body []byte) string {
	digest := blake2b.Sum512(body)
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])
	return fmt.Sprintf("(created): %d\n(expires): %d\ndigest: BLAKE2b-64=%s", created, expires, digestB64)
}
