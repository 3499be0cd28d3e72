package signer

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicred/internal/directory"
	"unicred/internal/keystore"
	"unicred/internal/vc/builder"
	"unicred/internal/vc/models"
	dErrors "unicred/pkg/domain-errors"
)

func testKey(t *testing.T) *keystore.IssuerKey {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	did, err := keystore.DIDFromPublicKey(pub)
	require.NoError(t, err)
	return &keystore.IssuerKey{PrivateKey: priv, PublicKey: pub, DID: did}
}

func testDocument(t *testing.T, did string) models.Document {
	t.Helper()
	b := builder.New("Test University")
	doc, err := b.Build(did, builder.Request{
		Type: models.TypeHackathon,
		Student: directory.Student{
			StudentID:  "01FE21BCS001",
			FirstName:  "Asha",
			LastName:   "Rao",
			Department: "CSE",
			BatchYear:  2022,
		},
		Metadata: builder.Metadata{
			HackathonName: "HackNight 2025",
			Position:      "Winner",
			TeamName:      "NullPointers",
		},
	})
	require.NoError(t, err)
	return doc
}

// asMap round-trips a signed document through JSON, the way a verifier
// receives it over the wire.
func asMap(t *testing.T, doc models.Document) map[string]any {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestSignAttachesProof(t *testing.T) {
	key := testKey(t)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := New(WithClock(func() time.Time { return created }))

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)
	require.NotNil(t, signed.Proof)

	assert.Equal(t, ProofType, signed.Proof.Type)
	assert.Equal(t, "2025-06-01T12:00:00Z", signed.Proof.Created)
	assert.Equal(t, key.DID+"#key-1", signed.Proof.VerificationMethod)
	assert.Equal(t, "assertionMethod", signed.Proof.ProofPurpose)
	assert.True(t, len(signed.Proof.ProofValue) > 1 && signed.Proof.ProofValue[0] == 'z')
}

func TestSignRejectsAlreadySigned(t *testing.T) {
	key := testKey(t)
	s := New()

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)

	_, err = s.Sign(key, signed)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestSignVerifyRoundTrip(t *testing.T) {
	key := testKey(t)
	s := New()

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)

	res := s.Verify(key.PublicKey, asMap(t, signed))
	assert.True(t, res.Valid)
	assert.Equal(t, ReasonVerified, res.Reason)
}

func TestVerifyTamperedClaim(t *testing.T) {
	key := testKey(t)
	s := New()

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)

	doc := asMap(t, signed)
	subject := doc["credentialSubject"].(map[string]any)
	subject["position"] = "Runner-up"

	res := s.Verify(key.PublicKey, doc)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonSignatureMismatch, res.Reason)
}

func TestVerifyTamperedProofMetadata(t *testing.T) {
	key := testKey(t)
	s := New()

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)

	doc := asMap(t, signed)
	doc["proof"].(map[string]any)["created"] = "2030-01-01T00:00:00Z"

	res := s.Verify(key.PublicKey, doc)
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonSignatureMismatch, res.Reason)
}

func TestVerifyWrongKey(t *testing.T) {
	key := testKey(t)
	other := testKey(t)
	s := New()

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)

	res := s.Verify(other.PublicKey, asMap(t, signed))
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonSignatureMismatch, res.Reason)
}

func TestVerifyStructuralFailures(t *testing.T) {
	key := testKey(t)
	s := New()

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)

	t.Run("missing proof", func(t *testing.T) {
		doc := asMap(t, signed)
		delete(doc, "proof")
		res := s.Verify(key.PublicKey, doc)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonNoProof, res.Reason)
	})

	t.Run("missing proofValue", func(t *testing.T) {
		doc := asMap(t, signed)
		delete(doc["proof"].(map[string]any), "proofValue")
		res := s.Verify(key.PublicKey, doc)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonInvalidProofValue, res.Reason)
	})

	t.Run("wrong multibase prefix", func(t *testing.T) {
		doc := asMap(t, signed)
		proof := doc["proof"].(map[string]any)
		proof["proofValue"] = "u" + proof["proofValue"].(string)[1:]
		res := s.Verify(key.PublicKey, doc)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonInvalidProofValue, res.Reason)
	})

	t.Run("undecodable proofValue", func(t *testing.T) {
		doc := asMap(t, signed)
		doc["proof"].(map[string]any)["proofValue"] = "z0OIl" // 0,O,I,l not in base58
		res := s.Verify(key.PublicKey, doc)
		assert.False(t, res.Valid)
		assert.Equal(t, ReasonInvalidProofValue, res.Reason)
	})
}

// Verification must not care about JSON key order or re-serialization: the
// canonical form is what is signed.
func TestVerifyStableUnderReserialization(t *testing.T) {
	key := testKey(t)
	s := New()

	signed, err := s.Sign(key, testDocument(t, key.DID))
	require.NoError(t, err)

	raw, err := json.Marshal(signed)
	require.NoError(t, err)
	var once map[string]any
	require.NoError(t, json.Unmarshal(raw, &once))
	again, err := json.Marshal(once)
	require.NoError(t, err)
	var twice map[string]any
	require.NoError(t, json.Unmarshal(again, &twice))

	res := s.Verify(key.PublicKey, twice)
	assert.True(t, res.Valid, res.Reason)
}
