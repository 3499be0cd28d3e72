// Package signer implements Ed25519Signature2020 proofs over canonical
// document bytes. The signing payload is sha256(canonical proof options)
// followed by sha256(canonical document), so a change to either the claims
// or the proof metadata invalidates the signature.
package signer

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/multiformats/go-multibase"

	"unicred/internal/keystore"
	"unicred/internal/vc/canonical"
	"unicred/internal/vc/models"
	dErrors "unicred/pkg/domain-errors"
)

// ProofType is the only proof suite this signer produces or accepts.
const ProofType = "Ed25519Signature2020"

// Verification reasons. Verify reports structured outcomes, never errors:
// a malformed or tampered credential is an invalid credential, not a fault.
const (
	ReasonVerified          = "verified"
	ReasonNoProof           = "no proof found in credential"
	ReasonInvalidProofValue = "invalid proof value format"
	ReasonSignatureMismatch = "signature verification failed"
)

// Result is the outcome of verifying one credential.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// Signer signs credential documents and verifies their proofs.
type Signer struct {
	now func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the proof timestamp source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Signer.
func New(opts ...Option) *Signer {
	s := &Signer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign attaches an Ed25519Signature2020 proof to doc using the issuer key.
// A document already carrying a proof is final and cannot be re-signed.
func (s *Signer) Sign(key *keystore.IssuerKey, doc models.Document) (models.Document, error) {
	if key == nil || len(key.PrivateKey) != ed25519.PrivateKeySize {
		return models.Document{}, dErrors.New(dErrors.CodeInternal, "issuer key is missing or malformed")
	}
	if doc.Proof != nil {
		return models.Document{}, dErrors.New(dErrors.CodeConflict, "document already carries a proof")
	}

	proof := models.Proof{
		Type:               ProofType,
		Created:            s.now().UTC().Truncate(time.Second).Format(time.RFC3339),
		VerificationMethod: key.DID + "#key-1",
		ProofPurpose:       "assertionMethod",
	}

	payload, err := signingInput(doc, proofOptions(proof))
	if err != nil {
		return models.Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "canonicalizing document for signing")
	}

	sig := ed25519.Sign(key.PrivateKey, payload)
	proofValue, err := multibase.Encode(multibase.Base58BTC, sig)
	if err != nil {
		return models.Document{}, dErrors.Wrap(err, dErrors.CodeInternal, "encoding proof value")
	}

	proof.ProofValue = proofValue
	doc.Proof = &proof
	return doc, nil
}

// Verify checks the proof of an incoming credential document against the
// trusted public key. The document arrives as decoded JSON because callers
// hand us arbitrary external credentials; the embedded issuer or
// verificationMethod is never used as a key source.
func (s *Signer) Verify(pub ed25519.PublicKey, doc map[string]any) Result {
	proofRaw, ok := doc["proof"].(map[string]any)
	if !ok || len(proofRaw) == 0 {
		return Result{Valid: false, Reason: ReasonNoProof}
	}

	proofValue, _ := proofRaw["proofValue"].(string)
	if !strings.HasPrefix(proofValue, "z") {
		return Result{Valid: false, Reason: ReasonInvalidProofValue}
	}
	encoding, sig, err := multibase.Decode(proofValue)
	if err != nil || encoding != multibase.Base58BTC || len(sig) != ed25519.SignatureSize {
		return Result{Valid: false, Reason: ReasonInvalidProofValue}
	}

	// Rebuild the two canonical payloads exactly as signing produced them:
	// the document without its proof, and the proof options without the
	// proofValue.
	unsigned := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "proof" {
			continue
		}
		unsigned[k] = v
	}
	options := make(map[string]any, len(proofRaw)+1)
	for k, v := range proofRaw {
		if k == "proofValue" {
			continue
		}
		options[k] = v
	}
	options["@context"] = models.SecuritySuiteContext

	payload, err := signingInput(unsigned, options)
	if err != nil {
		return Result{Valid: false, Reason: fmt.Sprintf("canonicalization failed: %v", err)}
	}

	if !ed25519.Verify(pub, payload, sig) {
		return Result{Valid: false, Reason: ReasonSignatureMismatch}
	}
	return Result{Valid: true, Reason: ReasonVerified}
}

// proofOptions is the minimal structure digested alongside the document:
// the proof block minus proofValue, under the signature suite context.
func proofOptions(p models.Proof) map[string]any {
	return map[string]any{
		"@context":           models.SecuritySuiteContext,
		"type":               p.Type,
		"created":            p.Created,
		"verificationMethod": p.VerificationMethod,
		"proofPurpose":       p.ProofPurpose,
	}
}

// signingInput returns sha256(canonical options) || sha256(canonical doc).
func signingInput(doc any, options any) ([]byte, error) {
	optBytes, err := canonical.Canonicalize(options)
	if err != nil {
		return nil, fmt.Errorf("canonicalize proof options: %w", err)
	}
	docBytes, err := canonical.Canonicalize(doc)
	if err != nil {
		return nil, fmt.Errorf("canonicalize document: %w", err)
	}

	optDigest := sha256.Sum256(optBytes)
	docDigest := sha256.Sum256(docBytes)

	payload := make([]byte, 0, 2*sha256.Size)
	payload = append(payload, optDigest[:]...)
	payload = append(payload, docDigest[:]...)
	return payload, nil
}
