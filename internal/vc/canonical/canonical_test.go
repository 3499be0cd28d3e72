package canonical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeSortsKeysAtEveryLevel(t *testing.T) {
	doc := map[string]any{
		"zeta": "last",
		"alpha": map[string]any{
			"nested":  true,
			"another": []any{1, 2},
		},
	}

	out, err := Canonicalize(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":{"another":[1,2],"nested":true},"zeta":"last"}`, string(out))
}

func TestCanonicalizeIsInsertionOrderIndependent(t *testing.T) {
	// Two JSON encodings of the same logical document, different member order.
	a := json.RawMessage(`{"id":"urn:uuid:x","issuer":{"name":"KLE","id":"did:key:z1"},"type":["VerifiableCredential"]}`)
	b := json.RawMessage(`{"type":["VerifiableCredential"],"issuer":{"id":"did:key:z1","name":"KLE"},"id":"urn:uuid:x"}`)

	var docA, docB map[string]any
	require.NoError(t, json.Unmarshal(a, &docA))
	require.NoError(t, json.Unmarshal(b, &docB))

	outA, err := Canonicalize(docA)
	require.NoError(t, err)
	outB, err := Canonicalize(docB)
	require.NoError(t, err)

	assert.Equal(t, outA, outB)
}

func TestCanonicalizeStripsEmptyMembers(t *testing.T) {
	doc := map[string]any{
		"id":     "urn:uuid:x",
		"absent": nil,
		"emptyO": map[string]any{},
		"emptyA": []any{},
		"deep": map[string]any{
			"onlyEmpty": map[string]any{"a": nil},
		},
		"list": []any{nil, map[string]any{}, "kept"},
	}

	out, err := Canonicalize(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"urn:uuid:x","list":["kept"]}`, string(out))
}

func TestCanonicalizeKeepsZeroValues(t *testing.T) {
	// Zero, false, and the empty string are real claim values, not absence.
	doc := map[string]any{"gpa": 0, "passed": false, "note": ""}

	out, err := Canonicalize(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"gpa":0,"note":"","passed":false}`, string(out))
}

func TestCanonicalizeStructAndMapAgree(t *testing.T) {
	type issuer struct {
		ID   string `json:"id"`
		Name string `json:"name,omitempty"`
	}
	type doc struct {
		Issuer issuer `json:"issuer"`
		ID     string `json:"id"`
	}

	fromStruct, err := Canonicalize(doc{ID: "urn:uuid:x", Issuer: issuer{ID: "did:key:z1", Name: "KLE"}})
	require.NoError(t, err)

	fromMap, err := Canonicalize(map[string]any{
		"id":     "urn:uuid:x",
		"issuer": map[string]any{"name": "KLE", "id": "did:key:z1"},
	})
	require.NoError(t, err)

	assert.Equal(t, fromStruct, fromMap)
}

func TestCanonicalizePreservesNumberLiterals(t *testing.T) {
	// A received document fed back in as raw JSON keeps its numeric literals
	// byte-for-byte, so re-verification hashes the same bytes the signer saw.
	out, err := Canonicalize(json.RawMessage(`{"credits":24,"cgpa":8.50}`))
	require.NoError(t, err)
	assert.Equal(t, `{"cgpa":8.50,"credits":24}`, string(out))
}

func TestCanonicalizeDeterministicAcrossCalls(t *testing.T) {
	doc := map[string]any{"b": 1, "a": map[string]any{"y": "v", "x": []any{"p", "q"}}}
	first, err := Canonicalize(doc)
	require.NoError(t, err)
	for range 10 {
		again, err := Canonicalize(doc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
