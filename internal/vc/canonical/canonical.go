// Package canonical produces the deterministic byte form of a credential
// document used for hashing and signing.
//
// The algorithm is deliberately simpler than RDF dataset canonicalization
// (URDNA2015): members whose value is null, an empty object, or an empty
// array are stripped recursively, then the remainder is serialized as
// compact JSON with lexicographically sorted keys at every level. Because
// this issuer controls the full document schema, stable-sorted JSON is
// sufficient for reproducible signatures; it is not interoperable with
// verifiers that expect JSON-LD normalization.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonicalize returns the canonical bytes of v. v may be a document struct,
// a map, or any JSON-marshalable value; two inputs that marshal to the same
// logical JSON yield byte-identical output regardless of key insertion order
// or how absent optional fields are represented.
func Canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	// Round-trip through a generic value so struct field order is discarded
	// and encoding/json's sorted map-key output applies everywhere.
	// json.Number keeps numeric literals byte-stable.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	cleaned, _ := strip(generic)

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cleaned); err != nil {
		return nil, fmt.Errorf("encode canonical form: %w", err)
	}
	// Encoder appends a newline; the canonical form has none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// strip removes null, empty-object, and empty-array members recursively.
// The second return value reports whether the cleaned value itself is empty
// and should be dropped by the caller.
func strip(v any) (any, bool) {
	switch value := v.(type) {
	case nil:
		return nil, true
	case map[string]any:
		cleaned := make(map[string]any, len(value))
		for k, member := range value {
			m, drop := strip(member)
			if drop {
				continue
			}
			cleaned[k] = m
		}
		return cleaned, len(cleaned) == 0
	case []any:
		cleaned := make([]any, 0, len(value))
		for _, member := range value {
			m, drop := strip(member)
			if drop {
				continue
			}
			cleaned = append(cleaned, m)
		}
		return cleaned, len(cleaned) == 0
	default:
		return value, false
	}
}
