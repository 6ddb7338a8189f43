// Package fingerprint computes stable identifiers for failure classes.
//
// A fingerprint is a name-based UUID: the parts chosen by a Strategy are
// joined with NUL bytes, hashed, and the first 16 bytes of the digest are
// stamped with version 5 and the RFC 4122 variant. Equal parts always give
// equal fingerprints; the hash function is configurable.
package fingerprint

import (
	"strings"

	"github.com/google/uuid"
)

// ID is a failure fingerprint.
type ID = uuid.UUID

// Sum hashes parts into an ID.
func Sum(h Hash, parts []string) ID {
	d := h()
	d.Write([]byte(strings.Join(parts, "\x00")))
	sum := d.Sum(nil)

	var id ID
	copy(id[:], sum)
	id[6] = id[6]&0x0f | 0x50
	id[8] = id[8]&0x3f | 0x80
	return id
}

// Engine computes fingerprints with a fixed hash and strategy.
type Engine struct {
	hash     Hash
	hashName string
	strategy Strategy
}

// NewEngine creates an Engine. An empty hash selects DefaultHash; a nil
// strategy selects Default.
func NewEngine(hashName string, strategy Strategy) (*Engine, error) {
	if hashName == "" {
		hashName = DefaultHash
	}
	h, err := LookupHash(hashName)
	if err != nil {
		return nil, err
	}
	if strategy == nil {
		strategy = Default{}
	}
	return &Engine{hash: h, hashName: hashName, strategy: strategy}, nil
}

// HashName returns the configured hash name.
func (e *Engine) HashName() string {
	return e.hashName
}

// Parts returns the strategy's parts for in.
func (e *Engine) Parts(in Input) []string {
	return e.strategy.Parts(in)
}

// Compute returns the fingerprint of in.
func (e *Engine) Compute(in Input) ID {
	return Sum(e.hash, e.Parts(in))
}
