package fingerprint

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"maps"
	"slices"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

// DefaultHash is used when no hash is configured.
const DefaultHash = "sha1"

// ErrUnknownHash reports an unsupported hash name.
var ErrUnknownHash = errors.New("unknown hash")

// Hash constructs a fresh digest.
type Hash func() hash.Hash

var hashes = map[string]Hash{
	"md5":        md5.New,
	"sha1":       sha1.New,
	"sha224":     sha256.New224,
	"sha256":     sha256.New,
	"sha384":     sha512.New384,
	"sha512":     sha512.New,
	"sha512_224": sha512.New512_224,
	"sha512_256": sha512.New512_256,
	"sha3_224":   sha3.New224,
	"sha3_256":   sha3.New256,
	"sha3_384":   sha3.New384,
	"sha3_512":   sha3.New512,
	"blake2b":    unkeyed(blake2b.New512),
	"blake2s":    unkeyed(blake2s.New256),
}

// unkeyed drops the error of keyed constructors; a nil key never fails.
func unkeyed(fn func(key []byte) (hash.Hash, error)) Hash {
	return func() hash.Hash {
		h, err := fn(nil)
		if err != nil {
			panic(err)
		}
		return h
	}
}

// LookupHash returns the hash registered under name.
func LookupHash(name string) (Hash, error) {
	if h, ok := hashes[name]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownHash, name)
}

// HashNames lists the supported hash names in sorted order.
func HashNames() []string {
	return slices.Sorted(maps.Keys(hashes))
}
