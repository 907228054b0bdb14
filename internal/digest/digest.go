// Package digest builds the deterministic content hashes used to detect
// changes in target and manifest definitions.
//
// Every field is length-prefixed so that no two different field sequences
// produce the same byte stream.
package digest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"
)

// Builder accumulates fields into a sha256 digest.
type Builder struct {
	h hash.Hash
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{h: sha256.New()}
}

// String adds one field.
func (b *Builder) String(s string) *Builder {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	b.h.Write(n[:])
	b.h.Write([]byte(s))
	return b
}

// Strings adds the number of elements followed by each element in order.
func (b *Builder) Strings(ss []string) *Builder {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(ss)))
	b.h.Write(n[:])
	for _, s := range ss {
		b.String(s)
	}
	return b
}

// SortedStrings is Strings over a sorted copy of ss.
func (b *Builder) SortedStrings(ss []string) *Builder {
	sorted := append([]string(nil), ss...)
	sort.Strings(sorted)
	return b.Strings(sorted)
}

// Sum returns the hex encoded digest.
func (b *Builder) Sum() string {
	return hex.EncodeToString(b.h.Sum(nil))
}
