// Package trackname implements the namespace-tuple / full-track-name
// model: ordered byte-vector namespaces, prefix relations, and the
// deterministic 64-bit hashing used to derive track aliases and to key
// the session engine's announce/subscribe-announces tables.
//
// Hashing uses FNV-1a (hash/fnv) rather than Go's hash/maphash: maphash
// is seeded per-process and would make TrackHash non-deterministic
// across runs, violating P6.
package trackname

import (
	"bytes"
	"hash/fnv"
)

// Namespace is an ordered sequence of opaque byte elements.
type Namespace [][]byte

// Equal reports element-wise equality.
func (ns Namespace) Equal(other Namespace) bool {
	if len(ns) != len(other) {
		return false
	}
	for i := range ns {
		if !bytes.Equal(ns[i], other[i]) {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether ns is a prefix of other: ns is no longer
// than other and their first len(ns) elements are pairwise equal.
func (ns Namespace) IsPrefixOf(other Namespace) bool {
	if len(ns) > len(other) {
		return false
	}
	for i := range ns {
		if !bytes.Equal(ns[i], other[i]) {
			return false
		}
	}
	return true
}

// HasSamePrefix reports whether ns and other share a prefix relation in
// either direction.
func (ns Namespace) HasSamePrefix(other Namespace) bool {
	return ns.IsPrefixOf(other) || other.IsPrefixOf(ns)
}

// hashBytes returns the FNV-1a 64-bit hash of b.
func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

// combine folds h2 into the running hash h1, mirroring the reference
// hash_combine idiom (golden ratio multiplicative mixing).
func combine(h1, h2 uint64) uint64 {
	const magic = 0x9e3779b97f4a7c15
	h1 ^= h2 + magic + (h1 << 6) + (h1 >> 2)
	return h1
}

// Hash returns the namespace hash: the running hash_combine of each
// element's FNV-1a hash, seeded at 0.
func (ns Namespace) Hash() uint64 {
	var h uint64
	for _, elem := range ns {
		h = combine(h, hashBytes(elem))
	}
	return h
}

// Clone returns a deep copy of ns.
func (ns Namespace) Clone() Namespace {
	out := make(Namespace, len(ns))
	for i, elem := range ns {
		cp := make([]byte, len(elem))
		copy(cp, elem)
		out[i] = cp
	}
	return out
}

// FullTrackName identifies a single track: a namespace, a name within
// that namespace, and an optional track alias assigned by the session
// engine once the track is bound within a session.
type FullTrackName struct {
	Namespace Namespace
	Name      []byte

	// HasAlias and Alias implement the "optional track alias" field;
	// Alias is meaningful only when HasAlias is true.
	HasAlias bool
	Alias    uint64
}

// Equal reports whether two full track names identify the same track
// (namespace and name only — the alias is a session-local handle, not
// part of track identity).
func (f FullTrackName) Equal(other FullTrackName) bool {
	return f.Namespace.Equal(other.Namespace) && bytes.Equal(f.Name, other.Name)
}

// TrackHash holds the three derived 64-bit values for a FullTrackName:
// the namespace hash, the name hash, and a combined 62-bit hash reserved
// for varint-sized handles.
type TrackHash struct {
	NamespaceHash     uint64
	NameHash          uint64
	TrackFullnameHash uint64
}

// Hash computes f's TrackHash. The combined hash follows
// (ns ^ (name<<1)) << 1 >> 2, which both mixes the two hashes and masks
// the result down to 62 bits so it always fits in a varint.
func (f FullTrackName) Hash() TrackHash {
	nsHash := f.Namespace.Hash()
	nameHash := hashBytes(f.Name)
	combined := (nsHash ^ (nameHash << 1)) << 1 >> 2
	return TrackHash{
		NamespaceHash:     nsHash,
		NameHash:          nameHash,
		TrackFullnameHash: combined,
	}
}
