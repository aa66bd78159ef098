package shacrypt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/p7r0x7/shacrypt/crypt"
	"github.com/zeebo/blake3"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// NoHash terminates the per-salt hash lists.
const NoHash = math.MaxUint32

// ErrInvalidRecords is returned by NewIndexFromRecords for inconsistent link tables.
var ErrInvalidRecords = errors.New("shacrypt: inconsistent index records")

// Index is the immutable set of target hashes, grouped by distinct salt (salt string and
// rounds). Hash IDs are positions in the input; salt IDs follow first appearance. It is safe
// for concurrent use once built.
type Index struct {
	salts        []crypt.Salt
	digests      []crypt.Digest
	saltOf       []uint32
	saltFirst    []uint32
	sameSaltNext []uint32
}

// NewIndex groups hashes by salt. Hashes sharing a salt are chained in input order.
func NewIndex(hashes []crypt.Hash) (*Index, error) {
	if uint64(len(hashes)) >= NoHash {
		return nil, fmt.Errorf("%w: %d hashes exceed the 32-bit ID space", ErrAllocation, len(hashes))
	}
	ix := &Index{
		digests:      make([]crypt.Digest, len(hashes)),
		saltOf:       make([]uint32, len(hashes)),
		sameSaltNext: make([]uint32, len(hashes)),
	}
	ids := make(map[crypt.Salt]uint32)
	var last []uint32
	for i := range hashes {
		h := &hashes[i]
		id := uint32(i)
		sid, ok := ids[h.Salt]
		if !ok {
			sid = uint32(len(ix.salts))
			ids[h.Salt] = sid
			ix.salts = append(ix.salts, h.Salt)
			ix.saltFirst = append(ix.saltFirst, id)
			last = append(last, id)
		} else {
			ix.sameSaltNext[last[sid]] = id
			last[sid] = id
		}
		ix.digests[id] = h.Digest
		ix.saltOf[id] = sid
		ix.sameSaltNext[id] = NoHash
	}
	return ix, nil
}

// NewIndexFromRecords adopts precomputed tables: saltFirst[s] heads the list of hashes using
// salts[s] and sameSaltNext[h] follows it, both terminated by NoHash. Every hash must be on
// exactly one list.
func NewIndexFromRecords(salts []crypt.Salt, digests []crypt.Digest, saltFirst, sameSaltNext []uint32) (*Index, error) {
	switch {
	case len(saltFirst) != len(salts):
		return nil, fmt.Errorf("%w: %d salts but %d list heads", ErrInvalidRecords, len(salts), len(saltFirst))
	case len(sameSaltNext) != len(digests):
		return nil, fmt.Errorf("%w: %d digests but %d links", ErrInvalidRecords, len(digests), len(sameSaltNext))
	case uint64(len(digests)) >= NoHash:
		return nil, fmt.Errorf("%w: %d hashes exceed the 32-bit ID space", ErrAllocation, len(digests))
	}

	saltOf := make([]uint32, len(digests))
	seen := make([]bool, len(digests))
	for s, id := range saltFirst {
		for ; id != NoHash; id = sameSaltNext[id] {
			if uint64(id) >= uint64(len(digests)) {
				return nil, fmt.Errorf("%w: salt %d links to hash %d of %d", ErrInvalidRecords, s, id, len(digests))
			}
			if seen[id] {
				return nil, fmt.Errorf("%w: hash %d is linked twice", ErrInvalidRecords, id)
			}
			seen[id] = true
			saltOf[id] = uint32(s)
		}
	}
	for id, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: hash %d is not reachable from any salt", ErrInvalidRecords, id)
		}
	}
	return &Index{
		salts:        append([]crypt.Salt(nil), salts...),
		digests:      append([]crypt.Digest(nil), digests...),
		saltOf:       saltOf,
		saltFirst:    append([]uint32(nil), saltFirst...),
		sameSaltNext: append([]uint32(nil), sameSaltNext...),
	}, nil
}

func (ix *Index) NumHashes() int { return len(ix.digests) }

func (ix *Index) NumSalts() int { return len(ix.salts) }

// Salt returns the salt with ID sid.
func (ix *Index) Salt(sid uint32) crypt.Salt { return ix.salts[sid] }

// SaltOf returns the salt ID of hash id.
func (ix *Index) SaltOf(id uint32) uint32 { return ix.saltOf[id] }

// Hash reassembles hash id.
func (ix *Index) Hash(id uint32) crypt.Hash {
	return crypt.Hash{Salt: ix.salts[ix.saltOf[id]], Digest: ix.digests[id]}
}

// First returns the first hash using salt sid, and Next the hash after id on the same salt.
// Both return NoHash past the end of the list.
func (ix *Index) First(sid uint32) uint32 { return ix.saltFirst[sid] }

func (ix *Index) Next(id uint32) uint32 { return ix.sameSaltNext[id] }

// Fingerprint identifies the target set, in hash ID order, for resumable bookkeeping.
func (ix *Index) Fingerprint() [32]byte {
	h := blake3.New()
	var rec [4 + 4 + 16 + 64]byte
	for id := range ix.digests {
		s := ix.salts[ix.saltOf[id]]
		binary.BigEndian.PutUint32(rec[0:], s.Rounds)
		binary.BigEndian.PutUint32(rec[4:], s.Len)
		copy(rec[8:24], s.Value[:])
		raw := ix.digests[id].Raw()
		copy(rec[24:], raw[:])
		h.Write(rec[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
