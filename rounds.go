package shacrypt

import (
	"github.com/p7r0x7/shacrypt/crypt"
	"github.com/p7r0x7/shacrypt/sha512x"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// MaxKeyLen is the longest key the engine hashes. Up to this length every round message fits
// the two cached blocks whatever the salt.
const MaxKeyLen = 27

/* The variant sequence repeats every lcm(2, 3, 7) rounds. */
var cycle = [42]uint8{
	0, 7, 3, 5, 3, 7, 1, 6, 3, 5, 3, 7, 1, 7, 2, 5, 3, 7, 1, 7, 3,
	4, 3, 7, 1, 7, 3, 5, 2, 7, 1, 7, 3, 5, 3, 6, 1, 7, 3, 5, 3, 7,
}

func variantOf(i uint32) uint8 {
	v := uint8(i&1) << 2
	if i%3 != 0 {
		v |= 2
	}
	if i%7 != 0 {
		v |= 1
	}
	return v
}

// batch is the per-engine scratch that runs one backend's worth of keys of a single length
// through the whole algorithm for one salt at a time.
type batch struct {
	backend sha512x.Backend
	lanes   int

	keyLen  int
	keys    []byte /* lanes*keyLen bytes, inactive lanes repeat the last active key */
	fill    int
	layouts [variants]layout

	state    []uint64 /* StateWords*lanes, interleaved */
	patterns []uint64 /* variants*patternWords*lanes, interleaved per variant */

	h   sha512x.Hasher
	pre precycle
	one [patternWords]uint64
}

func newBatch(b sha512x.Backend) *batch {
	n := b.Lanes()
	return &batch{
		backend:  b,
		lanes:    n,
		keys:     make([]byte, 0, n*MaxKeyLen),
		state:    make([]uint64, sha512x.StateWords*n),
		patterns: make([]uint64, variants*patternWords*n),
	}
}

// load takes count keys of length keyLen, packed back to back. count may be below lanes; the
// spare lanes then repeat the last key and are never scanned.
func (b *batch) load(packed []byte, keyLen, count int) {
	b.fill = min(count, b.lanes)
	b.keyLen = keyLen
	b.keys = append(b.keys[:0], packed[:b.fill*keyLen]...)
	last := b.keys[(b.fill-1)*keyLen:]
	for l := b.fill; l < b.lanes; l++ {
		b.keys = append(b.keys, last[:keyLen]...)
	}
}

func (b *batch) key(lane int) []byte {
	return b.keys[lane*b.keyLen : (lane+1)*b.keyLen]
}

// run leaves the final digests of every lane in b.state.
func (b *batch) run(salt *crypt.Salt) {
	b.prepare(salt)
	b.rounds(0, salt.Rounds)
}

// prepare runs the precycle of every lane and caches its eight message layouts.
func (b *batch) prepare(salt *crypt.Salt) {
	n := b.lanes
	b.layouts = layoutsFor(b.keyLen, int(salt.Len))
	for l := 0; l < n; l++ {
		b.pre.compute(&b.h, b.key(l), salt)
		for j, v := range b.pre.state {
			b.state[j*n+l] = v
		}
		p, s := b.pre.p[:b.keyLen], b.pre.s[:salt.Len]
		for v := 0; v < variants; v++ {
			buildPattern(&b.one, v, b.layouts[v], p, s, &b.pre.state)
			base := v * patternWords * n
			for j, w := range b.one {
				b.patterns[base+j*n+l] = w
			}
		}
	}
}

// rounds advances every lane by count rounds, numbered from first. first+count must not pass
// crypt.MaxRounds.
func (b *batch) rounds(first, count uint32) {
	n := b.lanes
	st := b.state
	be := b.backend
	c := int(first % uint32(len(cycle)))
	for i, end := first, first+count; i < end; i++ {
		v := int(cycle[c])
		pat := b.patterns[v*patternWords*n : (v+1)*patternWords*n]
		if i&1 == 0 {
			copy(pat[:sha512x.StateWords*n], st)
		} else {
			off := b.layouts[v].digestOffset(v)
			if shift := uint(off & 7); shift == 0 {
				be.SpliceAligned(pat[(off>>3)*n:], st)
			} else {
				be.SpliceAt(pat[(off>>3)*n:], st, shift)
			}
		}
		be.CompressFirst(st, pat[:sha512x.BlockWords*n])
		if b.layouts[v].twoBlocks {
			be.Compress(st, pat[sha512x.BlockWords*n:])
		}
		if c++; c == len(cycle) {
			c = 0
		}
	}
}

// digest extracts the final digest of one lane.
func (b *batch) digest(lane int) (d crypt.Digest) {
	for j := range d {
		d[j] = b.state[j*b.lanes+lane]
	}
	return d
}
