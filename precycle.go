package shacrypt

import (
	"github.com/p7r0x7/shacrypt/crypt"
	"github.com/p7r0x7/shacrypt/sha512x"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// precycle is everything the round loop needs from one key and salt: the starting digest and
// the P and S byte sequences that fill the cached message layouts.
type precycle struct {
	state [sha512x.StateWords]uint64
	p     [MaxKeyLen]byte
	s     [crypt.MaxSaltLen]byte
}

func (pc *precycle) compute(h *sha512x.Hasher, key []byte, salt *crypt.Salt) {
	var a, tmp [sha512x.Size]byte
	sb := salt.Bytes()

	h.Reset()
	h.Write(key)
	h.Write(sb)
	h.Write(key)
	sum := h.Sum()
	sha512x.PutState(a[:], &sum)

	h.Reset()
	h.Write(key)
	h.Write(sb)
	h.Write(a[:len(key)])
	for j := len(key); j > 0; j >>= 1 {
		if j&1 != 0 {
			h.Write(a[:])
		} else {
			h.Write(key)
		}
	}
	pc.state = h.Sum()

	h.Reset()
	for i := len(key); i > 0; i-- {
		h.Write(key)
	}
	sum = h.Sum()
	sha512x.PutState(tmp[:], &sum)
	copy(pc.p[:], tmp[:len(key)])

	h.Reset()
	/* The repeat count is 16 plus the first output byte of the starting digest. */
	for i := 16 + int(pc.state[0]>>56); i > 0; i-- {
		h.Write(sb)
	}
	sum = h.Sum()
	sha512x.PutState(tmp[:], &sum)
	copy(pc.s[:], tmp[:len(sb)])
}
