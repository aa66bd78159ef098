// Package sha512x provides the SHA-512 primitives the crypt engine is built on: a block
// compression function over pre-scheduled message words, lane-interleaved variants of it, the
// splice routines that patch a running digest into a cached message buffer, and a small
// streaming hasher for the per-candidate pre-computation.
package sha512x

import (
	"encoding/binary"
	"math/bits"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// The compression function below follows FIPS 180-4 §6.4.2 word for word; message words are
// taken as already-loaded big-endian 64-bit values so that cached buffers never need swapping.

const (
	BlockSize  = 128 /* bytes per compression block */
	BlockWords = BlockSize / 8
	StateWords = 8
	Size       = StateWords * 8
	/* A message of 112 or more bytes no longer leaves room for 0x80 and the length field. */
	MaxSingleBlock = BlockSize - 16
)

// IV is the SHA-512 initial hash value.
var IV = [StateWords]uint64{
	0x6a09e667f3bcc908, 0xbb67ae8584caa73b, 0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
	0x510e527fade682d1, 0x9b05688c2b3e6c1f, 0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
}

var k = [80]uint64{
	0x428a2f98d728ae22, 0x7137449123ef65cd, 0xb5c0fbcfec4d3b2f, 0xe9b5dba58189dbbc,
	0x3956c25bf348b538, 0x59f111f1b605d019, 0x923f82a4af194f9b, 0xab1c5ed5da6d8118,
	0xd807aa98a3030242, 0x12835b0145706fbe, 0x243185be4ee4b28c, 0x550c7dc3d5ffb4e2,
	0x72be5d74f27b896f, 0x80deb1fe3b1696b1, 0x9bdc06a725c71235, 0xc19bf174cf692694,
	0xe49b69c19ef14ad2, 0xefbe4786384f25e3, 0x0fc19dc68b8cd5b5, 0x240ca1cc77ac9c65,
	0x2de92c6f592b0275, 0x4a7484aa6ea6e483, 0x5cb0a9dcbd41fbd4, 0x76f988da831153b5,
	0x983e5152ee66dfab, 0xa831c66d2db43210, 0xb00327c898fb213f, 0xbf597fc7beef0ee4,
	0xc6e00bf33da88fc2, 0xd5a79147930aa725, 0x06ca6351e003826f, 0x142929670a0e6e70,
	0x27b70a8546d22ffc, 0x2e1b21385c26c926, 0x4d2c6dfc5ac42aed, 0x53380d139d95b3df,
	0x650a73548baf63de, 0x766a0abb3c77b2a8, 0x81c2c92e47edaee6, 0x92722c851482353b,
	0xa2bfe8a14cf10364, 0xa81a664bbc423001, 0xc24b8b70d0f89791, 0xc76c51a30654be30,
	0xd192e819d6ef5218, 0xd69906245565a910, 0xf40e35855771202a, 0x106aa07032bbd1b8,
	0x19a4c116b8d2d0c8, 0x1e376c085141ab53, 0x2748774cdf8eeb99, 0x34b0bcb5e19b48a8,
	0x391c0cb3c5c95a63, 0x4ed8aa4ae3418acb, 0x5b9cca4f7763e373, 0x682e6ff3d6b2b8a3,
	0x748f82ee5defb2fc, 0x78a5636f43172f60, 0x84c87814a1f0ab72, 0x8cc702081a6439ec,
	0x90befffa23631e28, 0xa4506cebde82bde9, 0xbef9a3f7b2c67915, 0xc67178f2e372532b,
	0xca273eceea26619c, 0xd186b8c721c0c207, 0xeada7dd6cde0eb1e, 0xf57d4f7fee6ed178,
	0x06f067aa72176fba, 0x0a637dc5a2c898a6, 0x113f9804bef90dae, 0x1b710b35131c471b,
	0x28db77f523047d84, 0x32caab7b40c72493, 0x3c9ebe0a15c9bebc, 0x431d67c49c100d4c,
	0x4cc5d4becb3e42b6, 0x597f299cfc657e2a, 0x5fcb6fab3ad6faec, 0x6c44198c4a475817,
}

// Block compresses one 128-byte block, given as 16 big-endian words, into state.
func Block(state *[StateWords]uint64, block *[BlockWords]uint64) {
	var w [80]uint64
	copy(w[:BlockWords], block[:])
	for i := BlockWords; i < 80; i++ {
		v1, v2 := w[i-2], w[i-15]
		s1 := bits.RotateLeft64(v1, -19) ^ bits.RotateLeft64(v1, -61) ^ v1>>6
		s0 := bits.RotateLeft64(v2, -1) ^ bits.RotateLeft64(v2, -8) ^ v2>>7
		w[i] = s1 + w[i-7] + s0 + w[i-16]
	}

	a, b, c, d, e, f, g, h := state[0], state[1], state[2], state[3], state[4], state[5], state[6], state[7]
	for i := 0; i < 80; i++ {
		t1 := h + (bits.RotateLeft64(e, -14) ^ bits.RotateLeft64(e, -18) ^ bits.RotateLeft64(e, -41)) +
			(e&f ^ ^e&g) + k[i] + w[i]
		t2 := (bits.RotateLeft64(a, -28) ^ bits.RotateLeft64(a, -34) ^ bits.RotateLeft64(a, -39)) +
			(a&b ^ a&c ^ b&c)
		h, g, f, e, d, c, b, a = g, f, e, d+t1, c, b, a, t1+t2
	}

	state[0] += a
	state[1] += b
	state[2] += c
	state[3] += d
	state[4] += e
	state[5] += f
	state[6] += g
	state[7] += h
}

// Hasher is a minimal streaming SHA-512 that reports its result as state words. The zero value
// is not ready for use; call Reset first.
type Hasher struct {
	h   [StateWords]uint64
	w   [BlockWords]uint64
	x   [BlockSize]byte
	nx  int
	len uint64
}

func (d *Hasher) Reset() {
	d.h, d.nx, d.len = IV, 0, 0
}

func (d *Hasher) Write(p []byte) (int, error) {
	n := len(p)
	d.len += uint64(n)
	for len(p) > 0 {
		c := copy(d.x[d.nx:], p)
		d.nx += c
		p = p[c:]
		if d.nx == BlockSize {
			d.compress()
			d.nx = 0
		}
	}
	return n, nil
}

// Sum pads and finishes the message. The Hasher must be Reset before it is written to again.
func (d *Hasher) Sum() [StateWords]uint64 {
	/* Message lengths here never exceed a few kilobytes; the upper 64 bits of the field stay 0. */
	bitLen := d.len << 3
	d.x[d.nx] = 0x80
	d.nx++
	if d.nx > MaxSingleBlock {
		for i := d.nx; i < BlockSize; i++ {
			d.x[i] = 0
		}
		d.compress()
		d.nx = 0
	}
	for i := d.nx; i < BlockSize-8; i++ {
		d.x[i] = 0
	}
	binary.BigEndian.PutUint64(d.x[BlockSize-8:], bitLen)
	d.compress()
	return d.h
}

func (d *Hasher) compress() {
	for i := range d.w {
		d.w[i] = binary.BigEndian.Uint64(d.x[i<<3:])
	}
	Block(&d.h, &d.w)
}

// Sum512 returns the SHA-512 state words of data.
func Sum512(data []byte) [StateWords]uint64 {
	var d Hasher
	d.Reset()
	d.Write(data)
	return d.Sum()
}

// PutState writes state words as the 64-byte SHA-512 output.
func PutState(dst []byte, state *[StateWords]uint64) {
	_ = dst[Size-1]
	for i, v := range state {
		binary.BigEndian.PutUint64(dst[i<<3:], v)
	}
}
