package shacrypt

import (
	"encoding/binary"

	"github.com/p7r0x7/shacrypt/sha512x"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// Every round hashes the 64-byte digest of the round before together with one of eight
// arrangements of P and S. Those arrangements depend only on the key length and salt length,
// so they are padded once per batch into fully formed SHA-512 messages and each round only
// rewrites the 64 bytes the digest occupies.
//
// Variant v has three bits: bit 2 puts the digest after the material instead of before it,
// bit 1 adds S, bit 0 adds a second P. Round i uses 4*(i&1) + 2*[i%3 != 0] + [i%7 != 0].

const (
	variants     = 8
	patternWords = 2 * sha512x.BlockWords
	patternBytes = patternWords * 8
)

type layout struct {
	content   int  /* bytes of P and S material */
	twoBlocks bool /* whether the padded message spills into a second block */
}

func (l layout) total() int { return l.content + sha512x.Size }

// digestOffset is the byte at which each round's digest is spliced in.
func (l layout) digestOffset(v int) int {
	if v&4 == 0 {
		return 0
	}
	return l.content
}

func layoutsFor(keyLen, saltLen int) (out [variants]layout) {
	for v := range out {
		n := keyLen
		if v&2 != 0 {
			n += saltLen
		}
		if v&1 != 0 {
			n += keyLen
		}
		out[v].content = n
		out[v].twoBlocks = n+sha512x.Size >= sha512x.MaxSingleBlock
	}
	return out
}

func appendContent(dst []byte, v int, p, s []byte) []byte {
	if v&4 == 0 && v&2 != 0 {
		dst = append(dst, s...)
	}
	dst = append(dst, p...)
	if v&4 != 0 && v&2 != 0 {
		dst = append(dst, s...)
	}
	if v&1 != 0 {
		dst = append(dst, p...)
	}
	return dst
}

// buildPattern writes the padded message for variant v as big-endian words. The digest slot
// holds digest, which the round loop overwrites before it is ever compressed.
func buildPattern(dst *[patternWords]uint64, v int, l layout, p, s []byte, digest *[sha512x.StateWords]uint64) {
	var buf [patternBytes]byte
	var d [sha512x.Size]byte
	sha512x.PutState(d[:], digest)

	msg := buf[:0]
	if v&4 == 0 {
		msg = append(msg, d[:]...)
	}
	msg = appendContent(msg, v, p, s)
	if v&4 != 0 {
		msg = append(msg, d[:]...)
	}
	total := len(msg)
	buf[total] = 0x80

	end := sha512x.BlockSize
	if l.twoBlocks {
		end = patternBytes
	}
	binary.BigEndian.PutUint64(buf[end-8:], uint64(total)*8)

	for j := range dst {
		dst[j] = binary.BigEndian.Uint64(buf[j*8:])
	}
}
