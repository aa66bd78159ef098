package shacrypt

import (
	"crypto/sha512"

	"github.com/p7r0x7/shacrypt/crypt"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Reference computes a digest with crypto/sha512, one message at a time and with no caching.
// It accepts keys of any length and is what the engine is checked against.
func Reference(key []byte, salt crypt.Salt) crypt.Digest {
	sb := salt.Bytes()

	h := sha512.New()
	h.Write(key)
	h.Write(sb)
	h.Write(key)
	alt := h.Sum(nil)

	h.Reset()
	h.Write(key)
	h.Write(sb)
	for i := len(key); i > 0; i -= sha512.Size {
		h.Write(alt[:min(i, sha512.Size)])
	}
	for i := len(key); i > 0; i >>= 1 {
		if i&1 != 0 {
			h.Write(alt)
		} else {
			h.Write(key)
		}
	}
	a := h.Sum(nil)

	h.Reset()
	for range key {
		h.Write(key)
	}
	dp := h.Sum(nil)
	p := make([]byte, 0, len(key))
	for i := len(key); i > 0; i -= sha512.Size {
		p = append(p, dp[:min(i, sha512.Size)]...)
	}

	h.Reset()
	for i := 16 + int(a[0]); i > 0; i-- {
		h.Write(sb)
	}
	s := h.Sum(nil)[:len(sb)]

	a = referenceRounds(a, p, s, 0, salt.Rounds)

	var raw [crypt.RawLen]byte
	copy(raw[:], a)
	return crypt.DigestFromRaw(raw)
}

// referenceRounds applies rounds first through first+count-1 to the digest a.
func referenceRounds(a, p, s []byte, first, count uint32) []byte {
	h := sha512.New()
	for i, end := first, first+count; i < end; i++ {
		h.Reset()
		if i&1 != 0 {
			h.Write(p)
		} else {
			h.Write(a)
		}
		if i%3 != 0 {
			h.Write(s)
		}
		if i%7 != 0 {
			h.Write(p)
		}
		if i&1 != 0 {
			h.Write(a)
		} else {
			h.Write(p)
		}
		a = h.Sum(a[:0])
	}
	return a
}
