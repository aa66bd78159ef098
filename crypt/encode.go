package crypt

import "fmt"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// crypt(3) spreads the 64 digest bytes over 21 three-byte groups taken in a fixed, interleaved
// order; each group becomes four characters, least significant 6 bits first. Byte 63 is left
// over and takes two characters, the second of which can only hold its top two bits.

// Alphabet is the crypt(3) base-64 character set, in digit order.
const Alphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const invalid = 0xff

var groups = [21][3]uint8{
	{0, 21, 42}, {22, 43, 1}, {44, 2, 23}, {3, 24, 45}, {25, 46, 4}, {47, 5, 26}, {6, 27, 48},
	{28, 49, 7}, {50, 8, 29}, {9, 30, 51}, {31, 52, 10}, {53, 11, 32}, {12, 33, 54}, {34, 55, 13},
	{56, 14, 35}, {15, 36, 57}, {37, 58, 16}, {59, 17, 38}, {18, 39, 60}, {40, 61, 19}, {62, 20, 41},
}

var decodeMap = func() (m [256]byte) {
	for i := range m {
		m[i] = invalid
	}
	for i := 0; i < len(Alphabet); i++ {
		m[Alphabet[i]] = byte(i)
	}
	return m
}()

// EncodeDigest renders a raw digest as its 86 crypt characters.
func EncodeDigest(raw *[RawLen]byte) string {
	var out [DigestLen]byte
	pos := 0
	for _, g := range groups {
		v := uint32(raw[g[0]])<<16 | uint32(raw[g[1]])<<8 | uint32(raw[g[2]])
		out[pos+0] = Alphabet[v&63]
		out[pos+1] = Alphabet[v>>6&63]
		out[pos+2] = Alphabet[v>>12&63]
		out[pos+3] = Alphabet[v>>18&63]
		pos += 4
	}
	out[pos+0] = Alphabet[raw[63]&63]
	out[pos+1] = Alphabet[raw[63]>>6]
	return string(out[:])
}

// DecodeDigest is the inverse of EncodeDigest. It rejects anything but exactly 86 alphabet
// characters whose last one carries no more than two bits.
func DecodeDigest(s string) (raw [RawLen]byte, err error) {
	if len(s) != DigestLen {
		return raw, fmt.Errorf("%w: digest is %d characters, want %d", ErrMalformed, len(s), DigestLen)
	}
	var vals [DigestLen]byte
	for i := 0; i < DigestLen; i++ {
		if vals[i] = decodeMap[s[i]]; vals[i] == invalid {
			return raw, fmt.Errorf("%w: digest character %q outside the crypt alphabet", ErrMalformed, s[i])
		}
	}
	if vals[DigestLen-1]&0xfc != 0 {
		return raw, fmt.Errorf("%w: final digest character %q out of range", ErrMalformed, s[DigestLen-1])
	}

	pos := 0
	for _, g := range groups {
		v := uint32(vals[pos]) | uint32(vals[pos+1])<<6 | uint32(vals[pos+2])<<12 | uint32(vals[pos+3])<<18
		raw[g[0]], raw[g[1]], raw[g[2]] = byte(v>>16), byte(v>>8), byte(v)
		pos += 4
	}
	raw[63] = vals[pos] | vals[pos+1]<<6
	return raw, nil
}
