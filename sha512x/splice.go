package sha512x

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// Splicing writes a digest into a message buffer that is viewed as big-endian words, starting
// at a byte offset inside word 0 of pattern. Bytes before the offset survive; the byte right
// after the 64 spliced bytes becomes the 0x80 terminator and the rest of that word is cleared.

func spliceAligned(pattern, state []uint64, n int) {
	copy(pattern[:StateWords*n], state[:StateWords*n])
	for l := 0; l < n; l++ {
		pattern[StateWords*n+l] = 0x80 << 56
	}
}

func spliceAt(pattern, state []uint64, n int, shift uint) {
	if shift == 0 || shift > 7 {
		panic("sha512x: splice shift must be within [1, 7] bytes")
	}
	s := shift << 3
	keep := ^uint64(0) << (64 - s) /* The leading `shift` bytes belong to the message. */
	_ = pattern[StateWords*n+n-1]
	for l := 0; l < n; l++ {
		carry := pattern[l] & keep
		for j := 0; j < StateWords; j++ {
			v := state[j*n+l]
			pattern[j*n+l] = carry | v>>s
			carry = v << (64 - s)
		}
		pattern[StateWords*n+l] = carry | 0x80<<(56-s)
	}
}
