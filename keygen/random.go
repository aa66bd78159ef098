package keygen

import (
	"fmt"
	"sync"

	"github.com/aead/chacha20/chacha"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Random draws keys from a ChaCha8 keystream: the same seed always yields the same sequence.
// Lengths are uniform over [minLen, maxLen] and characters uniform over the set.
type Random struct {
	mu     sync.Mutex
	stream *chacha.Cipher
	set    []byte
	minLen int
	span   int
	left   uint64
	pool   [512]byte
	pos    int
}

/* The nonce is fixed; distinct sequences come from distinct seeds. */
var nonce [chacha.NonceSize]byte

// NewRandom yields count keys.
func NewRandom(seed [32]byte, set string, minLen, maxLen int, count uint64) (*Random, error) {
	if err := checkSet(set, minLen, maxLen); err != nil {
		return nil, err
	}
	/* Lengths are drawn from single keystream bytes. */
	if maxLen-minLen >= 256 {
		return nil, fmt.Errorf("%w: lengths [%d, %d] span more than 256", ErrCharset, minLen, maxLen)
	}
	stream, err := chacha.NewCipher(nonce[:], seed[:], 8)
	if err != nil {
		return nil, err
	}
	r := &Random{stream: stream, set: []byte(set), minLen: minLen, span: maxLen - minLen + 1, left: count}
	r.pos = len(r.pool)
	return r, nil
}

func (r *Random) Generate(dst [][]byte, _ int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for ; n < len(dst) && r.left > 0; n++ {
		k := dst[n][:0]
		for l := r.minLen + r.below(r.span); l > 0; l-- {
			k = append(k, r.set[r.below(len(r.set))])
		}
		dst[n] = k
		r.left--
	}
	return n
}

// below returns a uniform value in [0, n) for n <= 256, rejecting bytes past the last full
// multiple of n.
func (r *Random) below(n int) int {
	if n == 1 {
		return 0
	}
	limit := 256 - 256%n
	for {
		if r.pos == len(r.pool) {
			clear(r.pool[:])
			r.stream.XORKeyStream(r.pool[:], r.pool[:])
			r.pos = 0
		}
		b := int(r.pool[r.pos])
		r.pos++
		if b < limit {
			return b % n
		}
	}
}
