package keygen

import (
	"math"
	"math/bits"
	"sync"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Charset enumerates every key over a character set, shortest first, each length in odometer
// order with the last position turning fastest.
type Charset struct {
	mu     sync.Mutex
	set    []byte
	maxLen int
	digits []int /* nil once exhausted */
}

func NewCharset(set string, minLen, maxLen int) (*Charset, error) {
	if err := checkSet(set, minLen, maxLen); err != nil {
		return nil, err
	}
	return &Charset{set: []byte(set), maxLen: maxLen, digits: make([]int, minLen)}, nil
}

func (c *Charset) Generate(dst [][]byte, _ int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for ; n < len(dst) && c.digits != nil; n++ {
		k := dst[n][:0]
		for _, d := range c.digits {
			k = append(k, c.set[d])
		}
		dst[n] = k
		c.advance()
	}
	return n
}

func (c *Charset) advance() {
	for i := len(c.digits) - 1; i >= 0; i-- {
		if c.digits[i]++; c.digits[i] < len(c.set) {
			return
		}
		c.digits[i] = 0
	}
	if len(c.digits) == c.maxLen {
		c.digits = nil
		return
	}
	c.digits = make([]int, len(c.digits)+1)
}

// Total returns how many keys the enumeration yields in all, saturating at math.MaxUint64.
func Total(set string, minLen, maxLen int) uint64 {
	var total uint64
	for l := minLen; l <= maxLen; l++ {
		count := uint64(1)
		for i := 0; i < l; i++ {
			hi, lo := bits.Mul64(count, uint64(len(set)))
			if hi != 0 {
				return math.MaxUint64
			}
			count = lo
		}
		sum, carry := bits.Add64(total, count, 0)
		if carry != 0 {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}
