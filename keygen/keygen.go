// Package keygen produces candidate keys for the cracking engines. Every generator here is safe
// to share between engines: calls are serialised internally and each hands out disjoint keys.
package keygen

import (
	"errors"
	"fmt"
	"sync"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Generator matches shacrypt.Generator.
type Generator interface {
	Generate(dst [][]byte, threadID int) int
}

// ErrCharset is returned for empty or repetitive character sets and impossible length ranges.
var ErrCharset = errors.New("keygen: invalid character set")

func checkSet(set string, minLen, maxLen int) error {
	if len(set) == 0 || len(set) > 256 {
		return fmt.Errorf("%w: %d characters", ErrCharset, len(set))
	}
	var seen [256]bool
	for i := 0; i < len(set); i++ {
		if seen[set[i]] {
			return fmt.Errorf("%w: %q repeats", ErrCharset, set[i])
		}
		seen[set[i]] = true
	}
	if minLen < 0 || maxLen < minLen {
		return fmt.Errorf("%w: lengths [%d, %d]", ErrCharset, minLen, maxLen)
	}
	return nil
}

// Slice hands out a fixed list of keys once.
type Slice struct {
	mu   sync.Mutex
	keys [][]byte
	next int
}

func NewSlice(keys ...[]byte) *Slice { return &Slice{keys: keys} }

// Strings is NewSlice for string keys.
func Strings(keys ...string) *Slice {
	b := make([][]byte, len(keys))
	for i, k := range keys {
		b[i] = []byte(k)
	}
	return NewSlice(b...)
}

func (s *Slice) Generate(dst [][]byte, _ int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := copyKeys(dst, s.keys[s.next:])
	s.next += n
	return n
}

func copyKeys(dst, src [][]byte) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = append(dst[i][:0], src[i]...)
	}
	return n
}
