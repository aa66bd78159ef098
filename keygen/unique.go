package keygen

import (
	"sync"

	"github.com/zeebo/xxh3"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Unique passes on each distinct key from another generator once. Keys are remembered by their
// 64-bit XXH3, so two distinct keys that collide lose the second.
type Unique struct {
	mu    sync.Mutex
	inner Generator
	seen  map[uint64]struct{}
	dupes uint64
}

func NewUnique(inner Generator) *Unique {
	return &Unique{inner: inner, seen: map[uint64]struct{}{}}
}

func (u *Unique) Generate(dst [][]byte, threadID int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	for {
		got := u.inner.Generate(dst, threadID)
		if got == 0 {
			return 0
		}
		kept := 0
		for i := 0; i < got; i++ {
			h := xxh3.Hash(dst[i])
			if _, ok := u.seen[h]; ok {
				u.dupes++
				continue
			}
			u.seen[h] = struct{}{}
			dst[kept], dst[i] = dst[i], dst[kept]
			kept++
		}
		if kept > 0 {
			return kept
		}
	}
}

// Duplicates counts the keys filtered out so far.
func (u *Unique) Duplicates() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.dupes
}
