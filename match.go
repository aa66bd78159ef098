package shacrypt

import "github.com/p7r0x7/shacrypt/sha512x"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// scan compares the first fill lanes of an interleaved final state against every target that
// uses salt sid and calls found for each full 512-bit match.
func scan(ix *Index, sid uint32, state []uint64, lanes, fill int, found func(id uint32, lane int)) {
	_ = state[sha512x.StateWords*lanes-1]
	for id := ix.saltFirst[sid]; id != NoHash; id = ix.sameSaltNext[id] {
		d := &ix.digests[id]
	lane:
		for l := 0; l < fill; l++ {
			/* Word 0 rejects nearly every candidate. */
			if state[l] != d[0] {
				continue
			}
			for j := 1; j < sha512x.StateWords; j++ {
				if state[j*lanes+l] != d[j] {
					continue lane
				}
			}
			found(id, l)
		}
	}
}
