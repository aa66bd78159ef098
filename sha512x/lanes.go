package sha512x

import "math/bits"

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.
// Interleaved compression of up to MaxLanes independent messages. Word j of lane l lives at
// index j*n+l of both the state and the block slices, the same layout the pattern buffers use,
// so a whole batch moves through the schedule together and each step's lanes sit side by side.

// MaxLanes bounds the width of any backend in this package.
const MaxLanes = 4

type lane = [MaxLanes]uint64

func blockLanes(state, block []uint64, n int) {
	_, _ = state[StateWords*n-1], block[BlockWords*n-1]
	var w [80]lane
	for j := 0; j < BlockWords; j++ {
		for l := 0; l < n; l++ {
			w[j][l] = block[j*n+l]
		}
	}
	for i := BlockWords; i < 80; i++ {
		for l := 0; l < n; l++ {
			v1, v2 := w[i-2][l], w[i-15][l]
			s1 := bits.RotateLeft64(v1, -19) ^ bits.RotateLeft64(v1, -61) ^ v1>>6
			s0 := bits.RotateLeft64(v2, -1) ^ bits.RotateLeft64(v2, -8) ^ v2>>7
			w[i][l] = s1 + w[i-7][l] + s0 + w[i-16][l]
		}
	}

	var a, b, c, d, e, f, g, h lane
	for l := 0; l < n; l++ {
		a[l], b[l], c[l], d[l] = state[0*n+l], state[1*n+l], state[2*n+l], state[3*n+l]
		e[l], f[l], g[l], h[l] = state[4*n+l], state[5*n+l], state[6*n+l], state[7*n+l]
	}
	for i := 0; i < 80; i++ {
		ki := k[i]
		for l := 0; l < n; l++ {
			el, al := e[l], a[l]
			t1 := h[l] + (bits.RotateLeft64(el, -14) ^ bits.RotateLeft64(el, -18) ^ bits.RotateLeft64(el, -41)) +
				(el&f[l] ^ ^el&g[l]) + ki + w[i][l]
			t2 := (bits.RotateLeft64(al, -28) ^ bits.RotateLeft64(al, -34) ^ bits.RotateLeft64(al, -39)) +
				(al&b[l] ^ al&c[l] ^ b[l]&c[l])
			h[l], g[l], f[l], e[l], d[l], c[l], b[l], a[l] = g[l], f[l], el, d[l]+t1, c[l], b[l], al, t1+t2
		}
	}

	for l := 0; l < n; l++ {
		state[0*n+l] += a[l]
		state[1*n+l] += b[l]
		state[2*n+l] += c[l]
		state[3*n+l] += d[l]
		state[4*n+l] += e[l]
		state[5*n+l] += f[l]
		state[6*n+l] += g[l]
		state[7*n+l] += h[l]
	}
}

func resetLanes(state []uint64, n int) {
	for j, v := range IV {
		for l := 0; l < n; l++ {
			state[j*n+l] = v
		}
	}
}
