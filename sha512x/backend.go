package sha512x

import (
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// ErrBackendUnavailable is returned when no backend of the requested name can run here.
var ErrBackendUnavailable = errors.New("sha512x: backend unavailable")

// Backend is one implementation of the per-round contract: compress message blocks and splice
// a digest into a cached message buffer, for Lanes() messages at once. Every slice is
// lane-interleaved: word j of lane l is at index j*Lanes()+l.
type Backend interface {
	Name() string
	Lanes() int
	// CompressFirst resets state to the IV and compresses block into it.
	CompressFirst(state, block []uint64)
	// Compress compresses block into the current state.
	Compress(state, block []uint64)
	// SpliceAligned writes state at word 0 of pattern, followed by the 0x80 terminator word.
	SpliceAligned(pattern, state []uint64)
	// SpliceAt writes state shift bytes (1 to 7) into word 0 of pattern.
	SpliceAt(pattern, state []uint64, shift uint)
}

type scalar struct{}

func (scalar) Name() string { return "scalar" }

func (scalar) Lanes() int { return 1 }

func (scalar) CompressFirst(state, block []uint64) {
	s := (*[StateWords]uint64)(state)
	*s = IV
	Block(s, (*[BlockWords]uint64)(block))
}

func (scalar) Compress(state, block []uint64) {
	Block((*[StateWords]uint64)(state), (*[BlockWords]uint64)(block))
}

func (scalar) SpliceAligned(pattern, state []uint64) { spliceAligned(pattern, state, 1) }

func (scalar) SpliceAt(pattern, state []uint64, shift uint) { spliceAt(pattern, state, 1, shift) }

type lanes struct {
	n    int
	name string
}

func (b lanes) Name() string { return b.name }

func (b lanes) Lanes() int { return b.n }

func (b lanes) CompressFirst(state, block []uint64) {
	resetLanes(state, b.n)
	blockLanes(state, block, b.n)
}

func (b lanes) Compress(state, block []uint64) { blockLanes(state, block, b.n) }

func (b lanes) SpliceAligned(pattern, state []uint64) { spliceAligned(pattern, state, b.n) }

func (b lanes) SpliceAt(pattern, state []uint64, shift uint) {
	spliceAt(pattern, state, b.n, shift)
}

/* Ordered narrowest first; the probe caps how far down this list the host may go. */
var backends = [...]Backend{scalar{}, lanes{2, "lanes2"}, lanes{4, "lanes4"}}

// Scalar returns the one-lane backend, which runs everywhere.
func Scalar() Backend { return backends[0] }

// Available lists the backends the probe allows on this host, narrowest first.
func Available() []Backend {
	var out []Backend
	for _, b := range backends {
		if b.Lanes() <= hostLanes {
			out = append(out, b)
		}
	}
	return out
}

// Best returns the widest available backend.
func Best() Backend {
	a := Available()
	return a[len(a)-1]
}

// Select returns the backend named name; "" and "auto" select Best.
func Select(name string) (Backend, error) {
	switch name = strings.ToLower(strings.TrimSpace(name)); name {
	case "", "auto":
		return Best(), nil
	}
	for _, b := range backends {
		if b.Name() != name {
			continue
		}
		if b.Lanes() > hostLanes {
			return nil, fmt.Errorf("%w: %s needs %d lanes, this CPU supports %d",
				ErrBackendUnavailable, name, b.Lanes(), hostLanes)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendUnavailable, name)
}

// Describe summarises the host CPU for diagnostics.
func Describe() string {
	var feats []string
	for _, f := range [...]cpuid.FeatureID{cpuid.SSE2, cpuid.AVX, cpuid.AVX2, cpuid.AVX512F, cpuid.ASIMD} {
		if cpuid.CPU.Supports(f) {
			feats = append(feats, f.String())
		}
	}
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = "unknown CPU"
	}
	return fmt.Sprintf("%s, %d cores/%d threads [%s], up to %d lanes",
		brand, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, strings.Join(feats, " "), hostLanes)
}
