package main

import (
	. "fmt"
	"runtime"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/p7r0x7/shacrypt"
	"github.com/p7r0x7/shacrypt/crypt"
	"github.com/p7r0x7/shacrypt/sha512x"
	. "github.com/spf13/pflag"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

var saltCounts = [...]int{1, 4, 16}
var pRounds, pKeyLen, pBackend = uint(0), 0, ""

func init() {
	UintVarP(&pRounds, "rounds", "r", crypt.DefaultRounds, "rounds per target salt")
	IntVarP(&pKeyLen, "key-len", "k", 8, "candidate key length in bytes")
	StringVarP(&pBackend, "backend", "b", "", "measure only this backend")
	Parse()
	if pKeyLen < 0 || pKeyLen > shacrypt.MaxKeyLen {
		panic("Key length should be within [0, " + strconv.Itoa(shacrypt.MaxKeyLen) + "].")
	}
}

/* Zero digests: nothing ever matches, so every run does the full amount of work. */
func targets(salts int) *shacrypt.Index {
	hashes := make([]crypt.Hash, salts)
	for i := range hashes {
		salt, err := crypt.NewSalt([]byte("statz"+strconv.Itoa(i)), uint32(pRounds))
		if err != nil {
			panic(err)
		}
		hashes[i].Salt = salt
	}
	ix, err := shacrypt.NewIndex(hashes)
	if err != nil {
		panic(err)
	}
	return ix
}

type discard struct{}

func (discard) ReportMatch(uint32, []byte) {}

func (discard) ReportProcessed(int) {}

// benchEngine measures one full batch per op; SetBytes counts keys, so "B/s" reads as keys/s.
func benchEngine(be sha512x.Backend, ix *shacrypt.Index) func(b *testing.B) {
	return func(b *testing.B) {
		e, err := shacrypt.NewEngine(ix, discard{}, shacrypt.WithBackend(be))
		if err != nil {
			panic(err)
		}
		keys := make([][]byte, be.Lanes())
		for i := range keys {
			keys[i] = make([]byte, pKeyLen)
			if pKeyLen > 0 {
				keys[i][0] = byte('a' + i)
			}
		}
		b.SetBytes(int64(len(keys)))
		b.ResetTimer()
		for i := b.N; i > 0; i-- {
			e.Push(keys...)
		}
	}
}

func benchReference(ix *shacrypt.Index) func(b *testing.B) {
	return func(b *testing.B) {
		key := make([]byte, pKeyLen)
		b.SetBytes(1)
		b.ResetTimer()
		for i := b.N; i > 0; i-- {
			for sid := 0; sid < ix.NumSalts(); sid++ {
				shacrypt.Reference(key, ix.Salt(uint32(sid)))
			}
		}
	}
}

func benchAlg(alg func(ix *shacrypt.Index) func(b *testing.B)) {
	const s = len(saltCounts)
	throughputs, speeds, usages := make([]float64, s), make([]float64, s), make([]float64, s)

	for i, v := range saltCounts {
		totalHz, polls, mut, stop := uint64(0), uint64(0), &sync.Mutex{}, make(chan struct{})
		if calltime > 0 {
			go func() {
				for {
					select {
					case <-stop:
						return
					default:
					}
					tsc1 := tscStart()
					time.Sleep(time.Millisecond)
					tsc2 := tscEnd()

					mut.Lock()
					totalHz += tsc2 - tsc1 - calltime
					polls++
					mut.Unlock()

					time.Sleep(time.Millisecond * 9)
				}
			}()
		}
		r := testing.Benchmark(alg(targets(v)))
		close(stop)
		mut.Lock()
		totalHz *= 1000

		throughputs[i] = float64(r.Bytes*int64(r.N)) / r.T.Seconds() /* keys/s */
		if polls > 0 {
			speeds[i] = float64(totalHz) / float64(polls) / throughputs[i]
		}
		usages[i] = float64(r.AllocedBytesPerOp())
		mut.Unlock()
	}

	Println("Speed " + fmtFloats(throughputs...) + "   keys/s")
	if calltime > 0 {
		Println("      " + fmtFloats(speeds...) + "   cpk")
	}
	Println("Usage " + fmtFloats(usages...) + "   B/op\n")
}

func fmtFloats(f ...float64) string {
	var str, style string
	for _, v := range f {
		switch whole := float64(int64(v)) == v; {
		case v > 1e8 || (v < 1e-6 && !whole):
			style = "%8.3g"
		case v <= 1e1 && !whole:
			style = "%8.5f"
		case v <= 1e3 && !whole:
			style = "%8.3f"
		case v <= 1e5 && !whole:
			style = "%8.1f"
		default:
			style = "%8.f"
		}
		str += "  " + Sprintf(style, v)
	}
	return str
}

func main() {
	Printf("Running Statz on %d CPUs!\n%s\n%s/%s, %d rounds, %d-byte keys\n\n"+
		"         1 salt   4 salts  16 salts\n",
		runtime.NumCPU(), sha512x.Describe(), runtime.GOOS, runtime.GOARCH, pRounds, pKeyLen)
	t := time.Now()

	for _, be := range sha512x.Available() {
		if pBackend != "" && be.Name() != pBackend {
			continue
		}
		Println("shacrypt/" + be.Name())
		benchAlg(func(ix *shacrypt.Index) func(b *testing.B) { return benchEngine(be, ix) })
	}

	Println("crypto/sha512 (reference)")
	benchAlg(benchReference)

	Println("Finished in " + time.Since(t).Truncate(time.Millisecond).String() + ".")
}
