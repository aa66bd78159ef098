// Package shacrypt recovers the keys behind SHA-512 crypt(3) hashes by running many candidates
// through the algorithm side by side. Keys are batched by length so every lane of a batch shares
// one set of cached round messages, and each round rewrites only the digest inside them.
package shacrypt

import (
	"context"
	"sync"
	"time"

	"github.com/p7r0x7/shacrypt/crypt"
	"github.com/p7r0x7/shacrypt/sha512x"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Stats summarises a Crack session.
type Stats struct {
	Processed uint64
	Found     uint64
	Dropped   uint64
	Elapsed   time.Duration
	Backend   string
	Threads   int
}

// KeysPerSecond returns the candidate rate over the whole session.
func (s Stats) KeysPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Processed) / s.Elapsed.Seconds()
}

/* Serialises every engine's reports into the caller's single Reporter. */
type sink struct {
	mapping          sync.Mutex
	r                Reporter
	processed, found uint64
}

func (s *sink) ReportMatch(hashID uint32, key []byte) {
	s.mapping.Lock()
	s.found++
	if s.r != nil {
		s.r.ReportMatch(hashID, key)
	}
	s.mapping.Unlock()
}

func (s *sink) ReportProcessed(count int) {
	s.mapping.Lock()
	s.processed += uint64(count)
	if s.r != nil {
		s.r.ReportProcessed(count)
	}
	s.mapping.Unlock()
}

// Crack runs one engine per thread against index, all drawing from gen, until gen is exhausted
// or ctx is done. reporter may be nil when only the Stats are wanted. A cancelled session still
// returns the Stats gathered so far, along with ctx's error.
func Crack(ctx context.Context, index *Index, gen Generator, reporter Reporter, opts ...Option) (Stats, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return Stats{}, err
	}
	s := &sink{r: reporter}
	engines := make([]*Engine, cfg.threads)
	for i := range engines {
		if engines[i], err = newEngine(index, s, cfg); err != nil {
			return Stats{}, err
		}
	}
	cfg.logger.Printf("shacrypt: %d threads on %s (%d lanes), %d hashes under %d salts",
		cfg.threads, cfg.backend.Name(), cfg.backend.Lanes(), index.NumHashes(), index.NumSalts())

	start := time.Now()
	var summing sync.WaitGroup
	summing.Add(len(engines))
	for i, e := range engines {
		go func() {
			e.Run(ctx, gen, i) /* The only error is ctx's own. */
			summing.Done()
		}()
	}
	summing.Wait()

	stats := Stats{
		Processed: s.processed,
		Found:     s.found,
		Elapsed:   time.Since(start),
		Backend:   cfg.backend.Name(),
		Threads:   cfg.threads,
	}
	for _, e := range engines {
		stats.Dropped += uint64(e.Dropped())
	}
	return stats, ctx.Err()
}

// Crypt hashes one key the way crypt(3) would. Keys up to MaxKeyLen go through the batched
// engine path on the scalar backend; longer ones through Reference.
func Crypt(key []byte, salt crypt.Salt) crypt.Hash {
	if len(key) > MaxKeyLen {
		return crypt.Hash{Salt: salt, Digest: Reference(key, salt)}
	}
	b := newBatch(sha512x.Scalar())
	b.load(key, len(key), 1)
	b.run(&salt)
	return crypt.Hash{Salt: salt, Digest: b.digest(0)}
}
