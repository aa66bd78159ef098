package shacrypt

import (
	"context"

	"github.com/p7r0x7/shacrypt/sha512x"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Generator supplies candidate keys. Generate fills up to len(dst) keys, reusing each slot as
// dst[i] = append(dst[i][:0], key...), and returns how many it wrote; 0 means exhausted. It may
// be called from several engines at once, each passing its own threadID.
type Generator interface {
	Generate(dst [][]byte, threadID int) int
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(dst [][]byte, threadID int) int

func (f GeneratorFunc) Generate(dst [][]byte, threadID int) int { return f(dst, threadID) }

// Reporter receives results. The key passed to ReportMatch is only valid during the call.
type Reporter interface {
	ReportMatch(hashID uint32, key []byte)
	ReportProcessed(count int)
}

type queue struct {
	keys  []byte
	count int
}

type discard struct{}

func (discard) ReportMatch(uint32, []byte) {}

func (discard) ReportProcessed(int) {}

// Engine hashes candidates against an Index one batch of equal-length keys at a time. An Engine
// is not safe for concurrent use; run one per goroutine.
type Engine struct {
	index    *Index
	reporter Reporter
	cfg      *config
	b        *batch
	queues   [MaxKeyLen + 1]queue
	dst      [][]byte
	dropped  int
	found    func(id uint32, lane int)
}

// NewEngine allocates all of an engine's scratch up front. A nil reporter discards results.
func NewEngine(index *Index, reporter Reporter, opts ...Option) (*Engine, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return newEngine(index, reporter, cfg)
}

func newEngine(index *Index, reporter Reporter, cfg *config) (*Engine, error) {
	if index == nil || index.NumHashes() == 0 {
		return nil, ErrNoHashes
	}
	if reporter == nil {
		reporter = discard{}
	}
	e := &Engine{index: index, reporter: reporter, cfg: cfg, b: newBatch(cfg.backend)}
	n := e.b.lanes
	e.dst = make([][]byte, n)
	for i := range e.dst {
		e.dst[i] = make([]byte, 0, MaxKeyLen)
	}
	/* A generator call adds at most n keys, so no queue ever holds 2n. */
	for l := range e.queues {
		e.queues[l].keys = make([]byte, 0, 2*n*l)
	}
	e.found = func(id uint32, lane int) { e.reporter.ReportMatch(id, e.b.key(lane)) }
	return e, nil
}

// Backend returns the backend the engine hashes with.
func (e *Engine) Backend() sha512x.Backend { return e.b.backend }

// Run pulls keys from gen until it is exhausted or ctx is done, then processes whatever is still
// queued. ctx is only consulted between batches.
func (e *Engine) Run(ctx context.Context, gen Generator, threadID int) error {
	for {
		if err := ctx.Err(); err != nil {
			e.Flush()
			return err
		}
		n := gen.Generate(e.dst, threadID)
		if n <= 0 {
			e.Flush()
			return nil
		}
		e.Push(e.dst[:min(n, len(e.dst))]...)
	}
}

// Push queues keys and processes every length group that has filled a batch.
func (e *Engine) Push(keys ...[]byte) {
	lanes := e.b.lanes
	for _, k := range keys {
		if len(k) > MaxKeyLen {
			if e.dropped == 0 {
				e.cfg.logger.Printf("shacrypt: dropping keys longer than %d bytes", MaxKeyLen)
			}
			e.dropped++
			e.reporter.ReportProcessed(1)
			continue
		}
		q := &e.queues[len(k)]
		q.keys = append(q.keys, k...)
		if q.count++; q.count >= lanes {
			e.process(len(k), lanes)
		}
	}
}

// Flush processes every partially filled length group.
func (e *Engine) Flush() {
	for l := range e.queues {
		for e.queues[l].count > 0 {
			e.process(l, min(e.queues[l].count, e.b.lanes))
		}
	}
}

// Dropped returns how many over-long keys the engine has discarded.
func (e *Engine) Dropped() int { return e.dropped }

func (e *Engine) process(keyLen, count int) {
	q := &e.queues[keyLen]
	e.b.load(q.keys, keyLen, count)
	for sid := range e.index.salts {
		e.b.run(&e.index.salts[sid])
		scan(e.index, uint32(sid), e.b.state, e.b.lanes, e.b.fill, e.found)
	}
	q.keys = q.keys[:copy(q.keys, q.keys[count*keyLen:])]
	q.count -= count
	e.reporter.ReportProcessed(count)
}
