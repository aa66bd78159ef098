package shacrypt

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/p7r0x7/shacrypt/sha512x"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

var (
	// ErrAllocation is returned when scratch or index storage cannot be laid out as requested.
	ErrAllocation = errors.New("shacrypt: allocation failure")

	// ErrNoHashes is returned when a session is started against an empty index.
	ErrNoHashes = errors.New("shacrypt: no target hashes loaded")

	// ErrInvalidThreads is returned when the thread count is less than 1.
	ErrInvalidThreads = errors.New("shacrypt: threads must be at least 1")
)

// Option configures an Engine or a Crack session.
type Option func(*config) error

type config struct {
	backend     sha512x.Backend
	backendName string
	threads     int
	logger      *log.Logger
}

func newConfig(opts []Option) (*config, error) {
	c := &config{threads: runtime.NumCPU()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if c.backend == nil {
		b, err := sha512x.Select(c.backendName)
		if err != nil {
			return nil, err
		}
		c.backend = b
	}
	if n := c.backend.Lanes(); n < 1 || n > sha512x.MaxLanes {
		return nil, fmt.Errorf("%w: backend %s reports %d lanes", ErrAllocation, c.backend.Name(), n)
	}
	return c, nil
}

// WithBackend runs on b instead of the probed default.
func WithBackend(b sha512x.Backend) Option {
	return func(c *config) error {
		c.backend = b
		return nil
	}
}

// WithBackendName selects a backend through sha512x.Select when the config is resolved.
func WithBackendName(name string) Option {
	return func(c *config) error {
		c.backendName = name
		return nil
	}
}

// WithThreads sets how many engines Crack runs in parallel (default runtime.NumCPU()).
func WithThreads(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidThreads, n)
		}
		c.threads = n
		return nil
	}
}

// WithLogger sends the engine's occasional diagnostics to l. By default they are discarded.
func WithLogger(l *log.Logger) Option {
	return func(c *config) error {
		c.logger = l
		return nil
	}
}
