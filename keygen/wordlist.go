package keygen

import (
	"bufio"
	"bytes"
	"errors"
	"hash"
	"io"
	"sync"

	"github.com/minio/sha256-simd"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

// Wordlist yields one key per line of a reader. Line endings (LF or CRLF) are stripped, empty
// lines included as the empty key, and lines longer than the buffer skipped whole.
type Wordlist struct {
	mu      sync.Mutex
	r       *bufio.Reader
	digest  hash.Hash
	lines   uint64
	skipped uint64
	err     error
}

const wordBuffer = 4096

func NewWordlist(r io.Reader) *Wordlist {
	return &Wordlist{r: bufio.NewReaderSize(r, wordBuffer), digest: sha256.New()}
}

func (w *Wordlist) Generate(dst [][]byte, _ int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for n < len(dst) && w.err == nil {
		line, err := w.r.ReadSlice('\n')
		w.digest.Write(line)
		if errors.Is(err, bufio.ErrBufferFull) {
			w.discard()
			w.skipped++
			continue
		}
		if err != nil {
			w.err = err
			if len(line) == 0 {
				break
			}
		}
		line = bytes.TrimSuffix(bytes.TrimSuffix(line, []byte{'\n'}), []byte{'\r'})
		dst[n] = append(dst[n][:0], line...)
		w.lines++
		n++
	}
	return n
}

func (w *Wordlist) discard() {
	for {
		line, err := w.r.ReadSlice('\n')
		w.digest.Write(line)
		if !errors.Is(err, bufio.ErrBufferFull) {
			if err != nil {
				w.err = err
			}
			return
		}
	}
}

// Err returns the first read error other than io.EOF.
func (w *Wordlist) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if errors.Is(w.err, io.EOF) {
		return nil
	}
	return w.err
}

// Lines counts the keys handed out; Skipped the over-long lines dropped.
func (w *Wordlist) Lines() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

func (w *Wordlist) Skipped() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skipped
}

// Sum is the SHA-256 of every byte consumed so far, which identifies the list once it is done.
func (w *Wordlist) Sum() (out [sha256.Size]byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	copy(out[:], w.digest.Sum(nil))
	return out
}
