// Package crypt reads and writes the textual form of SHA-512 crypt(3) hashes:
//
//	$6$[rounds=<N>$]<salt>$<86-character digest>
//
// Everything here runs once per record at load time; the cracking path only ever sees the
// binary Salt and Digest values.
package crypt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/segmentio/asm/ascii"
	"github.com/segmentio/asm/bswap"
)

// Copyright © 2022 Matthew R Bonnette. Licensed under the Apache-2.0 license.

const (
	Prefix        = "$6$"
	RoundsPrefix  = "rounds="
	DefaultRounds = 5000
	MinRounds     = 1
	MaxRounds     = 999_999_999
	MaxSaltLen    = 16
	DigestLen     = 86 /* 64 bytes at 6 bits per character, rounded up */
	RawLen        = 64
)

// ErrMalformed is wrapped by every parse failure.
var ErrMalformed = errors.New("crypt: malformed SHA-512 crypt hash")

// Salt is the per-hash input to the algorithm besides the key. It is comparable, so identical
// salts can be collected with a map.
type Salt struct {
	Rounds uint32
	Len    uint32
	Value  [MaxSaltLen]byte
}

// NewSalt builds a Salt, validating it the same way Parse does.
func NewSalt(salt []byte, rounds uint32) (Salt, error) {
	var s Salt
	if rounds < MinRounds || rounds > MaxRounds {
		return s, fmt.Errorf("%w: rounds %d outside [%d, %d]", ErrMalformed, rounds, MinRounds, MaxRounds)
	}
	if len(salt) < 1 || len(salt) > MaxSaltLen {
		return s, fmt.Errorf("%w: salt length %d outside [1, %d]", ErrMalformed, len(salt), MaxSaltLen)
	}
	for _, c := range salt {
		if decodeMap[c] == invalid {
			return s, fmt.Errorf("%w: salt character %q outside the crypt alphabet", ErrMalformed, c)
		}
	}
	s.Rounds, s.Len = rounds, uint32(len(salt))
	copy(s.Value[:], salt)
	return s, nil
}

// Bytes returns the salt characters.
func (s *Salt) Bytes() []byte { return s.Value[:s.Len] }

// String renders the setting part of a hash, "$6$[rounds=N$]salt".
func (s Salt) String() string {
	var b strings.Builder
	s.appendTo(&b)
	return b.String()
}

func (s *Salt) appendTo(b *strings.Builder) {
	b.WriteString(Prefix)
	if s.Rounds != DefaultRounds {
		b.WriteString(RoundsPrefix)
		b.WriteString(strconv.FormatUint(uint64(s.Rounds), 10))
		b.WriteByte('$')
	}
	b.Write(s.Value[:s.Len])
}

// Digest holds the eight SHA-512 state words of a final crypt digest, most significant byte of
// the raw output first in word 0.
type Digest [8]uint64

var littleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// Raw returns the 64-byte SHA-512 output form of d.
func (d *Digest) Raw() (raw [RawLen]byte) {
	*(*Digest)(unsafe.Pointer(&raw)) = *d
	if littleEndian {
		bswap.Swap64(raw[:])
	}
	return raw
}

// DigestFromRaw is the inverse of Digest.Raw.
func DigestFromRaw(raw [RawLen]byte) Digest {
	if littleEndian {
		bswap.Swap64(raw[:])
	}
	return *(*Digest)(unsafe.Pointer(&raw))
}

// Hash is one parsed ciphertext.
type Hash struct {
	Salt   Salt
	Digest Digest
}

// String re-encodes h; the rounds clause is present only when rounds differs from 5000.
func (h Hash) String() string {
	var b strings.Builder
	b.Grow(len(Prefix) + len(RoundsPrefix) + 10 + MaxSaltLen + 2 + DigestLen)
	h.Salt.appendTo(&b)
	b.WriteByte('$')
	raw := h.Digest.Raw()
	b.WriteString(EncodeDigest(&raw))
	return b.String()
}

// Parse decodes a complete ciphertext. On failure the returned Hash is the zero value.
func Parse(s string) (Hash, error) {
	salt, rest, err := parseSetting(s, true)
	if err != nil {
		return Hash{}, err
	}
	raw, err := DecodeDigest(rest)
	if err != nil {
		return Hash{}, err
	}
	return Hash{salt, DigestFromRaw(raw)}, nil
}

// Valid reports whether s parses.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// ParseSetting reads the salt part of a hash or of a bare setting such as "$6$rounds=9000$abc".
// Like crypt(3) it stops the salt at '$' or after 16 characters, whichever comes first, and
// ignores whatever follows.
func ParseSetting(s string) (Salt, error) {
	salt, _, err := parseSetting(s, false)
	return salt, err
}

func parseSetting(s string, strict bool) (salt Salt, rest string, err error) {
	if !ascii.ValidPrintString(s) {
		return salt, "", fmt.Errorf("%w: non-printable characters", ErrMalformed)
	}
	if !strings.HasPrefix(s, Prefix) {
		return salt, "", fmt.Errorf("%w: missing %q prefix", ErrMalformed, Prefix)
	}
	s = s[len(Prefix):]

	rounds := uint64(DefaultRounds)
	if strings.HasPrefix(s, RoundsPrefix) {
		s = s[len(RoundsPrefix):]
		end := strings.IndexByte(s, '$')
		if end < 0 {
			return salt, "", fmt.Errorf("%w: unterminated rounds clause", ErrMalformed)
		}
		if end == 0 || strings.Trim(s[:end], "0123456789") != "" {
			return salt, "", fmt.Errorf("%w: rounds %q is not a decimal number", ErrMalformed, s[:end])
		}
		/* Leading zeros are allowed in any number. */
		digits := strings.TrimLeft(s[:end], "0")
		if len(digits) > 10 {
			return salt, "", fmt.Errorf("%w: rounds %s... outside [%d, %d]", ErrMalformed, digits[:10], MinRounds, MaxRounds)
		}
		rounds, _ = strconv.ParseUint("0"+digits, 10, 64)
		if rounds < MinRounds || rounds > MaxRounds {
			return salt, "", fmt.Errorf("%w: rounds %d outside [%d, %d]", ErrMalformed, rounds, MinRounds, MaxRounds)
		}
		s = s[end+1:]
	}

	end := strings.IndexByte(s, '$')
	switch {
	case strict && end < 0:
		return salt, "", fmt.Errorf("%w: missing digest", ErrMalformed)
	case strict && end > MaxSaltLen:
		return salt, "", fmt.Errorf("%w: salt longer than %d characters", ErrMalformed, MaxSaltLen)
	case end < 0:
		end = len(s)
	}
	raw := s[:end]
	if len(raw) > MaxSaltLen {
		raw = raw[:MaxSaltLen]
	}
	if end < len(s) {
		rest = s[end+1:]
	}
	salt, err = NewSalt([]byte(raw), uint32(rounds))
	return salt, rest, err
}
