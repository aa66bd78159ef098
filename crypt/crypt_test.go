package crypt

import (
	"crypto/sha512"
	"encoding/binary"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* Produced by glibc crypt(3). */
var wellFormed = []string{
	"$6$saltstring$svn8UoSVapNtMuq1ukKS4tPQd8iKwSMHWjl/O817G3uBnIFNjnQJuesI68u4OTLiBFdcbYEdFCoEOfaS35inz1",
	"$6$rounds=10000$saltstringsaltst$OW1/O6BYHV6BcXZu8QVeXbDWra3Oeqh0sbHbbMCVNSnCM/UrjmM0Dp8vOuZeHBy/YTBmSK6H9qs/y3RnOaw5v.",
	"$6$.$oXIbIADLqA1zhqIRxJ.RhU00mxJeOXPFLovSCwkGhXTXMOoFV/AWGl2yyKu4L4LEHnM/wSP8qb5Noqa4JrWrE1",
	"$6$rounds=1000$a$Gf/Em4y/D8ip4YPCiSIb3iYaKrfMPNGol3.pK42.xKyPXom4lFoCqB6wfgq8yOu09WCnmOr/rjqT0LDyFceet1",
	"$6$rounds=2500$a/b.C9$fflst50bK5x7bvExNrTIlKD7TrM/gbgaz9vxX0ZlPMWHLHolz2e3doneWdEKrFB/uBrV3r595CNb7vYNDEvUq0",
}

const digest86 = "svn8UoSVapNtMuq1ukKS4tPQd8iKwSMHWjl/O817G3uBnIFNjnQJuesI68u4OTLiBFdcbYEdFCoEOfaS35inz1"

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	for _, c := range wellFormed {
		h, err := Parse(c)
		require.NoError(t, err, c)
		assert.Equal(t, c, h.String())
		assert.True(t, Valid(c))
	}
}

func TestDefaultRoundsOmitted(t *testing.T) {
	t.Parallel()
	h, err := Parse(wellFormed[0])
	require.NoError(t, err)
	assert.EqualValues(t, DefaultRounds, h.Salt.Rounds)
	assert.Equal(t, "saltstring", string(h.Salt.Bytes()))
	assert.NotContains(t, h.String(), RoundsPrefix)

	/* An explicit default is accepted but not reproduced. */
	explicit := "$6$rounds=5000$saltstring$" + digest86
	h2, err := Parse(explicit)
	require.NoError(t, err)
	assert.Equal(t, h, h2)
	assert.Equal(t, wellFormed[0], h2.String())
}

func TestRoundsBoundaries(t *testing.T) {
	t.Parallel()
	for _, r := range []string{"1", "999999999"} {
		c := "$6$rounds=" + r + "$abc$" + digest86
		h, err := Parse(c)
		require.NoError(t, err, r)
		assert.Equal(t, c, h.String())
	}
	for _, r := range []string{"0001000", "00000000001000", "0000000000000000000000999999999"} {
		h, err := Parse("$6$rounds=" + r + "$abc$" + digest86)
		require.NoError(t, err, r)
		assert.Equal(t, strings.TrimLeft(r, "0"), strconv.FormatUint(uint64(h.Salt.Rounds), 10))
	}
	for _, r := range []string{"00000000000", "0001000000000", "99999999999999999999999"} {
		_, err := Parse("$6$rounds=" + r + "$abc$" + digest86)
		assert.ErrorIs(t, err, ErrMalformed, r)
	}
}

func TestMalformed(t *testing.T) {
	t.Parallel()
	for name, c := range map[string]string{
		"prefix":          "$5$saltstring$" + digest86,
		"no digest":       "$6$saltstring",
		"empty salt":      "$6$$" + digest86,
		"long salt":       "$6$saltstringsaltstr$" + digest86,
		"salt alphabet":   "$6$salt_string$" + digest86,
		"zero rounds":     "$6$rounds=0$abc$" + digest86,
		"huge rounds":     "$6$rounds=1000000000$abc$" + digest86,
		"signed rounds":   "$6$rounds=+100$abc$" + digest86,
		"empty rounds":    "$6$rounds=$abc$" + digest86,
		"open rounds":     "$6$rounds=100",
		"short digest":    "$6$abc$" + digest86[:85],
		"long digest":     "$6$abc$" + digest86 + "1",
		"digest alphabet": "$6$abc$" + strings.Replace(digest86, "s", "-", 1),
		"tail bits":       "$6$abc$" + digest86[:85] + "4",
		"control":         "$6$abc$" + digest86[:85] + "\x01",
	} {
		h, err := Parse(c)
		require.ErrorIs(t, err, ErrMalformed, name)
		assert.Equal(t, Hash{}, h, name)
		assert.False(t, Valid(c), name)
	}
}

func TestTailCharacters(t *testing.T) {
	t.Parallel()
	for i, c := range "./01" {
		raw, err := DecodeDigest(digest86[:85] + string(c))
		require.NoError(t, err)
		assert.EqualValues(t, i, raw[63]>>6)
	}
}

func TestParseSetting(t *testing.T) {
	t.Parallel()
	s, err := ParseSetting("$6$rounds=10000$saltstringsaltstring")
	require.NoError(t, err)
	assert.Equal(t, "saltstringsaltst", string(s.Bytes()))
	assert.EqualValues(t, 10000, s.Rounds)
	assert.Equal(t, "$6$rounds=10000$saltstringsaltst", s.String())

	s, err = ParseSetting("$6$abc$ignored")
	require.NoError(t, err)
	assert.Equal(t, "$6$abc", s.String())

	_, err = ParseSetting("$6$")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDigestRaw(t *testing.T) {
	t.Parallel()
	sum := sha512.Sum512([]byte("abc"))
	d := DigestFromRaw(sum)
	assert.Equal(t, binary.BigEndian.Uint64(sum[:8]), d[0])
	assert.Equal(t, binary.BigEndian.Uint64(sum[56:]), d[7])
	assert.Equal(t, sum, d.Raw())
}

func TestNewSalt(t *testing.T) {
	t.Parallel()
	s, err := NewSalt([]byte("saltstring"), DefaultRounds)
	require.NoError(t, err)
	h, err := Parse(wellFormed[0])
	require.NoError(t, err)
	assert.Equal(t, h.Salt, s)

	_, err = NewSalt([]byte("saltstring"), 0)
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = NewSalt(nil, DefaultRounds)
	assert.ErrorIs(t, err, ErrMalformed)
}
