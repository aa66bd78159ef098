package sha512x

import (
	"crypto/sha512"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum512MatchesStdlib(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(1))
	/* Every length around both padding boundaries, plus a few multi-block messages. */
	for n := 0; n <= 3*BlockSize+1; n++ {
		msg := make([]byte, n)
		rng.Read(msg)
		want := sha512.Sum512(msg)
		words := Sum512(msg)
		var got [Size]byte
		PutState(got[:], &words)
		require.Equal(t, want, got, "length %d", n)
	}
}

func TestHasherStreaming(t *testing.T) {
	t.Parallel()
	msg := []byte("The quick brown fox jumps over the lazy dog, repeatedly, until the block fills up.")
	var d Hasher
	d.Reset()
	for i := 0; i < 9; i++ {
		d.Write(msg[:i*7%len(msg)])
	}
	got := d.Sum()

	var whole []byte
	for i := 0; i < 9; i++ {
		whole = append(whole, msg[:i*7%len(msg)]...)
	}
	assert.Equal(t, Sum512(whole), got)
}

func randomLanes(rng *rand.Rand, n, words int) []uint64 {
	out := make([]uint64, words*n)
	for i := range out {
		out[i] = rng.Uint64()
	}
	return out
}

func column(v []uint64, n, l, words int) []uint64 {
	out := make([]uint64, words)
	for j := range out {
		out[j] = v[j*n+l]
	}
	return out
}

func TestBackendsAgreeWithBlock(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(2))
	for _, b := range backends {
		b := b
		t.Run(b.Name(), func(t *testing.T) {
			n := b.Lanes()
			block := randomLanes(rng, n, BlockWords)
			state := randomLanes(rng, n, StateWords)
			first := make([]uint64, StateWords*n)

			want := make([][StateWords]uint64, n)
			wantFirst := make([][StateWords]uint64, n)
			for l := 0; l < n; l++ {
				copy(want[l][:], column(state, n, l, StateWords))
				blk := (*[BlockWords]uint64)(column(block, n, l, BlockWords))
				Block(&want[l], blk)
				wantFirst[l] = IV
				Block(&wantFirst[l], blk)
			}

			b.Compress(state, block)
			b.CompressFirst(first, block)
			for l := 0; l < n; l++ {
				assert.Equal(t, want[l][:], column(state, n, l, StateWords), "lane %d", l)
				assert.Equal(t, wantFirst[l][:], column(first, n, l, StateWords), "lane %d", l)
			}
		})
	}
}

/* spliceBytes is the byte-level statement of what a splice must do. */
func spliceBytes(buf []byte, off int, state []uint64) {
	for j, v := range state {
		binary.BigEndian.PutUint64(buf[off+j*8:], v)
	}
	buf[off+Size] = 0x80
	for i := off + Size + 1; i < (off+Size)/8*8+8; i++ {
		buf[i] = 0
	}
}

func TestSpliceMatchesByteCopy(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(3))
	for _, b := range backends {
		n := b.Lanes()
		for shift := uint(0); shift < 8; shift++ {
			pattern := randomLanes(rng, n, 10)
			state := randomLanes(rng, n, StateWords)

			want := make([][]byte, n)
			for l := 0; l < n; l++ {
				buf := make([]byte, 80)
				for j, v := range column(pattern, n, l, 10) {
					binary.BigEndian.PutUint64(buf[j*8:], v)
				}
				spliceBytes(buf, int(shift), column(state, n, l, StateWords))
				want[l] = buf
			}

			if shift == 0 {
				b.SpliceAligned(pattern, state)
			} else {
				b.SpliceAt(pattern, state, shift)
			}
			for l := 0; l < n; l++ {
				got := make([]byte, 80)
				for j, v := range column(pattern, n, l, 10) {
					binary.BigEndian.PutUint64(got[j*8:], v)
				}
				require.Equal(t, want[l][:72], got[:72], "%s shift %d lane %d", b.Name(), shift, l)
				/* Word 9 is never touched. */
				require.Equal(t, want[l][72:], got[72:])
			}
		}
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()
	b, err := Select("")
	require.NoError(t, err)
	assert.Equal(t, Best().Name(), b.Name())

	b, err = Select(" Scalar ")
	require.NoError(t, err)
	assert.Equal(t, 1, b.Lanes())
	assert.Equal(t, Scalar(), b)

	_, err = Select("gpu")
	require.ErrorIs(t, err, ErrBackendUnavailable)

	for _, a := range Available() {
		got, err := Select(a.Name())
		require.NoError(t, err)
		assert.Equal(t, a.Lanes(), got.Lanes())
	}
	assert.NotEmpty(t, Describe())
}

func BenchmarkBlock(b *testing.B) {
	var state [StateWords]uint64
	var block [BlockWords]uint64
	b.SetBytes(BlockSize)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Block(&state, &block)
	}
}

func BenchmarkLanes4(b *testing.B) {
	state := make([]uint64, StateWords*4)
	block := make([]uint64, BlockWords*4)
	b.SetBytes(BlockSize * 4)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		blockLanes(state, block, 4)
	}
}
