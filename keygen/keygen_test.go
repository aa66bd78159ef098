package keygen

import (
	"crypto/sha256"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* Drains g with a destination of width lanes. */
func drain(g Generator, lanes int) []string {
	dst := make([][]byte, lanes)
	var out []string
	for {
		n := g.Generate(dst, 0)
		if n == 0 {
			return out
		}
		for _, k := range dst[:n] {
			out = append(out, string(k))
		}
	}
}

func TestSlice(t *testing.T) {
	t.Parallel()
	keys := []string{"a", "", "ccc", "dd", "e"}
	assert.Equal(t, keys, drain(Strings(keys...), 2))
	assert.Empty(t, drain(NewSlice(), 4))
}

func TestWordlist(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("x", 2*wordBuffer)
	text := "alpha\r\nbeta\n\n" + long + "\ngamma\ndelta"
	w := NewWordlist(strings.NewReader(text))
	assert.Equal(t, []string{"alpha", "beta", "", "gamma", "delta"}, drain(w, 3))
	assert.EqualValues(t, 5, w.Lines())
	assert.EqualValues(t, 1, w.Skipped())
	assert.NoError(t, w.Err())
	assert.Equal(t, sha256.Sum256([]byte(text)), w.Sum())
}

func TestWordlistTrailingNewline(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"one", "two"}, drain(NewWordlist(strings.NewReader("one\ntwo\n")), 4))
}

type failing struct{ io.Reader }

var errDisk = errors.New("disk on fire")

func (f failing) Read(p []byte) (int, error) {
	n, err := f.Reader.Read(p)
	if err == io.EOF {
		return n, errDisk
	}
	return n, err
}

func TestWordlistError(t *testing.T) {
	t.Parallel()
	w := NewWordlist(failing{strings.NewReader("a\nb\n")})
	assert.Equal(t, []string{"a", "b"}, drain(w, 1))
	assert.ErrorIs(t, w.Err(), errDisk)
}

func TestCharset(t *testing.T) {
	t.Parallel()
	c, err := NewCharset("ab", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "a", "b", "aa", "ab", "ba", "bb"}, drain(c, 3))
	assert.EqualValues(t, 7, Total("ab", 0, 2))

	c, err = NewCharset("xyz", 3, 3)
	require.NoError(t, err)
	keys := drain(c, 4)
	assert.Len(t, keys, 27)
	assert.Equal(t, "xxx", keys[0])
	assert.Equal(t, "zzz", keys[26])

	assert.EqualValues(t, uint64(1<<63), Total("ab", 63, 63))
	assert.Equal(t, ^uint64(0), Total(strings.Repeat("a", 200), 0, 20))

	for _, bad := range []struct {
		set      string
		min, max int
	}{{"", 1, 2}, {"aba", 1, 2}, {"ab", 3, 2}, {"ab", -1, 2}} {
		_, err := NewCharset(bad.set, bad.min, bad.max)
		assert.ErrorIs(t, err, ErrCharset, bad.set)
	}
}

func TestRandom(t *testing.T) {
	t.Parallel()
	seed := [32]byte{1, 2, 3}
	r1, err := NewRandom(seed, "abc", 2, 5, 100)
	require.NoError(t, err)
	r2, err := NewRandom(seed, "abc", 2, 5, 100)
	require.NoError(t, err)
	a, b := drain(r1, 4), drain(r2, 3)
	assert.Len(t, a, 100)
	assert.Equal(t, a, b, "same seed, same keys, whatever the batch width")

	lengths := map[int]int{}
	for _, k := range a {
		assert.Equal(t, "", strings.Trim(k, "abc"))
		lengths[len(k)]++
	}
	assert.Len(t, lengths, 4)

	r3, err := NewRandom([32]byte{9}, "abc", 2, 5, 100)
	require.NoError(t, err)
	assert.NotEqual(t, a, drain(r3, 4))

	_, err = NewRandom(seed, "ab", 1, 300, 1)
	assert.ErrorIs(t, err, ErrCharset)
	r4, err := NewRandom(seed, "ab", 0, 255, 50)
	require.NoError(t, err)
	for _, k := range drain(r4, 8) {
		assert.LessOrEqual(t, len(k), 255)
	}
}

func TestUnique(t *testing.T) {
	t.Parallel()
	u := NewUnique(Strings("a", "a", "b", "a", "c", "b", "c", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, drain(u, 2))
	assert.EqualValues(t, 5, u.Duplicates())
}

func TestConcurrentDisjoint(t *testing.T) {
	t.Parallel()
	c, err := NewCharset("0123456789", 1, 4)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[string]int{}
	var wg sync.WaitGroup
	for thread := 0; thread < 4; thread++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dst := make([][]byte, 4)
			for {
				n := c.Generate(dst, thread)
				if n == 0 {
					return
				}
				mu.Lock()
				for _, k := range dst[:n] {
					seen[string(k)]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, int(Total("0123456789", 1, 4)))
	for k, n := range seen {
		require.Equal(t, 1, n, k)
	}
}

func BenchmarkCharset(b *testing.B) {
	c, _ := NewCharset("abcdefghijklmnopqrstuvwxyz", 8, 8)
	dst := make([][]byte, 4)
	for i := range dst {
		dst[i] = make([]byte, 0, 8)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Generate(dst, 0)
	}
}
