package store

import (
	"bytes"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hello = "$6$saltstring$svn8UoSVapNtMuq1ukKS4tPQd8iKwSMHWjl/O817G3uBnIFNjnQJuesI68u4OTLiBFdcbYEdFCoEOfaS35inz1"
	empty = "$6$.$oXIbIADLqA1zhqIRxJ.RhU00mxJeOXPFLovSCwkGhXTXMOoFV/AWGl2yyKu4L4LEHnM/wSP8qb5Noqa4JrWrE1"
	p4ss  = "$6$rounds=2500$a/b.C9$fflst50bK5x7bvExNrTIlKD7TrM/gbgaz9vxX0ZlPMWHLHolz2e3doneWdEKrFB/uBrV3r595CNb7vYNDEvUq0"
)

func open(t *testing.T) (*Store, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	s, err := Open(":memory:", log.New(&logs, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, &logs
}

func TestImport(t *testing.T) {
	t.Parallel()
	s, logs := open(t)
	input := strings.Join([]string{
		"# exported from host a",
		"root:" + hello + ":19000:0:99999:7:::",
		"",
		empty,
		"bob:" + p4ss,
		"carol:$6$bad",
		"dave:*",
		"eve:" + hello, /* same ciphertext as root */
		"  " + empty + "  \r",
		"mallory:" + hello[:20] + "\x07" + hello[21:],
	}, "\n")

	st, err := s.Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Added: 3, Duplicates: 2, Malformed: 3, Blank: 2}, st)
	assert.Equal(t, 3, strings.Count(logs.String(), "store: line"))
	assert.Contains(t, logs.String(), "line 6:")

	recs, err := s.Hashes()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "root", recs[0].User)
	assert.Equal(t, hello, recs[0].Hash.String())
	assert.Equal(t, "", recs[1].User)
	assert.Equal(t, empty, recs[1].Hash.String())
	assert.Equal(t, "bob", recs[2].User)
	assert.Equal(t, p4ss, recs[2].Hash.String())

	/* A second import of the same file adds nothing. */
	st, err = s.Import(strings.NewReader(input))
	require.NoError(t, err)
	assert.Zero(t, st.Added)
	assert.Equal(t, 5, st.Duplicates)
}

func TestFound(t *testing.T) {
	t.Parallel()
	s, _ := open(t)
	_, err := s.Import(strings.NewReader(hello + "\n" + empty + "\n" + p4ss))
	require.NoError(t, err)
	recs, err := s.Hashes()
	require.NoError(t, err)

	key := []byte("Hello world!")
	require.NoError(t, s.MarkFound(recs[0].ID, key))
	key[0] = 'J' /* The stored key must not alias the caller's buffer. */
	require.NoError(t, s.MarkFound(recs[1].ID, []byte{}))
	assert.ErrorIs(t, s.MarkFound(9999, key), ErrNotFound)

	found, err := s.Found()
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Hello world!", string(found[0].Key))
	assert.Equal(t, hello, found[0].Hash.String())
	assert.Empty(t, found[1].Key)
	assert.False(t, found[0].At.IsZero())

	pending, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, p4ss, pending[0].Hash.String())
}

func TestSessions(t *testing.T) {
	t.Parallel()
	s, _ := open(t)
	fp := [32]byte{0xde, 0xad}
	id, err := s.BeginSession(fp, "rockyou.txt")
	require.NoError(t, err)
	open2, err := s.BeginSession(fp, "charset:abc")
	require.NoError(t, err)
	require.NoError(t, s.EndSession(id, 1234, 2, []byte{1, 2, 3}))
	assert.ErrorIs(t, s.EndSession(id+100, 0, 0, nil), ErrNotFound)

	ss, err := s.Sessions()
	require.NoError(t, err)
	require.Len(t, ss, 2)
	assert.Equal(t, fp, ss[0].Fingerprint)
	assert.Equal(t, "rockyou.txt", ss[0].Source)
	assert.EqualValues(t, 1234, ss[0].Processed)
	assert.EqualValues(t, 2, ss[0].Found)
	assert.Equal(t, []byte{1, 2, 3}, ss[0].SourceSum)
	assert.False(t, ss[0].Finished.Before(ss[0].Started))
	assert.Equal(t, open2, ss[1].ID)
	assert.True(t, ss[1].Finished.IsZero())
}

func TestReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "targets.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	_, err = s.Import(strings.NewReader(hello))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.Hashes()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, hello, recs[0].Hash.String())
}
