package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuya51/gmic-buildathon/pkg/store/db"
)

func openMem(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestReadYourWrites(t *testing.T) {
	d := openMem(t)
	require.NoError(t, d.Set([]byte("a"), []byte("old")))

	b := New(d)
	b.Set([]byte("a"), []byte("new"))
	b.Set([]byte("b"), []byte("1"))

	v, err := b.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)

	// nothing visible before commit
	v, err = d.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), v)
	_, err = d.Get([]byte("b"))
	assert.True(t, db.IsNotFound(err))

	b.Delete([]byte("a"))
	_, err = b.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))
	assert.True(t, b.Pending([]byte("a")))
	assert.Equal(t, 2, b.Len())

	require.NoError(t, b.Commit())
	_, err = d.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))
	v, err = d.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
}

func TestScanMergesPending(t *testing.T) {
	d := openMem(t)
	require.NoError(t, d.Set([]byte("p:1"), []byte("c1")))
	require.NoError(t, d.Set([]byte("p:3"), []byte("c3")))

	b := New(d)
	b.Set([]byte("p:2"), []byte("b2"))
	b.Set([]byte("p:3"), []byte("b3"))
	b.Delete([]byte("p:1"))
	b.Set([]byte("q:1"), []byte("x"))

	var keys, vals []string
	err := b.Scan([]byte("p:"), func(k, v []byte) error {
		keys = append(keys, string(k))
		vals = append(vals, string(v))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p:2", "p:3"}, keys)
	assert.Equal(t, []string{"b2", "b3"}, vals)

	keys = nil
	err = b.ScanReverse([]byte("p:"), func(k, _ []byte) error {
		keys = append(keys, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p:3", "p:2"}, keys)
}

func TestDiscardAndReuse(t *testing.T) {
	d := openMem(t)

	b := New(d)
	b.Set([]byte("k"), []byte("v"))
	b.Discard()
	_, err := d.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	assert.ErrorIs(t, b.Commit(), ErrClosed)
	_, err = b.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)

	empty := New(d)
	require.NoError(t, empty.Commit())
	assert.ErrorIs(t, empty.Commit(), ErrClosed)
}
