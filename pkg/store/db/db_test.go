package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *DB {
	t.Helper()
	d, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestGetSetDelete(t *testing.T) {
	d := openMem(t)

	_, err := d.Get([]byte("missing"))
	assert.True(t, IsNotFound(err))

	require.NoError(t, d.Set([]byte("k"), []byte("v")))
	v, err := d.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, d.Delete([]byte("k")))
	_, err = d.Get([]byte("k"))
	assert.True(t, IsNotFound(err))
}

func TestScanPrefixInOrder(t *testing.T) {
	d := openMem(t)
	for _, k := range []string{"a:2", "a:1", "b:1", "a:3", "a"} {
		require.NoError(t, d.Set([]byte(k), []byte(k)))
	}

	var got []string
	err := d.Scan([]byte("a:"), func(k, _ []byte) error {
		got = append(got, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "a:2", "a:3"}, got)
}

func TestScanReverse(t *testing.T) {
	d := openMem(t)
	for _, k := range []string{"a:2", "a:1", "b:1", "a:3", "a"} {
		require.NoError(t, d.Set([]byte(k), []byte(k)))
	}

	var got []string
	err := d.ScanReverse([]byte("a:"), func(k, _ []byte) error {
		got = append(got, string(k))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:3", "a:2", "a:1"}, got)

	stop := errors.New("stop")
	got = nil
	err = d.ScanReverse(nil, func(k, _ []byte) error {
		got = append(got, string(k))
		if len(got) == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"b:1", "a:3"}, got)
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	d, err := Open(path, Options{CacheSize: 1 << 20})
	require.NoError(t, err)
	require.True(t, d.Ready())
	assert.Equal(t, path, d.Path())

	require.NoError(t, d.Set([]byte("k"), []byte("v")))
	require.NoError(t, d.Flush())
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.False(t, d.Ready())

	d, err = Open(path, Options{})
	require.NoError(t, err)
	defer d.Close()
	v, err := d.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestPrefixUpperBound(t *testing.T) {
	assert.Equal(t, []byte("b"), prefixUpperBound([]byte("a")))
	assert.Equal(t, []byte{0x02}, prefixUpperBound([]byte{0x01, 0xff}))
	assert.Nil(t, prefixUpperBound([]byte{0xff}))
}
