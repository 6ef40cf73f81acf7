// Package storetest opens throwaway databases for tests.
package storetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wuya51/gmic-buildathon/pkg/store/batch"
	"github.com/wuya51/gmic-buildathon/pkg/store/db"
)

// OpenMem opens an in-memory database closed at the end of the test.
func OpenMem(t testing.TB) *db.DB {
	t.Helper()
	d, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// Commit runs fn in a fresh batch on d and commits it.
func Commit(t testing.TB, d *db.DB, fn func(b *batch.Batch)) {
	t.Helper()
	b := batch.New(d)
	fn(b)
	require.NoError(t, b.Commit())
}
