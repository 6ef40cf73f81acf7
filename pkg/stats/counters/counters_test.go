package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuya51/gmic-buildathon/pkg/models"
	"github.com/wuya51/gmic-buildathon/pkg/store/batch"
	"github.com/wuya51/gmic-buildathon/pkg/store/storetest"
)

func TestRecord(t *testing.T) {
	d := storetest.OpenMem(t)

	total, err := Total(d)
	require.NoError(t, err)
	assert.Zero(t, total)

	storetest.Commit(t, d, func(b *batch.Batch) {
		n, err := Record(b, "c1", "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)
		n, err = Record(b, "c1", "bob")
		require.NoError(t, err)
		assert.Equal(t, uint64(2), n)
		n, err = Record(b, "c2", "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), n)
	})

	total, err = Total(d)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)

	n, err := ChainCount(d, "c1")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	n, err = IdentityCount(d, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	n, err = IdentityCount(d, "nobody")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestScansInKeyOrder(t *testing.T) {
	d := storetest.OpenMem(t)
	storetest.Commit(t, d, func(b *batch.Batch) {
		for _, s := range []string{"zed", "amy", "zed"} {
			_, err := Record(b, "c", s)
			require.NoError(t, err)
		}
	})

	ids, err := Identities(d)
	require.NoError(t, err)
	assert.Equal(t, []models.RankEntry{{ID: "amy", Count: 1}, {ID: "zed", Count: 2}}, ids)

	chains, err := Chains(d)
	require.NoError(t, err)
	assert.Equal(t, []models.RankEntry{{ID: "c", Count: 3}}, chains)
}
