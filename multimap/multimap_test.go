package multimap

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mm, err := New([]int64{1, 1, 2, 3, 3}, []int64{10, 11, 10, 12, 12})
	require.NoError(t, err)

	assert.Equal(t, 3, mm.Len())
	assert.Equal(t, []uint32{1, 2, 3}, mm.Keys())
	assert.Equal(t, []uint32{10, 11}, mm.Values(1))
	assert.Equal(t, []uint32{12}, mm.Values(3))
	assert.Nil(t, mm.Values(4))
	assert.True(t, mm.Contains(2, 10))
	assert.False(t, mm.Contains(2, 11))
	assert.Equal(t, uint64(4), mm.PairCount())
	assert.Equal(t, []uint32{10, 11, 12}, mm.ValueSet().ToArray())
	assert.Equal(t, []uint32{1, 2, 3}, mm.KeySet().ToArray())
}

func TestNewMalformed(t *testing.T) {
	_, err := New([]int64{1, 2}, []int64{1})
	require.ErrorIs(t, err, ErrMalformedInput)
	var lm *ErrColumnLengthMismatch
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, 2, lm.SetIDs)
	assert.Equal(t, 1, lm.SegmentIDs)

	_, err = New(nil, []int64{})
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = New([]int64{-1}, []int64{1})
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = New([]int64{1}, []int64{math.MaxUint32 + 1})
	assert.ErrorIs(t, err, ErrMalformedInput)

	mm, err := New([]int64{}, []int64{})
	require.NoError(t, err)
	assert.Equal(t, 0, mm.Len())
}

func TestInvert(t *testing.T) {
	mm := FromPairs([][2]uint32{{1, 10}, {1, 11}, {2, 10}, {3, 12}})
	inv := mm.Invert()

	assert.Equal(t, []uint32{10, 11, 12}, inv.Keys())
	assert.Equal(t, []uint32{1, 2}, inv.Values(10))
	assert.Equal(t, []uint32{1}, inv.Values(11))
	assert.Equal(t, []uint32{3}, inv.Values(12))
}

func TestInvertRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 20; trial++ {
		n := rng.Intn(500)
		sets := make([]int64, n)
		segs := make([]int64, n)
		for i := range sets {
			sets[i] = int64(rng.Intn(100))
			segs[i] = int64(rng.Intn(30))
		}

		fwd, err := New(sets, segs)
		require.NoError(t, err)
		inv := fwd.Invert()

		for i := range sets {
			k, v := uint32(sets[i]), uint32(segs[i])
			require.True(t, fwd.Contains(k, v))
			require.True(t, inv.Contains(v, k))
		}
		for k, v := range fwd.Pairs() {
			require.True(t, inv.Contains(v, k))
		}
		for v, k := range inv.Pairs() {
			require.True(t, fwd.Contains(k, v))
		}
		require.Equal(t, fwd.PairCount(), inv.PairCount())

		back := inv.Invert()
		require.Equal(t, fwd.Keys(), back.Keys())
		for _, k := range fwd.Keys() {
			require.Equal(t, fwd.Values(k), back.Values(k))
		}
	}
}

func TestPairsEarlyStop(t *testing.T) {
	mm := FromPairs([][2]uint32{{1, 1}, {1, 2}, {2, 3}})
	n := 0
	for range mm.Pairs() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
