package indexer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(100, 105, 2)
	require.NoError(t, err)
	require.Equal(t, []BlockRange{
		{From: 100, To: 101},
		{From: 102, To: 103},
		{From: 104, To: 105},
	}, got)

	got, err = SplitRange(100, 104, 2)
	require.NoError(t, err)
	require.Equal(t, BlockRange{From: 104, To: 104}, got[len(got)-1])
}

func TestSplitRangeSingle(t *testing.T) {
	got, err := SplitRange(5, 5, 10)
	require.NoError(t, err)
	require.Equal(t, []BlockRange{{From: 5, To: 5}}, got)
}

func TestSplitRangeUpToMaxBlock(t *testing.T) {
	got, err := SplitRange(math.MaxUint64-2, math.MaxUint64, 2)
	require.NoError(t, err)
	require.Equal(t, []BlockRange{
		{From: math.MaxUint64 - 2, To: math.MaxUint64 - 1},
		{From: math.MaxUint64, To: math.MaxUint64},
	}, got)
}

func TestSplitRangeInvalid(t *testing.T) {
	_, err := SplitRange(10, 9, 1)
	require.Error(t, err)
	_, err = SplitRange(1, 10, 0)
	require.Error(t, err)
}

func TestSafeHead(t *testing.T) {
	head, ok := SafeHead(1000, 32)
	require.True(t, ok)
	require.Equal(t, uint64(968), head)

	head, ok = SafeHead(10, 0)
	require.True(t, ok)
	require.Equal(t, uint64(10), head)

	_, ok = SafeHead(10, 11)
	require.False(t, ok)
}
