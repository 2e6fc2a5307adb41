package rowsource

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testMemory() *Memory {
	fields := []Field{{Name: "x"}, {Name: "v", Repeated: true}}
	return NewMemory(
		MemoryPartition{Path: "a", Fields: fields, Rows: []MemoryRow{
			{"x": {1}, "v": {1, 2}},
			{"x": {2}, "v": {}},
		}},
		MemoryPartition{Path: "empty", Fields: fields},
		MemoryPartition{Path: "b", Fields: fields[:1], Rows: []MemoryRow{
			{"x": {3}},
		}},
	)
}

func TestMemoryNext(t *testing.T) {
	m := testMemory()

	var (
		xs    []float64
		paths []string
		last  = -1
		x     Column
	)
	for {
		ok, err := m.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		if m.PartitionID() != last {
			last = m.PartitionID()
			paths = append(paths, m.PartitionPath())
			x, err = m.Column("x")
			require.NoError(t, err)
		}
		xs = append(xs, x.Value(0))
	}

	require.Equal(t, []float64{1, 2, 3}, xs)
	require.Equal(t, []string{"a", "b"}, paths)
	require.Equal(t, int64(2), m.Row())
}

func TestMemoryColumnPerPartition(t *testing.T) {
	m := testMemory()

	ok, err := m.Next()
	require.NoError(t, err)
	require.True(t, ok)

	v, err := m.Column("v")
	require.NoError(t, err)
	require.Equal(t, 2, v.Len())
	require.True(t, v.Field().Repeated)

	for i := 0; i < 2; i++ {
		_, err = m.Next()
		require.NoError(t, err)
	}
	require.Equal(t, "b", m.PartitionPath())

	_, err = m.Column("v")
	require.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestMemorySeekToRow(t *testing.T) {
	m := testMemory()
	require.NoError(t, m.SeekToRow(2))

	ok, err := m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", m.PartitionPath())
	require.Equal(t, int64(2), m.Row())

	ok, err = m.Next()
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, m.SeekToRow(0))
}
