package rowsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	EventNumber int64     `parquet:"eventNumber"`
	Weight      float32   `parquet:"weight"`
	Met         float64   `parquet:"met"`
	JetPt       []float64 `parquet:"jet_pt"`
}

func testEvents(first, count int) []testEvent {
	events := make([]testEvent, 0, count)
	for i := first; i < first+count; i++ {
		jets := make([]float64, i%3)
		for j := range jets {
			jets[j] = float64(10*i + j)
		}
		events = append(events, testEvent{
			EventNumber: int64(i),
			Weight:      0.5,
			Met:         float64(i),
			JetPt:       jets,
		})
	}
	return events
}

func writeFileWith[T any](t testing.TB, dir, name string, rows []T) string {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)

	half := len(rows) / 2

	w := parquet.NewGenericWriter[T](f)
	_, err = w.Write(rows[0:half])
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	_, err = w.Write(rows[half:])
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

func createTestSource(t *testing.T) *Parquet {
	dir := t.TempDir()
	a := writeFileWith(t, dir, "a.parquet", testEvents(0, 10))
	b := writeFileWith(t, dir, "b.parquet", testEvents(10, 5))

	src, err := NewParquet([]string{a, b}, log.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestParquetSchema(t *testing.T) {
	src := createTestSource(t)

	s := src.Schema()
	require.Len(t, s, 4)

	met, ok := s.Lookup("met")
	require.True(t, ok)
	require.Equal(t, Field{Name: "met", Kind: KindDouble}, met)

	jets, ok := s.Lookup("jet_pt")
	require.True(t, ok)
	require.True(t, jets.Repeated)

	w, _ := s.Lookup("weight")
	require.Equal(t, KindFloat, w.Kind)

	n, _ := s.Lookup("eventNumber")
	require.Equal(t, KindInt, n.Kind)
}

func TestParquetNext(t *testing.T) {
	src := createTestSource(t)

	var (
		rows       int
		partitions []int
		met        Column
		jets       Column
		last       = -1
	)
	for {
		ok, err := src.Next()
		require.NoError(t, err)
		if !ok {
			break
		}

		if id := src.PartitionID(); id != last {
			last = id
			partitions = append(partitions, id)
			met, err = src.Column("met")
			require.NoError(t, err)
			jets, err = src.Column("jet_pt")
			require.NoError(t, err)
		}

		require.Equal(t, int64(rows), src.Row())
		require.Equal(t, 1, met.Len())
		require.Equal(t, float64(rows), met.Value(0))
		require.Equal(t, rows%3, jets.Len())
		for j := 0; j < jets.Len(); j++ {
			require.Equal(t, float64(10*rows+j), jets.Value(j))
		}
		rows++
	}

	require.Equal(t, 15, rows)
	require.Equal(t, []int{0, 1}, partitions)

	// exhausted sources stay exhausted
	ok, err := src.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestParquetSeekToRow(t *testing.T) {
	for _, tc := range []struct {
		seek     int64
		expected []float64
	}{
		{0, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}},
		{7, []float64{7, 8, 9, 10, 11, 12, 13, 14}},
		{10, []float64{10, 11, 12, 13, 14}},
		{13, []float64{13, 14}},
		{15, nil},
		{100, nil},
	} {
		src := createTestSource(t)
		require.NoError(t, src.SeekToRow(tc.seek))

		var (
			got  []float64
			met  Column
			last = -1
		)
		for {
			ok, err := src.Next()
			require.NoError(t, err)
			if !ok {
				break
			}
			if src.PartitionID() != last {
				last = src.PartitionID()
				met, err = src.Column("met")
				require.NoError(t, err)
			}
			got = append(got, met.Value(0))
		}
		require.Equal(t, tc.expected, got, "seek %d", tc.seek)
	}
}

func TestParquetMissingColumn(t *testing.T) {
	src := createTestSource(t)

	ok, err := src.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = src.Column("nope")
	require.True(t, errors.Is(err, ErrColumnNotFound))
}

func TestParquetNoFiles(t *testing.T) {
	_, err := NewParquet(nil, log.NewNopLogger())
	require.Error(t, err)
}
