package filler

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestTreeColumns(t *testing.T) {
	table := &MemoryTable{}
	tree, err := NewTree("t", table, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, tree.AddColumn("pt", newSliceExpression("pt", 10, 20)))
	require.NoError(t, tree.AddColumn("eta", newSliceExpression("eta", 1, -1)))
	require.Equal(t, []string{WeightColumn, "pt", "eta"}, tree.Columns())
	require.Equal(t, tree.Columns(), table.Names)

	require.NoError(t, tree.Fill(0.5, []bool{false, true}))
	require.Equal(t, [][]float64{{0.5, 20, -1}}, table.Rows)

	require.Error(t, tree.AddColumn("late", newSliceExpression("late", 1)))
}

func TestTreeScalarColumnPastFirstInstance(t *testing.T) {
	table := &MemoryTable{}
	tree, err := NewTree("t", table, nil, nil, nil)
	require.NoError(t, err)

	require.NoError(t, tree.AddColumn("pt", newSliceExpression("pt", 10, 20)))
	require.NoError(t, tree.AddColumn("n", newSliceExpression("n", 7)))

	require.NoError(t, tree.Fill(1, nil))
	require.Equal(t, [][]float64{{1, 10, 7}, {1, 20, 0}}, table.Rows)
}

func TestTreeReservedAndDuplicateColumns(t *testing.T) {
	tree, err := NewTree("t", &MemoryTable{}, nil, nil, nil)
	require.NoError(t, err)

	require.Error(t, tree.AddColumn(WeightColumn, newSliceExpression("x", 1)))
	require.NoError(t, tree.AddColumn("x", newSliceExpression("x", 1)))
	require.Error(t, tree.AddColumn("x", newSliceExpression("x", 1)))
}

func TestTreeMaxColumns(t *testing.T) {
	tree, err := NewTree("t", &MemoryTable{}, nil, nil, nil)
	require.NoError(t, err)

	for i := 0; i < MaxColumns; i++ {
		require.NoError(t, tree.AddColumn(fmt.Sprintf("c%d", i), newSliceExpression("x", 1)))
	}
	err = tree.AddColumn("one_more", newSliceExpression("x", 1))
	require.True(t, errors.Is(err, ErrTooManyColumns))
	require.Len(t, tree.Columns(), MaxColumns+1)
}

func TestParquetTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skim.parquet")
	table, err := CreateParquetTable("skim", path)
	require.NoError(t, err)

	tree, err := NewTree("skim", table, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, tree.AddColumn("z_pt", newSliceExpression("z_pt", 1, 2, 3)))
	require.NoError(t, tree.AddColumn("a_eta", newSliceExpression("a_eta", -1, -2, -3)))

	rows := 0
	for i := 0; i < 1000; i++ {
		require.NoError(t, tree.Fill(float64(i), nil))
		rows += 3
	}
	require.Error(t, table.AddColumn("late"))
	require.NoError(t, table.Close())

	type skimRow struct {
		Weight float64 `parquet:"weight"`
		ZPt    float64 `parquet:"z_pt"`
		AEta   float64 `parquet:"a_eta"`
	}
	got, err := parquet.ReadFile[skimRow](path)
	require.NoError(t, err)
	require.Len(t, got, rows)
	require.Equal(t, skimRow{Weight: 0, ZPt: 1, AEta: -1}, got[0])
	require.Equal(t, skimRow{Weight: 999, ZPt: 3, AEta: -3}, got[rows-1])
}

func TestParquetTableEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	table, err := CreateParquetTable("empty", path)
	require.NoError(t, err)
	require.NoError(t, table.AddColumn("weight"))
	require.NoError(t, table.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Size())
}
