package filler

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MemoryTable keeps every row in memory.
type MemoryTable struct {
	Names []string
	Rows  [][]float64
}

var _ TableWriter = (*MemoryTable)(nil)

func (m *MemoryTable) AddColumn(name string) error {
	if len(m.Rows) != 0 {
		return errors.Errorf("cannot add column %s after the first row", name)
	}
	m.Names = append(m.Names, name)
	return nil
}

func (m *MemoryTable) WriteRow(values []float64) error {
	if len(values) != len(m.Names) {
		return errors.Errorf("row has %d values for %d columns", len(values), len(m.Names))
	}
	m.Rows = append(m.Rows, append([]float64(nil), values...))
	return nil
}

// Column returns all values of the named column.
func (m *MemoryTable) Column(name string) []float64 {
	for k, n := range m.Names {
		if n != name {
			continue
		}
		out := make([]float64, 0, len(m.Rows))
		for _, r := range m.Rows {
			out = append(out, r[k])
		}
		return out
	}
	return nil
}

func floatsString(vs []float64) string {
	var sb strings.Builder
	for i, v := range vs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}
