package rowsource

import (
	"github.com/pkg/errors"
)

// MemoryRow holds the values of one row keyed by column name.
type MemoryRow map[string][]float64

// MemoryPartition is one partition of a Memory source.
type MemoryPartition struct {
	Path   string
	Fields []Field
	Rows   []MemoryRow
}

// Memory is a Source over partitions held in memory.
type Memory struct {
	parts   []MemoryPartition
	part    int
	row     int
	global  int64
	started bool
}

var _ Source = (*Memory)(nil)

func NewMemory(parts ...MemoryPartition) *Memory {
	return &Memory{
		parts:  parts,
		row:    -1,
		global: -1,
	}
}

func (m *Memory) Next() (bool, error) {
	m.started = true
	for m.part < len(m.parts) {
		if m.row+1 < len(m.parts[m.part].Rows) {
			m.row++
			m.global++
			return true, nil
		}
		if m.part+1 == len(m.parts) {
			break
		}
		m.part++
		m.row = -1
	}
	return false, nil
}

func (m *Memory) SeekToRow(row int64) error {
	if m.started {
		return errors.New("seek after the first row")
	}
	if row < 0 {
		return errors.Errorf("invalid row %d", row)
	}

	remaining := row
	for m.part < len(m.parts) {
		n := int64(len(m.parts[m.part].Rows))
		if remaining < n {
			break
		}
		remaining -= n
		if m.part+1 == len(m.parts) {
			m.row = len(m.parts[m.part].Rows) - 1
			m.global = row - 1
			return nil
		}
		m.part++
	}
	m.row = int(remaining) - 1
	m.global = row - 1
	return nil
}

func (m *Memory) Row() int64 {
	return m.global
}

func (m *Memory) PartitionID() int {
	return m.part
}

func (m *Memory) PartitionPath() string {
	if m.part >= len(m.parts) {
		return ""
	}
	return m.parts[m.part].Path
}

// Schema is the schema of the first partition.
func (m *Memory) Schema() Schema {
	s := Schema{}
	if len(m.parts) == 0 {
		return s
	}
	for _, f := range m.parts[0].Fields {
		s[f.Name] = f
	}
	return s
}

func (m *Memory) Column(name string) (Column, error) {
	if m.part >= len(m.parts) {
		return nil, errors.Wrap(ErrColumnNotFound, name)
	}
	for _, f := range m.parts[m.part].Fields {
		if f.Name == name {
			return &memoryColumn{m: m, field: f}, nil
		}
	}
	return nil, errors.Wrapf(ErrColumnNotFound, "%s in partition %q", name, m.PartitionPath())
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) current() MemoryRow {
	if m.row < 0 || m.part >= len(m.parts) || m.row >= len(m.parts[m.part].Rows) {
		return nil
	}
	return m.parts[m.part].Rows[m.row]
}

type memoryColumn struct {
	m     *Memory
	field Field
}

func (c *memoryColumn) Field() Field {
	return c.field
}

func (c *memoryColumn) Len() int {
	n := len(c.m.current()[c.field.Name])
	if !c.field.Repeated && n > 1 {
		return 1
	}
	return n
}

func (c *memoryColumn) Value(i int) float64 {
	return c.m.current()[c.field.Name][i]
}
