package multidraw

// FillerStats is the fill count of one filler.
type FillerStats struct {
	Name  string
	Tier  Tier
	Count uint64
}

// Stats summarises a run.
type Stats struct {
	// RowsRead counts every row read from the source, RowsProcessed only the
	// rows kept by the prescale.
	RowsRead      int64
	RowsProcessed int64
	PassedBase    int64
	PassedFull    int64
	// Fillers in registration order.
	Fillers []FillerStats
}

// Count returns the fill count of the named filler, or false if there is none.
func (s Stats) Count(name string) (uint64, bool) {
	for _, f := range s.Fillers {
		if f.Name == name {
			return f.Count, true
		}
	}
	return 0, false
}
