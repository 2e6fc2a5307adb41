package expr

type cacheEntry struct {
	computed bool
	value    float64
}

// Cached memoises the multiplicity and per-instance values of an Expression
// for the current row. Reset must be called once at the start of every row
// before any other access.
type Cached struct {
	Expression

	n       int
	entries []cacheEntry
}

var _ Expression = (*Cached)(nil)

func NewCached(e Expression) *Cached {
	return &Cached{
		Expression: e,
		n:          -1,
	}
}

// Reset invalidates every cached entry.
func (c *Cached) Reset() {
	c.n = -1
}

func (c *Cached) Multiplicity() int {
	if c.n < 0 {
		c.n = c.Expression.Multiplicity()
		if cap(c.entries) < c.n {
			c.entries = make([]cacheEntry, c.n)
		} else {
			c.entries = c.entries[:c.n]
			clear(c.entries)
		}
	}
	return c.n
}

// ValueAt returns 0 for instances outside the current multiplicity.
func (c *Cached) ValueAt(i int) float64 {
	if i < 0 || i >= c.Multiplicity() {
		return 0
	}

	e := &c.entries[i]
	if !e.computed {
		e.value = c.Expression.ValueAt(i)
		e.computed = true
	}
	return e.value
}
