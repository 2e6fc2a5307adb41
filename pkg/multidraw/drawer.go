// Package multidraw fills many histograms and tables in a single scan of a row
// source. Rows are gated by an optional baseline selection and an optional full
// selection applied on top of it; every filler is attached to one of the three
// resulting tiers.
package multidraw

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/monophoton/multidraw/pkg/expr"
	"github.com/monophoton/multidraw/pkg/filler"
	"github.com/monophoton/multidraw/pkg/rowsource"
)

type state int

const (
	stateIdle state = iota
	stateScanning
	stateDone
)

// AllRows makes Run read the source until it is exhausted.
const AllRows int64 = -1

type fillerImpl interface {
	Name() string
	Count() uint64
	ResetCount()
	SetVerbosity(int)
	Validate() error
	Fill(weight float64, mask []bool) error
}

type registered struct {
	f    fillerImpl
	tier Tier
}

// Drawer owns the expression library, the selections and the fillers of one
// scan. It is not safe for concurrent use.
type Drawer struct {
	cfg    Config
	src    rowsource.Source
	lib    *expr.Library
	logger log.Logger

	base *expr.Cached
	full *expr.Cached

	fillers [numTiers][]fillerImpl
	order   []registered

	state state

	// per partition bindings
	partition  int
	weight     rowsource.Column
	prescaleBy rowsource.Column

	baseMask []bool
	fullMask []bool
}

// New creates a Drawer over src. compile builds expressions from their text;
// when nil, expressions are compiled as formulas over the columns of src.
func New(cfg Config, src rowsource.Source, compile expr.CompileFunc, logger log.Logger) (*Drawer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if compile == nil {
		compile = func(text string) (expr.Expression, error) {
			return expr.Compile(src, text)
		}
	}

	d := &Drawer{
		cfg:       cfg,
		src:       src,
		lib:       expr.NewLibrary(compile),
		logger:    logger,
		partition: -1,
	}

	if err := d.SetBaseSelection(cfg.BaseSelection); err != nil {
		return nil, err
	}
	if err := d.SetFullSelection(cfg.FullSelection); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Drawer) checkIdle() error {
	if d.state != stateIdle {
		return errors.Wrap(ErrConfig, "drawer already ran")
	}
	return nil
}

// optional returns a nil Expression for empty text.
func (d *Drawer) optional(text string) (expr.Expression, error) {
	c, err := d.selection(text)
	if err != nil || c == nil {
		return nil, err
	}
	return c, nil
}

func (d *Drawer) selection(text string) (*expr.Cached, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return d.lib.Get(text)
}

// SetBaseSelection replaces the baseline selection. Empty text clears it.
func (d *Drawer) SetBaseSelection(text string) error {
	if err := d.checkIdle(); err != nil {
		return err
	}
	c, err := d.selection(text)
	if err != nil {
		return errors.Wrap(err, "baseline selection")
	}
	d.base = c
	d.cfg.BaseSelection = text
	return nil
}

// SetFullSelection replaces the full selection. Empty text clears it.
func (d *Drawer) SetFullSelection(text string) error {
	if err := d.checkIdle(); err != nil {
		return err
	}
	c, err := d.selection(text)
	if err != nil {
		return errors.Wrap(err, "full selection")
	}
	d.full = c
	d.cfg.FullSelection = text
	return nil
}

// AddPlot fills hist with value for every instance passing cut in the given
// tier. cut and reweight may be empty.
func (d *Drawer) AddPlot(hist *filler.Histogram, value, cut, reweight string, tier Tier) (*filler.Plot, error) {
	if err := d.checkIdle(); err != nil {
		return nil, err
	}
	if hist == nil {
		return nil, errors.Wrap(ErrConfig, "nil histogram")
	}
	v, err := d.lib.Get(value)
	if err != nil {
		return nil, errors.Wrapf(err, "plot %s", hist.Name)
	}
	c, r, err := d.cutAndReweight(cut, reweight)
	if err != nil {
		return nil, errors.Wrapf(err, "plot %s", hist.Name)
	}

	p := filler.NewPlot(hist, v, c, r, d.logger)
	if err := d.register(p, tier); err != nil {
		return nil, err
	}
	if d.cfg.Verbosity > 1 {
		level.Debug(d.logger).Log("msg", "added plot", "name", hist.Name, "value", v.String(), "cut", cut, "reweight", reweight, "tier", tier)
	}
	return p, nil
}

// AddTree writes one table row per instance passing cut in the given tier.
// Columns are added with AddTreeColumn.
func (d *Drawer) AddTree(name string, table filler.TableWriter, cut, reweight string, tier Tier) (*filler.Tree, error) {
	if err := d.checkIdle(); err != nil {
		return nil, err
	}
	c, r, err := d.cutAndReweight(cut, reweight)
	if err != nil {
		return nil, errors.Wrapf(err, "tree %s", name)
	}
	t, err := filler.NewTree(name, table, c, r, d.logger)
	if err != nil {
		return nil, err
	}
	if err := d.register(t, tier); err != nil {
		return nil, err
	}
	if d.cfg.Verbosity > 1 {
		level.Debug(d.logger).Log("msg", "added tree", "name", name, "cut", cut, "reweight", reweight, "tier", tier)
	}
	return t, nil
}

// AddTreeColumn adds a column filled with value to a tree created by AddTree.
func (d *Drawer) AddTreeColumn(tree *filler.Tree, column, value string) error {
	if err := d.checkIdle(); err != nil {
		return err
	}
	v, err := d.lib.Get(value)
	if err != nil {
		return errors.Wrapf(err, "tree %s column %s", tree.Name(), column)
	}
	return tree.AddColumn(column, v)
}

func (d *Drawer) cutAndReweight(cut, reweight string) (expr.Expression, expr.Expression, error) {
	c, err := d.optional(cut)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cut")
	}
	r, err := d.optional(reweight)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reweight")
	}
	return c, r, nil
}

func (d *Drawer) register(f fillerImpl, tier Tier) error {
	if tier < 0 || tier >= numTiers {
		return errors.Wrapf(ErrConfig, "filler %s: invalid tier %d", f.Name(), int(tier))
	}
	f.SetVerbosity(d.cfg.Verbosity)
	d.fillers[tier] = append(d.fillers[tier], f)
	d.order = append(d.order, registered{f: f, tier: tier})
	return nil
}

// Run scans nRows rows starting at firstRow, or every remaining row when nRows
// is AllRows. The context is checked between rows. A Drawer runs once.
func (d *Drawer) Run(ctx context.Context, nRows, firstRow int64) (Stats, error) {
	stats := Stats{}
	if err := d.checkIdle(); err != nil {
		return stats, err
	}
	for _, r := range d.order {
		if err := r.f.Validate(); err != nil {
			return stats, errors.Wrap(err, "validating fillers")
		}
		r.f.ResetCount()
	}
	if firstRow < 0 {
		return stats, errors.Wrapf(ErrConfig, "invalid first row %d", firstRow)
	}

	d.state = stateScanning
	start := time.Now()
	defer func() {
		d.state = stateDone
		metricRunDuration.Observe(time.Since(start).Seconds())
		metricRowsRead.Add(float64(stats.RowsRead))
		metricRowsPrescaled.Add(float64(stats.RowsRead - stats.RowsProcessed))
		metricPassedBase.Add(float64(stats.PassedBase))
		metricPassedFull.Add(float64(stats.PassedFull))
	}()

	if firstRow > 0 {
		if err := d.src.SeekToRow(firstRow); err != nil {
			return stats, errors.Wrapf(err, "seeking to row %d", firstRow)
		}
	}

	// whether the selections can have more than one instance is a property of
	// the columns they read, not of the row
	baseRepeated := d.base != nil && d.base.Repeated()
	fullRepeated := d.full != nil && d.full.Repeated()

	every := progressInterval(d.cfg.Verbosity)
	level.Info(d.logger).Log("msg", "starting scan", "first_row", firstRow, "rows", nRows, "expressions", d.lib.Len(), "fillers", len(d.order))

	for nRows < 0 || stats.RowsRead < nRows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		ok, err := d.src.Next()
		if err != nil {
			return stats, errors.Wrap(err, "reading source")
		}
		if !ok {
			break
		}
		stats.RowsRead++

		if stats.RowsRead%every == 0 {
			level.Info(d.logger).Log("msg", "processing", "row", humanize.Comma(d.src.Row()), "read", humanize.Comma(stats.RowsRead))
		}

		if id := d.src.PartitionID(); id != d.partition {
			if err := d.bind(); err != nil {
				return stats, err
			}
			d.partition = id
		}

		if d.prescaleBy != nil && !d.keep() {
			continue
		}
		stats.RowsProcessed++

		if err := d.lib.Reset(); err != nil {
			return stats, errors.Wrapf(err, "evaluating expressions before row %d", d.src.Row())
		}

		weight, err := d.eventWeight()
		if err != nil {
			return stats, err
		}

		if err := d.fill(Unconditional, weight, nil); err != nil {
			return stats, err
		}

		var baseMask []bool
		if d.base != nil {
			var pass bool
			baseMask, pass = d.selectBase(baseRepeated)
			if !pass {
				continue
			}
		}
		stats.PassedBase++

		if err := d.fill(PostBase, weight, baseMask); err != nil {
			return stats, err
		}

		var fullMask []bool
		if d.full != nil {
			var pass bool
			fullMask, pass = d.selectFull(fullRepeated, baseMask)
			if !pass {
				continue
			}
		}
		stats.PassedFull++

		if err := d.fill(PostFull, weight, fullMask); err != nil {
			return stats, err
		}
	}

	if err := d.lib.Err(); err != nil {
		return stats, errors.Wrap(err, "evaluating expressions")
	}

	for _, r := range d.order {
		stats.Fillers = append(stats.Fillers, FillerStats{Name: r.f.Name(), Tier: r.tier, Count: r.f.Count()})
	}
	d.report(stats, time.Since(start))
	return stats, nil
}

func progressInterval(verbosity int) int64 {
	switch {
	case verbosity >= 3:
		return 1
	case verbosity == 2:
		return 100
	}
	return 10000
}

// bind refreshes every partition scoped binding after the source moved to a
// new partition.
func (d *Drawer) bind() error {
	path := d.src.PartitionPath()
	metricPartitionsOpened.Inc()
	if d.cfg.Verbosity > 1 {
		level.Debug(d.logger).Log("msg", "opened new partition", "path", path)
	}

	d.weight = nil
	if d.cfg.WeightColumn != "" {
		c, err := d.src.Column(d.cfg.WeightColumn)
		if err != nil {
			return errors.Wrapf(err, "binding weight column in %s", path)
		}
		want := rowsource.KindDouble
		if d.cfg.WeightWidth == WidthNarrow {
			want = rowsource.KindFloat
		}
		if f := c.Field(); f.Kind != want || f.Repeated {
			return errors.Wrapf(ErrConfig, "weight column %s in %s is %s (repeated=%t), expected %s scalar", f.Name, path, f.Kind, f.Repeated, want)
		}
		d.weight = c
	}

	d.prescaleBy = nil
	if d.cfg.Prescale > 1 {
		c, err := d.src.Column(d.cfg.PrescaleColumn)
		if err != nil {
			return errors.Wrapf(err, "binding prescale column in %s", path)
		}
		d.prescaleBy = c
	}

	return d.lib.Rebind()
}

// keep applies the prescale to the current row.
func (d *Drawer) keep() bool {
	if d.prescaleBy.Len() == 0 {
		return false
	}
	key := int64(d.prescaleBy.Value(0))
	return key%int64(d.cfg.Prescale) == 0
}

func (d *Drawer) eventWeight() (float64, error) {
	w := 1.0
	if d.weight != nil {
		if d.weight.Len() == 0 {
			return 0, errors.Errorf("row %d: weight column %s has no value", d.src.Row(), d.cfg.WeightColumn)
		}
		w = d.weight.Value(0)
	}
	return w * d.cfg.Luminosity, nil
}

func (d *Drawer) fill(tier Tier, weight float64, mask []bool) error {
	for _, f := range d.fillers[tier] {
		if err := f.Fill(weight, mask); err != nil {
			return errors.Wrapf(err, "row %d", d.src.Row())
		}
	}
	return nil
}

// selectBase evaluates the baseline selection. A mask is built only when the
// selection is repeated; otherwise the first passing instance decides.
func (d *Drawer) selectBase(repeated bool) ([]bool, bool) {
	n := d.base.Multiplicity()

	if !repeated {
		for i := 0; i < n; i++ {
			if filler.Passes(d.base.ValueAt(i)) {
				d.trace("base", i, true)
				return nil, true
			}
		}
		return nil, false
	}

	d.baseMask = resize(d.baseMask, n)
	pass := false
	for i := 0; i < n; i++ {
		d.baseMask[i] = filler.Passes(d.base.ValueAt(i))
		d.trace("base", i, d.baseMask[i])
		pass = pass || d.baseMask[i]
	}
	return d.baseMask, pass
}

// selectFull evaluates the full selection on the instances that passed the
// baseline. A mask is built only when the full selection is repeated; the post
// full fillers otherwise run unmasked.
func (d *Drawer) selectFull(repeated bool, baseMask []bool) ([]bool, bool) {
	n := d.full.Multiplicity()
	if baseMask != nil && len(baseMask) < n {
		n = len(baseMask)
	}

	if repeated {
		d.fullMask = resize(d.fullMask, n)
	}

	pass := false
	loaded := false
	for i := 0; i < n; i++ {
		if baseMask != nil && !baseMask[i] {
			continue
		}
		if !loaded && i != 0 {
			d.full.ValueAt(0)
		}
		loaded = true

		ok := filler.Passes(d.full.ValueAt(i))
		d.trace("full", i, ok)
		if !repeated {
			if ok {
				return nil, true
			}
			continue
		}
		d.fullMask[i] = ok
		pass = pass || ok
	}

	if !repeated {
		return nil, false
	}
	return d.fullMask, pass
}

func (d *Drawer) trace(selection string, i int, pass bool) {
	if d.cfg.Verbosity > 2 {
		level.Debug(d.logger).Log("msg", "selection", "selection", selection, "row", d.src.Row(), "instance", i, "pass", pass)
	}
}

func resize(mask []bool, n int) []bool {
	if cap(mask) < n {
		return make([]bool, n)
	}
	mask = mask[:n]
	clear(mask)
	return mask
}

func (d *Drawer) report(stats Stats, took time.Duration) {
	level.Info(d.logger).Log(
		"msg", "scan done",
		"rows_read", humanize.Comma(stats.RowsRead),
		"rows_processed", humanize.Comma(stats.RowsProcessed),
		"passed_base", humanize.Comma(stats.PassedBase),
		"passed_full", humanize.Comma(stats.PassedFull),
		"duration", took,
	)
	for _, f := range stats.Fillers {
		level.Info(d.logger).Log("msg", "filler", "name", f.Name, "tier", f.Tier, "count", humanize.Comma(int64(min(f.Count, math.MaxInt64))))
	}
}
