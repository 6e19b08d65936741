// Package turnover implements the biomass- and snag-turnover operation
// provider: the annual fractional transfer of live biomass to dead
// organic matter and snag pools, and of snag pools onward into DOM,
// using the same repeating-coordinates template approach as [growth]
// and [decay], keyed by each stand's spatial unit.
package turnover

import (
	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/params"
	"github.com/js-arias/fcarbon/pool"
	"github.com/js-arias/fcarbon/poolset"
)

type resolvedComponent struct {
	idx       int
	snagIdx   int
	fastIdx   int
	belowIdx  int
	isMerch   bool
	isOther   bool
	hasSplits bool
}

type snagPool struct {
	idx     int
	fastIdx int
}

// template is the coordinate layout shared by every stand's turnover
// matrix, resolved once against a pool registry.
type template struct {
	components []resolvedComponent
	snags      []snagPool

	coords []matrixop.Coord
	// slot indices, parallel to components/snags, laid out as:
	// [diag, snag?, fast, below?] per component, then [diag, fast]
	// per snag pool.
	compSlots []compSlot
	snagSlots []snagSlot
}

type compSlot struct {
	diag, snag, fast, below int // -1 if absent
}

type snagSlot struct {
	diag, fast int
}

func resolve(p *pool.Pools, c poolset.Component) (resolvedComponent, error) {
	idx, ok := p.Index(c.Pool)
	if !ok {
		return resolvedComponent{}, fcarbon.NewError("turnover", fcarbon.Configuration, "pool set missing %q", c.Pool)
	}
	r := resolvedComponent{idx: idx, snagIdx: -1, fastIdx: -1, belowIdx: -1}
	if c.Snag != "" {
		si, ok := p.Index(c.Snag)
		if !ok {
			return resolvedComponent{}, fcarbon.NewError("turnover", fcarbon.Configuration, "pool set missing %q", c.Snag)
		}
		r.snagIdx = si
	}
	if c.Fast != "" {
		fi, ok := p.Index(c.Fast)
		if !ok {
			return resolvedComponent{}, fcarbon.NewError("turnover", fcarbon.Configuration, "pool set missing %q", c.Fast)
		}
		r.fastIdx = fi
	}
	if c.FastBelow != "" {
		bi, ok := p.Index(c.FastBelow)
		if !ok {
			return resolvedComponent{}, fcarbon.NewError("turnover", fcarbon.Configuration, "pool set missing %q", c.FastBelow)
		}
		r.belowIdx = bi
		r.hasSplits = true
	}
	r.isMerch = r.snagIdx >= 0 && r.fastIdx < 0
	if r.snagIdx >= 0 && r.fastIdx >= 0 {
		r.isOther = true
	}
	return r, nil
}

func buildTemplate(p *pool.Pools) (*template, error) {
	t := &template{}
	allComponents := append(poolset.SoftwoodComponents(), poolset.HardwoodComponents()...)
	for _, c := range allComponents {
		r, err := resolve(p, c)
		if err != nil {
			return nil, err
		}
		t.components = append(t.components, r)
	}

	snagPools := []struct{ snag, fast string }{
		{poolset.SWStemSnag, poolset.AboveGroundFast},
		{poolset.SWBranchSnag, poolset.AboveGroundFast},
		{poolset.HWStemSnag, poolset.AboveGroundFast},
		{poolset.HWBranchSnag, poolset.AboveGroundFast},
	}
	for _, sp := range snagPools {
		si, ok1 := p.Index(sp.snag)
		fi, ok2 := p.Index(sp.fast)
		if !ok1 || !ok2 {
			return nil, fcarbon.NewError("turnover", fcarbon.Configuration, "pool set missing snag pool %q or %q", sp.snag, sp.fast)
		}
		t.snags = append(t.snags, snagPool{idx: si, fastIdx: fi})
	}

	for _, c := range t.components {
		slot := compSlot{fast: -1, below: -1, snag: -1}
		slot.diag = len(t.coords)
		t.coords = append(t.coords, matrixop.Coord{Row: c.idx, Col: c.idx})
		if c.snagIdx >= 0 {
			slot.snag = len(t.coords)
			t.coords = append(t.coords, matrixop.Coord{Row: c.idx, Col: c.snagIdx})
		}
		if c.fastIdx >= 0 {
			slot.fast = len(t.coords)
			t.coords = append(t.coords, matrixop.Coord{Row: c.idx, Col: c.fastIdx})
		}
		if c.belowIdx >= 0 {
			slot.below = len(t.coords)
			t.coords = append(t.coords, matrixop.Coord{Row: c.idx, Col: c.belowIdx})
		}
		t.compSlots = append(t.compSlots, slot)
	}
	for _, s := range t.snags {
		slot := snagSlot{}
		slot.diag = len(t.coords)
		t.coords = append(t.coords, matrixop.Coord{Row: s.idx, Col: s.idx})
		slot.fast = len(t.coords)
		t.coords = append(t.coords, matrixop.Coord{Row: s.idx, Col: s.fastIdx})
		t.snagSlots = append(t.snagSlots, slot)
	}
	return t, nil
}

// BuildOps fills handle with a turnover operation for n stands, one
// parameter set per stand given by turnoverOf (usually the spatial
// unit's [params.TurnoverParam] repeated for every stand sharing that
// unit).
func BuildOps(store *matrixop.Store, handle matrixop.Handle, p *pool.Pools, n int, turnoverOf func(stand int) params.TurnoverParam) error {
	const op = "turnover.BuildOps"
	t, err := buildTemplate(p)
	if err != nil {
		return err
	}

	values := make([][]float64, n)
	standTo := make([]int, n)
	for s := range standTo {
		standTo[s] = s
		tp := turnoverOf(s)
		v := make([]float64, len(t.coords))
		for ci, c := range t.components {
			slot := t.compSlots[ci]
			var rate float64
			switch {
			case c.isMerch:
				rate = tp.StemFall
			case c.isOther:
				rate = tp.BranchFall
			case c.hasSplits && ci%5 == 3:
				rate = tp.CoarseRootFall
			case c.hasSplits:
				rate = tp.FineRootFall
			default:
				rate = tp.FoliageFall
			}
			if rate > 1 {
				rate = 1
			}
			v[slot.diag] = 1 - rate
			switch {
			case c.isMerch:
				v[slot.snag] = rate
			case c.isOther:
				v[slot.snag] = rate * tp.BranchSnagSplit
				v[slot.fast] = rate * (1 - tp.BranchSnagSplit)
			case c.hasSplits && ci%5 == 3:
				v[slot.fast] = rate * tp.CoarseRootAGSplit
				v[slot.below] = rate * (1 - tp.CoarseRootAGSplit)
			case c.hasSplits:
				v[slot.fast] = rate * tp.FineRootAGSplit
				v[slot.below] = rate * (1 - tp.FineRootAGSplit)
			default:
				v[slot.fast] = rate
			}
		}
		for si, sp := range t.snags {
			slot := t.snagSlots[si]
			rate := tp.StemSnagTurnover
			if sp.idx == t.components[2].snagIdx || sp.idx == t.components[7].snagIdx {
				rate = tp.BranchSnagTurnover
			}
			if rate > 1 {
				rate = 1
			}
			v[slot.diag] = 1 - rate
			v[slot.fast] = rate
		}
		values[s] = v
	}

	if err := store.SetRepeating(handle, flux.Turnover, p.Len(), t.coords, values, standTo); err != nil {
		return fcarbon.NewError(op, fcarbon.Shape, "%v", err)
	}
	return nil
}
