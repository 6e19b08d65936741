package growth

import (
	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/classifier"
	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/params"
	"github.com/js-arias/fcarbon/pool"
	"github.com/js-arias/fcarbon/poolset"
)

// template holds the coordinate positions shared by every stand's
// growth or decline matrix, resolved once against a pool registry.
type template struct {
	inputIdx   int
	components []component

	// growthCoords: one (Input, component) entry per component.
	growthCoords []matrixop.Coord

	// declineCoords: per component, up to a snag entry, a fast
	// entry, a below-fast entry, and its own diagonal retention
	// entry, in a fixed slot layout so every stand's value slice
	// lines up with the same coordinates.
	declineCoords []matrixop.Coord
	declineSlots  []declineSlot
}

type declineSlot struct {
	comp            int
	diagSlot        int
	snagSlot        int // -1 if none
	fastSlot        int // -1 if none
	belowSlot       int // -1 if none
	belowAGFraction float64
}

func buildTemplate(p *pool.Pools) (*template, error) {
	inputIdx, ok := p.Index(poolset.Input)
	if !ok {
		return nil, fcarbon.NewError("growth.buildTemplate", fcarbon.Configuration, "pool set missing %q", poolset.Input)
	}
	comps, err := resolveComponents(p, append(poolset.SoftwoodComponents(), poolset.HardwoodComponents()...))
	if err != nil {
		return nil, err
	}

	t := &template{inputIdx: inputIdx, components: comps}
	for _, c := range comps {
		t.growthCoords = append(t.growthCoords, matrixop.Coord{Row: inputIdx, Col: c.idx})
	}

	for ci, c := range comps {
		slot := declineSlot{comp: ci, snagSlot: -1, fastSlot: -1, belowSlot: -1}
		slot.diagSlot = len(t.declineCoords)
		t.declineCoords = append(t.declineCoords, matrixop.Coord{Row: c.idx, Col: c.idx})
		if c.snagIdx >= 0 {
			slot.snagSlot = len(t.declineCoords)
			t.declineCoords = append(t.declineCoords, matrixop.Coord{Row: c.idx, Col: c.snagIdx})
		}
		if c.fastIdx >= 0 {
			slot.fastSlot = len(t.declineCoords)
			t.declineCoords = append(t.declineCoords, matrixop.Coord{Row: c.idx, Col: c.fastIdx})
		}
		if c.belowIdx >= 0 {
			slot.belowSlot = len(t.declineCoords)
			t.declineCoords = append(t.declineCoords, matrixop.Coord{Row: c.idx, Col: c.belowIdx})
		}
		t.declineSlots = append(t.declineSlots, slot)
	}
	return t, nil
}

// Input is one stand's growth inputs: its age, its resolved curve (nil
// disables growth for the stand), a growth multiplier (it scales the
// whole curve delta, so 0 disables both growth and overmature
// decline for the stand), and the split fractions used to route
// overmature decline (matching the spatial unit's turnover splits, the
// only place the two providers share a parameter).
type Input struct {
	Age        int
	Curve      *Curve
	Multiplier float64
	Splits     params.TurnoverParam
}

// BuildOps fills the growth and overmature-decline handles in store
// for n stands, using the repeating-coordinates form: every stand
// shares the same (Input, component) and (component, DOM) coordinate
// template, differing only in the per-stand values.
//
// row(s) holds the stand's current pool state, read before growth is
// applied, so the growth delta and decline fraction are evaluated
// against actual standing biomass rather than the previous step's
// target.
func BuildOps(store *matrixop.Store, growthHandle, declineHandle matrixop.Handle, p *pool.Pools, pop *pool.Population, inputs []Input, pstore *params.Store, cfg Config) error {
	const op = "growth.BuildOps"
	n := len(inputs)
	if pop.N() != n {
		return fcarbon.NewError(op, fcarbon.Shape, "%d inputs != %d stands", n, pop.N())
	}
	t, err := buildTemplate(p)
	if err != nil {
		return err
	}

	growthValues := make([][]float64, n)
	declineValues := make([][]float64, n)
	standTo := make([]int, n)
	for s := range standTo {
		standTo[s] = s
	}

	for s, in := range inputs {
		row := pop.Row(s)
		tg, err := targets(in.Curve, in.Age, cfg.Smooth, pstore)
		if err != nil {
			return fcarbon.NewError(op, fcarbon.Numeric, "stand %d: %v", s, err)
		}
		mult := in.Multiplier

		gv := make([]float64, len(t.growthCoords))
		dv := make([]float64, len(t.declineCoords))
		for ci, c := range t.components {
			current := row[c.idx]
			delta := (tg[ci] - current) * mult
			if delta > 0 {
				gv[ci] = delta
			}

			loss := 0.0
			if delta < 0 {
				loss = -delta
			}
			slot := t.declineSlots[ci]
			if loss <= 0 || current <= 0 {
				dv[slot.diagSlot] = 1
				continue
			}
			rate := loss / current
			if rate > 1 {
				rate = 1
			}
			retained := 1 - rate
			dv[slot.diagSlot] = retained
			switch {
			case slot.snagSlot >= 0 && slot.fastSlot >= 0:
				// Branch/other component: split between snag and
				// above-ground-fast using the spatial unit's
				// branch-snag split.
				dv[slot.snagSlot] = rate * in.Splits.BranchSnagSplit
				dv[slot.fastSlot] = rate * (1 - in.Splits.BranchSnagSplit)
			case slot.snagSlot >= 0:
				dv[slot.snagSlot] = rate
			case slot.belowSlot >= 0:
				ag := agSplit(ci, in.Splits)
				dv[slot.fastSlot] = rate * ag
				dv[slot.belowSlot] = rate * (1 - ag)
			case slot.fastSlot >= 0:
				dv[slot.fastSlot] = rate
			}
		}
		growthValues[s] = gv
		declineValues[s] = dv
	}

	if err := store.SetRepeating(growthHandle, flux.Growth, p.Len(), t.growthCoords, growthValues, standTo); err != nil {
		return fcarbon.NewError(op, fcarbon.Shape, "%v", err)
	}
	if err := store.SetRepeating(declineHandle, flux.Growth, p.Len(), t.declineCoords, declineValues, standTo); err != nil {
		return fcarbon.NewError(op, fcarbon.Shape, "%v", err)
	}
	return nil
}

// agSplit picks the above-ground fraction for a root component: the
// coarse-root split for components 3 and 8 (softwood/hardwood coarse
// roots), the fine-root split otherwise, by the fixed ordering in
// [poolset.SoftwoodComponents]/[poolset.HardwoodComponents].
func agSplit(componentIndex int, splits params.TurnoverParam) float64 {
	if componentIndex%5 == 3 {
		return splits.CoarseRootAGSplit
	}
	return splits.FineRootAGSplit
}

// filterFromValues builds a classifier filter matching an exact set of
// (classifier, value) pairs, used by callers assembling a [CurveSet]
// from a yield-table keyed by classifier values.
func filterFromValues(set *classifier.Set, exact map[string]string) (classifier.Filter, error) {
	var f classifier.Filter
	for name, val := range exact {
		ci, ok := set.Index(name)
		if !ok {
			return classifier.Filter{}, fcarbon.NewError("growth.filterFromValues", fcarbon.Configuration, "unknown classifier %q", name)
		}
		vid, ok := set.Classifier(ci).ValueID(val)
		if !ok {
			return classifier.Filter{}, fcarbon.NewError("growth.filterFromValues", fcarbon.Configuration, "classifier %q: unknown value %q", name, val)
		}
		f.Conditions = append(f.Conditions, classifier.ExactCondition(ci, vid))
	}
	return f, nil
}
