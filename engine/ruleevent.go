package engine

import (
	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/disturbance"
	"github.com/js-arias/fcarbon/event"
	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/kernel"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/pool"
	"github.com/js-arias/fcarbon/poolset"
)

// RuleBasedEventInput supplies the per-stand values a rule-based event
// needs beyond what the engine already tracks and computes itself:
// current area, and an optional age override for the age-based sorts.
type RuleBasedEventInput struct {
	Area []float64

	// Ages supplies, for a stand index, its (softwood, hardwood)
	// age pair for the age-based sorts; nil uses the stand's
	// tracked age for both.
	Ages func(standIdx int) (sw, hw int)
}

// Flux indicator names used internally by [Engine.RuleBasedEvent] to
// score the MERCHCSORT_* sorts and merch-carbon targets. They are not
// part of any caller-configured [flux.Config] and never appear in
// [Engine.Flux].
const (
	DisturbanceSoftProduction = "DisturbanceSoftProduction"
	DisturbanceHardProduction = "DisturbanceHardProduction"
	DisturbanceDOMProduction  = "DisturbanceDOMProduction"
)

func componentIndices(p *pool.Pools, comps []poolset.Component) ([]int, error) {
	out := make([]int, len(comps))
	for i, c := range comps {
		idx, ok := p.Index(c.Pool)
		if !ok {
			return nil, fcarbon.NewError("engine.componentIndices", fcarbon.Configuration, "pool set missing %q", c.Pool)
		}
		out[i] = idx
	}
	return out, nil
}

// domPoolIndices returns the dead-organic-matter pools a disturbance's
// DOM production is drawn from: the same decay chain and snag pools
// [decay] and [turnover] route live biomass and decaying mass into.
func domPoolIndices(p *pool.Pools) ([]int, error) {
	names := []string{
		poolset.AboveGroundVeryFast, poolset.BelowGroundVeryFast,
		poolset.AboveGroundFast, poolset.BelowGroundFast,
		poolset.Medium, poolset.AboveGroundSlow, poolset.BelowGroundSlow,
		poolset.SWStemSnag, poolset.SWBranchSnag, poolset.HWStemSnag, poolset.HWBranchSnag,
	}
	out := make([]int, len(names))
	for i, n := range names {
		idx, ok := p.Index(n)
		if !ok {
			return nil, fcarbon.NewError("engine.domPoolIndices", fcarbon.Configuration, "pool set missing %q", n)
		}
		out[i] = idx
	}
	return out, nil
}

// disturbanceProduction computes, for every stand, the softwood,
// hardwood, and DOM production a disturbance of rule.DisturbanceType
// would yield: rule.DisturbanceType's matrix applied in
// flux-accumulation mode to a clone of the current pool state, summed
// over the softwood components, hardwood components, and DOM pools
// respectively into the Products sink. Rules that never consult
// production (neither a MERCHCSORT_* sort nor a merch-carbon target)
// skip the computation and get all zeros.
func (e *Engine) disturbanceProduction(rule event.Rule) (soft, hard, dom []float64, err error) {
	const op = "engine.disturbanceProduction"
	n := e.N()
	soft, hard, dom = make([]float64, n), make([]float64, n), make([]float64, n)
	if !rule.Sort.Production() && rule.Target != event.MerchCarbon {
		return soft, hard, dom, nil
	}

	softIdx, err := componentIndices(e.pools, poolset.SoftwoodComponents())
	if err != nil {
		return nil, nil, nil, err
	}
	hardIdx, err := componentIndices(e.pools, poolset.HardwoodComponents())
	if err != nil {
		return nil, nil, nil, err
	}
	domIdx, err := domPoolIndices(e.pools)
	if err != nil {
		return nil, nil, nil, err
	}
	productsIdx, ok := e.pools.Index(poolset.Products)
	if !ok {
		return nil, nil, nil, fcarbon.NewError(op, fcarbon.Configuration, "pool set missing %q", poolset.Products)
	}

	cfg, err := flux.NewConfig([]flux.Indicator{
		{Name: DisturbanceSoftProduction, Process: flux.Disturbance, Sources: softIdx, Sinks: []int{productsIdx}},
		{Name: DisturbanceHardProduction, Process: flux.Disturbance, Sources: hardIdx, Sinks: []int{productsIdx}},
		{Name: DisturbanceDOMProduction, Process: flux.Disturbance, Sources: domIdx, Sinks: []int{productsIdx}},
	})
	if err != nil {
		return nil, nil, nil, fcarbon.NewError(op, fcarbon.Configuration, "%v", err)
	}

	clone := pool.NewPopulation(e.pools, n)
	for s := 0; s < n; s++ {
		copy(clone.Row(s), e.pop.Row(s))
	}

	events := make([]disturbance.Event, n)
	for s := 0; s < n; s++ {
		events[s] = disturbance.Event{
			DisturbanceType: rule.DisturbanceType,
			SpatialUnit:     e.spatialUnit[s],
			Disturbed:       rule.DisturbanceType > 0,
		}
	}
	distOp, handle, err := e.disturbanceOp(events)
	defer e.store.Free(handle)
	if err != nil {
		return nil, nil, nil, fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}

	fm := flux.NewMatrix(cfg, n)
	if err := kernel.ComputeFlux([]*matrixop.Operation{distOp}, clone, fm, nil); err != nil {
		return nil, nil, nil, fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}

	softCol, _ := cfg.Index(DisturbanceSoftProduction)
	hardCol, _ := cfg.Index(DisturbanceHardProduction)
	domCol, _ := cfg.Index(DisturbanceDOMProduction)
	for s := 0; s < n; s++ {
		soft[s] = fm.At(s, softCol)
		hard[s] = fm.At(s, hardCol)
		dom[s] = fm.At(s, domCol)
	}
	return soft, hard, dom, nil
}

// RuleBasedEvent evaluates rule against the engine's current state and
// applies the resulting split: a stand assigned proportion 1.0 is
// marked disturbed outright (its disturbance type recorded in the
// returned slice, for the caller to pass into the next [Step] call);
// a stand assigned a fractional proportion is split in place — a clone is
// appended to every per-stand slice the engine owns (pools,
// classifiers, flux, state, spatial unit) carrying the disturbed
// share of the area, while the original index keeps the undisturbed
// share.
//
// For a MERCHCSORT_* sort or a merch-carbon target, the per-stand
// production values [event.Run] needs are computed internally via
// [Engine.disturbanceProduction] rather than supplied by the caller.
//
// RuleBasedEvent returns the updated area slice (grown by one entry
// per split), the disturbance type recorded for each stand index that
// received any disturbance (by the returned area slice's indexing),
// and the event's allocation statistics.
func (e *Engine) RuleBasedEvent(rule event.Rule, in RuleBasedEventInput) ([]float64, []int, event.Stats, error) {
	const op = "engine.RuleBasedEvent"
	n := e.N()
	if len(in.Area) != n {
		return nil, nil, event.Stats{}, fcarbon.NewError(op, fcarbon.Shape, "%d areas != %d stands", len(in.Area), n)
	}

	soft, hard, dom, err := e.disturbanceProduction(rule)
	if err != nil {
		return nil, nil, event.Stats{}, err
	}

	stands := make([]event.StandInput, n)
	for s := 0; s < n; s++ {
		row := e.pop.Row(s)
		m := make(map[string]float64, e.pools.Len())
		for i := 0; i < e.pools.Len(); i++ {
			m[e.pools.Name(i)] = row[i]
		}
		stands[s] = event.StandInput{
			Classifiers:    e.cls.Row(s),
			Row:            m,
			Area:           in.Area[s],
			SoftProduction: soft[s],
			HardProduction: hard[s],
			DOMProduction:  dom[s],
		}
	}

	ages := in.Ages
	if ages == nil {
		ages = func(s int) (int, int) { return e.state[s].Age, e.state[s].Age }
	}

	assignments, stats, err := event.Run(rule, stands, ages, e.rng)
	if err != nil {
		return nil, nil, event.Stats{}, err
	}

	areas := append([]float64(nil), in.Area...)
	disturbanceOf := make([]int, n)

	for _, a := range assignments {
		if a.Proportion >= 1 {
			disturbanceOf[a.StandIndex] = rule.DisturbanceType
			continue
		}
		src := a.StandIndex
		dst := e.pop.Grow(1)
		e.pop.CopyRow(dst, src)
		e.cls.Grow(1, src)
		e.fm.Grow(1)
		e.state = append(e.state, e.state[src])
		e.spatialUnit = append(e.spatialUnit, e.spatialUnit[src])

		disturbedArea := areas[src] * a.Proportion
		areas[src] -= disturbedArea
		areas = append(areas, disturbedArea)
		disturbanceOf = append(disturbanceOf, rule.DisturbanceType)
	}

	return areas, disturbanceOf, stats, nil
}
