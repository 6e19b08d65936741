// Package decay implements the dead-organic-matter decay operation
// provider: temperature-dependent exponential decay of each DOM pool,
// split between the atmosphere and the next pool in its decay chain,
// using the same repeating-coordinates approach as [growth] and
// [turnover].
package decay

import (
	"math"

	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/params"
	"github.com/js-arias/fcarbon/pool"
	"github.com/js-arias/fcarbon/poolset"
)

// Rate computes the annual proportional decay rate for a DOM pool at a
// given mean annual temperature: rate(T) = min(base_rate *
// exp((T-RefTemp) * ln(Q10)/10), max_rate), the standard Q10
// temperature-response curve used by the reference decay model.
func Rate(p params.DecayParam, meanAnnualTemp float64) float64 {
	r := p.BaseRate * math.Exp((meanAnnualTemp-p.RefTemp)*math.Log(p.Q10)/10)
	if r > p.MaxRate {
		r = p.MaxRate
	}
	if r < 0 {
		r = 0
	}
	if r > 1 {
		r = 1
	}
	return r
}

type poolSlot struct {
	idx            int
	diagSlot       int
	nextSlot       int // -1 if no next pool (decays only to atmosphere)
	atmosphereSlot int
}

// template is the decay coordinate layout, one diagonal entry, an
// atmosphere-bound (pool, CO2) entry, and an optional (pool, next-pool)
// entry per DOM pool named in params. Unlike growth and turnover, the
// set of decaying pools is driven by whatever [params.DecayParam] rows
// a caller supplies, not a fixed topology, so the template is built per
// call from that list rather than from [poolset] constants — except
// for the CO2 sink, which is always the canonical pool set's CO2 pool.
type template struct {
	coords []matrixop.Coord
	slots  []poolSlot
}

func buildTemplate(p *pool.Pools, decayPools []params.DecayParam) (*template, error) {
	co2Idx, ok := p.Index(poolset.CO2)
	if !ok {
		return nil, fcarbon.NewError("decay.buildTemplate", fcarbon.Configuration, "pool set missing %q", poolset.CO2)
	}

	t := &template{}
	for _, dp := range decayPools {
		idx, ok := p.Index(dp.Pool)
		if !ok {
			return nil, fcarbon.NewError("decay.buildTemplate", fcarbon.Configuration, "pool set missing decay pool %q", dp.Pool)
		}
		slot := poolSlot{idx: idx, nextSlot: -1}
		slot.diagSlot = len(t.coords)
		t.coords = append(t.coords, matrixop.Coord{Row: idx, Col: idx})
		slot.atmosphereSlot = len(t.coords)
		t.coords = append(t.coords, matrixop.Coord{Row: idx, Col: co2Idx})
		if dp.Next != "" {
			nidx, ok := p.Index(dp.Next)
			if !ok {
				return nil, fcarbon.NewError("decay.buildTemplate", fcarbon.Configuration, "pool set missing next pool %q", dp.Next)
			}
			slot.nextSlot = len(t.coords)
			t.coords = append(t.coords, matrixop.Coord{Row: idx, Col: nidx})
		}
		t.slots = append(t.slots, slot)
	}
	return t, nil
}

// Input is one stand's decay inputs: the decay parameter rows for its
// spatial unit (identical across stands sharing a unit, but supplied
// per stand so callers needn't pre-group them) and the mean annual
// temperature to evaluate [Rate] at.
type Input struct {
	Params         []params.DecayParam
	MeanAnnualTemp float64
}

// BuildOps fills handle with a decay operation for n stands. Every
// stand's decay parameter list must name the same pools in the same
// order (the normal case: one list per spatial unit, reused across its
// stands), since the repeating-coordinates form requires a shared
// template; a stand list naming a different pool set is an error.
//
// The atmosphere share of each pool's decayed mass is routed to
// [poolset.CO2] as an explicit sink coordinate, so decay is mass-
// conserving across the pool set including the atmosphere pool.
func BuildOps(store *matrixop.Store, handle matrixop.Handle, p *pool.Pools, inputs []Input) error {
	const op = "decay.BuildOps"
	n := len(inputs)
	if n == 0 {
		return fcarbon.NewError(op, fcarbon.Shape, "no stands")
	}
	t, err := buildTemplate(p, inputs[0].Params)
	if err != nil {
		return err
	}

	values := make([][]float64, n)
	standTo := make([]int, n)
	for s, in := range inputs {
		standTo[s] = s
		if len(in.Params) != len(t.slots) {
			return fcarbon.NewError(op, fcarbon.Shape, "stand %d: %d decay params != template %d", s, len(in.Params), len(t.slots))
		}
		v := make([]float64, len(t.coords))
		for i, dp := range in.Params {
			if tp := inputs[0].Params[i]; dp.Pool != tp.Pool || dp.Next != tp.Next {
				return fcarbon.NewError(op, fcarbon.Shape, "stand %d: decay param %d (%q -> %q) != template (%q -> %q)", s, i, dp.Pool, dp.Next, tp.Pool, tp.Next)
			}
			slot := t.slots[i]
			rate := Rate(dp, in.MeanAnnualTemp)
			toAtmosphere := rate * dp.PropToAtmosphere
			toNext := rate - toAtmosphere
			v[slot.diagSlot] = 1 - rate
			v[slot.atmosphereSlot] = toAtmosphere
			if slot.nextSlot >= 0 {
				v[slot.nextSlot] = toNext
			}
		}
		values[s] = v
	}

	if err := store.SetRepeating(handle, flux.Decay, p.Len(), t.coords, values, standTo); err != nil {
		return fcarbon.NewError(op, fcarbon.Shape, "%v", err)
	}
	return nil
}
