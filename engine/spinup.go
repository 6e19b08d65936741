package engine

import (
	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/disturbance"
	"github.com/js-arias/fcarbon/kernel"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/poolset"
	"github.com/js-arias/fcarbon/spinup"
	"github.com/js-arias/fcarbon/standstate"
)

// SpinupInput carries the per-stand bootstrap parameters spinup needs:
// the historical and last-pass disturbance types, rotation bounds, and
// the inventory's final age and regeneration delay, all normally read
// from the same inventory records used to seed [standstate.Inventory].
type SpinupInput struct {
	HistoricalType []int
	LastPassType   []int
	MinRotations   []int
	MaxRotations   []int
	FinalAge       []int
	DelaySteps     []int

	// ReturnIntervalCoefOf selects which spatial unit's coefficient
	// table [spinup.ReturnIntervalModel.Draw] draws a return
	// interval from, keyed the same way as e.spatialUnit.
	ReturnIntervalCoefOf func(stand int) (spatialUnit int)
}

// Spinup runs every stand's [spinup.Stand] bootstrap automaton to
// completion, applying the same annual operation schedule as [Step]
// each iteration but driven by the spinup state machine's own
// disturbance and enablement decisions instead of a caller-supplied
// step. It returns the per-stand ending age and last disturbance type,
// the inputs to [standstate.InitializeLandState] for stands that did
// not skip spinup.
func (e *Engine) Spinup(in SpinupInput) ([]standstate.Inventory, error) {
	const op = "engine.Spinup"
	n := e.N()
	if len(in.HistoricalType) != n || len(in.LastPassType) != n {
		return nil, fcarbon.NewError(op, fcarbon.Shape, "spinup input length mismatch against %d stands", n)
	}

	slowIdx, ok := e.pools.Index(poolset.AboveGroundSlow)
	if !ok {
		return nil, fcarbon.NewError(op, fcarbon.Configuration, "pool set missing %q", poolset.AboveGroundSlow)
	}
	belowSlowIdx, ok := e.pools.Index(poolset.BelowGroundSlow)
	if !ok {
		return nil, fcarbon.NewError(op, fcarbon.Configuration, "pool set missing %q", poolset.BelowGroundSlow)
	}

	stands := make([]spinup.Stand, n)
	for s := 0; s < n; s++ {
		su := e.spatialUnit[s]
		if in.ReturnIntervalCoefOf != nil {
			su = in.ReturnIntervalCoefOf(s)
		}
		ric, err := e.params.ReturnInterval(su)
		if err != nil {
			return nil, fcarbon.NewError(op, fcarbon.Configuration, "stand %d: %v", s, err)
		}
		interval := e.ri.Draw(e.rng, ric)
		stands[s] = spinup.NewStand(in.HistoricalType[s], in.LastPassType[s], interval, in.MinRotations[s], in.MaxRotations[s], in.FinalAge[s], in.DelaySteps[s])
	}

	for {
		anyEnabled := false
		for s := range stands {
			if stands[s].Enabled() {
				anyEnabled = true
				break
			}
		}
		if !anyEnabled {
			break
		}

		ages := make([]int, n)
		multiplier := make([]float64, n)
		enabled := make([]bool, n)
		events := make([]disturbance.Event, n)
		for s := range stands {
			ages[s] = stands[s].Age
			enabled[s] = stands[s].Enabled()
			if enabled[s] {
				multiplier[s] = 1
			}
			dt, disturb := stands[s].Disturbance()
			events[s] = disturbance.Event{
				DisturbanceType: dt,
				SpatialUnit:     e.spatialUnit[s],
				Disturbed:       disturb,
			}
		}

		annualOps, handles, err := e.buildAnnualOps(ages, multiplier, nil)
		if err != nil {
			e.freeHandles(handles)
			return nil, fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
		}
		distOp, distHandle, err := e.disturbanceOp(events)
		handles = append(handles, distHandle)
		if err != nil {
			e.freeHandles(handles)
			return nil, fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
		}

		e.fm.Zero()
		if err := kernel.ComputeFlux(annualOps, e.pop, e.fm, enabled); err != nil {
			e.freeHandles(handles)
			return nil, fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
		}
		if err := kernel.ComputeFlux([]*matrixop.Operation{distOp}, e.pop, e.fm, enabled); err != nil {
			e.freeHandles(handles)
			return nil, fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
		}
		e.freeHandles(handles)

		for s := range stands {
			if !stands[s].Enabled() {
				continue
			}
			row := e.pop.Row(s)
			stands[s].EndStep(row[slowIdx] + row[belowSlowIdx])
		}
	}

	inventories := make([]standstate.Inventory, n)
	for s := range stands {
		if in.HistoricalType[s] <= 0 && in.LastPassType[s] <= 0 {
			// skipped spinup: keep the construction-time state
			continue
		}
		lastPass := stands[s].HistoricalType
		if stands[s].LastPassType > 0 {
			lastPass = stands[s].LastPassType
		}
		inventories[s] = standstate.Inventory{
			Age:                 stands[s].Age,
			LastPassDisturbance: lastPass,
			DelayParam:          in.DelaySteps[s],
		}
		e.state[s] = standstate.InitializeLandState(inventories[s])
	}
	return inventories, nil
}
