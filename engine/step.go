package engine

import (
	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/disturbance"
	"github.com/js-arias/fcarbon/kernel"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/standstate"
)

// StepInput carries the per-stand decisions a caller has already made
// for this step — which disturbance fires, whether it is
// stand-replacing, any transition-rule substitution, and a land-class
// mapping — leaving the engine to apply their numeric consequences.
type StepInput struct {
	// Disturbance is the disturbance-type id for each stand this
	// step; 0 means no disturbance.
	Disturbance []int

	// StandReplacing reports whether a disturbance type resets
	// stand age. Required when any entry of Disturbance is
	// positive.
	StandReplacing func(disturbanceType int) bool

	// TransitionRule is, per stand, the transition-rule
	// substitution to apply when its disturbance fires, or nil.
	TransitionRule []*standstate.TransitionRule

	// LandClassOf maps a disturbance type to the land class it
	// transitions to. Required when any entry of Disturbance is
	// positive.
	LandClassOf func(disturbanceType int) (standstate.LandClass, bool)

	// MeanAnnualTemp optionally overrides the spatial unit's
	// default mean annual temperature per stand; nil, or a NaN
	// entry, falls back to the spatial unit's default.
	MeanAnnualTemp []float64
}

// Step advances every stand one annual time step: stand state
// transitions, then growth/turnover/overmature-decline/growth/decay in
// the reference model's split-step order, then disturbance, then the
// end-of-step age and counter advance. The flux accumulator is zeroed
// and refilled; the population is mutated in place.
func (e *Engine) Step(in StepInput) error {
	const op = "engine.Step"
	n := e.N()
	if len(in.Disturbance) != n {
		return fcarbon.NewError(op, fcarbon.Shape, "%d disturbance entries != %d stands", len(in.Disturbance), n)
	}

	for s := 0; s < n; s++ {
		var rule *standstate.TransitionRule
		if in.TransitionRule != nil {
			rule = in.TransitionRule[s]
		}
		if in.Disturbance[s] > 0 {
			if err := standstate.AdvanceStandState(&e.state[s], in.Disturbance[s], in.StandReplacing(in.Disturbance[s]), rule, in.LandClassOf, e.cls.Row(s)); err != nil {
				return fcarbon.NewError(op, fcarbon.Domain, "stand %d: %v", s, err)
			}
		} else {
			e.state[s].GrowthEnabled = e.state[s].RegenerationDelay <= 0
		}
	}

	ages := make([]int, n)
	multiplier := make([]float64, n)
	enabled := make([]bool, n)
	for s := 0; s < n; s++ {
		ages[s] = e.state[s].Age
		enabled[s] = e.state[s].Enabled
		if e.state[s].Enabled && e.state[s].GrowthEnabled {
			multiplier[s] = 1
		}
	}

	annualOps, handles, err := e.buildAnnualOps(ages, multiplier, in.MeanAnnualTemp)
	if err != nil {
		e.freeHandles(handles)
		return fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}

	events := make([]disturbance.Event, n)
	for s := 0; s < n; s++ {
		events[s] = disturbance.Event{
			DisturbanceType: in.Disturbance[s],
			SpatialUnit:     e.spatialUnit[s],
			Disturbed:       in.Disturbance[s] > 0,
		}
	}
	distOp, distHandle, err := e.disturbanceOp(events)
	handles = append(handles, distHandle)
	if err != nil {
		e.freeHandles(handles)
		return fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}

	e.fm.Zero()
	if err := kernel.ComputeFlux(annualOps, e.pop, e.fm, enabled); err != nil {
		e.freeHandles(handles)
		return fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}

	distEnabled := enabled
	if e.cfg.DisturbDisabledStands {
		distEnabled = allTrue(n)
	}
	if err := kernel.ComputeFlux([]*matrixop.Operation{distOp}, e.pop, e.fm, distEnabled); err != nil {
		e.freeHandles(handles)
		return fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}

	e.freeHandles(handles)

	for s := 0; s < n; s++ {
		standstate.EndStep(&e.state[s])
	}
	return nil
}
