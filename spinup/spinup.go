// Package spinup implements the per-stand bootstrap state machine that
// drives a freshly initialized stand through repeated historical
// disturbance rotations to a slow-pool convergence criterion, then a
// last-pass disturbance and regrowth to the stand's declared inventory
// age, before normal annual stepping begins.
package spinup

import (
	"math"

	"github.com/js-arias/fcarbon"
)

// Mode is one state of the per-stand spinup automaton.
type Mode int

// Spinup modes, in the order a stand normally visits them.
const (
	HistoricalRotation Mode = iota
	HistoricalDisturbance
	LastPassDisturbance
	GrowToFinalAge
	Delay
	Done
)

func (m Mode) String() string {
	switch m {
	case HistoricalRotation:
		return "historical-rotation"
	case HistoricalDisturbance:
		return "historical-disturbance"
	case LastPassDisturbance:
		return "last-pass-disturbance"
	case GrowToFinalAge:
		return "grow-to-final-age"
	case Delay:
		return "delay"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Stand is one stand's spinup bookkeeping, tracked alongside (but
// separate from) its [standstate.State], since most of these fields
// are discarded once spinup completes.
type Stand struct {
	Mode Mode

	Age             int
	Rotation        int
	MinRotations    int
	MaxRotations    int
	ReturnInterval  int
	HistoricalType  int
	LastPassType    int
	FinalAge        int
	DelaySteps      int
	delayRemaining  int

	ThisRotationSlow float64
	LastRotationSlow float64
}

// NewStand starts a stand in [HistoricalRotation], or directly in
// [Done] when neither a historical nor a last-pass disturbance type is
// configured (Open Question: a stand with no historical rotation and
// no last-pass event has nothing for spinup to do, so it is done
// immediately with pools unchanged).
func NewStand(historicalType, lastPassType, returnInterval, minRotations, maxRotations, finalAge, delaySteps int) Stand {
	st := Stand{
		HistoricalType: historicalType,
		LastPassType:   lastPassType,
		ReturnInterval: returnInterval,
		MinRotations:   minRotations,
		MaxRotations:   maxRotations,
		FinalAge:       finalAge,
		DelaySteps:     delaySteps,
		delayRemaining: delaySteps,
	}
	if historicalType <= 0 && lastPassType <= 0 {
		st.Mode = Done
		return st
	}
	st.Mode = HistoricalRotation
	return st
}

// converged reports whether at least minRotations rotations have
// completed and the slow-pool totals of two consecutive rotations are
// close enough to stop historical rotation (the MaxRotations cap is
// applied separately, by [Stand.EndStep]). The ratio test
// is guarded against a zero/zero division: two all-zero rotations
// count as converged once the minimum rotation count is met.
func converged(rotation, minRotations int, last, this float64) bool {
	if rotation < minRotations {
		return false
	}
	mean := (last + this) / 2
	if mean == 0 {
		return true
	}
	return math.Abs(last-this)/mean < 0.001
}

// Disturbance reports the disturbance type, if any, to apply for this
// step given the stand's current mode, without
// mutating the stand (the decision must be made before the step's
// operations are built, but the mode transition it implies only
// commits once the step's result is known, via [EndStep]).
func (s *Stand) Disturbance() (disturbanceType int, disturb bool) {
	switch s.Mode {
	case HistoricalRotation:
		if s.Age >= s.ReturnInterval-1 {
			return s.HistoricalType, s.HistoricalType > 0
		}
		return 0, false
	case LastPassDisturbance:
		return s.LastPassType, s.LastPassType > 0
	default:
		return 0, false
	}
}

// Enabled reports whether the stand still needs operations applied
// this step; a stand in [Done] contributes nothing further to spinup.
func (s *Stand) Enabled() bool {
	return s.Mode != Done
}

// EndStep commits the mode transition for this step, given the
// post-operation slow-pool total (the sum of the above- and
// below-ground slow DOM pools) when the step disturbed the stand
// under [HistoricalRotation] or [LastPassDisturbance].
func (s *Stand) EndStep(slowPoolTotal float64) {
	switch s.Mode {
	case HistoricalRotation:
		if _, disturbed := s.Disturbance(); disturbed {
			s.Mode = HistoricalDisturbance
			s.ThisRotationSlow = slowPoolTotal
			if converged(s.Rotation, s.MinRotations, s.LastRotationSlow, s.ThisRotationSlow) || s.Rotation+1 >= s.MaxRotations {
				s.Mode = LastPassDisturbance
				s.Age = 0
			} else {
				s.LastRotationSlow = s.ThisRotationSlow
				s.Rotation++
				s.Age = 0
				s.Mode = HistoricalRotation
			}
			return
		}
		s.Age++
	case LastPassDisturbance:
		s.Age = 0
		if s.Age >= s.FinalAge {
			s.Mode = Done
			return
		}
		s.Mode = GrowToFinalAge
	case GrowToFinalAge:
		s.Age++
		if s.Age >= s.FinalAge {
			if s.delayRemaining > 0 {
				s.Mode = Delay
			} else {
				s.Mode = Done
			}
		}
	case Delay:
		if s.delayRemaining > 0 {
			s.delayRemaining--
		}
		if s.delayRemaining <= 0 {
			s.Mode = Done
		}
	case Done:
		// no-op: a done stand is excluded from further steps.
	}
}

// CheckInputs validates a stand's spinup parameters at construction,
// surfacing malformed configuration (negative rotation caps, a zero
// return interval with a positive historical type) as a Configuration
// error instead of looping indefinitely.
func CheckInputs(historicalType, returnInterval, minRotations, maxRotations int) error {
	const op = "spinup.CheckInputs"
	if historicalType > 0 && returnInterval <= 0 {
		return fcarbon.NewError(op, fcarbon.Configuration, "historical disturbance type %d: non-positive return interval %d", historicalType, returnInterval)
	}
	if minRotations < 0 || maxRotations < 0 {
		return fcarbon.NewError(op, fcarbon.Configuration, "negative rotation bound: min %d, max %d", minRotations, maxRotations)
	}
	if maxRotations > 0 && minRotations > maxRotations {
		return fcarbon.NewError(op, fcarbon.Configuration, "min rotations %d > max rotations %d", minRotations, maxRotations)
	}
	return nil
}
