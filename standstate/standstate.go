// Package standstate implements per-stand mutable state — age,
// disturbance history, land class, regeneration delay, growth
// eligibility — and the transitions between states driven by a step's
// disturbance and transition-rule assignment.
package standstate

import "github.com/js-arias/fcarbon"

// LandClass is one UNFCCC-style land class: an id plus whether it
// counts as non-forest. [AdvanceStandState] does not read NonForest:
// any change of ID resets the time-since-land-class-change counter.
type LandClass struct {
	ID        int
	NonForest bool
}

// TransitionRule rewrites a stand's classifier values and, optionally,
// its age, applied when a disturbance carries a transition-rule id
// greater than zero. Values holds, per classifier column, either a
// target value id or -1 to keep the stand's current value
// (classifier-set-to-classifier-set substitution).
type TransitionRule struct {
	ID       int
	Values   []int
	ResetAge bool
	Age      int
}

// State is one stand's mutable state between steps.
type State struct {
	Age                    int
	LastDisturbanceType    int
	TimeSinceLastDisturbance int
	LandClass              int
	TimeSinceLandClassChange int
	RegenerationDelay      int
	GrowthEnabled          bool
	Enabled                bool

	// DelayParam is the regeneration-delay length assigned on a
	// stand-replacing disturbance, carried per stand since it may
	// vary by disturbance type or spatial unit.
	DelayParam int
}

// Which disturbance types reset stand age is not hardcoded here; callers
// supply the classification via the standReplacing parameter of
// [AdvanceStandState].

// AdvanceStandState applies one step's disturbance and transition-rule
// effects to s in place, called once per step before any operation
// matrices are built.
//
//   - standReplacing reports whether disturbanceType resets the
//     stand's age (a stand-replacing disturbance).
//   - rule, if non-nil and disturbanceType > 0, carries the
//     transition-rule substitution to apply.
//   - landClassOf maps a disturbance type to the land-class id it
//     transitions to, or (0, false) if the disturbance carries no
//     land-class change.
//   - classifiers is the stand's classifier row, mutated in place when
//     rule applies.
func AdvanceStandState(s *State, disturbanceType int, standReplacing bool, rule *TransitionRule, landClassOf func(disturbanceType int) (LandClass, bool), classifiers []int) error {
	const op = "standstate.AdvanceStandState"
	if s == nil {
		return fcarbon.NewError(op, fcarbon.Shape, "nil state")
	}

	if disturbanceType > 0 {
		if standReplacing {
			if rule != nil && rule.ResetAge {
				s.Age = rule.Age
			} else {
				s.Age = 0
			}
			s.RegenerationDelay = s.DelayParam
			s.LastDisturbanceType = disturbanceType
			s.TimeSinceLastDisturbance = 0
		}
		if lc, ok := landClassOf(disturbanceType); ok {
			if lc.ID != s.LandClass {
				s.LandClass = lc.ID
				s.TimeSinceLandClassChange = 0
			}
		}
		if rule != nil && rule.ID > 0 {
			if len(rule.Values) != len(classifiers) {
				return fcarbon.NewError(op, fcarbon.Shape, "transition rule %d: %d values != %d classifiers", rule.ID, len(rule.Values), len(classifiers))
			}
			for i, v := range rule.Values {
				if v >= 0 {
					classifiers[i] = v
				}
			}
		}
	}

	s.GrowthEnabled = s.RegenerationDelay <= 0
	return nil
}

// EndStep advances age and the time-since counters at the end of a
// step, after every operation has been applied.
func EndStep(s *State) {
	if s.RegenerationDelay <= 0 {
		s.Age++
	} else {
		s.RegenerationDelay--
	}
	s.TimeSinceLastDisturbance++
	s.TimeSinceLandClassChange++
}

// Inventory is one stand's starting record, as supplied by the caller
// for [InitializeLandState]: the fields an inventory normally carries
// before spinup runs.
type Inventory struct {
	Age                 int
	LastPassDisturbance int
	DelayParam          int
	LandClass           int
	Afforestation       bool
	AfforestationPreType string
}

// SoilInit is one starting soil-pool value for an afforestation
// pre-type. Nothing in this package reads or applies it:
// [InitializeLandState] does not initialize soil pools.
type SoilInit struct {
	Pool  string
	Value float64
}

// InitializeLandState derives a stand's starting [State] from its
// inventory record, called once per stand after spinup completes (or,
// for stands excluded from spinup, directly at engine construction).
// It sets no pool values, and it does not read Inventory.Afforestation
// or Inventory.AfforestationPreType: afforestation stands start from
// the same state as any other stand, with no pre-type soil pools.
func InitializeLandState(inv Inventory) State {
	s := State{
		Age:                      inv.Age,
		LastDisturbanceType:      inv.LastPassDisturbance,
		TimeSinceLastDisturbance: 0,
		LandClass:                inv.LandClass,
		TimeSinceLandClassChange: 0,
		RegenerationDelay:        inv.DelayParam,
		DelayParam:               inv.DelayParam,
		Enabled:                  true,
	}
	s.GrowthEnabled = s.RegenerationDelay <= 0
	return s
}
