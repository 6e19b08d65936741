package standstate_test

import (
	"testing"

	"github.com/js-arias/fcarbon/standstate"
)

func TestInitializeLandState(t *testing.T) {
	s := standstate.InitializeLandState(standstate.Inventory{Age: 40, LastPassDisturbance: 3, DelayParam: 0, LandClass: 1})
	if s.Age != 40 {
		t.Errorf("got age %d, want 40", s.Age)
	}
	if !s.Enabled {
		t.Errorf("a freshly initialized stand should be enabled")
	}
	if !s.GrowthEnabled {
		t.Errorf("growth should be enabled when regeneration delay is 0")
	}
}

func TestInitializeLandStateWithDelay(t *testing.T) {
	s := standstate.InitializeLandState(standstate.Inventory{DelayParam: 3})
	if s.GrowthEnabled {
		t.Errorf("growth should be disabled while a regeneration delay is pending")
	}
}

func TestAdvanceStandStateStandReplacing(t *testing.T) {
	s := standstate.State{Age: 50, DelayParam: 2}
	landClassOf := func(int) (standstate.LandClass, bool) { return standstate.LandClass{}, false }
	row := []int{0, 0}

	if err := standstate.AdvanceStandState(&s, 1, true, nil, landClassOf, row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Age != 0 {
		t.Errorf("a stand-replacing disturbance should reset age, got %d", s.Age)
	}
	if s.RegenerationDelay != 2 {
		t.Errorf("got regeneration delay %d, want 2 (from DelayParam)", s.RegenerationDelay)
	}
	if s.GrowthEnabled {
		t.Errorf("growth should be disabled immediately after a stand-replacing disturbance with a pending delay")
	}
	if s.LastDisturbanceType != 1 {
		t.Errorf("got last disturbance type %d, want 1", s.LastDisturbanceType)
	}
}

func TestAdvanceStandStateNonReplacingKeepsAge(t *testing.T) {
	s := standstate.State{Age: 50}
	landClassOf := func(int) (standstate.LandClass, bool) { return standstate.LandClass{}, false }
	if err := standstate.AdvanceStandState(&s, 2, false, nil, landClassOf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Age != 50 {
		t.Errorf("a non-stand-replacing disturbance should not reset age, got %d", s.Age)
	}
}

func TestAdvanceStandStateTransitionRuleRewritesClassifiers(t *testing.T) {
	s := standstate.State{}
	landClassOf := func(int) (standstate.LandClass, bool) { return standstate.LandClass{}, false }
	row := []int{0, 5}
	rule := &standstate.TransitionRule{ID: 7, Values: []int{-1, 2}}

	if err := standstate.AdvanceStandState(&s, 1, true, rule, landClassOf, row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row[0] != 0 {
		t.Errorf("a -1 value should leave the classifier column unchanged, got %d", row[0])
	}
	if row[1] != 2 {
		t.Errorf("got %d, want 2 (rewritten by the transition rule)", row[1])
	}
}

func TestAdvanceStandStateTransitionRuleShapeMismatch(t *testing.T) {
	s := standstate.State{}
	landClassOf := func(int) (standstate.LandClass, bool) { return standstate.LandClass{}, false }
	rule := &standstate.TransitionRule{ID: 1, Values: []int{1, 2}}
	if err := standstate.AdvanceStandState(&s, 1, true, rule, landClassOf, []int{0}); err == nil {
		t.Fatalf("expected error when rule.Values length disagrees with the classifier row")
	}
}

func TestAdvanceStandStateLandClassChange(t *testing.T) {
	s := standstate.State{LandClass: 0, TimeSinceLandClassChange: 10}
	landClassOf := func(int) (standstate.LandClass, bool) { return standstate.LandClass{ID: 5, NonForest: true}, true }
	if err := standstate.AdvanceStandState(&s, 1, true, nil, landClassOf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.LandClass != 5 {
		t.Errorf("got land class %d, want 5", s.LandClass)
	}
	if s.TimeSinceLandClassChange != 0 {
		t.Errorf("got %d, want 0 (reset on change)", s.TimeSinceLandClassChange)
	}
}

func TestEndStepAdvancesAgeOrDelay(t *testing.T) {
	s := standstate.State{Age: 10}
	standstate.EndStep(&s)
	if s.Age != 11 {
		t.Errorf("got age %d, want 11", s.Age)
	}
	if s.TimeSinceLastDisturbance != 1 {
		t.Errorf("got %d, want 1", s.TimeSinceLastDisturbance)
	}

	d := standstate.State{Age: 10, RegenerationDelay: 2}
	standstate.EndStep(&d)
	if d.Age != 10 {
		t.Errorf("age should not advance while a regeneration delay is pending, got %d", d.Age)
	}
	if d.RegenerationDelay != 1 {
		t.Errorf("got regeneration delay %d, want 1", d.RegenerationDelay)
	}
}
