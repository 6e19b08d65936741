package event_test

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/js-arias/fcarbon/classifier"
	"github.com/js-arias/fcarbon/event"
)

func standInputs(areas ...float64) []event.StandInput {
	out := make([]event.StandInput, len(areas))
	for i, a := range areas {
		out[i] = event.StandInput{Area: a, Row: map[string]float64{}}
	}
	return out
}

func TestRunAreaTargetSplitsTheShortfallStand(t *testing.T) {
	stands := standInputs(50, 100, 30)
	r := event.Rule{Target: event.Area, TargetValue: 120, Sort: event.SVoid}
	got, stats, err := event.Run(r, stands, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected at least one assignment")
	}
	if stats.TotalAchieved != 120 {
		t.Errorf("got achieved %v, want 120", stats.TotalAchieved)
	}
}

func TestRunFiltersByClassifier(t *testing.T) {
	stands := []event.StandInput{
		{Area: 10, Classifiers: []int{1}, Row: map[string]float64{}},
		{Area: 10, Classifiers: []int{2}, Row: map[string]float64{}},
	}
	r := event.Rule{
		Filter:      classifier.Filter{},
		Target:      event.Area,
		TargetValue: 100,
		Sort:        event.SVoid,
	}
	got, stats, err := event.Run(r, stands, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.NumEligible != 2 {
		t.Errorf("got %d eligible stands, want 2 (an empty filter matches everything)", stats.NumEligible)
	}
	if len(got) != 2 {
		t.Errorf("got %d assignments, want 2", len(got))
	}
}

func TestRunRandomSortRequiresRNG(t *testing.T) {
	stands := standInputs(10, 20)
	r := event.Rule{Target: event.Area, TargetValue: 5, Sort: event.RandomSort}
	if _, _, err := event.Run(r, stands, nil, nil); err == nil {
		t.Fatalf("expected an error when RANDOMSORT is used without an rng")
	}
	if _, _, err := event.Run(r, stands, nil, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("unexpected error with an rng supplied: %v", err)
	}
}

func TestRunSplitsOneStandAtShortfall(t *testing.T) {
	stands := standInputs(100, 100)
	r := event.Rule{Target: event.Area, TargetValue: 150, Sort: event.SVoid}
	got, stats, err := event.Run(r, stands, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.NumSplits != 1 {
		t.Errorf("got %d splits, want 1", stats.NumSplits)
	}
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2", len(got))
	}
	if got[0].Proportion != 1.0 {
		t.Errorf("first stand should be fully disturbed, got proportion %v", got[0].Proportion)
	}
	if got[1].Proportion != 0.5 {
		t.Errorf("second stand should be half disturbed, got proportion %v", got[1].Proportion)
	}
	if stats.TotalAchieved != 150 {
		t.Errorf("got achieved %v, want 150", stats.TotalAchieved)
	}
}

func TestRunProportionOfEveryRecordScalesAllStands(t *testing.T) {
	stands := standInputs(100, 200)
	r := event.Rule{Target: event.Proportion, TargetValue: 0.25, Sort: event.ProportionOfEveryRecord}
	got, stats, err := event.Run(r, stands, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2", len(got))
	}
	for _, a := range got {
		if a.Proportion != 0.25 {
			t.Errorf("got proportion %v, want 0.25 for every record", a.Proportion)
		}
	}
	wantAchieved := 0.25 * 300
	if stats.TotalAchieved != wantAchieved {
		t.Errorf("got achieved %v, want %v", stats.TotalAchieved, wantAchieved)
	}
}

// Scenario 4 from the specification: a MerchCarbon target fully
// consumes a stand, with the area proportion actually disturbed scaled
// by efficiency (the harvested mass is still 100% of the stand's
// merch-carbon capacity).
func TestRunMerchCarbonFullConsumptionScalesProportionByEfficiency(t *testing.T) {
	stands := []event.StandInput{
		{Area: 10, SoftProduction: 50, Row: map[string]float64{}},
	}
	r := event.Rule{
		Target:      event.MerchCarbon,
		TargetValue: 10 * 50 * 0.8, // exactly one stand's capacity at efficiency 0.8
		Efficiency:  0.8,
		Sort:        event.MerchCSortSW,
	}
	got, stats, err := event.Run(r, stands, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d assignments, want 1", len(got))
	}
	if got[0].Proportion != 0.8 {
		t.Errorf("got proportion %v, want 0.8 (efficiency-scaled full consumption)", got[0].Proportion)
	}
	if stats.TotalAchieved != r.TargetValue {
		t.Errorf("got achieved %v, want %v", stats.TotalAchieved, r.TargetValue)
	}
}

// Scenario 5: a MerchCarbon target that only partially consumes the
// last stand's capacity splits it, scaling the split proportion by
// efficiency as well.
func TestRunMerchCarbonSplitScalesProportionByEfficiency(t *testing.T) {
	stands := []event.StandInput{
		{Area: 10, SoftProduction: 100, Row: map[string]float64{}},
	}
	r := event.Rule{
		Target:      event.MerchCarbon,
		TargetValue: 10 * 100 * 0.5 * 0.5, // half of the stand's efficiency-scaled capacity
		Efficiency:  0.5,
		Sort:        event.MerchCSortSW,
	}
	got, stats, err := event.Run(r, stands, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d assignments, want 1", len(got))
	}
	if stats.NumSplits != 1 {
		t.Errorf("got %d splits, want 1", stats.NumSplits)
	}
	wantProp := 0.25 // half of targetVar's share (500), scaled by efficiency (0.5)
	if diff := got[0].Proportion - wantProp; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("got proportion %v, want %v", got[0].Proportion, wantProp)
	}
}

// Scenario 6: a Proportion target that exceeds total eligible value
// reports the unmet shortfall rather than erroring.
func TestRunProportionTargetReportsShortfall(t *testing.T) {
	stands := standInputs(10, 20)
	r := event.Rule{Target: event.Proportion, TargetValue: 2.0, Sort: event.SVoid}
	got, stats, err := event.Run(r, stands, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2 (every stand fully consumed)", len(got))
	}
	if stats.TotalAchieved != 30 {
		t.Errorf("got achieved %v, want 30 (total eligible area)", stats.TotalAchieved)
	}
	if stats.Shortfall != 30 {
		t.Errorf("got shortfall %v, want 30 (target was 2x eligible value)", stats.Shortfall)
	}
}

func TestRunRejectsNegativeTarget(t *testing.T) {
	stands := standInputs(10)
	r := event.Rule{Target: event.Area, TargetValue: -1}
	if _, _, err := event.Run(r, stands, nil, nil); err == nil {
		t.Fatalf("expected an error for a negative target value")
	}
}

func TestRunRejectsNonPositiveEfficiencyForMerchCarbon(t *testing.T) {
	stands := standInputs(10)
	r := event.Rule{Target: event.MerchCarbon, TargetValue: 10, Efficiency: 0}
	if _, _, err := event.Run(r, stands, nil, nil); err == nil {
		t.Fatalf("expected an error for a non-positive efficiency on a merch-carbon target")
	}
}

func TestRunAgeSortOrdersDescending(t *testing.T) {
	stands := standInputs(10, 10, 10)
	ages := func(i int) (int, int) {
		switch i {
		case 0:
			return 40, 0
		case 1:
			return 90, 0
		default:
			return 60, 0
		}
	}
	r := event.Rule{Target: event.Area, TargetValue: 10, Sort: event.SortBySWAge}
	got, _, err := event.Run(r, stands, ages, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].StandIndex != 1 {
		t.Fatalf("expected the oldest stand (index 1) to be consumed first, got %+v", got)
	}
}
