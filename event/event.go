// Package event implements the rule-based disturbance event processor:
// eligibility filtering, sort-value computation, and the
// greedy-with-one-split target allocation algorithm that turns an
// event's target specification into a per-stand disturbance
// assignment and area proportion.
package event

import (
	"sort"

	"golang.org/x/exp/rand"

	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/classifier"
	"github.com/js-arias/fcarbon/expreval"
)

// TargetType is the unit an event's target is expressed in.
type TargetType int

// Target types.
const (
	Area TargetType = iota
	MerchCarbon
	Proportion
)

// SortType determines the order eligible stands are consumed in.
type SortType int

// Sort types.
const (
	ProportionOfEveryRecord SortType = iota
	SortBySWAge
	SortByHWAge
	TotalStemSnag
	SWStemSnag
	HWStemSnag
	RandomSort
	SVoid
	MerchCSortTotal
	MerchCSortSW
	MerchCSortHW
)

// Production reports whether a sort type ranks stands by disturbance-
// matrix production (MERCHCSORT_TOTAL/SW/HW), which callers must
// compute via flux-accumulation before calling [Run].
func (t SortType) Production() bool {
	switch t {
	case MerchCSortTotal, MerchCSortSW, MerchCSortHW:
		return true
	default:
		return false
	}
}

// Rule is one rule-based event's configuration.
type Rule struct {
	Filter          classifier.Filter
	Eligibility     *expreval.Expr // nil: every classifier-matching stand is eligible
	SortValueExpr   *expreval.Expr // carried with the rule; [Run] does not evaluate it
	Sort            SortType
	Target          TargetType
	TargetValue     float64
	DisturbanceType int
	Efficiency      float64
}

// StandInput is one stand's per-event inputs: its classifier row, the
// environment row exposed to the eligibility expression, its area, and
// (for production-based sorts) the disturbance matrix's per-component
// production already computed by the caller in flux-accumulation mode.
type StandInput struct {
	Classifiers []int
	Row         map[string]float64
	Area        float64

	SoftProduction float64
	HardProduction float64
	DOMProduction  float64
}

// Assignment is one disturbed stand's outcome from [Run]: the fraction
// of its area disturbed (1.0 for a fully disturbed stand, a fraction
// for the single split record; a merch-carbon target scales both by
// the rule's efficiency, and a PROPORTION_OF_EVERY_RECORD sort gives
// every eligible stand the same fraction). Untouched stands get no
// Assignment.
type Assignment struct {
	StandIndex int
	Proportion float64
}

// Stats summarizes one event's allocation outcome.
type Stats struct {
	TotalEligibleValue float64
	TotalAchieved       float64
	Shortfall           float64
	NumSplits           int
	NumRecordsDisturbed int
	NumEligible         int
}

func production(si StandInput, sort SortType) float64 {
	switch sort {
	case MerchCSortSW:
		return si.SoftProduction
	case MerchCSortHW:
		return si.HardProduction
	default:
		return si.SoftProduction + si.HardProduction + si.DOMProduction
	}
}

func sortValue(si StandInput, r Rule, age func(int) (sw, hw int)) (float64, error) {
	switch r.Sort {
	case RandomSort, ProportionOfEveryRecord, SVoid:
		return 0, nil
	case SortBySWAge:
		sw, _ := age(0)
		return float64(sw), nil
	case SortByHWAge:
		_, hw := age(0)
		return float64(hw), nil
	case TotalStemSnag:
		return si.Row["SoftwoodStemSnag"] + si.Row["HardwoodStemSnag"], nil
	case SWStemSnag:
		return si.Row["SoftwoodStemSnag"], nil
	case HWStemSnag:
		return si.Row["HardwoodStemSnag"], nil
	case MerchCSortTotal, MerchCSortSW, MerchCSortHW:
		return production(si, r.Sort), nil
	default:
		return 0, fcarbon.NewError("event.sortValue", fcarbon.Domain, "unrecognised sort type %d", r.Sort)
	}
}

// Run evaluates a rule against a batch of stands, returning the
// eligible-and-ordered assignments (proportions for every stand that
// received any disturbance, in evaluation order — not necessarily
// stand index order) and summary statistics.
//
// ages supplies, for a stand index, its (softwood, hardwood) age pair,
// used only by the age-based sorts. rng is consulted only for
// [RandomSort], so callers that never use it may pass nil.
func Run(r Rule, stands []StandInput, ages func(standIdx int) (sw, hw int), rng *rand.Rand) ([]Assignment, Stats, error) {
	const op = "event.Run"
	if r.TargetValue < 0 {
		return nil, Stats{}, fcarbon.NewError(op, fcarbon.Domain, "negative target %f", r.TargetValue)
	}
	if r.Target == MerchCarbon && r.Efficiency <= 0 {
		return nil, Stats{}, fcarbon.NewError(op, fcarbon.Domain, "non-positive efficiency %f for a merch-carbon target", r.Efficiency)
	}

	type eligible struct {
		idx       int
		value     float64
		targetVar float64
	}
	var elig []eligible
	for i, si := range stands {
		if !r.Filter.Match(si.Classifiers) {
			continue
		}
		if r.Eligibility != nil {
			ok, err := r.Eligibility.EvalBool(si.Row)
			if err != nil {
				return nil, Stats{}, fcarbon.NewError(op, fcarbon.Domain, "stand %d: %v", i, err)
			}
			if !ok {
				continue
			}
		}
		sv, err := sortValue(si, r, func(int) (int, int) { return ages(i) })
		if err != nil {
			return nil, Stats{}, err
		}

		targetVar := si.Area
		if r.Sort.Production() || r.Target == MerchCarbon {
			targetVar = si.Area * production(si, r.Sort) * r.Efficiency
		}
		if targetVar < 0 {
			return nil, Stats{}, fcarbon.NewError(op, fcarbon.Domain, "stand %d: negative target variable %f", i, targetVar)
		}
		elig = append(elig, eligible{idx: i, value: sv, targetVar: targetVar})
	}

	stats := Stats{NumEligible: len(elig)}
	for _, e := range elig {
		stats.TotalEligibleValue += e.targetVar
	}

	switch r.Sort {
	case RandomSort:
		if rng == nil {
			return nil, Stats{}, fcarbon.NewError(op, fcarbon.Configuration, "RANDOMSORT requires a random number generator")
		}
		rng.Shuffle(len(elig), func(i, j int) { elig[i], elig[j] = elig[j], elig[i] })
	case ProportionOfEveryRecord, SVoid:
		// Consumed in evaluation order; no reordering.
	default:
		sort.SliceStable(elig, func(i, j int) bool { return elig[i].value > elig[j].value })
	}

	target := r.TargetValue
	if r.Target == Proportion {
		target = r.TargetValue * stats.TotalEligibleValue
	}

	var assignments []Assignment
	cumulative := 0.0
	if r.Sort == ProportionOfEveryRecord {
		prop := 1.0
		if stats.TotalEligibleValue > 0 {
			prop = target / stats.TotalEligibleValue
		}
		if prop > 1 {
			prop = 1
		}
		for _, e := range elig {
			assignments = append(assignments, Assignment{StandIndex: e.idx, Proportion: prop})
			cumulative += e.targetVar * prop
		}
		stats.NumRecordsDisturbed = len(assignments)
		stats.TotalAchieved = cumulative
		stats.Shortfall = target - cumulative
		if stats.Shortfall < 0 {
			stats.Shortfall = 0
		}
		return assignments, stats, nil
	}

	// For merch-carbon targets, the raw area proportion (1.0 for a
	// fully consumed stand, a fraction of targetVar for the split
	// stand) is further scaled by efficiency: targetVar already
	// bakes efficiency into the harvested-mass capacity, so a fully
	// "consumed" stand only has its area actually disturbed in
	// proportion to efficiency.
	scale := 1.0
	if r.Target == MerchCarbon {
		scale = r.Efficiency
	}

	for _, e := range elig {
		if cumulative >= target {
			break
		}
		remaining := target - cumulative
		if e.targetVar <= remaining || e.targetVar == 0 {
			assignments = append(assignments, Assignment{StandIndex: e.idx, Proportion: 1.0 * scale})
			cumulative += e.targetVar
			continue
		}
		prop := remaining / e.targetVar
		assignments = append(assignments, Assignment{StandIndex: e.idx, Proportion: prop * scale})
		cumulative += remaining
		stats.NumSplits++
		break
	}

	stats.NumRecordsDisturbed = len(assignments)
	stats.TotalAchieved = cumulative
	stats.Shortfall = target - cumulative
	if stats.Shortfall < 0 {
		stats.Shortfall = 0
	}
	return assignments, stats, nil
}
