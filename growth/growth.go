// Package growth implements the merchantable-volume growth curves and
// the operation provider that turns a stand's age into two matrices:
// growth (new biomass entering from the input pool) and overmature
// decline (biomass leaving a live pool once its curve turns downward),
// following the same repeating-coordinates, shared-template
// organization as [turnover] and [decay].
package growth

import (
	"math"
	"sort"

	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/classifier"
	"github.com/js-arias/fcarbon/params"
	"github.com/js-arias/fcarbon/pool"
	"github.com/js-arias/fcarbon/poolset"
)

// Point is one (age, merchantable volume) sample of a yield curve.
type Point struct {
	Age    int
	Volume float64
}

// Curve is a merchantable-volume yield curve, keyed by age, for up to
// two species groups (a stand may carry softwood only, hardwood only,
// or both).
type Curve struct {
	SoftwoodSpecies string
	SoftwoodPoints  []Point

	HardwoodSpecies string
	HardwoodPoints  []Point
}

// evalVolume returns the curve's volume at age, clamping ages outside
// the sampled range to the nearest endpoint and linearly interpolating
// between bracketing samples otherwise. Points must be sorted by Age;
// this mirrors the binary-search-and-clamp idiom used to evaluate time
// stage boundaries elsewhere in this module.
func evalVolume(points []Point, age int) float64 {
	if len(points) == 0 {
		return 0
	}
	if age <= points[0].Age {
		return points[0].Volume
	}
	last := points[len(points)-1]
	if age >= last.Age {
		return last.Volume
	}
	i := sort.Search(len(points), func(i int) bool { return points[i].Age >= age })
	if points[i].Age == age {
		return points[i].Volume
	}
	lo, hi := points[i-1], points[i]
	frac := float64(age-lo.Age) / float64(hi.Age-lo.Age)
	return lo.Volume + frac*(hi.Volume-lo.Volume)
}

// smoothVolume applies the 3-point moving average 0.25/0.5/0.25 over
// ages age-1, age, age+1. It is a convex combination of non-negative
// samples, so it cannot introduce negative volume, and it agrees with
// the unsmoothed curve in the clamped regions below/above the sampled
// range, where all three samples coincide.
func smoothVolume(points []Point, age int) float64 {
	prev := age - 1
	if prev < 0 {
		prev = 0
	}
	return 0.25*evalVolume(points, prev) + 0.5*evalVolume(points, age) + 0.25*evalVolume(points, age+1)
}

// volume evaluates a curve's points at age, applying the smoother when
// cfg.Smooth is set.
func volume(points []Point, age int, smooth bool) float64 {
	if len(points) == 0 {
		return 0
	}
	if smooth {
		return smoothVolume(points, age)
	}
	return evalVolume(points, age)
}

// componentBiomass splits a merchantable volume into the five
// live-biomass components using a species' conversion coefficients.
func componentBiomass(vol float64, c params.VolToBiomassCoef) (merch, foliage, other, coarseRoot, fineRoot float64) {
	merch = vol * c.MerchCoef
	if merch < 0 {
		merch = 0
	}
	foliage = c.FoliageA * math.Pow(merch, c.FoliageB)
	other = c.OtherA * math.Pow(merch, c.OtherB)
	coarseRoot = c.CoarseRoot * merch
	fineRoot = c.FineRoot * merch
	return merch, foliage, other, coarseRoot, fineRoot
}

// curveEntry pairs a classifier filter with the curve it selects; more
// specific filters (more non-wildcard conditions) are preferred over
// less specific ones when several match the same stand.
type curveEntry struct {
	filter      classifier.Filter
	specificity int
	curve       *Curve
}

// CurveSet resolves a stand's classifier row to its growth curve,
// picking the most specific matching filter, mirroring the
// wildcard/aggregate classifier matching used by rule-based events.
type CurveSet struct {
	entries []curveEntry
}

// NewCurveSet creates an empty curve set.
func NewCurveSet() *CurveSet {
	return &CurveSet{}
}

// Add registers a curve for every stand whose classifier row matches
// filter.
func (cs *CurveSet) Add(filter classifier.Filter, curve *Curve) {
	specificity := 0
	for _, c := range filter.Conditions {
		if !c.Wildcard {
			specificity++
		}
	}
	cs.entries = append(cs.entries, curveEntry{filter: filter, specificity: specificity, curve: curve})
}

// Lookup returns the most specific curve matching row, and whether any
// filter matched at all.
func (cs *CurveSet) Lookup(row []int) (*Curve, bool) {
	var best *curveEntry
	for i := range cs.entries {
		e := &cs.entries[i]
		if !e.filter.Match(row) {
			continue
		}
		if best == nil || e.specificity > best.specificity {
			best = e
		}
	}
	if best == nil {
		return nil, false
	}
	return best.curve, true
}

// Config tunes the growth operation provider.
type Config struct {
	// Smooth enables the 3-point curve smoother. On by default; set
	// explicitly via [DefaultConfig].
	Smooth bool
}

// DefaultConfig returns the provider's default configuration, with the
// curve smoother enabled.
func DefaultConfig() Config {
	return Config{Smooth: true}
}

// component is one live-biomass pool's index, its current merch-volume
// fraction role, and its dead-organic-matter routing, resolved once
// against a [pool.Pools] registry.
type component struct {
	name      string
	idx       int
	snagIdx   int // -1 if none
	fastIdx   int // -1 if none
	belowIdx  int // -1 if none
	hasSplits bool
}

func resolveComponents(p *pool.Pools, comps []poolset.Component) ([]component, error) {
	out := make([]component, len(comps))
	for i, c := range comps {
		idx, err := resolveIdx(p, c.Pool)
		if err != nil {
			return nil, err
		}
		r := component{name: c.Pool, idx: idx, snagIdx: -1, fastIdx: -1, belowIdx: -1}
		if c.Snag != "" {
			if r.snagIdx, err = resolveIdx(p, c.Snag); err != nil {
				return nil, err
			}
		}
		if c.Fast != "" {
			if r.fastIdx, err = resolveIdx(p, c.Fast); err != nil {
				return nil, err
			}
		}
		if c.FastBelow != "" {
			if r.belowIdx, err = resolveIdx(p, c.FastBelow); err != nil {
				return nil, err
			}
			r.hasSplits = true
		}
		out[i] = r
	}
	return out, nil
}

func resolveIdx(p *pool.Pools, name string) (int, error) {
	idx, ok := p.Index(name)
	if !ok {
		return 0, fcarbon.NewError("growth", fcarbon.Configuration, "pool set missing required pool %q", name)
	}
	return idx, nil
}

// targets computes, for a curve evaluated at age+1 — the stand's age
// after this step's growth, per the reference model's convention of
// growing toward next year's merchantable volume rather than the
// current year's — the five softwood and five hardwood component
// biomass targets, in the fixed order of [poolset.SoftwoodComponents]
// followed by [poolset.HardwoodComponents].
func targets(curve *Curve, age int, smooth bool, pstore *params.Store) ([]float64, error) {
	out := make([]float64, 10)
	if curve == nil {
		return out, nil
	}
	nextAge := age + 1
	if curve.SoftwoodSpecies != "" {
		coef, err := pstore.VolToBiomass(curve.SoftwoodSpecies)
		if err != nil {
			return nil, err
		}
		v := volume(curve.SoftwoodPoints, nextAge, smooth)
		merch, foliage, other, cr, fr := componentBiomass(v, coef)
		out[0], out[1], out[2], out[3], out[4] = merch, foliage, other, cr, fr
	}
	if curve.HardwoodSpecies != "" {
		coef, err := pstore.VolToBiomass(curve.HardwoodSpecies)
		if err != nil {
			return nil, err
		}
		v := volume(curve.HardwoodPoints, nextAge, smooth)
		merch, foliage, other, cr, fr := componentBiomass(v, coef)
		out[5], out[6], out[7], out[8], out[9] = merch, foliage, other, cr, fr
	}
	return out, nil
}
