package growth

import (
	"math"
	"testing"

	"github.com/js-arias/fcarbon/params"
)

func TestEvalVolumeClampsAndInterpolates(t *testing.T) {
	points := []Point{{Age: 10, Volume: 5}, {Age: 20, Volume: 25}, {Age: 30, Volume: 25}}

	if got := evalVolume(points, 0); got != 5 {
		t.Errorf("below range: got %v, want 5 (clamped)", got)
	}
	if got := evalVolume(points, 100); got != 25 {
		t.Errorf("above range: got %v, want 25 (clamped)", got)
	}
	if got := evalVolume(points, 15); got != 15 {
		t.Errorf("midpoint interpolation: got %v, want 15", got)
	}
	if got := evalVolume(points, 20); got != 25 {
		t.Errorf("exact sample: got %v, want 25", got)
	}
}

func TestEvalVolumeEmptyCurve(t *testing.T) {
	if got := evalVolume(nil, 10); got != 0 {
		t.Errorf("empty curve: got %v, want 0", got)
	}
}

func TestSmoothVolumeIsConvexCombination(t *testing.T) {
	points := []Point{{Age: 0, Volume: 0}, {Age: 1, Volume: 10}, {Age: 2, Volume: 20}}
	got := smoothVolume(points, 1)
	want := 0.25*0 + 0.5*10 + 0.25*20
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSmoothVolumeNeverNegative(t *testing.T) {
	points := []Point{{Age: 0, Volume: 0}, {Age: 1, Volume: 0}, {Age: 2, Volume: 0}}
	if got := smoothVolume(points, 1); got < 0 {
		t.Errorf("got %v, want >= 0", got)
	}
}

func TestComponentBiomassClampsNegativeMerch(t *testing.T) {
	coef := params.VolToBiomassCoef{MerchCoef: -1, FoliageA: 1, FoliageB: 1, OtherA: 1, OtherB: 1, CoarseRoot: 0.1, FineRoot: 0.1}
	merch, foliage, other, cr, fr := componentBiomass(100, coef)
	if merch != 0 {
		t.Errorf("got merch %v, want 0 (clamped)", merch)
	}
	if foliage != 0 || other != 0 || cr != 0 || fr != 0 {
		t.Errorf("components derived from zero merch should be zero, got foliage=%v other=%v cr=%v fr=%v", foliage, other, cr, fr)
	}
}

func TestComponentBiomassPowerLaw(t *testing.T) {
	coef := params.VolToBiomassCoef{MerchCoef: 1, FoliageA: 2, FoliageB: 0.5, OtherA: 1, OtherB: 1, CoarseRoot: 0.2, FineRoot: 0.1}
	merch, foliage, other, cr, fr := componentBiomass(100, coef)
	if merch != 100 {
		t.Errorf("got merch %v, want 100", merch)
	}
	if math.Abs(foliage-20) > 1e-9 {
		t.Errorf("got foliage %v, want 20 (2*sqrt(100))", foliage)
	}
	if other != 100 {
		t.Errorf("got other %v, want 100", other)
	}
	if cr != 20 || fr != 10 {
		t.Errorf("got cr=%v fr=%v, want 20,10", cr, fr)
	}
}

func TestTargetsNilCurveIsAllZero(t *testing.T) {
	out, err := targets(nil, 50, true, params.NewStore())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out {
		if v != 0 {
			t.Errorf("component %d: got %v, want 0 for a nil curve", i, v)
		}
	}
}

func TestTargetsSoftwoodOnly(t *testing.T) {
	pstore := params.NewStore()
	pstore.AddVolToBiomass(params.VolToBiomassCoef{Species: "Pine", MerchCoef: 1, FoliageA: 1, FoliageB: 1, OtherA: 1, OtherB: 1, CoarseRoot: 0.1, FineRoot: 0.1})
	curve := &Curve{SoftwoodSpecies: "Pine", SoftwoodPoints: []Point{{Age: 0, Volume: 0}, {Age: 100, Volume: 100}}}

	out, err := targets(curve, 100, false, pstore)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != 100 {
		t.Errorf("softwood merch: got %v, want 100", out[0])
	}
	for i := 5; i < 10; i++ {
		if out[i] != 0 {
			t.Errorf("hardwood component %d should stay zero, got %v", i, out[i])
		}
	}
}
