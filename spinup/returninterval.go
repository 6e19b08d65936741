package spinup

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/js-arias/fcarbon/params"
)

// ReturnIntervalModel discretizes a spatial unit's historical
// disturbance return-interval distribution into NumCat equal-
// probability categories around the unit's base interval, the same
// quantile-sampling discretization the teacher uses to turn a
// continuous branch-length prior into a fixed category set for a
// random walk.
type ReturnIntervalModel struct {
	NumCat int
}

// DefaultReturnIntervalModel is the model used when a caller does not
// need more than a handful of categories.
func DefaultReturnIntervalModel() ReturnIntervalModel {
	return ReturnIntervalModel{NumCat: 10}
}

func (m ReturnIntervalModel) numCat() int {
	if m.NumCat <= 0 {
		return 1
	}
	return m.NumCat
}

// categories returns the model's discretized return-interval values
// for a spatial unit, a Normal distribution centered on BaseInterval
// with its spread set so +-2 standard deviations span
// [MinInterval, MaxInterval], sampled at (i+0.5)/NumCat quantiles and
// clamped into range.
func (m ReturnIntervalModel) categories(c params.ReturnIntervalCoef) []float64 {
	sigma := (c.MaxInterval - c.MinInterval) / 4
	if sigma <= 0 {
		sigma = 1
	}
	d := distuv.Normal{Mu: c.BaseInterval, Sigma: sigma}
	n := m.numCat()
	cats := make([]float64, n)
	for i := range cats {
		p := (float64(i) + 0.5) / float64(n)
		v := d.Quantile(p)
		if v < c.MinInterval {
			v = c.MinInterval
		}
		if v > c.MaxInterval {
			v = c.MaxInterval
		}
		cats[i] = v
	}
	return cats
}

// Draw picks one of the discretized return-interval categories for a
// spatial unit using rng, rounding to the nearest whole year (rotation
// lengths are measured in integral annual steps).
func (m ReturnIntervalModel) Draw(rng *rand.Rand, c params.ReturnIntervalCoef) int {
	cats := m.categories(c)
	v := cats[rng.Intn(len(cats))]
	return int(v + 0.5)
}
