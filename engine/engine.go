// Package engine ties the pool/flux kernel, operation providers,
// parameter store, stand state engine, spinup state machine, and
// rule-based event processor into the top-level simulation surface: a
// population of stands advanced one annual step at a time, plus the
// spinup bootstrap and rule-based disturbance entry points.
package engine

import (
	"golang.org/x/exp/rand"

	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/classifier"
	"github.com/js-arias/fcarbon/decay"
	"github.com/js-arias/fcarbon/disturbance"
	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/growth"
	"github.com/js-arias/fcarbon/kernel"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/params"
	"github.com/js-arias/fcarbon/pool"
	"github.com/js-arias/fcarbon/spinup"
	"github.com/js-arias/fcarbon/standstate"
	"github.com/js-arias/fcarbon/turnover"
)

// Config tunes engine-wide policy decisions left open by the
// reference model.
type Config struct {
	// DisturbDisabledStands applies the disturbance operation even
	// to stands whose annual processes (growth, turnover, decay)
	// are otherwise disabled — the peatland edge case noted in the
	// reference model. Default false: a disabled stand skips every
	// operation, including disturbance.
	DisturbDisabledStands bool

	Growth growth.Config
}

// DefaultConfig returns the engine's default policy: disabled stands
// skip disturbance too, and the growth curve smoother is on.
func DefaultConfig() Config {
	return Config{Growth: growth.DefaultConfig()}
}

// Engine owns a population of stands and the immutable configuration
// (pool set, flux indicators, classifier registry, parameter store,
// growth curves) shared across every step.
type Engine struct {
	cfg Config

	pools   *pool.Pools
	fluxCfg *flux.Config
	clsSet  *classifier.Set
	params  *params.Store
	curves  *growth.CurveSet
	ri      spinup.ReturnIntervalModel
	rng     *rand.Rand

	pop   *pool.Population
	fm    *flux.Matrix
	cls   *classifier.Matrix
	state []standstate.State

	spatialUnit []int

	store *matrixop.Store
}

// New builds an engine for the stands described by cls, spatialUnit,
// and inventories, which must all have the same length.
func New(pools *pool.Pools, fluxCfg *flux.Config, pstore *params.Store, curves *growth.CurveSet, cfg Config, ri spinup.ReturnIntervalModel, seed uint64, cls *classifier.Matrix, spatialUnit []int, inventories []standstate.Inventory) (*Engine, error) {
	const op = "engine.New"
	n := cls.N()
	if len(spatialUnit) != n {
		return nil, fcarbon.NewError(op, fcarbon.Shape, "%d spatial units != %d stands", len(spatialUnit), n)
	}
	if len(inventories) != n {
		return nil, fcarbon.NewError(op, fcarbon.Shape, "%d inventories != %d stands", len(inventories), n)
	}

	state := make([]standstate.State, n)
	for i, inv := range inventories {
		state[i] = standstate.InitializeLandState(inv)
	}

	return &Engine{
		cfg:         cfg,
		pools:       pools,
		fluxCfg:     fluxCfg,
		clsSet:      cls.Set(),
		params:      pstore,
		curves:      curves,
		ri:          ri,
		rng:         rand.New(rand.NewSource(seed)),
		pop:         pool.NewPopulation(pools, n),
		fm:          flux.NewMatrix(fluxCfg, n),
		cls:         cls,
		state:       state,
		spatialUnit: spatialUnit,
		store:       matrixop.NewStore(),
	}, nil
}

// N returns the number of stands.
func (e *Engine) N() int { return e.pop.N() }

// Pop returns the engine's pool population, owned by the caller to
// read between steps; [Engine.Step] mutates it in place.
func (e *Engine) Pop() *pool.Population { return e.pop }

// Flux returns the engine's flux accumulator, valid until the next
// call to [Engine.Step] or [Engine.Spinup].
func (e *Engine) Flux() *flux.Matrix { return e.fm }

// Classifiers returns the engine's classifier matrix.
func (e *Engine) Classifiers() *classifier.Matrix { return e.cls }

// State returns stand s's mutable state.
func (e *Engine) State(s int) *standstate.State { return &e.state[s] }

func (e *Engine) turnoverParam(s int) params.TurnoverParam {
	tp, err := e.params.Turnover(e.spatialUnit[s])
	if err != nil {
		return params.TurnoverParam{}
	}
	return tp
}

func (e *Engine) meanAnnualTemp(s int, override []float64) float64 {
	if override != nil && !isNaN(override[s]) {
		return override[s]
	}
	su, err := e.params.SpatialUnit(e.spatialUnit[s])
	if err != nil {
		return 0
	}
	return su.DefaultMeanAnnualTemp
}

func isNaN(v float64) bool { return v != v }

// buildAnnualOps allocates and fills the growth, turnover,
// overmature-decline, and decay handles for the current pool state,
// returning them in application order with the growth operation
// listed twice (it is applied once before turnover and once after the
// decline operation, per the reference model's split-step
// integration).
func (e *Engine) buildAnnualOps(ages []int, multiplier []float64, meanAnnualTempOverride []float64) ([]*matrixop.Operation, []matrixop.Handle, error) {
	n := e.N()
	growthHandle := e.store.Allocate(n)
	declineHandle := e.store.Allocate(n)
	turnoverHandle := e.store.Allocate(n)
	decayHandle := e.store.Allocate(n)
	handles := []matrixop.Handle{growthHandle, declineHandle, turnoverHandle, decayHandle}

	inputs := make([]growth.Input, n)
	for s := 0; s < n; s++ {
		curve, _ := e.curves.Lookup(e.cls.Row(s))
		inputs[s] = growth.Input{
			Age:        ages[s],
			Curve:      curve,
			Multiplier: multiplier[s],
			Splits:     e.turnoverParam(s),
		}
	}
	if err := growth.BuildOps(e.store, growthHandle, declineHandle, e.pools, e.pop, inputs, e.params, e.cfg.Growth); err != nil {
		return nil, handles, err
	}

	if err := turnover.BuildOps(e.store, turnoverHandle, e.pools, n, e.turnoverParam); err != nil {
		return nil, handles, err
	}

	decayInputs := make([]decay.Input, n)
	for s := 0; s < n; s++ {
		rows, err := e.params.Decay(e.spatialUnit[s])
		if err != nil {
			return nil, handles, err
		}
		decayInputs[s] = decay.Input{Params: rows, MeanAnnualTemp: e.meanAnnualTemp(s, meanAnnualTempOverride)}
	}
	if err := decay.BuildOps(e.store, decayHandle, e.pools, decayInputs); err != nil {
		return nil, handles, err
	}

	growthOp, err := e.store.Get(growthHandle)
	if err != nil {
		return nil, handles, err
	}
	declineOp, err := e.store.Get(declineHandle)
	if err != nil {
		return nil, handles, err
	}
	turnoverOp, err := e.store.Get(turnoverHandle)
	if err != nil {
		return nil, handles, err
	}
	decayOp, err := e.store.Get(decayHandle)
	if err != nil {
		return nil, handles, err
	}

	return []*matrixop.Operation{growthOp, turnoverOp, declineOp, growthOp, decayOp}, handles, nil
}

func (e *Engine) freeHandles(handles []matrixop.Handle) {
	for _, h := range handles {
		e.store.Free(h)
	}
}

func allTrue(n int) []bool {
	b := make([]bool, n)
	for i := range b {
		b[i] = true
	}
	return b
}

// disturbanceOp builds and fetches a matrix-list disturbance operation
// for the given events, returning its handle for the caller to free.
func (e *Engine) disturbanceOp(events []disturbance.Event) (*matrixop.Operation, matrixop.Handle, error) {
	h := e.store.Allocate(len(events))
	if err := disturbance.BuildOps(e.store, h, e.pools, events, e.params); err != nil {
		return nil, h, err
	}
	op, err := e.store.Get(h)
	return op, h, err
}
