// Package kernel implements the pool/flux compute engine: applying an
// ordered sequence of per-stand transition matrices to a population of
// pool vectors, and accumulating selected flows into flux indicators.
package kernel

import (
	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/pool"
)

func checkShapes(op string, ops []*matrixop.Operation, n int) error {
	for i, o := range ops {
		if o.NumStands() != n {
			return fcarbon.NewError(op, fcarbon.Shape, "operation %d: %d stands != population %d", i, o.NumStands(), n)
		}
	}
	return nil
}

// ComputePools replaces the population in place: for each enabled
// stand s, row(s) <- row(s)·M1[s]·M2[s]·...·Mk[s], applying the
// operations in order. Disabled stands are left unchanged. Pool 0 is
// re-asserted to 1.0 before return. An empty operation list is a
// no-op.
func ComputePools(ops []*matrixop.Operation, pop *pool.Population, enabled []bool) error {
	const op = "kernel.ComputePools"
	n := pop.N()
	if enabled != nil && len(enabled) != n {
		return fcarbon.NewError(op, fcarbon.Shape, "enabled length %d != population %d", len(enabled), n)
	}
	if err := checkShapes(op, ops, n); err != nil {
		return err
	}

	order := pop.Pools().Len()
	err := parallelRows(n, func(s int) {
		if enabled != nil && !enabled[s] {
			return
		}
		row := pop.Row(s)
		tmp := make([]float64, order)
		for _, o := range ops {
			o.Apply(s, row, tmp)
			copy(row, tmp)
		}
	})
	if err != nil {
		return fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}
	pop.ResetInputPool()
	return nil
}

type edgeKey struct {
	src, sink int
}

// edgeIndex maps (process, source pool, sink pool) to the indicators
// that listen on that edge, precomputed once per ComputeFlux call so
// each matrix entry is attributed in O(1) rather than rescanning every
// indicator's source/sink sets.
func buildEdgeIndex(cfg *flux.Config) map[flux.Process]map[edgeKey][]int {
	idx := make(map[flux.Process]map[edgeKey][]int)
	for i := 0; i < cfg.Len(); i++ {
		ind := cfg.Indicator(i)
		m := idx[ind.Process]
		if m == nil {
			m = make(map[edgeKey][]int)
			idx[ind.Process] = m
		}
		for _, src := range ind.Sources {
			for _, sink := range ind.Sinks {
				if src == sink {
					continue
				}
				k := edgeKey{src: src, sink: sink}
				m[k] = append(m[k], i)
			}
		}
	}
	return idx
}

// ComputeFlux is [ComputePools] plus flux accumulation: for every
// indicator i and every operation tagged with indicator i's process,
// it adds to fm[s,i] the sum over (src,sink) in indicator.Sources x
// indicator.Sinks, src != sink, of the mass flowing on edge
// (src -> sink) of the operation's matrix for stand s, evaluated
// against the pool row as it stood immediately before that operation
// was applied. fm is not zeroed by this call; the caller must zero it
// before each step via [flux.Matrix.Zero].
func ComputeFlux(ops []*matrixop.Operation, pop *pool.Population, fm *flux.Matrix, enabled []bool) error {
	const op = "kernel.ComputeFlux"
	n := pop.N()
	if enabled != nil && len(enabled) != n {
		return fcarbon.NewError(op, fcarbon.Shape, "enabled length %d != population %d", len(enabled), n)
	}
	if fm.N() != n {
		return fcarbon.NewError(op, fcarbon.Shape, "flux matrix rows %d != population %d", fm.N(), n)
	}
	if err := checkShapes(op, ops, n); err != nil {
		return err
	}

	cfg := fm.Config()
	edges := buildEdgeIndex(cfg)
	order := pop.Pools().Len()

	err := parallelRows(n, func(s int) {
		if enabled != nil && !enabled[s] {
			return
		}
		row := pop.Row(s)
		tmp := make([]float64, order)
		for _, o := range ops {
			byEdge := edges[o.Process()]
			if len(byEdge) > 0 {
				for c, v := range o.Entries(s) {
					if c.Row == c.Col {
						continue
					}
					mass := row[c.Row] * v
					if mass == 0 {
						continue
					}
					for _, idx := range byEdge[edgeKey{src: c.Row, sink: c.Col}] {
						fm.Add(s, idx, mass)
					}
				}
			}
			o.Apply(s, row, tmp)
			copy(row, tmp)
		}
	})
	if err != nil {
		return fcarbon.NewError(op, fcarbon.Numeric, "%v", err)
	}
	pop.ResetInputPool()
	return nil
}
