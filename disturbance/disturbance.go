// Package disturbance implements the disturbance-event operation
// provider: per-stand transition matrices looked up by disturbance
// type and spatial unit, applied via the matrix-list form (unlike
// growth, turnover, and decay, disturbance matrices are not
// structurally uniform across stands, so no coordinate template is
// shared).
package disturbance

import (
	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/params"
	"github.com/js-arias/fcarbon/pool"
)

// Event is one stand's disturbance inputs for a step: the disturbance
// type and spatial unit to look up in the parameter store, and whether
// the stand is eligible at all (ineligible/undisturbed stands get the
// identity matrix).
type Event struct {
	DisturbanceType int
	SpatialUnit     int
	Disturbed       bool
}

// BuildOps fills handle with a disturbance operation for n stands. A
// stand with Disturbed false, or DisturbanceType <= 0, gets the
// identity matrix (no transition). pstore is consulted at most once per
// distinct (DisturbanceType, SpatialUnit) pair, caching the built
// [matrixop.Matrix] across every stand sharing it.
func BuildOps(store *matrixop.Store, handle matrixop.Handle, p *pool.Pools, events []Event, pstore *params.Store) error {
	const op = "disturbance.BuildOps"
	order := p.Len()
	n := len(events)

	type key struct{ distType, su int }
	built := make(map[key]int) // -> index into matrices
	var matrices []*matrixop.Matrix
	identityIdx := -1

	standTo := make([]int, n)
	for s, ev := range events {
		if !ev.Disturbed || ev.DisturbanceType <= 0 {
			if identityIdx < 0 {
				identityIdx = len(matrices)
				matrices = append(matrices, matrixop.NewMatrix(order))
			}
			standTo[s] = identityIdx
			continue
		}

		k := key{distType: ev.DisturbanceType, su: ev.SpatialUnit}
		if idx, ok := built[k]; ok {
			standTo[s] = idx
			continue
		}

		matrixID, err := pstore.DisturbanceMatrixID(ev.DisturbanceType, ev.SpatialUnit)
		if err != nil {
			return fcarbon.NewError(op, fcarbon.Configuration, "stand %d: %v", s, err)
		}
		rows, err := pstore.DisturbanceMatrix(matrixID)
		if err != nil {
			return fcarbon.NewError(op, fcarbon.Configuration, "stand %d: %v", s, err)
		}

		m := matrixop.NewMatrix(order)
		for _, r := range rows {
			if err := m.Set(r.Source, r.Sink, r.Prop); err != nil {
				return fcarbon.NewError(op, fcarbon.Shape, "stand %d: matrix %d: %v", s, matrixID, err)
			}
		}
		idx := len(matrices)
		matrices = append(matrices, m)
		built[k] = idx
		standTo[s] = idx
	}

	if err := store.SetMatrixList(handle, flux.Disturbance, order, matrices, standTo); err != nil {
		return fcarbon.NewError(op, fcarbon.Shape, "%v", err)
	}
	return nil
}
