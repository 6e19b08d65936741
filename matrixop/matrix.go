// Package matrixop implements the sparse per-stand transition matrices
// applied by the pool/flux kernel, and the operation store that owns
// blocks of them.
//
// A transition matrix is represented in coordinate (COO) form: a list
// of explicit (row, col, value) entries. Diagonal entries default to
// 1 (full retention / identity) unless an entry overrides them; the
// kernel never infers a diagonal from the off-diagonal entries of a
// row, so a provider that adds an out-flow from pool i must also set
// an explicit (i, i) entry for the retained fraction — matching the
// source model's convention that matrix coordinate lists are assumed
// correct and deduplicated upstream (no implicit normalization).
package matrixop

import (
	"iter"

	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/flux"
)

// Coord is a (row, col) position in a transition matrix.
type Coord struct {
	Row, Col int
}

// Matrix is a single stand's square sparse transition matrix.
type Matrix struct {
	order   int
	coords  []Coord
	values  []float64
	hasDiag []bool
}

// NewMatrix allocates an empty (pure identity) matrix of the given
// order (the pool count).
func NewMatrix(order int) *Matrix {
	return &Matrix{
		order:   order,
		hasDiag: make([]bool, order),
	}
}

// Order returns the matrix order (the pool count).
func (m *Matrix) Order() int {
	return m.order
}

// Set adds an explicit entry. Row and col must be in [0, order). The
// caller must not set the same (row, col) pair twice (coordinate
// lists are assumed deduplicated upstream).
func (m *Matrix) Set(row, col int, v float64) error {
	if row < 0 || row >= m.order || col < 0 || col >= m.order {
		return fcarbon.NewError("matrixop.Matrix.Set", fcarbon.Shape, "coordinate (%d,%d) out of range for order %d", row, col, m.order)
	}
	m.coords = append(m.coords, Coord{Row: row, Col: col})
	m.values = append(m.values, v)
	if row == col {
		m.hasDiag[row] = true
	}
	return nil
}

// Entries iterates the explicit coordinate entries of the matrix.
func (m *Matrix) Entries() iter.Seq2[Coord, float64] {
	return func(yield func(Coord, float64) bool) {
		for i, c := range m.coords {
			if !yield(c, m.values[i]) {
				return
			}
		}
	}
}

// Apply computes dst = src·M, i.e. dst[j] = sum_i src[i]*M[i,j]. dst
// must have length order and is fully overwritten (not accumulated
// into).
func (m *Matrix) Apply(src, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for row := 0; row < m.order; row++ {
		if !m.hasDiag[row] {
			dst[row] += src[row]
		}
	}
	for i, c := range m.coords {
		dst[c.Col] += src[c.Row] * m.values[i]
	}
}

// Operation is an owned block of zero or more transition matrices
// plus a per-stand index vector mapping each stand to one matrix in
// the block, tagged with the process (growth, turnover, decay,
// disturbance) that flux indicators use for attribution.
//
// Two storage forms are supported: an explicit matrix list (one
// distinct [Matrix] per distinct stand shape), or repeating
// coordinates (one coordinate template shared by every stand, with a
// parallel value array per distinct matrix) — used when many stands
// share matrix structure but differ in values, which is the common
// case for growth.
type Operation struct {
	process flux.Process
	order   int
	n       int

	// matrix-list form
	matrices []*Matrix

	// repeating-coordinate form
	coords  []Coord
	hasDiag []bool
	values  [][]float64

	standToIndex []int
}

// NewMatrixListOp builds an operation from a list of distinct
// matrices and a per-stand index into that list.
func NewMatrixListOp(process flux.Process, order int, matrices []*Matrix, standToMatrix []int) (*Operation, error) {
	for i, m := range matrices {
		if m.Order() != order {
			return nil, fcarbon.NewError("matrixop.NewMatrixListOp", fcarbon.Shape, "matrix %d: order %d != expected %d", i, m.Order(), order)
		}
	}
	for s, idx := range standToMatrix {
		if idx < 0 || idx >= len(matrices) {
			return nil, fcarbon.NewError("matrixop.NewMatrixListOp", fcarbon.Shape, "stand %d: matrix index %d out of range [0,%d)", s, idx, len(matrices))
		}
	}
	return &Operation{
		process:      process,
		order:        order,
		n:            len(standToMatrix),
		matrices:     matrices,
		standToIndex: append([]int(nil), standToMatrix...),
	}, nil
}

// NewRepeatingOp builds an operation sharing one coordinate template
// across every matrix, with a per-stand index into the parallel value
// arrays. An (i,i) entry in coords marks pool i as having an explicit,
// per-matrix diagonal override (see [Matrix]); coords must not contain
// duplicate positions.
func NewRepeatingOp(process flux.Process, order int, coords []Coord, values [][]float64, standToValues []int) (*Operation, error) {
	hasDiag := make([]bool, order)
	for i, c := range coords {
		if c.Row < 0 || c.Row >= order || c.Col < 0 || c.Col >= order {
			return nil, fcarbon.NewError("matrixop.NewRepeatingOp", fcarbon.Shape, "coordinate %d: (%d,%d) out of range for order %d", i, c.Row, c.Col, order)
		}
		if c.Row == c.Col {
			hasDiag[c.Row] = true
		}
	}
	for i, v := range values {
		if len(v) != len(coords) {
			return nil, fcarbon.NewError("matrixop.NewRepeatingOp", fcarbon.Shape, "value array %d: length %d != %d coordinates", i, len(v), len(coords))
		}
	}
	for s, idx := range standToValues {
		if idx < 0 || idx >= len(values) {
			return nil, fcarbon.NewError("matrixop.NewRepeatingOp", fcarbon.Shape, "stand %d: value index %d out of range [0,%d)", s, idx, len(values))
		}
	}
	return &Operation{
		process:      process,
		order:        order,
		n:            len(standToValues),
		coords:       append([]Coord(nil), coords...),
		hasDiag:      hasDiag,
		values:       values,
		standToIndex: append([]int(nil), standToValues...),
	}, nil
}

// Process returns the process tag used for flux attribution.
func (op *Operation) Process() flux.Process {
	return op.process
}

// Order returns the matrix order (pool count).
func (op *Operation) Order() int {
	return op.order
}

// NumStands returns the number of stands this operation covers.
func (op *Operation) NumStands() int {
	return op.n
}

func (op *Operation) repeating() bool {
	return op.matrices == nil
}

// Apply computes dst = src·M_s for stand s, where M_s is the matrix
// assigned to that stand.
func (op *Operation) Apply(s int, src, dst []float64) {
	if op.repeating() {
		applyRepeating(op, s, src, dst)
		return
	}
	op.matrices[op.standToIndex[s]].Apply(src, dst)
}

func applyRepeating(op *Operation, s int, src, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for row := 0; row < op.order; row++ {
		if !op.hasDiag[row] {
			dst[row] += src[row]
		}
	}
	v := op.values[op.standToIndex[s]]
	for i, c := range op.coords {
		dst[c.Col] += src[c.Row] * v[i]
	}
}

// Entries iterates the explicit (row, col, value) coordinate entries
// of the matrix assigned to stand s.
func (op *Operation) Entries(s int) iter.Seq2[Coord, float64] {
	if op.repeating() {
		v := op.values[op.standToIndex[s]]
		coords := op.coords
		return func(yield func(Coord, float64) bool) {
			for i, c := range coords {
				if !yield(c, v[i]) {
					return
				}
			}
		}
	}
	return op.matrices[op.standToIndex[s]].Entries()
}
