package matrixop

import (
	"sync"

	"github.com/js-arias/fcarbon"
	"github.com/js-arias/fcarbon/flux"
)

// Handle is an opaque reference to an operation owned by a [Store].
type Handle int

// Store is an arena of operation memory allocated in bulk: providers
// allocate a handle for n stands, fill it with matrices, and the
// kernel consumes the filled operation by handle. The caller frees
// each handle after a step.
type Store struct {
	mu   sync.Mutex
	ops  map[Handle]*Operation
	next Handle
}

// NewStore creates an empty operation arena.
func NewStore() *Store {
	return &Store{ops: make(map[Handle]*Operation)}
}

// Allocate reserves a handle for n stands. The handle holds no
// matrices until a provider calls [Store.SetMatrixList] or
// [Store.SetRepeating].
func (s *Store) Allocate(n int) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	s.ops[h] = nil
	return h
}

// SetMatrixList fills handle h with a matrix-list operation.
func (s *Store) SetMatrixList(h Handle, process flux.Process, order int, matrices []*Matrix, standToMatrix []int) error {
	op, err := NewMatrixListOp(process, order, matrices, standToMatrix)
	if err != nil {
		return err
	}
	return s.set(h, op)
}

// SetRepeating fills handle h with a repeating-coordinates operation.
func (s *Store) SetRepeating(h Handle, process flux.Process, order int, coords []Coord, values [][]float64, standToValues []int) error {
	op, err := NewRepeatingOp(process, order, coords, values, standToValues)
	if err != nil {
		return err
	}
	return s.set(h, op)
}

func (s *Store) set(h Handle, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ops[h]; !ok {
		return fcarbon.NewError("matrixop.Store", fcarbon.Shape, "unknown or freed handle %d", h)
	}
	s.ops[h] = op
	return nil
}

// Get returns the operation filled into handle h.
func (s *Store) Get(h Handle) (*Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[h]
	if !ok {
		return nil, fcarbon.NewError("matrixop.Store.Get", fcarbon.Shape, "unknown or freed handle %d", h)
	}
	if op == nil {
		return nil, fcarbon.NewError("matrixop.Store.Get", fcarbon.Shape, "handle %d allocated but never filled", h)
	}
	return op, nil
}

// Free releases the memory behind a handle. Handles must be freed by
// the caller after each step.
func (s *Store) Free(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ops, h)
}
