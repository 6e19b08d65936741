package matrixop_test

import (
	"testing"

	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/matrixop"
)

func TestStoreAllocateFillGetFree(t *testing.T) {
	s := matrixop.NewStore()
	h := s.Allocate(1)

	if _, err := s.Get(h); err == nil {
		t.Fatalf("expected error reading an unfilled handle")
	}

	coords := []matrixop.Coord{{Row: 0, Col: 0}}
	if err := s.SetRepeating(h, flux.Growth, 1, coords, [][]float64{{1}}, []int{0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	op, err := s.Get(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Process() != flux.Growth {
		t.Errorf("got process %v, want %v", op.Process(), flux.Growth)
	}

	s.Free(h)
	if _, err := s.Get(h); err == nil {
		t.Fatalf("expected error reading a freed handle")
	}
}

func TestStoreSetUnknownHandle(t *testing.T) {
	s := matrixop.NewStore()
	if err := s.SetMatrixList(999, flux.Growth, 1, nil, nil); err == nil {
		t.Fatalf("expected error filling an unallocated handle")
	}
}
