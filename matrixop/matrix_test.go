package matrixop_test

import (
	"testing"

	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/matrixop"
)

func TestMatrixIdentityByDefault(t *testing.T) {
	m := matrixop.NewMatrix(3)
	src := []float64{1, 2, 3}
	dst := make([]float64, 3)
	m.Apply(src, dst)
	for i, v := range dst {
		if v != src[i] {
			t.Errorf("pool %d: got %v, want %v (pure identity)", i, v, src[i])
		}
	}
}

func TestMatrixExplicitDiagonalOverridesIdentity(t *testing.T) {
	m := matrixop.NewMatrix(2)
	if err := m.Set(0, 0, 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Set(0, 1, 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := []float64{10, 0}
	dst := make([]float64, 2)
	m.Apply(src, dst)
	if dst[0] != 5 || dst[1] != 5 {
		t.Errorf("got %v, want [5 5]", dst)
	}
}

func TestMatrixSetOutOfRange(t *testing.T) {
	m := matrixop.NewMatrix(2)
	if err := m.Set(2, 0, 1); err == nil {
		t.Fatalf("expected error for out-of-range row")
	}
}

func TestMatrixListOp(t *testing.T) {
	full := matrixop.NewMatrix(2)
	if err := full.Set(0, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := full.Set(0, 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	op, err := matrixop.NewMatrixListOp(flux.Disturbance, 2, []*matrixop.Matrix{matrixop.NewMatrix(2), full}, []int{0, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.NumStands() != 2 {
		t.Fatalf("got %d stands, want 2", op.NumStands())
	}

	dst := make([]float64, 2)
	op.Apply(0, []float64{1, 5}, dst)
	if dst[0] != 1 || dst[1] != 5 {
		t.Errorf("stand 0 (identity): got %v, want [1 5]", dst)
	}
	op.Apply(1, []float64{1, 5}, dst)
	if dst[0] != 0 || dst[1] != 6 {
		t.Errorf("stand 1 (full transfer): got %v, want [0 6]", dst)
	}
}

func TestMatrixListOpRejectsIndexOutOfRange(t *testing.T) {
	_, err := matrixop.NewMatrixListOp(flux.Growth, 2, []*matrixop.Matrix{matrixop.NewMatrix(2)}, []int{1})
	if err == nil {
		t.Fatalf("expected error for out-of-range stand index")
	}
}

func TestRepeatingOp(t *testing.T) {
	coords := []matrixop.Coord{{Row: 0, Col: 0}, {Row: 0, Col: 1}}
	values := [][]float64{
		{0.75, 0.25},
		{0.4, 0.6},
	}
	op, err := matrixop.NewRepeatingOp(flux.Turnover, 2, coords, values, []int{0, 1, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.NumStands() != 3 {
		t.Fatalf("got %d stands, want 3", op.NumStands())
	}

	dst := make([]float64, 2)
	op.Apply(1, []float64{100, 0}, dst)
	if dst[0] != 40 || dst[1] != 60 {
		t.Errorf("stand 1: got %v, want [40 60]", dst)
	}
	op.Apply(2, []float64{100, 0}, dst)
	if dst[0] != 75 || dst[1] != 25 {
		t.Errorf("stand 2: got %v, want [75 25]", dst)
	}
}

func TestRepeatingOpRejectsMismatchedValueLength(t *testing.T) {
	coords := []matrixop.Coord{{Row: 0, Col: 0}}
	_, err := matrixop.NewRepeatingOp(flux.Decay, 1, coords, [][]float64{{1, 2}}, []int{0})
	if err == nil {
		t.Fatalf("expected error for a value array not matching the coordinate template length")
	}
}

func TestEntriesRoundTrip(t *testing.T) {
	m := matrixop.NewMatrix(2)
	if err := m.Set(0, 1, 0.3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count := 0
	for c, v := range m.Entries() {
		if c.Row != 0 || c.Col != 1 || v != 0.3 {
			t.Errorf("got (%v,%v), want ((0,1),0.3)", c, v)
		}
		count++
	}
	if count != 1 {
		t.Errorf("got %d entries, want 1", count)
	}
}
