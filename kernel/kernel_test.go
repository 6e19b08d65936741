package kernel_test

import (
	"math"
	"testing"

	"github.com/js-arias/fcarbon/flux"
	"github.com/js-arias/fcarbon/kernel"
	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/pool"
)

func testPools(t *testing.T) *pool.Pools {
	t.Helper()
	p, err := pool.New([]string{pool.Input, "Merch", "DOM", "CO2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

// halfToDOMOp builds an operation moving half of Merch's mass into DOM
// every step, tagged Turnover.
func halfToDOMOp(t *testing.T, n int) *matrixop.Operation {
	t.Helper()
	m := matrixop.NewMatrix(4)
	if err := m.Set(1, 1, 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Set(1, 2, 0.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	matrices := make([]*matrixop.Matrix, n)
	standTo := make([]int, n)
	for i := range matrices {
		matrices[i] = m
	}
	op, err := matrixop.NewMatrixListOp(flux.Turnover, 4, matrices, standTo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return op
}

func TestComputePoolsAppliesInOrderAndResetsInput(t *testing.T) {
	p := testPools(t)
	pop := pool.NewPopulation(p, 2)
	pop.Row(0)[1] = 100
	pop.Row(1)[1] = 50

	op := halfToDOMOp(t, 2)
	if err := kernel.ComputePools([]*matrixop.Operation{op}, pop, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := pop.Row(0)[1]; got != 50 {
		t.Errorf("stand 0 Merch: got %v, want 50", got)
	}
	if got := pop.Row(0)[2]; got != 50 {
		t.Errorf("stand 0 DOM: got %v, want 50", got)
	}
	if got := pop.Row(0)[0]; got != 1 {
		t.Errorf("stand 0 Input: got %v, want 1 (re-asserted)", got)
	}
	if got := pop.Row(1)[1]; got != 25 {
		t.Errorf("stand 1 Merch: got %v, want 25", got)
	}
}

func TestComputePoolsSkipsDisabledStands(t *testing.T) {
	p := testPools(t)
	pop := pool.NewPopulation(p, 2)
	pop.Row(0)[1] = 100
	pop.Row(1)[1] = 100

	op := halfToDOMOp(t, 2)
	if err := kernel.ComputePools([]*matrixop.Operation{op}, pop, []bool{true, false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pop.Row(0)[1]; got != 50 {
		t.Errorf("enabled stand 0: got %v, want 50", got)
	}
	if got := pop.Row(1)[1]; got != 100 {
		t.Errorf("disabled stand 1 should be untouched: got %v, want 100", got)
	}
}

func TestComputePoolsRejectsShapeMismatch(t *testing.T) {
	p := testPools(t)
	pop := pool.NewPopulation(p, 2)
	op := halfToDOMOp(t, 3)
	if err := kernel.ComputePools([]*matrixop.Operation{op}, pop, nil); err == nil {
		t.Fatalf("expected shape-mismatch error")
	}
}

func TestComputeFluxAgreesWithComputePoolsAndAccumulates(t *testing.T) {
	p := testPools(t)

	cfg, err := flux.NewConfig([]flux.Indicator{
		{Name: "MerchToDOM", Process: flux.Turnover, Sources: []int{1}, Sinks: []int{2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	popA := pool.NewPopulation(p, 1)
	popA.Row(0)[1] = 100
	opA := halfToDOMOp(t, 1)
	if err := kernel.ComputePools([]*matrixop.Operation{opA}, popA, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	popB := pool.NewPopulation(p, 1)
	popB.Row(0)[1] = 100
	fm := flux.NewMatrix(cfg, 1)
	opB := halfToDOMOp(t, 1)
	if err := kernel.ComputeFlux([]*matrixop.Operation{opB}, popB, fm, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range popA.Row(0) {
		if popA.Row(0)[i] != popB.Row(0)[i] {
			t.Errorf("pool %d: ComputePools=%v ComputeFlux=%v disagree", i, popA.Row(0)[i], popB.Row(0)[i])
		}
	}

	idx, ok := cfg.Index("MerchToDOM")
	if !ok {
		t.Fatalf("indicator not found")
	}
	if got := fm.At(0, idx); got != 50 {
		t.Errorf("got flux %v, want 50", got)
	}

	// Running a second step without zeroing accumulates.
	if err := kernel.ComputeFlux([]*matrixop.Operation{opB}, popB, fm, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fm.At(0, idx); got != 75 {
		t.Errorf("after second accumulation: got %v, want 75 (50 + half of remaining 50)", got)
	}
}

func TestComputeFluxBalancesAgainstCheckBalance(t *testing.T) {
	p := testPools(t)
	cfg, err := flux.NewConfig([]flux.Indicator{
		{Name: "MerchToDOM", Process: flux.Turnover, Sources: []int{1}, Sinks: []int{2}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pop := pool.NewPopulation(p, 1)
	pop.Row(0)[1] = 100
	before := pop.Sum(0)

	fm := flux.NewMatrix(cfg, 1)
	op := halfToDOMOp(t, 1)
	if err := kernel.ComputeFlux([]*matrixop.Operation{op}, pop, fm, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := pop.Sum(0)

	if math.Abs(before-after) > 1e-9 {
		t.Errorf("internal transfer should conserve total mass: before=%v after=%v", before, after)
	}
	if d := fm.CheckBalance(0, flux.Turnover, before, after, 0); d > 1e-9 {
		t.Errorf("CheckBalance discrepancy %v, want ~0", d)
	}
}
