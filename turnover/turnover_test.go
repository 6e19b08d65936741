package turnover_test

import (
	"math"
	"testing"

	"github.com/js-arias/fcarbon/matrixop"
	"github.com/js-arias/fcarbon/params"
	"github.com/js-arias/fcarbon/poolset"
	"github.com/js-arias/fcarbon/turnover"
)

func TestBuildOpsMovesMerchToStemSnag(t *testing.T) {
	p, err := poolset.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tp := params.TurnoverParam{
		StemFall:          0.1,
		BranchFall:        0.05,
		FoliageFall:       0.95,
		CoarseRootFall:    0.02,
		FineRootFall:      0.05,
		BranchSnagSplit:   0.5,
		CoarseRootAGSplit: 0.5,
		FineRootAGSplit:   0.5,
		StemSnagTurnover:  0.1,
		BranchSnagTurnover: 0.1,
	}

	store := matrixop.NewStore()
	h := store.Allocate(1)
	if err := turnover.BuildOps(store, h, p, 1, func(int) params.TurnoverParam { return tp }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, err := store.Get(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merchIdx, _ := p.Index(poolset.SWMerch)
	snagIdx, _ := p.Index(poolset.SWStemSnag)

	src := make([]float64, p.Len())
	src[merchIdx] = 1000
	dst := make([]float64, p.Len())
	op.Apply(0, src, dst)

	if got := dst[snagIdx]; got != 100 {
		t.Errorf("got %v moved to stem snag, want 100 (10%% of 1000)", got)
	}
	if got := dst[merchIdx]; got != 900 {
		t.Errorf("got %v retained merch, want 900", got)
	}
}

func TestBuildOpsSplitsBranchFallBetweenSnagAndFastDOM(t *testing.T) {
	p, err := poolset.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tp := params.TurnoverParam{BranchFall: 0.1, BranchSnagSplit: 0.3}

	store := matrixop.NewStore()
	h := store.Allocate(1)
	if err := turnover.BuildOps(store, h, p, 1, func(int) params.TurnoverParam { return tp }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, err := store.Get(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherIdx, _ := p.Index(poolset.SWOther)
	branchSnagIdx, _ := p.Index(poolset.SWBranchSnag)
	fastIdx, _ := p.Index(poolset.AboveGroundFast)

	src := make([]float64, p.Len())
	src[otherIdx] = 100
	dst := make([]float64, p.Len())
	op.Apply(0, src, dst)

	if got := dst[branchSnagIdx]; got != 3 {
		t.Errorf("got %v to branch snag, want 3 (30%% of 10%% of 100)", got)
	}
	if got := dst[fastIdx]; math.Abs(got-7) > 1e-9 {
		t.Errorf("got %v to above-ground-fast, want 7 (70%% of 10%% of 100)", got)
	}
}

func TestBuildOpsPerStandParameters(t *testing.T) {
	p, err := poolset.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fast := func(s int) params.TurnoverParam {
		if s == 0 {
			return params.TurnoverParam{StemFall: 0.1}
		}
		return params.TurnoverParam{StemFall: 0.2}
	}

	store := matrixop.NewStore()
	h := store.Allocate(2)
	if err := turnover.BuildOps(store, h, p, 2, fast); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	op, err := store.Get(h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	merchIdx, _ := p.Index(poolset.SWMerch)
	snagIdx, _ := p.Index(poolset.SWStemSnag)

	src := make([]float64, p.Len())
	src[merchIdx] = 100
	dst := make([]float64, p.Len())

	op.Apply(0, src, dst)
	if dst[snagIdx] != 10 {
		t.Errorf("stand 0: got %v, want 10", dst[snagIdx])
	}
	op.Apply(1, src, dst)
	if dst[snagIdx] != 20 {
		t.Errorf("stand 1: got %v, want 20", dst[snagIdx])
	}
}
