package poolset_test

import (
	"testing"

	"github.com/js-arias/fcarbon/poolset"
)

func TestNewBuildsValidRegistry(t *testing.T) {
	p, err := poolset.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Len(); got != len(poolset.Names()) {
		t.Fatalf("got %d pools, want %d", got, len(poolset.Names()))
	}
	if p.Name(0) != poolset.Input {
		t.Errorf("pool 0: got %q, want %q", p.Name(0), poolset.Input)
	}
	for _, name := range poolset.Names() {
		if _, ok := p.Index(name); !ok {
			t.Errorf("missing canonical pool %q", name)
		}
	}
}

func TestNamesHasNoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, n := range poolset.Names() {
		if seen[n] {
			t.Errorf("duplicate pool name %q", n)
		}
		seen[n] = true
	}
}

func TestComponentTopologyResolvesAgainstRegistry(t *testing.T) {
	p, err := poolset.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all := append(poolset.SoftwoodComponents(), poolset.HardwoodComponents()...)
	if len(all) != 10 {
		t.Fatalf("got %d components, want 10 (5 softwood + 5 hardwood)", len(all))
	}
	for _, c := range all {
		if _, ok := p.Index(c.Pool); !ok {
			t.Errorf("component pool %q not in registry", c.Pool)
		}
		if c.Snag != "" {
			if _, ok := p.Index(c.Snag); !ok {
				t.Errorf("snag pool %q not in registry", c.Snag)
			}
		}
		if c.Fast != "" {
			if _, ok := p.Index(c.Fast); !ok {
				t.Errorf("fast pool %q not in registry", c.Fast)
			}
		}
		if c.FastBelow != "" {
			if _, ok := p.Index(c.FastBelow); !ok {
				t.Errorf("fast-below pool %q not in registry", c.FastBelow)
			}
		}
	}
}

func TestOnlyMerchComponentsHaveSnagAndNoFast(t *testing.T) {
	for _, c := range poolset.SoftwoodComponents() {
		isMerch := c.Pool == poolset.SWMerch
		if isMerch && (c.Snag == "" || c.Fast != "") {
			t.Errorf("merch component %+v should have a snag pool and no direct fast pool", c)
		}
		if !isMerch && c.Snag != "" && c.Fast == "" {
			t.Errorf("non-merch component %+v should not have a snag pool without a fast pool", c)
		}
	}
}
