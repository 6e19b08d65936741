// Package pool defines the fixed set of carbon pools shared by every
// stand in a simulation, and the population matrix that stacks each
// stand's pool vector into a single contiguous, row-major buffer.
package pool

import (
	"fmt"

	"github.com/js-arias/fcarbon"
)

// Input is the conventional name of pool index 0: a perpetual source
// held at 1.0, used as a multiplicative source row in transition
// matrices.
const Input = "Input"

// Pools is the fixed, ordered set of carbon pools for a simulation.
// It is built once and shared read-only by every stand.
type Pools struct {
	names []string
	index map[string]int
}

// New builds a pool set from an ordered list of names. The first name
// must be [Input], matching the convention that pool index 0 is the
// perpetual source pool.
func New(names []string) (*Pools, error) {
	if len(names) == 0 {
		return nil, fcarbon.NewError("pool.New", fcarbon.Configuration, "empty pool set")
	}
	if names[0] != Input {
		return nil, fcarbon.NewError("pool.New", fcarbon.Configuration, "pool 0 must be %q, got %q", Input, names[0])
	}
	index := make(map[string]int, len(names))
	for i, n := range names {
		if _, ok := index[n]; ok {
			return nil, fcarbon.NewError("pool.New", fcarbon.Configuration, "duplicate pool name %q", n)
		}
		index[n] = i
	}
	p := &Pools{
		names: append([]string(nil), names...),
		index: index,
	}
	return p, nil
}

// Len returns the number of pools (the order of every transition
// matrix in the simulation).
func (p *Pools) Len() int {
	return len(p.names)
}

// Name returns the name of pool i.
func (p *Pools) Name(i int) string {
	return p.names[i]
}

// Index returns the index of the pool with the given name.
func (p *Pools) Index(name string) (int, bool) {
	i, ok := p.index[name]
	return i, ok
}

// MustIndex is like Index but panics if the pool is undefined; it is
// meant for call sites that have already validated the pool set at
// configuration time (e.g. a provider built against a known [Pools]).
func (p *Pools) MustIndex(name string) int {
	i, ok := p.index[name]
	if !ok {
		panic(fmt.Sprintf("pool: undefined pool %q", name))
	}
	return i
}

// Population is the stacked pool vectors for all stands in a
// simulation: N rows by pool-count columns, row-major and contiguous.
type Population struct {
	pools *Pools
	n     int
	data  []float64
}

// NewPopulation allocates a population of n stands, each with a zeroed
// pool vector except for pool 0, which is initialized to 1.0 per the
// invariant that pool 0 is always 1.0 at a step boundary.
func NewPopulation(p *Pools, n int) *Population {
	m := &Population{
		pools: p,
		n:     n,
		data:  make([]float64, n*p.Len()),
	}
	for s := 0; s < n; s++ {
		m.data[s*p.Len()] = 1
	}
	return m
}

// Pools returns the pool set backing this population.
func (m *Population) Pools() *Pools {
	return m.pools
}

// N returns the number of stand rows.
func (m *Population) N() int {
	return m.n
}

// Row returns a mutable slice view of stand s's pool vector.
func (m *Population) Row(s int) []float64 {
	c := m.pools.Len()
	return m.data[s*c : s*c+c]
}

// ResetInputPool re-asserts pool 0 = 1.0 for every stand row, as
// required at every step boundary.
func (m *Population) ResetInputPool() {
	c := m.pools.Len()
	for s := 0; s < m.n; s++ {
		m.data[s*c] = 1
	}
}

// Grow appends extra zeroed rows to the population (pool 0 set to
// 1.0), used by the rule-based event processor to atomically add split
// records between steps. It returns the index of the first new row.
func (m *Population) Grow(extra int) int {
	c := m.pools.Len()
	first := m.n
	m.data = append(m.data, make([]float64, extra*c)...)
	m.n += extra
	for s := first; s < m.n; s++ {
		m.data[s*c] = 1
	}
	return first
}

// CopyRow copies the pool vector of stand src into stand dst.
func (m *Population) CopyRow(dst, src int) {
	c := m.pools.Len()
	copy(m.data[dst*c:dst*c+c], m.data[src*c:src*c+c])
}

// Sum returns the sum of all pool values for stand s, optionally
// excluding the listed pool indices (used to check mass conservation
// excluding atmospheric/product sinks).
func (m *Population) Sum(s int, exclude ...int) float64 {
	row := m.Row(s)
	var sum float64
	for i, v := range row {
		skip := false
		for _, e := range exclude {
			if e == i {
				skip = true
				break
			}
		}
		if !skip {
			sum += v
		}
	}
	return sum
}
