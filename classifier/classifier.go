// Package classifier implements classifiers — named discrete
// dimensions with dense integer value ids — the per-stand classifier
// matrix, named value aggregates, and the wildcard/aggregate filter
// used by rule-based events.
package classifier

import "github.com/js-arias/fcarbon"

// Wildcard is the string convention for "matches any value" at the
// input boundary; internally it is represented by a classifier
// condition with no value restriction (see [Condition]).
const Wildcard = "?"

// Classifier is a named discrete dimension with an ordered set of
// classifier values, each assigned a dense integer id in insertion
// order (the importer's responsibility upstream; this package only
// stores the already-assigned ids).
type Classifier struct {
	Name   string
	values []string
	index  map[string]int
}

// NewClassifier builds a classifier from its ordered value names.
func NewClassifier(name string, values []string) (*Classifier, error) {
	if name == "" {
		return nil, fcarbon.NewError("classifier.NewClassifier", fcarbon.Configuration, "empty classifier name")
	}
	index := make(map[string]int, len(values))
	for i, v := range values {
		if _, ok := index[v]; ok {
			return nil, fcarbon.NewError("classifier.NewClassifier", fcarbon.Configuration, "classifier %q: duplicate value %q", name, v)
		}
		index[v] = i
	}
	return &Classifier{
		Name:   name,
		values: append([]string(nil), values...),
		index:  index,
	}, nil
}

// Len returns the number of distinct values.
func (c *Classifier) Len() int {
	return len(c.values)
}

// ValueID returns the dense id of a value name.
func (c *Classifier) ValueID(v string) (int, bool) {
	i, ok := c.index[v]
	return i, ok
}

// Value returns the name of value id i.
func (c *Classifier) Value(i int) string {
	return c.values[i]
}

// Set is the registry of every classifier dimension in a simulation.
type Set struct {
	classifiers []*Classifier
	index       map[string]int
}

// NewSet builds the classifier registry.
func NewSet(cls []*Classifier) (*Set, error) {
	index := make(map[string]int, len(cls))
	for i, c := range cls {
		if _, ok := index[c.Name]; ok {
			return nil, fcarbon.NewError("classifier.NewSet", fcarbon.Configuration, "duplicate classifier %q", c.Name)
		}
		index[c.Name] = i
	}
	return &Set{
		classifiers: append([]*Classifier(nil), cls...),
		index:       index,
	}, nil
}

// Len returns the number of classifier dimensions.
func (s *Set) Len() int {
	return len(s.classifiers)
}

// Classifier returns the dimension at column i.
func (s *Set) Classifier(i int) *Classifier {
	return s.classifiers[i]
}

// Index returns the column index of a named classifier.
func (s *Set) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Matrix is the immutable per-stand classifier-value matrix: N rows by
// len(classifiers) columns of dense value ids.
type Matrix struct {
	set  *Set
	n    int
	data []int
}

// NewMatrix allocates a classifier matrix for n stands, every cell
// defaulting to value id 0.
func NewMatrix(set *Set, n int) *Matrix {
	return &Matrix{set: set, n: n, data: make([]int, n*set.Len())}
}

// Set returns the classifier registry backing this matrix.
func (m *Matrix) Set() *Set {
	return m.set
}

// N returns the number of stand rows.
func (m *Matrix) N() int {
	return m.n
}

// SetValue sets stand s's value id for classifier column c.
func (m *Matrix) SetValue(s, c, value int) {
	m.data[s*m.set.Len()+c] = value
}

// Value returns stand s's value id for classifier column c.
func (m *Matrix) Value(s, c int) int {
	return m.data[s*m.set.Len()+c]
}

// Row returns stand s's classifier value vector.
func (m *Matrix) Row(s int) []int {
	w := m.set.Len()
	return m.data[s*w : s*w+w]
}

// Grow appends extra rows, copying row src's values into each new row
// (used when a rule-based event clones a stand).
func (m *Matrix) Grow(extra int, src int) int {
	first := m.n
	srcRow := append([]int(nil), m.Row(src)...)
	for i := 0; i < extra; i++ {
		m.data = append(m.data, srcRow...)
	}
	m.n += extra
	return first
}

// Aggregate is a named set of values, by id, for one classifier,
// usable as a filter condition alongside exact values and the
// wildcard.
type Aggregate struct {
	Classifier string
	Name       string
	Values     map[int]bool
}

// Condition is a single-classifier filter condition: either the
// wildcard (matches any value), an exact value id, or an aggregate's
// value set.
type Condition struct {
	ClassifierIdx int
	Wildcard      bool
	Values        map[int]bool
}

// ExactCondition builds a condition matching a single value id.
func ExactCondition(classifierIdx, value int) Condition {
	return Condition{ClassifierIdx: classifierIdx, Values: map[int]bool{value: true}}
}

// AggregateCondition builds a condition matching any value id in agg.
func AggregateCondition(classifierIdx int, agg Aggregate) Condition {
	return Condition{ClassifierIdx: classifierIdx, Values: agg.Values}
}

// WildcardCondition builds a condition that matches any value.
func WildcardCondition(classifierIdx int) Condition {
	return Condition{ClassifierIdx: classifierIdx, Wildcard: true}
}

// Filter is the AND of a set of per-classifier conditions, matched
// against a stand's classifier row.
type Filter struct {
	Conditions []Condition
}

// Match reports whether row satisfies every condition in the filter.
func (f Filter) Match(row []int) bool {
	for _, c := range f.Conditions {
		if c.Wildcard {
			continue
		}
		if !c.Values[row[c.ClassifierIdx]] {
			return false
		}
	}
	return true
}
