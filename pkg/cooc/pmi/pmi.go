// Package pmi scores co-occurring pairs by pointwise mutual information over
// accumulated window weights.
package pmi

import (
	"cmp"
	"math"
	"slices"
)

// Calculator handles PMI calculations over weighted counts.
type Calculator struct {
	epsilon float64 // smoothing constant
}

// NewCalculator creates a calculator with the given smoothing epsilon.
func NewCalculator(epsilon float64) *Calculator {
	if epsilon <= 0 {
		epsilon = 1.0
	}
	return &Calculator{epsilon: epsilon}
}

// PMI calculates the pointwise mutual information of a pair.
//
// PMI(a,b) = log(P(a,b) / (P(a) P(b)))
//
// with P(a,b) = (w_ab + ε) / 2T and P(a) = (w_a + ε) / 2T, where
//   - w_ab = accumulated weight of the pair
//   - w_a, w_b = marginal weights (sum over every pair the element is in)
//   - T = total weight of all pairs
//
// A pair is read in either orientation with equal probability, so the joint
// and the marginals share the 2T normalizer and P(a) is the sum of P(a,x).
func (c *Calculator) PMI(wAB, wA, wB, total float64) float64 {
	if total <= 0 {
		return 0
	}
	pAB := (wAB + c.epsilon) / (2 * total)
	pA := (wA + c.epsilon) / (2 * total)
	pB := (wB + c.epsilon) / (2 * total)
	return math.Log(pAB / (pA * pB))
}

// NPMI calculates normalized PMI (range roughly -1 to 1).
// NPMI(a,b) = PMI(a,b) / -log(P(a,b))
func (c *Calculator) NPMI(wAB, wA, wB, total float64) float64 {
	if total <= 0 || wAB <= 0 {
		return 0
	}
	logPAB := math.Log((wAB + c.epsilon) / (2 * total))
	if logPAB == 0 {
		return 0
	}
	return c.PMI(wAB, wA, wB, total) / -logPAB
}

// Marginals accumulates per-element weight sums and the grand total from
// pair records.
//
// A symmetric file lists each pair twice. That doubles w_ab, both marginals
// and T alike, which PMI is invariant to.
type Marginals struct {
	weights map[int]float64
	total   float64
}

// NewMarginals creates an empty accumulator.
func NewMarginals() *Marginals {
	return &Marginals{weights: make(map[int]float64)}
}

// Add records one pair.
func (m *Marginals) Add(a, b int, weight float64) {
	m.weights[a] += weight
	m.weights[b] += weight
	m.total += weight
}

// Of returns the marginal weight of element i.
func (m *Marginals) Of(i int) float64 {
	return m.weights[i]
}

// Total returns the summed pair weight.
func (m *Marginals) Total() float64 {
	return m.total
}

// Len returns the number of elements seen.
func (m *Marginals) Len() int {
	return len(m.weights)
}

// All calls fn for every element and its marginal.
func (m *Marginals) All(fn func(i int, weight float64)) {
	for i, w := range m.weights {
		fn(i, w)
	}
}

// Neighbor is a scored co-occurrence partner.
type Neighbor struct {
	Index  int
	Label  string
	Weight float64
	PMI    float64
}

// Rank sorts neighbors by PMI, then weight, descending, and keeps the top k.
// k <= 0 keeps all.
func Rank(ns []Neighbor, k int) []Neighbor {
	slices.SortStableFunc(ns, func(a, b Neighbor) int {
		if c := cmp.Compare(b.PMI, a.PMI); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	if k > 0 && len(ns) > k {
		ns = ns[:k]
	}
	return ns
}
