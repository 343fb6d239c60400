package pmi

import (
	"math"
	"testing"
)

func TestPMIStrongAssociation(t *testing.T) {
	calc := NewCalculator(1e-9)

	// a and b only ever appear with each other.
	pmi := calc.PMI(10, 10, 10, 20)
	if pmi <= 0 {
		t.Errorf("PMI for exclusive pair should be positive, got %f", pmi)
	}
}

func TestPMIIndependent(t *testing.T) {
	calc := NewCalculator(1e-9)

	// P(a)=P(b)=0.5 and P(a,b)=0.25 is independence.
	// Both are normalized by 2T with T = 100.
	pmi := calc.PMI(50, 100, 100, 100)
	if math.Abs(pmi) > 1e-6 {
		t.Errorf("PMI for independent elements should be ~0, got %f", pmi)
	}
}

func TestPMINegative(t *testing.T) {
	calc := NewCalculator(1e-9)
	pmi := calc.PMI(5, 100, 100, 100)
	if pmi >= 0 {
		t.Errorf("PMI for rare co-occurrence should be negative, got %f", pmi)
	}
}

func TestPMIZeroTotal(t *testing.T) {
	calc := NewCalculator(0)
	if got := calc.PMI(1, 1, 1, 0); got != 0 {
		t.Errorf("expected 0 for empty table, got %f", got)
	}
	if got := calc.NPMI(0, 1, 1, 10); got != 0 {
		t.Errorf("expected NPMI 0 for absent pair, got %f", got)
	}
}

func TestNPMIBounded(t *testing.T) {
	calc := NewCalculator(1e-9)
	npmi := calc.NPMI(10, 10, 10, 20)
	if npmi <= 0 || npmi > 1.0001 {
		t.Errorf("NPMI out of range: %f", npmi)
	}
}

func TestMarginals(t *testing.T) {
	m := NewMarginals()
	m.Add(0, 1, 2)
	m.Add(1, 2, 3)

	if m.Of(1) != 5 || m.Of(0) != 2 || m.Of(2) != 3 {
		t.Errorf("unexpected marginals: %v", m.weights)
	}
	if m.Total() != 5 {
		t.Errorf("expected total 5, got %f", m.Total())
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 elements, got %d", m.Len())
	}

	sum := 0.0
	m.All(func(_ int, w float64) { sum += w })
	if sum != 2*m.Total() {
		t.Errorf("marginals should sum to twice the total, got %f", sum)
	}
}

func TestMarginalsSymmetricInvariance(t *testing.T) {
	calc := NewCalculator(1e-9)

	canonical := NewMarginals()
	canonical.Add(0, 1, 4)
	canonical.Add(1, 2, 1)

	symmetric := NewMarginals()
	symmetric.Add(0, 1, 4)
	symmetric.Add(1, 0, 4)
	symmetric.Add(1, 2, 1)
	symmetric.Add(2, 1, 1)

	a := calc.PMI(4, canonical.Of(0), canonical.Of(1), canonical.Total())
	b := calc.PMI(4+4, symmetric.Of(0), symmetric.Of(1), symmetric.Total())
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("PMI differs between layouts: %f vs %f", a, b)
	}
}

func TestRank(t *testing.T) {
	ns := []Neighbor{
		{Index: 3, Weight: 1, PMI: 0.5},
		{Index: 1, Weight: 2, PMI: 1.5},
		{Index: 2, Weight: 5, PMI: 0.5},
		{Index: 0, Weight: 1, PMI: -1},
	}
	got := Rank(ns, 3)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("expected %d neighbors, got %d", len(want), len(got))
	}
	for i, idx := range want {
		if got[i].Index != idx {
			t.Errorf("position %d: expected index %d, got %d", i, idx, got[i].Index)
		}
	}
	if len(Rank(ns, 0)) != 4 {
		t.Error("k <= 0 should keep every neighbor")
	}
}
