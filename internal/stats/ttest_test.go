package stats

import (
	"math"
	"testing"
)

func TestPairedTTestIdenticalSeries(t *testing.T) {
	t.Parallel()

	a := []float64{0.8, 0.7, 0.9, 0.6}
	res, err := PairedTTest(a, a)
	if err != nil {
		t.Fatalf("PairedTTest: %v", err)
	}
	if res.T != 0 || res.P != 1 || res.Significant {
		t.Fatalf("identical series: %+v, want t=0 p=1 not significant", res)
	}
}

func TestPairedTTestLengthMismatch(t *testing.T) {
	t.Parallel()

	if _, err := PairedTTest([]float64{1}, []float64{1, 2}); err == nil {
		t.Fatal("expected error for length mismatch")
	}
}

func TestPairedTTestShortInput(t *testing.T) {
	t.Parallel()

	res, err := PairedTTest([]float64{1}, []float64{2})
	if err != nil {
		t.Fatalf("PairedTTest: %v", err)
	}
	if res.T != 0 || res.P != 1 || res.Significant {
		t.Fatalf("single pair: %+v, want degenerate result", res)
	}
}

func TestPairedTTestConsistentImprovement(t *testing.T) {
	t.Parallel()

	a := []float64{0.90, 0.85, 0.92, 0.88, 0.91, 0.87, 0.93, 0.89}
	b := []float64{0.60, 0.55, 0.63, 0.58, 0.62, 0.56, 0.64, 0.59}

	res, err := PairedTTest(a, b)
	if err != nil {
		t.Fatalf("PairedTTest: %v", err)
	}
	if res.DF != 7 {
		t.Errorf("df = %d, want 7", res.DF)
	}
	if res.T <= 0 {
		t.Errorf("t = %v, want positive", res.T)
	}
	if math.Abs(res.MeanDiff-0.29625) > 1e-9 {
		t.Errorf("mean diff = %v", res.MeanDiff)
	}
	if res.P >= 0.05 || !res.Significant {
		t.Errorf("p = %v, significant = %v, want p < 0.05", res.P, res.Significant)
	}
}

func TestPairedTTestNoisyNoEffect(t *testing.T) {
	t.Parallel()

	a := []float64{0.50, 0.61, 0.48, 0.59, 0.52}
	b := []float64{0.51, 0.60, 0.49, 0.58, 0.53}

	res, err := PairedTTest(a, b)
	if err != nil {
		t.Fatalf("PairedTTest: %v", err)
	}
	if res.Significant {
		t.Errorf("alternating noise should not be significant: %+v", res)
	}
	if res.P <= 0 || res.P > 1 {
		t.Errorf("p = %v, out of (0,1]", res.P)
	}
}

func TestStudentTPValueKnownValues(t *testing.T) {
	t.Parallel()

	// Two-sided p for t=2.571 at df=5 is close to 0.05.
	p := studentTPValue(2.571, 5)
	if math.Abs(p-0.05) > 0.001 {
		t.Errorf("p(2.571, 5) = %v, want ~0.05", p)
	}

	// t=0 means no effect.
	if p := studentTPValue(0, 10); math.Abs(p-1.0) > 1e-9 {
		t.Errorf("p(0, 10) = %v, want 1.0", p)
	}
}
