// Package stats provides the paired significance test used when
// comparing metric series between retrieval configurations.
package stats

import (
	"fmt"
	"math"

	mstats "github.com/montanaflynn/stats"
)

const significanceLevel = 0.05

// TTestResult is the outcome of a paired two-sided t-test.
type TTestResult struct {
	T           float64 `json:"t"`
	P           float64 `json:"p"`
	DF          int     `json:"df"`
	MeanDiff    float64 `json:"mean_diff"`
	Significant bool    `json:"significant"`
}

// PairedTTest runs a two-sided paired t-test over two equal-length
// series. Degenerate inputs (fewer than two pairs, or identical
// series) degrade to t=0, p=1, not significant.
func PairedTTest(a, b []float64) (*TTestResult, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("stats: series length mismatch: %d vs %d", len(a), len(b))
	}

	n := len(a)
	if n < 2 {
		return &TTestResult{T: 0, P: 1, DF: 0, Significant: false}, nil
	}

	diffs := make(mstats.Float64Data, n)
	for i := range a {
		diffs[i] = a[i] - b[i]
	}

	mean, err := mstats.Mean(diffs)
	if err != nil {
		return nil, fmt.Errorf("stats: mean: %w", err)
	}
	variance, err := mstats.SampleVariance(diffs)
	if err != nil {
		return nil, fmt.Errorf("stats: variance: %w", err)
	}

	df := n - 1
	if variance == 0 {
		return &TTestResult{T: 0, P: 1, DF: df, MeanDiff: mean, Significant: false}, nil
	}

	t := mean / math.Sqrt(variance/float64(n))
	p := studentTPValue(t, float64(df))

	return &TTestResult{
		T:           t,
		P:           p,
		DF:          df,
		MeanDiff:    mean,
		Significant: p < significanceLevel,
	}, nil
}

// studentTPValue is the two-sided p-value for Student's t with df
// degrees of freedom, via the regularized incomplete beta function.
func studentTPValue(t, df float64) float64 {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0
	}
	x := df / (df + t*t)
	p := regularizedIncompleteBeta(df/2, 0.5, x)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// regularizedIncompleteBeta evaluates I_x(a, b) with the continued
// fraction expansion (Numerical Recipes betacf).
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	lnBeta, _ := math.Lgamma(a + b)
	lnGa, _ := math.Lgamma(a)
	lnGb, _ := math.Lgamma(b)
	front := math.Exp(lnBeta - lnGa - lnGb + a*math.Log(x) + b*math.Log(1-x))

	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}
	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		m2 := float64(2 * m)
		aa := float64(m) * (b - float64(m)) * x / ((qam + m2) * (a + m2))

		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		h *= d * c

		aa = -(a + float64(m)) * (qab + float64(m)) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d

		del := d * c
		h *= del
		if math.Abs(del-1) < epsilon {
			break
		}
	}
	return h
}
