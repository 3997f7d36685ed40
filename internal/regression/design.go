package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"regsim/domain/core"
)

// rankTolerance is the relative threshold on the second diagonal entry
// of the triangular factor below which the design is treated as rank
// deficient.
const rankTolerance = 1e-12

// DesignFactorization holds the one-time QR factorization of the n×2
// design matrix [ones | predictors]. The factorization is immutable
// after construction and safe to share across goroutines: TransformTo
// only reads it and writes into caller-owned buffers.
type DesignFactorization struct {
	n   int
	qt  *mat.Dense // n×n orthogonal transform, applied as dst = Q^T y
	r11 float64
	r12 float64
	r22 float64
}

// NewDesignFactorization builds the design matrix from the predictor
// vector and factors it once, validating that the fit is identifiable.
// Degenerate designs (fewer than three observations, or a predictor
// with zero variance) are rejected here, before any trial runs.
func NewDesignFactorization(predictors []float64) (*DesignFactorization, error) {
	n := len(predictors)
	if n < 3 {
		return nil, fmt.Errorf("%w: got n=%d", core.ErrTooFewObservations, n)
	}
	if constantVector(predictors) {
		return nil, fmt.Errorf("%w: all values equal %v", core.ErrConstantPredictor, predictors[0])
	}

	x := mat.NewDense(n, 2, nil)
	for i, xi := range predictors {
		x.Set(i, 0, 1)
		x.Set(i, 1, xi)
	}

	var qr mat.QR
	qr.Factorize(x)

	var r mat.Dense
	qr.RTo(&r)
	r11 := r.At(0, 0)
	r12 := r.At(0, 1)
	r22 := r.At(1, 1)

	if math.Abs(r22) <= rankTolerance*math.Max(1, math.Abs(r11)) {
		return nil, core.NewDegenerateDesignError(n, "design is numerically rank deficient")
	}

	var q mat.Dense
	qr.QTo(&q)

	return &DesignFactorization{
		n:   n,
		qt:  mat.DenseCopyOf(q.T()),
		r11: r11,
		r12: r12,
		r22: r22,
	}, nil
}

// N returns the number of observations in the design.
func (f *DesignFactorization) N() int {
	return f.n
}

// R returns the three defining entries of the 2×2 upper-triangular
// factor: r11 and r12 on the first row, r22 on the second.
func (f *DesignFactorization) R() (r11, r12, r22 float64) {
	return f.r11, f.r12, f.r22
}

// TransformTo writes Q^T y into dst. Both vectors must have length N
// and must not alias each other; estimators keep two resident buffers
// for exactly this call.
func (f *DesignFactorization) TransformTo(dst, y *mat.VecDense) {
	dst.MulVec(f.qt, y)
}

// BackSolve solves the 2×2 triangular system R·beta = head against the
// first two transformed entries, slope first and intercept from it.
func (f *DesignFactorization) BackSolve(w0, w1 float64) (slope, intercept float64) {
	slope = w1 / f.r22
	intercept = (w0 - f.r12*slope) / f.r11
	return slope, intercept
}

func constantVector(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}
