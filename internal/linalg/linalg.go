// Package linalg wraps the dense least-squares and eigenvalue routines shared
// by the fitting engine and the model package.
package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Errors returned by linalg functions.
var (
	ErrSingular = errors.New("linalg: matrix is numerically singular")
	ErrEigen    = errors.New("linalg: eigenvalue computation failed")
)

// Solve finds the least-squares solution of a*x = b. The primary path is a
// QR-based solve; if that reports a conditioning problem the minimum-norm
// solution is computed instead via a truncated singular value decomposition.
// The returned flag is true when the fallback was taken.
func Solve(a *mat.Dense, b []float64) ([]float64, bool, error) {
	m, n := a.Dims()
	if len(b) != m {
		return nil, false, fmt.Errorf("linalg: rhs length %d does not match %d rows", len(b), m)
	}

	bv := mat.NewVecDense(m, b)

	var x mat.VecDense
	if err := x.SolveVec(a, bv); err == nil {
		out := make([]float64, n)
		for i := range out {
			out[i] = x.AtVec(i)
		}
		return out, false, nil
	}

	out, err := solveMinNorm(a, b)
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}

// solveMinNorm computes the minimum-norm least-squares solution through a
// thin SVD, zeroing singular values below a relative threshold.
func solveMinNorm(a *mat.Dense, b []float64) ([]float64, error) {
	m, n := a.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrSingular
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	maxS := 0.0
	for _, si := range s {
		if si > maxS {
			maxS = si
		}
	}
	eps := 1e-12 * math.Max(float64(m), float64(n)) * maxS

	// x = V * diag(1/s) * U^T * b, truncated at eps.
	k := len(s)
	t := make([]float64, k)
	for i := 0; i < k; i++ {
		if s[i] <= eps {
			continue
		}
		acc := 0.0
		for j := 0; j < m; j++ {
			acc += u.At(j, i) * b[j]
		}
		t[i] = acc / s[i]
	}

	out := make([]float64, n)
	for j := 0; j < n; j++ {
		acc := 0.0
		for i := 0; i < k; i++ {
			acc += v.At(j, i) * t[i]
		}
		out[j] = acc
	}
	return out, nil
}

// SolveEquilibrated solves the least-squares problem a*x = b after scaling
// every column of a by its maximum absolute entry, and rescales the solution
// back. Column equilibration keeps basis columns of very different magnitude
// from dominating the factorization.
func SolveEquilibrated(a *mat.Dense, b []float64) ([]float64, bool, error) {
	m, n := a.Dims()

	scale := make([]float64, n)
	scaled := mat.NewDense(m, n, nil)
	for j := 0; j < n; j++ {
		maxAbs := 0.0
		for i := 0; i < m; i++ {
			if v := math.Abs(a.At(i, j)); v > maxAbs {
				maxAbs = v
			}
		}
		if maxAbs == 0 {
			maxAbs = 1
		}
		scale[j] = maxAbs
		for i := 0; i < m; i++ {
			scaled.Set(i, j, a.At(i, j)/maxAbs)
		}
	}

	x, ill, err := Solve(scaled, b)
	if err != nil {
		return nil, ill, err
	}
	for j := range x {
		x[j] /= scale[j]
	}
	return x, ill, nil
}

// RFactor returns the square n-by-n upper-triangular R factor of the QR
// decomposition of the m-by-n matrix a. Requires m >= n.
func RFactor(a *mat.Dense) (*mat.Dense, error) {
	m, n := a.Dims()
	if m < n {
		return nil, fmt.Errorf("linalg: qr needs at least as many rows as columns: %dx%d", m, n)
	}

	var qr mat.QR
	qr.Factorize(a)

	var r mat.Dense
	qr.RTo(&r)

	if rr, _ := r.Dims(); rr > n {
		return mat.DenseCopyOf(r.Slice(0, n, 0, n)), nil
	}
	return &r, nil
}

// Eigenvalues returns the eigenvalues of the square matrix a.
func Eigenvalues(a *mat.Dense) ([]complex128, error) {
	m, n := a.Dims()
	if m != n {
		return nil, fmt.Errorf("linalg: eigenvalues need a square matrix: %dx%d", m, n)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(a, mat.EigenNone); !ok {
		return nil, ErrEigen
	}
	return eig.Values(nil), nil
}

// HermitianEigenvalues returns the (real) eigenvalues of the Hermitian matrix
// h in ascending order. The complex problem is embedded as the real symmetric
// matrix [[X, -Y], [Y, X]] with h = X + iY, whose spectrum repeats every
// eigenvalue of h twice; adjacent pairs are collapsed.
func HermitianEigenvalues(h *mat.CDense) ([]float64, error) {
	n, c := h.Dims()
	if n != c {
		return nil, fmt.Errorf("linalg: hermitian eigenvalues need a square matrix: %dx%d", n, c)
	}

	sym := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			x := 0.5 * (real(h.At(i, j)) + real(h.At(j, i)))
			sym.SetSym(i, j, x)
			sym.SetSym(n+i, n+j, x)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			y := 0.5 * (imag(h.At(i, j)) - imag(h.At(j, i)))
			sym.SetSym(i, n+j, -y)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(sym, false); !ok {
		return nil, ErrEigen
	}
	vals := es.Values(nil)

	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * (vals[2*i] + vals[2*i+1])
	}
	return out, nil
}
