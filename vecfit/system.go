package vecfit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/internal/linalg"
)

// relaxDenomFloor guards the eigenvalue shift against a vanishing weighting
// constant; below it the constant snaps back to one.
const relaxDenomFloor = 1e-8

// sigmaSolution is the fitted weighting function: residues on the current
// pole set plus its constant term.
type sigmaSolution struct {
	real []float64    // residues on real poles
	cpx  []complex128 // residues on pair primaries
	d    float64      // constant term, 1 unless relaxed
	ill  bool         // a rank-deficient solve fell back to the minimum-norm solution
}

func newSigmaSolution(x []float64, nre, ncp int, d float64, ill bool) *sigmaSolution {
	s := &sigmaSolution{
		real: append([]float64(nil), x[:nre]...),
		cpx:  make([]complex128, ncp),
		d:    d,
		ill:  ill,
	}
	for k := 0; k < ncp; k++ {
		s.cpx[k] = complex(x[nre+k], x[nre+ncp+k])
	}
	return s
}

// solveSigma fits the weighting function at the current poles using the
// configured mode. All modes share the same basis; they differ in how the
// least squares system is assembled and compressed.
func solveSigma(ds *dataset, ps *poleSet, ts termSet, cfg *Config) (*sigmaSolution, error) {
	xf, xs, err := buildBasis(ds.omega, ps, ts)
	if err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case ModeStandard:
		return sigmaStandard(ds, ps, ts, xf, xs)
	case ModeRelax:
		return sigmaRelax(ds, ps, ts, xf, xs, cfg.Weighting)
	default:
		return sigmaFastRelax(ds, ps, ts, xf, xs, cfg.Weighting)
	}
}

// sigmaStandard solves the classic coupled system with the weighting
// constant fixed at one. Unknowns are the per-entry model coefficients
// followed by the shared weighting residues; only the latter are kept.
func sigmaStandard(ds *dataset, ps *poleSet, ts termSet, xf, xs *mat.CDense) (*sigmaSolution, error) {
	n := ds.samples()
	nf := ds.numEntries()
	nr := ts.count() + ps.order()
	nsig := ps.order()

	a := mat.NewDense(2*n*nf, nr*nf+nsig, nil)
	b := make([]float64, 2*n*nf)

	for k := 0; k < nf; k++ {
		h := ds.entries[k]
		rowRe := k * 2 * n
		rowIm := rowRe + n
		for i := 0; i < n; i++ {
			for c := 0; c < nr; c++ {
				v := xf.At(i, c)
				a.Set(rowRe+i, k*nr+c, real(v))
				a.Set(rowIm+i, k*nr+c, imag(v))
			}
			for c := 0; c < nsig; c++ {
				v := -h[i] * xs.At(i, c)
				a.Set(rowRe+i, nr*nf+c, real(v))
				a.Set(rowIm+i, nr*nf+c, imag(v))
			}
			b[rowRe+i] = real(h[i])
			b[rowIm+i] = imag(h[i])
		}
	}

	x, ill, err := linalg.SolveEquilibrated(a, b)
	if err != nil {
		return nil, fmt.Errorf("vecfit: weighting solve: %w", err)
	}

	return newSigmaSolution(x[nr*nf:], len(ps.real), len(ps.cpx), 1, ill), nil
}

// sigmaRelax solves the coupled system with a free weighting constant. Each
// entry contributes a relaxation row that pins the average of the weighting
// function over the samples, so the trivial all-zero solution is excluded
// without fixing the constant outright.
func sigmaRelax(ds *dataset, ps *poleSet, ts termSet, xf, xs *mat.CDense, w Weighting) (*sigmaSolution, error) {
	n := ds.samples()
	nf := ds.numEntries()
	nr := ts.count() + ps.order()
	nsig := ps.order()
	dCol := nr*nf + nsig

	a := mat.NewDense((2*n+1)*nf, nr*nf+nsig+1, nil)
	b := make([]float64, (2*n+1)*nf)

	for k := 0; k < nf; k++ {
		h := ds.entries[k]
		rowRe := k * (2*n + 1)
		rowIm := rowRe + n
		for i := 0; i < n; i++ {
			for c := 0; c < nr; c++ {
				v := xf.At(i, c)
				a.Set(rowRe+i, k*nr+c, real(v))
				a.Set(rowIm+i, k*nr+c, imag(v))
			}
			for c := 0; c < nsig; c++ {
				v := -h[i] * xs.At(i, c)
				a.Set(rowRe+i, nr*nf+c, real(v))
				a.Set(rowIm+i, nr*nf+c, imag(v))
			}
			a.Set(rowRe+i, dCol, -real(h[i]))
			a.Set(rowIm+i, dCol, -imag(h[i]))
			b[rowRe+i] = real(h[i])
			b[rowIm+i] = imag(h[i])
		}

		relaxRow := rowRe + 2*n
		weights := ds.weights(k, w)
		for c := 0; c < nsig; c++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += weights[i] * real(xs.At(i, c))
			}
			a.Set(relaxRow, nr*nf+c, sum)
		}
		a.Set(relaxRow, dCol, float64(n))
		// relaxation row RHS stays zero
	}

	x, ill, err := linalg.SolveEquilibrated(a, b)
	if err != nil {
		return nil, fmt.Errorf("vecfit: weighting solve: %w", err)
	}

	d := x[dCol] + 1
	if math.Abs(d) < relaxDenomFloor {
		d = 1
	}
	return newSigmaSolution(x[nr*nf:nr*nf+nsig], len(ps.real), len(ps.cpx), d, ill), nil
}

// sigmaFastRelax compresses each entry with a QR factorization before the
// relaxed solve. The QR of the per-entry system augmented with its data
// column yields the projected subproblem for the shared weighting unknowns
// directly; stacking those small blocks over all entries replaces the full
// coupled system at equal least squares solutions.
func sigmaFastRelax(ds *dataset, ps *poleSet, ts termSet, xf, xs *mat.CDense, w Weighting) (*sigmaSolution, error) {
	n := ds.samples()
	nf := ds.numEntries()
	nr := ts.count() + ps.order()
	nsig := ps.order()

	rows := 2*n + 1
	cols := nr + nsig + 2 // entry coefficients, weighting unknowns, data column
	if rows < cols {
		return nil, fmt.Errorf("%w: %d samples cannot support %d unknowns per entry", ErrInvalidData, n, cols-1)
	}

	rr := mat.NewDense(nf*(nsig+1), nsig+1, nil)
	yy := make([]float64, nf*(nsig+1))

	aug := mat.NewDense(rows, cols, nil)
	for k := 0; k < nf; k++ {
		h := ds.entries[k]
		aug.Zero()
		for i := 0; i < n; i++ {
			for c := 0; c < nr; c++ {
				v := xf.At(i, c)
				aug.Set(i, c, real(v))
				aug.Set(n+i, c, imag(v))
			}
			for c := 0; c < nsig; c++ {
				v := -h[i] * xs.At(i, c)
				aug.Set(i, nr+c, real(v))
				aug.Set(n+i, nr+c, imag(v))
			}
			aug.Set(i, nr+nsig, -real(h[i]))
			aug.Set(n+i, nr+nsig, -imag(h[i]))
			aug.Set(i, cols-1, real(h[i]))
			aug.Set(n+i, cols-1, imag(h[i]))
		}

		weights := ds.weights(k, w)
		for c := 0; c < nsig; c++ {
			var sum float64
			for i := 0; i < n; i++ {
				sum += weights[i] * real(xs.At(i, c))
			}
			aug.Set(rows-1, nr+c, sum)
		}
		aug.Set(rows-1, nr+nsig, float64(n))
		// the data column of the relaxation row stays zero

		r, err := linalg.RFactor(aug)
		if err != nil {
			return nil, fmt.Errorf("vecfit: entry %d compression: %w", k, err)
		}

		for i := 0; i <= nsig; i++ {
			for c := 0; c <= nsig; c++ {
				rr.Set(k*(nsig+1)+i, c, r.At(nr+i, nr+c))
			}
			yy[k*(nsig+1)+i] = r.At(nr+i, cols-1)
		}
	}

	x, ill, err := linalg.SolveEquilibrated(rr, yy)
	if err != nil {
		return nil, fmt.Errorf("vecfit: weighting solve: %w", err)
	}

	d := x[nsig] + 1
	if math.Abs(d) < relaxDenomFloor {
		d = 1
	}
	return newSigmaSolution(x[:nsig], len(ps.real), len(ps.cpx), d, ill), nil
}
