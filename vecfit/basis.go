package vecfit

import (
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// poleSet is the working pole configuration on the normalized frequency
// axis: real poles plus one primary per conjugate pair.
type poleSet struct {
	real []float64
	cpx  []complex128 // primaries, positive imaginary part
}

// order is the total pole count, both members of each pair included.
func (ps *poleSet) order() int { return len(ps.real) + 2*len(ps.cpx) }

func (ps *poleSet) clone() *poleSet {
	return &poleSet{
		real: append([]float64(nil), ps.real...),
		cpx:  append([]complex128(nil), ps.cpx...),
	}
}

// termSet records which constant-like terms take part in the fit, in column
// order: constant, slope, origin.
type termSet struct {
	constant, slope, origin bool
}

func (ts termSet) count() int {
	n := 0
	if ts.constant {
		n++
	}
	if ts.slope {
		n++
	}
	if ts.origin {
		n++
	}
	return n
}

// buildBasis assembles the partial-fraction basis on the normalized grid.
// xf holds the term columns followed by the pole columns, xs the pole
// columns alone. Pole columns come as all real poles, then the real-part
// column of every pair, then the imaginary-part column of every pair, so a
// real solution vector maps onto conjugate residues.
func buildBasis(omega []float64, ps *poleSet, ts termSet) (xf, xs *mat.CDense, err error) {
	nsig := ps.order()
	if nsig == 0 {
		return nil, nil, errors.New("vecfit: empty pole set")
	}
	nr := ts.count() + nsig

	xf = mat.NewCDense(len(omega), nr, nil)
	xs = mat.NewCDense(len(omega), nsig, nil)

	nre := len(ps.real)
	ncp := len(ps.cpx)

	for i, w := range omega {
		jw := complex(0, w)

		col := 0
		if ts.constant {
			xf.Set(i, col, 1)
			col++
		}
		if ts.slope {
			xf.Set(i, col, jw)
			col++
		}
		if ts.origin {
			if w == 0 {
				return nil, nil, fmt.Errorf("%w: origin term at zero frequency (sample %d)", ErrSingularSample, i)
			}
			xf.Set(i, col, complex(0, -1/w))
			col++
		}

		for k, p := range ps.real {
			d := jw - complex(p, 0)
			if d == 0 {
				return nil, nil, fmt.Errorf("%w: pole %g on sample %d", ErrSingularSample, p, i)
			}
			v := 1 / d
			xf.Set(i, col+k, v)
			xs.Set(i, k, v)
		}

		for k, p := range ps.cpx {
			d1 := jw - p
			d2 := jw - cmplx.Conj(p)
			if d1 == 0 || d2 == 0 {
				return nil, nil, fmt.Errorf("%w: pole %v on sample %d", ErrSingularSample, p, i)
			}
			re := 1/d1 + 1/d2
			im := complex(0, 1)/d1 - complex(0, 1)/d2
			xf.Set(i, col+nre+k, re)
			xf.Set(i, col+nre+ncp+k, im)
			xs.Set(i, nre+k, re)
			xs.Set(i, nre+ncp+k, im)
		}
	}

	return xf, xs, nil
}
