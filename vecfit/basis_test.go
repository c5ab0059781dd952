package vecfit

import (
	"errors"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-vecfit/internal/testutil"
)

func TestPoleSetOrder(t *testing.T) {
	ps := &poleSet{real: []float64{-1, -2}, cpx: []complex128{-1 + 3i}}
	if got := ps.order(); got != 4 {
		t.Errorf("order() = %d, want 4", got)
	}

	cl := ps.clone()
	cl.real[0] = -99
	cl.cpx[0] = -99
	if ps.real[0] != -1 || ps.cpx[0] != -1+3i {
		t.Error("clone() shares storage with the original")
	}
}

func TestTermSetCount(t *testing.T) {
	if got := (termSet{}).count(); got != 0 {
		t.Errorf("count() = %d, want 0", got)
	}
	if got := (termSet{constant: true, origin: true}).count(); got != 2 {
		t.Errorf("count() = %d, want 2", got)
	}
}

func TestBuildBasisTermColumns(t *testing.T) {
	omega := []float64{0.5, 1}
	ps := &poleSet{real: []float64{-1}}
	ts := termSet{constant: true, slope: true, origin: true}

	xf, xs, err := buildBasis(omega, ps, ts)
	if err != nil {
		t.Fatal(err)
	}

	if r, c := xf.Dims(); r != 2 || c != 4 {
		t.Fatalf("xf dims = %dx%d, want 2x4", r, c)
	}
	if r, c := xs.Dims(); r != 2 || c != 1 {
		t.Fatalf("xs dims = %dx%d, want 2x1", r, c)
	}

	// columns: constant, slope, origin, pole
	testutil.RequireComplexNear(t, xf.At(0, 0), 1, 1e-15)
	testutil.RequireComplexNear(t, xf.At(0, 1), 0.5i, 1e-15)
	testutil.RequireComplexNear(t, xf.At(0, 2), -2i, 1e-15)
	testutil.RequireComplexNear(t, xf.At(0, 3), complex(0.8, -0.4), 1e-15)

	testutil.RequireComplexNear(t, xf.At(1, 0), 1, 1e-15)
	testutil.RequireComplexNear(t, xf.At(1, 1), 1i, 1e-15)
	testutil.RequireComplexNear(t, xf.At(1, 2), -1i, 1e-15)
	testutil.RequireComplexNear(t, xf.At(1, 3), complex(0.5, -0.5), 1e-15)

	// xs carries the pole columns alone
	testutil.RequireComplexNear(t, xs.At(0, 0), xf.At(0, 3), 0)
	testutil.RequireComplexNear(t, xs.At(1, 0), xf.At(1, 3), 0)
}

func TestBuildBasisPairColumns(t *testing.T) {
	omega := []float64{0.7, 1.3}
	pairs := []complex128{-0.1 + 2i, -0.2 + 3i}
	ps := &poleSet{real: []float64{-1}, cpx: pairs}

	xf, xs, err := buildBasis(omega, ps, termSet{})
	if err != nil {
		t.Fatal(err)
	}
	if _, c := xf.Dims(); c != 5 {
		t.Fatalf("xf has %d columns, want 5", c)
	}

	// Pair columns follow the real poles, all real parts first. Against
	// the closed forms (s - p)(s - conj p) = s^2 - 2*Re(p)*s + |p|^2:
	//
	//	re = (2s - 2*Re(p)) / den
	//	im = -2*Im(p) / den
	for i, w := range omega {
		s := complex(0, w)
		for k, p := range pairs {
			den := s*s - 2*complex(real(p), 0)*s + complex(real(p)*real(p)+imag(p)*imag(p), 0)
			re := (2*s - complex(2*real(p), 0)) / den
			im := complex(-2*imag(p), 0) / den

			testutil.RequireComplexNear(t, xf.At(i, 1+k), re, 1e-14)
			testutil.RequireComplexNear(t, xf.At(i, 3+k), im, 1e-14)
			testutil.RequireComplexNear(t, xs.At(i, 1+k), re, 1e-14)
			testutil.RequireComplexNear(t, xs.At(i, 3+k), im, 1e-14)
		}
	}
}

func TestBuildBasisOriginAtZero(t *testing.T) {
	ps := &poleSet{real: []float64{-1}}
	_, _, err := buildBasis([]float64{0, 1}, ps, termSet{origin: true})
	if !errors.Is(err, ErrSingularSample) {
		t.Errorf("error = %v, want ErrSingularSample", err)
	}
}

func TestBuildBasisPoleOnGrid(t *testing.T) {
	// a pole at the origin is singular on the zero-frequency sample
	ps := &poleSet{real: []float64{0}}
	_, _, err := buildBasis([]float64{0, 1}, ps, termSet{})
	if !errors.Is(err, ErrSingularSample) {
		t.Errorf("error = %v, want ErrSingularSample", err)
	}

	ps = &poleSet{cpx: []complex128{2i}}
	_, _, err = buildBasis([]float64{1, 2}, ps, termSet{})
	if !errors.Is(err, ErrSingularSample) {
		t.Errorf("error = %v, want ErrSingularSample", err)
	}
}

func TestBuildBasisEmptyPoleSet(t *testing.T) {
	if _, _, err := buildBasis([]float64{1}, &poleSet{}, termSet{}); err == nil {
		t.Error("buildBasis accepted an empty pole set")
	}
}

// conjugate pair columns must be finite away from the poles
func TestBuildBasisFinite(t *testing.T) {
	ps := &poleSet{real: []float64{-0.5}, cpx: []complex128{-0.01 + 1i}}
	xf, _, err := buildBasis([]float64{0.5, 1, 1.5}, ps, termSet{constant: true})
	if err != nil {
		t.Fatal(err)
	}

	r, c := xf.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := xf.At(i, j); cmplx.IsNaN(v) || cmplx.IsInf(v) {
				t.Fatalf("xf[%d,%d] = %v", i, j, v)
			}
		}
	}
}
