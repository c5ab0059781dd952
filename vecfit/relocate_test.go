package vecfit

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/cwbudde/algo-vecfit/internal/testutil"
)

// The zeros of d + sum r/(s-p) over a single real pole sit at p - r/d.
func TestRelocateRealPole(t *testing.T) {
	ps := &poleSet{real: []float64{-2}}
	sig := &sigmaSolution{real: []float64{3}, d: 1}

	out, err := relocatePoles(ps, sig, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.real) != 1 || len(out.cpx) != 0 {
		t.Fatalf("got %d real, %d pairs, want 1 real", len(out.real), len(out.cpx))
	}
	testutil.RequireNear(t, out.real[0], -5, 1e-12)
}

// The relaxed constant scales the rank-one update: doubling d halves the
// shift of the zero.
func TestRelocateRelaxedConstant(t *testing.T) {
	ps := &poleSet{real: []float64{-2}}
	sig := &sigmaSolution{real: []float64{3}, d: 2}

	out, err := relocatePoles(ps, sig, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireNear(t, out.real[0], -3.5, 1e-12)
}

// A pair can relocate onto the real axis. With p = -1+2i and a purely
// imaginary weighting residue 2.5i the zeros solve s^2 + 2s - 5 = 0,
// giving -1 +/- sqrt(6); the unstable root reflects.
func TestRelocatePairToReals(t *testing.T) {
	ps := &poleSet{cpx: []complex128{-1 + 2i}}
	sig := &sigmaSolution{cpx: []complex128{2.5i}, d: 1}

	out, err := relocatePoles(ps, sig, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.real) != 2 || len(out.cpx) != 0 {
		t.Fatalf("got %d real, %d pairs, want 2 real", len(out.real), len(out.cpx))
	}
	sort.Float64s(out.real)
	r := math.Sqrt(6)
	testutil.RequireSliceNearlyEqual(t, out.real, []float64{-1 - r, -(r - 1)}, 1e-12)
}

// With residue 0.5 the zeros solve s^2 + 3s + 6 = 0 and stay a stable
// conjugate pair.
func TestRelocatePairStaysPair(t *testing.T) {
	ps := &poleSet{cpx: []complex128{-1 + 2i}}
	sig := &sigmaSolution{cpx: []complex128{0.5}, d: 1}

	out, err := relocatePoles(ps, sig, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.real) != 0 || len(out.cpx) != 1 {
		t.Fatalf("got %d real, %d pairs, want 1 pair", len(out.real), len(out.cpx))
	}
	want := complex(-1.5, math.Sqrt(3.75))
	testutil.RequireComplexNear(t, out.cpx[0], want, 1e-12)
}

// Residue -2-1i sends the zeros to 1 +/- 2i; reflection must bring the
// pair back into the left half-plane.
func TestRelocateReflectsUnstablePair(t *testing.T) {
	ps := &poleSet{cpx: []complex128{-1 + 2i}}
	sig := &sigmaSolution{cpx: []complex128{-2 - 1i}, d: 1}

	out, err := relocatePoles(ps, sig, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}

	if len(out.cpx) != 1 {
		t.Fatalf("got %d pairs, want 1", len(out.cpx))
	}
	testutil.RequireComplexNear(t, out.cpx[0], -1+2i, 1e-12)
}

func TestRelocateMixedSet(t *testing.T) {
	// zero residues leave the poles in place
	ps := &poleSet{real: []float64{-0.5, -3}, cpx: []complex128{-1 + 2i}}
	sig := &sigmaSolution{real: []float64{0, 0}, cpx: []complex128{0}, d: 1}

	out, err := relocatePoles(ps, sig, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}

	sort.Float64s(out.real)
	testutil.RequireSliceNearlyEqual(t, out.real, []float64{-3, -0.5}, 1e-12)
	if len(out.cpx) != 1 {
		t.Fatalf("got %d pairs, want 1", len(out.cpx))
	}
	testutil.RequireComplexNear(t, out.cpx[0], -1+2i, 1e-12)
}

func TestPartitionPolesCountMismatch(t *testing.T) {
	_, err := partitionPoles([]complex128{1 + 2i, 1 + 3i, 1 - 2i}, 2*math.Pi)
	if !errors.Is(err, ErrPolePairing) {
		t.Errorf("error = %v, want ErrPolePairing", err)
	}
}

func TestPartitionPolesNoPartner(t *testing.T) {
	_, err := partitionPoles([]complex128{1 + 2i, 1 - 2.5i}, 2*math.Pi)
	if !errors.Is(err, ErrPolePairing) {
		t.Errorf("error = %v, want ErrPolePairing", err)
	}
}

func TestPartitionPolesNudgesImaginaryAxis(t *testing.T) {
	iTol := 2 * math.Pi * imagDiscardScale

	out, err := partitionPoles([]complex128{0}, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.real) != 1 || out.real[0] != -iTol {
		t.Errorf("real = %v, want [%v]", out.real, -iTol)
	}

	out, err = partitionPoles([]complex128{3i, -3i}, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.cpx) != 1 {
		t.Fatalf("got %d pairs, want 1", len(out.cpx))
	}
	testutil.RequireComplexNear(t, out.cpx[0], complex(-iTol, 3), 1e-18)
}

func TestPartitionPolesCollapsesTinyImag(t *testing.T) {
	// imaginary parts below the discard threshold become real poles
	e := complex(-2, math.Pi*1e-13)
	out, err := partitionPoles([]complex128{e}, 2*math.Pi)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.real) != 1 || len(out.cpx) != 0 {
		t.Fatalf("got %d real, %d pairs, want 1 real", len(out.real), len(out.cpx))
	}
	testutil.RequireNear(t, out.real[0], -2, 0)
}
