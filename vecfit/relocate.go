package vecfit

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/internal/linalg"
)

const (
	// imagDiscardScale sets the threshold, relative to the top of the
	// frequency grid, below which an eigenvalue's imaginary part collapses
	// to zero. The stability nudge reuses the same scale.
	imagDiscardScale = 1e-12

	// pairTol is the relative tolerance for matching conjugate partners
	// among the relocated poles.
	pairTol = 1e-7
)

// relocatePoles replaces the pole set with the zeros of the weighting
// function. The zeros are the eigenvalues of the companion matrix A - b*r^T/d
// built from the current poles and the weighting residues; real poles sit on
// the diagonal, conjugate pairs form 2x2 rotation blocks.
func relocatePoles(ps *poleSet, sig *sigmaSolution, omegaMax float64) (*poleSet, error) {
	nre := len(ps.real)
	nsig := ps.order()

	h := mat.NewDense(nsig, nsig, nil)
	for i, p := range ps.real {
		h.Set(i, i, p)
	}
	for k, p := range ps.cpx {
		j := nre + 2*k
		h.Set(j, j, real(p))
		h.Set(j+1, j+1, real(p))
		h.Set(j, j+1, imag(p))
		h.Set(j+1, j, -imag(p))
	}

	b := make([]float64, nsig)
	r := make([]float64, nsig)
	for i := range ps.real {
		b[i] = 1
		r[i] = sig.real[i]
	}
	for k, c := range sig.cpx {
		j := nre + 2*k
		b[j] = 2
		r[j] = real(c)
		r[j+1] = imag(c)
	}

	for i := 0; i < nsig; i++ {
		if b[i] == 0 {
			continue
		}
		for c := 0; c < nsig; c++ {
			h.Set(i, c, h.At(i, c)-b[i]*r[c]/sig.d)
		}
	}

	eigs, err := linalg.Eigenvalues(h)
	if err != nil {
		return nil, fmt.Errorf("vecfit: pole relocation: %w", err)
	}

	return partitionPoles(eigs, omegaMax)
}

// partitionPoles sorts eigenvalues into real poles and pair primaries and
// enforces stability. Imaginary parts below the discard threshold collapse
// to real poles; remaining complex eigenvalues must pair up as conjugates.
// Unstable real parts reflect into the left half-plane, and poles landing
// exactly on the imaginary axis are nudged off it.
func partitionPoles(eigs []complex128, omegaMax float64) (*poleSet, error) {
	iTol := omegaMax * imagDiscardScale

	out := &poleSet{}
	var negs []complex128
	for _, e := range eigs {
		switch {
		case math.Abs(imag(e)) < iTol:
			out.real = append(out.real, real(e))
		case imag(e) > 0:
			out.cpx = append(out.cpx, e)
		default:
			negs = append(negs, e)
		}
	}

	if len(negs) != len(out.cpx) {
		return nil, fmt.Errorf("%w: %d with positive and %d with negative imaginary part",
			ErrPolePairing, len(out.cpx), len(negs))
	}

	used := make([]bool, len(negs))
	for _, p := range out.cpx {
		best := -1
		bestDist := math.Inf(1)
		for i, q := range negs {
			if used[i] {
				continue
			}
			if d := cmplx.Abs(p - cmplx.Conj(q)); d < bestDist {
				bestDist = d
				best = i
			}
		}
		if best < 0 || bestDist > pairTol*math.Max(1, cmplx.Abs(p)) {
			return nil, fmt.Errorf("%w: no conjugate partner for %v", ErrPolePairing, p)
		}
		used[best] = true
	}

	for i, p := range out.real {
		p = -math.Abs(p)
		if p == 0 {
			p = -iTol
		}
		out.real[i] = p
	}
	for i, p := range out.cpx {
		re := -math.Abs(real(p))
		if re == 0 {
			re = -iTol
		}
		out.cpx[i] = complex(re, imag(p))
	}

	return out, nil
}
