package rational

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecfit/internal/linalg"
)

// ErrNotSquare is returned by passivity checks on non-square models.
var ErrNotSquare = errors.New("rational: passivity requires a square model")

// PassivityReport is the outcome of a passivity sweep over a frequency grid.
type PassivityReport struct {
	// Passive is true when the model is stable and the Hermitian part
	// H(s) + H(s)^H is positive definite at every checked frequency.
	Passive bool

	// Stable is true when every pole has a strictly negative real part.
	Stable bool

	// Eigenvalues holds the ascending eigenvalues of H(s) + H(s)^H, one
	// slice per checked frequency.
	Eigenvalues [][]float64
}

// Margin returns the smallest eigenvalue seen across the sweep. A positive
// margin means every checked frequency was dissipative; how close it sits to
// zero indicates how fragile that is.
func (r *PassivityReport) Margin() float64 {
	if len(r.Eigenvalues) == 0 || len(r.Eigenvalues[0]) == 0 {
		return 0
	}
	min := r.Eigenvalues[0][0]
	for _, eigs := range r.Eigenvalues {
		if eigs[0] < min {
			min = eigs[0]
		}
	}
	return min
}

// Passivity checks the model for passivity on the given frequency grid in
// Hz. A square model is passive when it is stable and the Hermitian part of
// H(j*2*pi*f) is positive definite at each grid point; the report carries the
// per-frequency eigenvalues so callers can locate violations.
//
// The check samples only the given grid. Violations between grid points go
// unnoticed, so the grid should cover the band of interest densely.
func (tf *TransferFunction) Passivity(freqsHz []float64) (*PassivityReport, error) {
	if tf.rows != tf.cols {
		return nil, ErrNotSquare
	}
	if len(freqsHz) == 0 {
		return nil, errors.New("rational: passivity needs at least one frequency")
	}

	report := &PassivityReport{
		Stable:      true,
		Eigenvalues: make([][]float64, len(freqsHz)),
	}
	for _, p := range tf.poles {
		if real(p) >= 0 {
			report.Stable = false
			break
		}
	}

	allPositive := true
	for n, f := range freqsHz {
		h := tf.EvaluateFreq(f)
		herm := cloneCDense(h)
		for i := 0; i < tf.rows; i++ {
			for j := 0; j < tf.cols; j++ {
				v := h.At(j, i)
				herm.Set(i, j, herm.At(i, j)+complex(real(v), -imag(v)))
			}
		}
		eigs, err := linalg.HermitianEigenvalues(herm)
		if err != nil {
			return nil, fmt.Errorf("rational: passivity at %g Hz: %w", f, err)
		}
		report.Eigenvalues[n] = eigs
		if eigs[0] <= 0 {
			allPositive = false
		}
	}

	report.Passive = report.Stable && allPositive
	return report, nil
}
