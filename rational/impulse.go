package rational

import (
	"errors"
	"fmt"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/mat"
)

// Errors returned by impulse response computation.
var (
	ErrImpulseSlope  = errors.New("rational: impulse response undefined with a slope term")
	ErrImpulseOrigin = errors.New("rational: sampled-spectrum impulse response undefined with an origin term")
)

// ImpulseResponse computes the impulse response analytically from the
// pole-residue form and samples it at the given rate:
//
//	h(t) = D*delta(t) + Z*u(t) + sum_k R_k * exp(p_k*t)  for t >= 0
//
// The Dirac term is represented by adding D*sampleRate to the first sample,
// the usual impulse-invariant convention. Conjugate pairs combine into real
// contributions, so each sample is a real matrix. A slope term has no
// time-domain counterpart under this convention and fails with
// ErrImpulseSlope.
func (tf *TransferFunction) ImpulseResponse(sampleRate float64, samples int) ([]*mat.Dense, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("rational: sample rate must be positive, got %g", sampleRate)
	}
	if samples <= 0 {
		return nil, fmt.Errorf("rational: sample count must be positive, got %d", samples)
	}
	if tf.slope != nil {
		return nil, ErrImpulseSlope
	}

	ts := 1 / sampleRate
	exps := make([]complex128, len(tf.poles))

	out := make([]*mat.Dense, samples)
	for m := range out {
		t := float64(m) * ts
		for k, p := range tf.poles {
			exps[k] = cmplx.Exp(p * complex(t, 0))
		}

		h := mat.NewDense(tf.rows, tf.cols, nil)
		for i := 0; i < tf.rows; i++ {
			for j := 0; j < tf.cols; j++ {
				var v float64
				for k := range tf.poles {
					v += real(tf.residues[k].At(i, j) * exps[k])
				}
				if tf.origin != nil {
					v += tf.origin.At(i, j)
				}
				if m == 0 && tf.constant != nil {
					v += tf.constant.At(i, j) * sampleRate
				}
				h.Set(i, j, v)
			}
		}
		out[m] = h
	}
	return out, nil
}

// ImpulseResponseFFT computes the impulse response by sampling the spectrum
// on a uniform grid and inverting it with an FFT. The transform length is
// the next power of two at or above samples, so slowly decaying models need
// enough samples for the response to die out inside the window; otherwise
// wrap-around aliasing corrupts the result.
//
// The spectrum is Hermitian-symmetrized before inversion, so each sample is
// a real matrix. For a strictly proper model the t = 0 sample lands on the
// half-jump midpoint, a property of sampled-spectrum inversion; later
// samples agree with ImpulseResponse. An origin term diverges at the DC bin
// and fails with ErrImpulseOrigin.
func (tf *TransferFunction) ImpulseResponseFFT(sampleRate float64, samples int) ([]*mat.Dense, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("rational: sample rate must be positive, got %g", sampleRate)
	}
	if samples <= 0 {
		return nil, fmt.Errorf("rational: sample count must be positive, got %d", samples)
	}
	if tf.origin != nil {
		return nil, ErrImpulseOrigin
	}

	fftSize := nextPowerOf2(samples)
	df := sampleRate / float64(fftSize)

	// Evaluate the whole matrix once per positive-frequency bin.
	bins := make([]*mat.CDense, fftSize/2+1)
	for k := range bins {
		bins[k] = tf.EvaluateFreq(float64(k) * df)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("rational: failed to create FFT plan: %w", err)
	}

	out := make([]*mat.Dense, samples)
	for m := range out {
		out[m] = mat.NewDense(tf.rows, tf.cols, nil)
	}

	spec := make([]complex128, fftSize)
	resp := make([]complex128, fftSize)
	for i := 0; i < tf.rows; i++ {
		for j := 0; j < tf.cols; j++ {
			// DC and Nyquist bins must be real for a real response.
			spec[0] = complex(real(bins[0].At(i, j)), 0)
			for k := 1; k < fftSize/2; k++ {
				v := bins[k].At(i, j)
				spec[k] = v
				spec[fftSize-k] = complex(real(v), -imag(v))
			}
			if fftSize > 1 {
				spec[fftSize/2] = complex(real(bins[fftSize/2].At(i, j)), 0)
			}

			if err := plan.Inverse(resp, spec); err != nil {
				return nil, fmt.Errorf("rational: inverse FFT failed: %w", err)
			}
			for m := 0; m < samples; m++ {
				out[m].Set(i, j, real(resp[m])*sampleRate)
			}
		}
	}
	return out, nil
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
