package vecfit

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/internal/cvec"
)

// dataset holds the sampled response in a solver-friendly layout. The
// frequency axis is normalized by its maximum so the basis functions stay
// well conditioned; entries stores one sample series per matrix entry in
// row-major order.
type dataset struct {
	freqs []float64 // original grid in Hz
	scale float64   // normalization factor, max of freqs
	omega []float64 // normalized angular frequencies

	rows, cols int
	entries    [][]complex128 // entries[i*cols+j][n]
}

func newDataset(freqs []float64, data []*mat.CDense) (*dataset, error) {
	if len(freqs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidData, len(freqs))
	}
	if len(data) != len(freqs) {
		return nil, fmt.Errorf("%w: %d frequencies but %d matrices", ErrInvalidData, len(freqs), len(data))
	}

	for n, f := range freqs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: frequency %d is not finite", ErrInvalidData, n)
		}
		if f < 0 {
			return nil, fmt.Errorf("%w: frequency %d is negative", ErrInvalidData, n)
		}
		if n > 0 && f <= freqs[n-1] {
			return nil, fmt.Errorf("%w: frequencies must be strictly increasing", ErrInvalidData)
		}
	}

	scale := freqs[len(freqs)-1]
	if scale <= 0 {
		return nil, fmt.Errorf("%w: maximum frequency must be positive", ErrInvalidData)
	}

	rows, cols := data[0].Dims()
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: empty response matrix", ErrInvalidData)
	}

	ds := &dataset{
		freqs:   append([]float64(nil), freqs...),
		scale:   scale,
		omega:   make([]float64, len(freqs)),
		rows:    rows,
		cols:    cols,
		entries: make([][]complex128, rows*cols),
	}
	for n, f := range freqs {
		ds.omega[n] = 2 * math.Pi * f / scale
	}
	for k := range ds.entries {
		ds.entries[k] = make([]complex128, len(freqs))
	}

	for n, h := range data {
		if r, c := h.Dims(); r != rows || c != cols {
			return nil, fmt.Errorf("%w: matrix %d is %dx%d, want %dx%d", ErrInvalidData, n, r, c, rows, cols)
		}
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := h.At(i, j)
				if cmplx.IsNaN(v) || cmplx.IsInf(v) {
					return nil, fmt.Errorf("%w: entry (%d,%d) at sample %d is not finite", ErrInvalidData, i, j, n)
				}
				ds.entries[i*cols+j][n] = v
			}
		}
	}

	return ds, nil
}

func (ds *dataset) samples() int    { return len(ds.omega) }
func (ds *dataset) numEntries() int { return ds.rows * ds.cols }

func (ds *dataset) omegaMax() float64 { return ds.omega[len(ds.omega)-1] }

// weights returns the per-sample relaxation weights for entry k. Inverse
// magnitude weighting scales each sample by the entry's total magnitude so
// weak samples still pull on the weighting function; zero-magnitude samples
// fall back to a neutral weight.
func (ds *dataset) weights(k int, w Weighting) []float64 {
	n := ds.samples()
	out := make([]float64, n)
	if w == WeightUniform {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	mags := cvec.Magnitude(ds.entries[k])
	var tot float64
	for _, m := range mags {
		tot += m
	}
	for i, m := range mags {
		if m == 0 {
			out[i] = 1
		} else {
			out[i] = tot / (m * float64(n))
		}
	}
	return out
}
