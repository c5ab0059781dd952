package rational

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Errors returned by model construction.
var (
	ErrEmptyModel         = errors.New("rational: model needs at least one pole or term")
	ErrConjugateStructure = errors.New("rational: complex poles must form adjacent conjugate pairs")
)

// conjugateTol is the relative tolerance for conjugate pair matching.
const conjugateTol = 1e-7

// TransferFunction is a matrix-valued transfer function in pole-residue form:
//
//	H(s) = D + s*E + Z/s + sum_k R_k / (s - p_k)
//
// Complex poles appear in adjacent conjugate pairs (primary with positive
// imaginary part first) whose residue matrices are exact element-wise
// conjugates, so the corresponding time-domain response is real. The model is
// immutable after construction; accessors return copies.
type TransferFunction struct {
	rows, cols int

	poles    []complex128
	residues []*mat.CDense

	constant *mat.Dense // D, nil when absent
	slope    *mat.Dense // E, nil when absent
	origin   *mat.Dense // Z, nil when absent
}

// Option configures optional model terms during construction.
type Option func(*TransferFunction) error

// WithConstant adds the constant term D.
func WithConstant(d *mat.Dense) Option {
	return func(tf *TransferFunction) error {
		if d == nil {
			return errors.New("rational: nil constant matrix")
		}
		tf.constant = mat.DenseCopyOf(d)
		return nil
	}
}

// WithSlope adds the linear term s*E.
func WithSlope(e *mat.Dense) Option {
	return func(tf *TransferFunction) error {
		if e == nil {
			return errors.New("rational: nil slope matrix")
		}
		tf.slope = mat.DenseCopyOf(e)
		return nil
	}
}

// WithOrigin adds the term Z/s, the residue of a pole at s = 0.
func WithOrigin(z *mat.Dense) Option {
	return func(tf *TransferFunction) error {
		if z == nil {
			return errors.New("rational: nil origin matrix")
		}
		tf.origin = mat.DenseCopyOf(z)
		return nil
	}
}

// New constructs a transfer function from poles and per-pole residue
// matrices. Poles with non-zero imaginary part must form adjacent conjugate
// pairs with conjugate residue matrices; pairs may arrive in either order and
// are stored primary-first. Near-conjugate values within a small relative
// tolerance are snapped exactly; anything further apart fails with
// ErrConjugateStructure.
func New(poles []complex128, residues []*mat.CDense, opts ...Option) (*TransferFunction, error) {
	if len(poles) != len(residues) {
		return nil, fmt.Errorf("rational: %d poles but %d residues", len(poles), len(residues))
	}

	tf := &TransferFunction{}
	for _, opt := range opts {
		if err := opt(tf); err != nil {
			return nil, err
		}
	}

	rows, cols, err := resolveDims(residues, tf.constant, tf.slope, tf.origin)
	if err != nil {
		return nil, err
	}
	tf.rows, tf.cols = rows, cols

	for name, m := range map[string]*mat.Dense{"constant": tf.constant, "slope": tf.slope, "origin": tf.origin} {
		if m == nil {
			continue
		}
		if r, c := m.Dims(); r != rows || c != cols {
			return nil, fmt.Errorf("rational: %s term is %dx%d, want %dx%d", name, r, c, rows, cols)
		}
	}

	tf.poles = make([]complex128, len(poles))
	tf.residues = make([]*mat.CDense, len(residues))

	for k := 0; k < len(poles); {
		if r, c := residues[k].Dims(); r != rows || c != cols {
			return nil, fmt.Errorf("rational: residue %d is %dx%d, want %dx%d", k, r, c, rows, cols)
		}

		if imag(poles[k]) == 0 {
			tf.poles[k] = poles[k]
			tf.residues[k] = cloneCDense(residues[k])
			k++
			continue
		}

		if k+1 >= len(poles) {
			return nil, fmt.Errorf("%w: pole %v has no partner", ErrConjugateStructure, poles[k])
		}
		if r, c := residues[k+1].Dims(); r != rows || c != cols {
			return nil, fmt.Errorf("rational: residue %d is %dx%d, want %dx%d", k+1, r, c, rows, cols)
		}

		p, q := poles[k], poles[k+1]
		if !isConjugate(p, q) {
			return nil, fmt.Errorf("%w: %v and %v", ErrConjugateStructure, p, q)
		}
		rp, rq := residues[k], residues[k+1]
		if !isConjugateMatrix(rp, rq) {
			return nil, fmt.Errorf("%w: residues of %v are not conjugates", ErrConjugateStructure, p)
		}

		// Store primary-first and snap the partner to the exact conjugate.
		if imag(p) < 0 {
			p, rp = q, rq
		}
		tf.poles[k] = p
		tf.poles[k+1] = complex(real(p), -imag(p))
		tf.residues[k] = cloneCDense(rp)
		tf.residues[k+1] = conjCDense(rp)
		k += 2
	}

	if len(tf.poles) == 0 && tf.constant == nil && tf.slope == nil && tf.origin == nil {
		return nil, ErrEmptyModel
	}

	return tf, nil
}

func resolveDims(residues []*mat.CDense, terms ...*mat.Dense) (int, int, error) {
	if len(residues) > 0 {
		r, c := residues[0].Dims()
		return r, c, nil
	}
	for _, m := range terms {
		if m != nil {
			r, c := m.Dims()
			return r, c, nil
		}
	}
	return 0, 0, ErrEmptyModel
}

func isConjugate(a, b complex128) bool {
	if math.Abs(real(a)-real(b)) > conjugateTol*math.Max(1, math.Abs(real(a))) {
		return false
	}
	if math.Abs(imag(a)+imag(b)) > conjugateTol*math.Max(1, math.Abs(imag(a))) {
		return false
	}
	return true
}

func isConjugateMatrix(a, b *mat.CDense) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if !isConjugate(a.At(i, j), b.At(i, j)) {
				return false
			}
		}
	}
	return true
}

func cloneCDense(src *mat.CDense) *mat.CDense {
	r, c := src.Dims()
	dst := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, src.At(i, j))
		}
	}
	return dst
}

func conjCDense(src *mat.CDense) *mat.CDense {
	r, c := src.Dims()
	dst := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := src.At(i, j)
			dst.Set(i, j, complex(real(v), -imag(v)))
		}
	}
	return dst
}

// Dims returns the matrix shape of the model.
func (tf *TransferFunction) Dims() (rows, cols int) {
	return tf.rows, tf.cols
}

// Order returns the number of poles, counting both members of each pair.
func (tf *TransferFunction) Order() int {
	return len(tf.poles)
}

// Poles returns a copy of the pole list. Conjugate pairs are adjacent with
// the positive-imaginary primary first.
func (tf *TransferFunction) Poles() []complex128 {
	out := make([]complex128, len(tf.poles))
	copy(out, tf.poles)
	return out
}

// Residues returns deep copies of the per-pole residue matrices, in pole
// order.
func (tf *TransferFunction) Residues() []*mat.CDense {
	out := make([]*mat.CDense, len(tf.residues))
	for i, r := range tf.residues {
		out[i] = cloneCDense(r)
	}
	return out
}

// Constant returns a copy of the constant term D, or nil when absent.
func (tf *TransferFunction) Constant() *mat.Dense {
	if tf.constant == nil {
		return nil
	}
	return mat.DenseCopyOf(tf.constant)
}

// Slope returns a copy of the linear term E, or nil when absent.
func (tf *TransferFunction) Slope() *mat.Dense {
	if tf.slope == nil {
		return nil
	}
	return mat.DenseCopyOf(tf.slope)
}

// Origin returns a copy of the origin-pole residue Z, or nil when absent.
func (tf *TransferFunction) Origin() *mat.Dense {
	if tf.origin == nil {
		return nil
	}
	return mat.DenseCopyOf(tf.origin)
}

// Evaluate computes H(s) at an arbitrary complex s. Evaluating exactly on a
// pole (or at s = 0 with an origin term) yields infinities, as the function
// itself does.
func (tf *TransferFunction) Evaluate(s complex128) *mat.CDense {
	out := mat.NewCDense(tf.rows, tf.cols, nil)
	for i := 0; i < tf.rows; i++ {
		for j := 0; j < tf.cols; j++ {
			var v complex128
			if tf.constant != nil {
				v += complex(tf.constant.At(i, j), 0)
			}
			if tf.slope != nil {
				v += s * complex(tf.slope.At(i, j), 0)
			}
			if tf.origin != nil {
				v += complex(tf.origin.At(i, j), 0) / s
			}
			for k, p := range tf.poles {
				v += tf.residues[k].At(i, j) / (s - p)
			}
			out.Set(i, j, v)
		}
	}
	return out
}

// EvaluateFreq computes H at s = 2*pi*j*freqHz.
func (tf *TransferFunction) EvaluateFreq(freqHz float64) *mat.CDense {
	return tf.Evaluate(complex(0, 2*math.Pi*freqHz))
}

// EvaluateBand maps EvaluateFreq over a frequency grid.
func (tf *TransferFunction) EvaluateBand(freqsHz []float64) []*mat.CDense {
	out := make([]*mat.CDense, len(freqsHz))
	for n, f := range freqsHz {
		out[n] = tf.EvaluateFreq(f)
	}
	return out
}
