package vecfit

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/rational"
)

// divergenceFloor is the absolute ceiling on the max relative error before
// the iteration is declared divergent; below it the ceiling is 100 times
// the initial error.
const divergenceFloor = 1e3

// Result is the outcome of a fit.
type Result struct {
	// Model is the fitted transfer function on the original frequency axis.
	Model *rational.TransferFunction

	// Status reports how the iteration ended. A model is returned for
	// every status; on StatusMaxSteps and StatusDiverged it is the best
	// one seen.
	Status Status

	// Steps is the number of pole relocations performed by the main
	// iteration. Relocations spent on order reduction are not counted.
	Steps int

	// ErrMax and ErrMean are the relative errors of the returned model
	// over all samples and matrix entries.
	ErrMax  float64
	ErrMean float64

	// RealPoles and CpxPairs describe the final pole configuration.
	RealPoles int
	CpxPairs  int

	// IllConditioned reports that at least one least squares system was
	// rank deficient and fell back to the minimum-norm solution. The fit
	// can still be usable; judge it by the errors.
	IllConditioned bool
}

// fitState carries one fitting run over the normalized dataset.
type fitState struct {
	ds  *dataset
	ts  termSet
	cfg *Config

	poles  *poleSet
	coeffs *modelCoeffs
	model  *rational.TransferFunction

	errMax  float64
	errMean float64
	ill     bool
	step    int
}

// Fit approximates matrix-valued frequency response data with a rational
// model sharing one pole set across all entries. Starting from the initial
// poles it alternates a weighting-function solve, a pole relocation to the
// weighting function's zeros, and a residue solve at the new poles, until
// the maximum relative error reaches cfg.Tolerance or cfg.MaxSteps runs out.
//
// freqs is the grid in Hz, strictly increasing and non-negative; data holds
// one matrix per grid point, all of the same shape. The returned model is
// always guaranteed stable: relocated poles are reflected into the left
// half-plane.
func Fit(freqs []float64, data []*mat.CDense, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ds, err := newDataset(freqs, data)
	if err != nil {
		return nil, err
	}

	st := &fitState{
		ds:  ds,
		ts:  termSet{constant: cfg.FitConstant, slope: cfg.FitSlope, origin: cfg.FitOrigin},
		cfg: &cfg,
	}
	st.poles = initialPoles(ds, &cfg)

	if err := st.extract(); err != nil {
		return nil, err
	}
	st.trace()

	status, err := st.iterate()
	if err != nil {
		return nil, err
	}

	if status == StatusConverged && cfg.Autoreduce {
		st.reduce()
	}

	return st.result(status), nil
}

// FitScalar fits single-input single-output data given as a plain sample
// slice. The result is a 1x1 model.
func FitScalar(freqs []float64, h []complex128, cfg Config) (*Result, error) {
	data := make([]*mat.CDense, len(h))
	for n, v := range h {
		data[n] = mat.NewCDense(1, 1, []complex128{v})
	}
	return Fit(freqs, data, cfg)
}

// extract runs the residue solve at the current poles and refreshes the
// model and its error metrics.
func (st *fitState) extract() error {
	coeffs, err := solveResidues(st.ds, st.poles, st.ts)
	if err != nil {
		return err
	}
	model, err := buildModel(st.ds, st.poles, coeffs)
	if err != nil {
		return err
	}

	st.coeffs = coeffs
	st.model = model
	st.ill = st.ill || coeffs.ill
	st.errMax, st.errMean = evaluateFit(st.ds, model)
	return nil
}

func (st *fitState) trace() {
	if st.cfg.Trace != nil {
		st.cfg.Trace(st.step, len(st.poles.real), len(st.poles.cpx), st.errMean, st.errMax)
	}
}

// fitSnapshot preserves the best model seen so a later, worse step cannot
// overwrite it.
type fitSnapshot struct {
	poles   *poleSet
	coeffs  *modelCoeffs
	model   *rational.TransferFunction
	errMax  float64
	errMean float64
}

func (st *fitState) snapshot() *fitSnapshot {
	return &fitSnapshot{
		poles:   st.poles.clone(),
		coeffs:  st.coeffs,
		model:   st.model,
		errMax:  st.errMax,
		errMean: st.errMean,
	}
}

func (st *fitState) restore(s *fitSnapshot) {
	st.poles = s.poles
	st.coeffs = s.coeffs
	st.model = s.model
	st.errMax = s.errMax
	st.errMean = s.errMean
}

// iterate runs relocation steps until convergence, divergence or the step
// limit.
func (st *fitState) iterate() (Status, error) {
	if st.errMax <= st.cfg.Tolerance {
		return StatusConverged, nil
	}

	divergenceCap := math.Max(100*st.errMax, divergenceFloor)
	best := st.snapshot()

	for st.step = 1; st.step <= st.cfg.MaxSteps; st.step++ {
		sig, err := solveSigma(st.ds, st.poles, st.ts, st.cfg)
		if err != nil {
			return 0, err
		}
		st.ill = st.ill || sig.ill

		poles, err := relocatePoles(st.poles, sig, st.ds.omegaMax())
		if err != nil {
			return 0, err
		}
		st.poles = poles

		if err := st.extract(); err != nil {
			return 0, err
		}
		st.trace()

		if st.errMax <= st.cfg.Tolerance {
			return StatusConverged, nil
		}
		if math.IsNaN(st.errMax) || st.errMax > divergenceCap {
			st.restore(best)
			return StatusDiverged, nil
		}
		if st.errMax < best.errMax {
			best = st.snapshot()
		}
	}
	st.step--

	if best.errMax < st.errMax {
		st.restore(best)
	}
	return StatusMaxSteps, nil
}

func (st *fitState) result(status Status) *Result {
	return &Result{
		Model:          st.model,
		Status:         status,
		Steps:          st.step,
		ErrMax:         st.errMax,
		ErrMean:        st.errMean,
		RealPoles:      len(st.poles.real),
		CpxPairs:       len(st.poles.cpx),
		IllConditioned: st.ill,
	}
}
