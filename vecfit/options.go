package vecfit

import (
	"errors"
	"fmt"
)

// Default fitting parameters, applied by Validate where the zero value has
// no meaning of its own.
const (
	defaultRealPoles    = 1
	defaultCpxPairs     = 2
	defaultTolerance    = 1e-3
	defaultMaxSteps     = 5
	defaultReduceMargin = 1.0
	defaultMinOrder     = 2
)

// Errors returned by the fitting engine.
var (
	ErrInvalidData     = errors.New("vecfit: invalid frequency data")
	ErrSingularSample  = errors.New("vecfit: singular basis sample")
	ErrPolePairing     = errors.New("vecfit: relocated poles do not form conjugate pairs")
	ErrNoInitialPoles  = errors.New("vecfit: initial pole counts must not be negative")
	ErrInvalidTol      = errors.New("vecfit: tolerance must be positive")
	ErrInvalidSteps    = errors.New("vecfit: max steps must be positive")
	ErrInvalidMargin   = errors.New("vecfit: reduce margin must be at least 1")
	ErrInvalidMinOrder = errors.New("vecfit: min order must be positive")
)

// Mode selects the pole relocation strategy.
type Mode int

const (
	// ModeFastRelax compresses each matrix entry with a QR step before the
	// relaxed weighting solve. Same pole trajectories as ModeRelax at a
	// fraction of the cost for multiport data.
	ModeFastRelax Mode = iota

	// ModeRelax solves the full coupled system with a free weighting
	// constant and a relaxation constraint per entry.
	ModeRelax

	// ModeStandard is the classic iteration with the weighting constant
	// fixed at one.
	ModeStandard
)

// String returns the mode name used on the command line.
func (m Mode) String() string {
	switch m {
	case ModeFastRelax:
		return "fast_relax"
	case ModeRelax:
		return "relax"
	case ModeStandard:
		return "standard"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "fast_relax":
		return ModeFastRelax, nil
	case "relax":
		return ModeRelax, nil
	case "standard":
		return ModeStandard, nil
	}
	return 0, fmt.Errorf("vecfit: unknown mode %q", s)
}

// Weighting selects the per-sample weights of the relaxation constraint.
type Weighting int

const (
	// WeightInverseMagnitude emphasizes low-magnitude samples so that weak
	// resonances are not drowned out by strong ones.
	WeightInverseMagnitude Weighting = iota

	// WeightUniform weights all samples equally.
	WeightUniform
)

// String returns the weighting name used on the command line.
func (w Weighting) String() string {
	switch w {
	case WeightInverseMagnitude:
		return "inverse_magnitude"
	case WeightUniform:
		return "uniform"
	}
	return fmt.Sprintf("Weighting(%d)", int(w))
}

// ParseWeighting converts a weighting name to a Weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch s {
	case "inverse_magnitude":
		return WeightInverseMagnitude, nil
	case "uniform":
		return WeightUniform, nil
	}
	return 0, fmt.Errorf("vecfit: unknown weighting %q", s)
}

// Status reports how a fit ended.
type Status int

const (
	// StatusConverged means the maximum relative error dropped to the
	// tolerance or below.
	StatusConverged Status = iota

	// StatusMaxSteps means the step limit was reached first; the result
	// holds the best model seen.
	StatusMaxSteps

	// StatusDiverged means the error grew far beyond the initial fit; the
	// result holds the best model seen before the blow-up.
	StatusDiverged
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxSteps:
		return "max steps reached"
	case StatusDiverged:
		return "diverged"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// TraceFunc observes the fit after each evaluation. Step 0 is the initial
// fit at the starting poles; later steps follow one pole relocation each.
type TraceFunc func(step, realPoles, cpxPairs int, errMean, errMax float64)

// Config holds the fitting parameters.
type Config struct {
	// RealPoles and CpxPairs size the initial pole set. When both are zero
	// and Smart is off, the defaults (1 real pole, 2 conjugate pairs)
	// apply. Smart mode derives both counts from the data instead.
	RealPoles int
	CpxPairs  int

	Mode      Mode
	Weighting Weighting

	// FitConstant, FitSlope and FitOrigin enable the constant term D, the
	// linear term s*E and the origin term Z/s of the model.
	FitConstant bool
	FitSlope    bool
	FitOrigin   bool

	// Smart places initial complex poles at magnitude maxima and derives
	// the real pole count from the phase transitions of the data.
	Smart bool

	// Autoreduce discards the weakest pole groups after convergence while
	// the fit stays within Tolerance*ReduceMargin.
	Autoreduce   bool
	ReduceMargin float64 // defaults to 1
	MinOrder     int     // smallest total pole count kept, defaults to 2

	Tolerance float64 // convergence threshold on the max relative error, defaults to 1e-3
	MaxSteps  int     // relocation step limit, defaults to 5

	// Trace, when set, is called after every evaluated step.
	Trace TraceFunc
}

// Validate checks the configuration and fills in defaults for zero values.
func (c *Config) Validate() error {
	if c.RealPoles < 0 || c.CpxPairs < 0 {
		return ErrNoInitialPoles
	}
	if !c.Smart && c.RealPoles == 0 && c.CpxPairs == 0 {
		c.RealPoles = defaultRealPoles
		c.CpxPairs = defaultCpxPairs
	}

	if c.Tolerance == 0 {
		c.Tolerance = defaultTolerance
	}
	if c.Tolerance <= 0 {
		return ErrInvalidTol
	}

	if c.MaxSteps == 0 {
		c.MaxSteps = defaultMaxSteps
	}
	if c.MaxSteps < 0 {
		return ErrInvalidSteps
	}

	if c.ReduceMargin == 0 {
		c.ReduceMargin = defaultReduceMargin
	}
	if c.ReduceMargin < 1 {
		return ErrInvalidMargin
	}

	if c.MinOrder == 0 {
		c.MinOrder = defaultMinOrder
	}
	if c.MinOrder < 1 {
		return ErrInvalidMinOrder
	}

	if c.Mode < ModeFastRelax || c.Mode > ModeStandard {
		return fmt.Errorf("vecfit: unknown mode %d", int(c.Mode))
	}
	if c.Weighting < WeightInverseMagnitude || c.Weighting > WeightUniform {
		return fmt.Errorf("vecfit: unknown weighting %d", int(c.Weighting))
	}

	return nil
}
