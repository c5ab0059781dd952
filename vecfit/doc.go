// Package vecfit fits rational transfer function models to matrix-valued
// frequency response data using the vector fitting algorithm.
//
// Vector fitting approximates sampled frequency data H(s) by a pole-residue
// model shared across all matrix entries:
//
//	H(s) ≈ D + s·E + Z/s + Σ Rk/(s - pk)
//
// Each iteration solves a linear least-squares problem for a scaling
// function σ(s), relocates the poles to the zeros of σ via an eigenvalue
// problem, and refits the residues against the new poles. Unstable poles
// are reflected into the left half-plane, so the returned model is always
// stable. Three flavours of the σ stage are available:
//
//   - ModeFastRelax (default): relaxed formulation with per-entry QR
//     compression, the cheapest option for data with many matrix entries
//   - ModeRelax: relaxed formulation solved as one coupled system
//   - ModeStandard: classic formulation with the σ constant fixed at one
//
// The relaxed formulations keep a free constant term in σ, which removes
// the bias of the classic iteration and typically converges in fewer steps.
//
// # Usage
//
//	cfg := vecfit.Config{
//	    CpxPairs:    4,
//	    FitConstant: true,
//	    Tolerance:   1e-6,
//	    MaxSteps:    20,
//	}
//	res, err := vecfit.Fit(freqs, data, cfg)
//	if err != nil {
//	    // ...
//	}
//	h := res.Model.EvaluateFreq(1e6) // evaluate the fit at 1 MHz
//
// Scalar data can be fitted directly with FitScalar. The returned
// rational.TransferFunction supports evaluation, passivity checks and
// impulse response synthesis; see the rational package.
package vecfit
