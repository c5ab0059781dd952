package vecfit

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/internal/linalg"
	"github.com/cwbudde/algo-vecfit/rational"
)

// modelCoeffs holds the residue solve output on the normalized frequency
// axis, one matrix per pole group and term.
type modelCoeffs struct {
	realRes []*mat.Dense  // per real pole
	cpxRes  []*mat.CDense // per pair primary

	constant *mat.Dense
	slope    *mat.Dense
	origin   *mat.Dense

	ill bool
}

// solveResidues fits the model coefficients at fixed poles, one least
// squares solve per matrix entry against the shared basis.
func solveResidues(ds *dataset, ps *poleSet, ts termSet) (*modelCoeffs, error) {
	xf, _, err := buildBasis(ds.omega, ps, ts)
	if err != nil {
		return nil, err
	}

	n := ds.samples()
	nr := ts.count() + ps.order()
	nre := len(ps.real)
	ncp := len(ps.cpx)

	a := mat.NewDense(2*n, nr, nil)
	for i := 0; i < n; i++ {
		for c := 0; c < nr; c++ {
			v := xf.At(i, c)
			a.Set(i, c, real(v))
			a.Set(n+i, c, imag(v))
		}
	}

	mc := &modelCoeffs{
		realRes: make([]*mat.Dense, nre),
		cpxRes:  make([]*mat.CDense, ncp),
	}
	for i := range mc.realRes {
		mc.realRes[i] = mat.NewDense(ds.rows, ds.cols, nil)
	}
	for i := range mc.cpxRes {
		mc.cpxRes[i] = mat.NewCDense(ds.rows, ds.cols, nil)
	}
	if ts.constant {
		mc.constant = mat.NewDense(ds.rows, ds.cols, nil)
	}
	if ts.slope {
		mc.slope = mat.NewDense(ds.rows, ds.cols, nil)
	}
	if ts.origin {
		mc.origin = mat.NewDense(ds.rows, ds.cols, nil)
	}

	b := make([]float64, 2*n)
	for k := 0; k < ds.numEntries(); k++ {
		h := ds.entries[k]
		for i := 0; i < n; i++ {
			b[i] = real(h[i])
			b[n+i] = imag(h[i])
		}

		x, ill, err := linalg.Solve(a, b)
		if err != nil {
			return nil, fmt.Errorf("vecfit: residue solve for entry %d: %w", k, err)
		}
		mc.ill = mc.ill || ill

		i, j := k/ds.cols, k%ds.cols
		col := 0
		if ts.constant {
			mc.constant.Set(i, j, x[col])
			col++
		}
		if ts.slope {
			mc.slope.Set(i, j, x[col])
			col++
		}
		if ts.origin {
			mc.origin.Set(i, j, x[col])
			col++
		}
		for p := 0; p < nre; p++ {
			mc.realRes[p].Set(i, j, x[col+p])
		}
		for p := 0; p < ncp; p++ {
			mc.cpxRes[p].Set(i, j, complex(x[col+nre+p], x[col+nre+ncp+p]))
		}
	}

	return mc, nil
}

// buildModel maps the normalized fit back to the original frequency axis:
// poles and residues scale up by the normalization factor, the slope scales
// down, the origin term scales up and the constant stays put.
func buildModel(ds *dataset, ps *poleSet, mc *modelCoeffs) (*rational.TransferFunction, error) {
	scale := complex(ds.scale, 0)

	poles := make([]complex128, 0, ps.order())
	residues := make([]*mat.CDense, 0, ps.order())

	for p, pole := range ps.real {
		poles = append(poles, complex(pole*ds.scale, 0))
		r := mat.NewCDense(ds.rows, ds.cols, nil)
		for i := 0; i < ds.rows; i++ {
			for j := 0; j < ds.cols; j++ {
				r.Set(i, j, complex(mc.realRes[p].At(i, j)*ds.scale, 0))
			}
		}
		residues = append(residues, r)
	}
	for p, pole := range ps.cpx {
		prim := pole * scale
		poles = append(poles, prim, cmplx.Conj(prim))
		r := mat.NewCDense(ds.rows, ds.cols, nil)
		rc := mat.NewCDense(ds.rows, ds.cols, nil)
		for i := 0; i < ds.rows; i++ {
			for j := 0; j < ds.cols; j++ {
				v := mc.cpxRes[p].At(i, j) * scale
				r.Set(i, j, v)
				rc.Set(i, j, cmplx.Conj(v))
			}
		}
		residues = append(residues, r, rc)
	}

	var opts []rational.Option
	if mc.constant != nil {
		opts = append(opts, rational.WithConstant(mc.constant))
	}
	if mc.slope != nil {
		e := mat.NewDense(ds.rows, ds.cols, nil)
		e.Scale(1/ds.scale, mc.slope)
		opts = append(opts, rational.WithSlope(e))
	}
	if mc.origin != nil {
		z := mat.NewDense(ds.rows, ds.cols, nil)
		z.Scale(ds.scale, mc.origin)
		opts = append(opts, rational.WithOrigin(z))
	}

	model, err := rational.New(poles, residues, opts...)
	if err != nil {
		return nil, fmt.Errorf("vecfit: assembling model: %w", err)
	}
	return model, nil
}

// evaluateFit computes the relative error of the model against the data.
// Zero-magnitude reference samples contribute their absolute error instead.
func evaluateFit(ds *dataset, model *rational.TransferFunction) (errMax, errMean float64) {
	var sum float64
	for n, f := range ds.freqs {
		h := model.EvaluateFreq(f)
		for i := 0; i < ds.rows; i++ {
			for j := 0; j < ds.cols; j++ {
				ref := ds.entries[i*ds.cols+j][n]
				e := cmplx.Abs(ref - h.At(i, j))
				if mag := cmplx.Abs(ref); mag > 0 {
					e /= mag
				}
				sum += e
				if e > errMax {
					errMax = e
				}
			}
		}
	}
	errMean = sum / float64(ds.samples()*ds.numEntries())
	return errMax, errMean
}
