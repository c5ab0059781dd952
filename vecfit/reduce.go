package vecfit

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// reduce discards pole groups after convergence, weakest first, while the
// refitted model stays within Tolerance*ReduceMargin. Each removal re-runs
// the relocation loop with a fresh step allowance so the surviving poles can
// settle. The first attempt that misses the margin (or fails to solve) is
// rolled back and ends the reduction; the step counter of the main loop is
// preserved.
func (st *fitState) reduce() {
	mainSteps := st.step
	defer func() { st.step = mainSteps }()

	limit := st.cfg.Tolerance * st.cfg.ReduceMargin
	for {
		accepted := st.snapshot()

		isPair, idx, ok := st.weakestGroup()
		if !ok {
			return
		}

		st.poles = dropGroup(st.poles, isPair, idx)
		st.step = 0
		if err := st.extract(); err != nil {
			st.restore(accepted)
			return
		}
		st.trace()

		if _, err := st.iterate(); err != nil {
			st.restore(accepted)
			return
		}
		if st.errMax > limit {
			st.restore(accepted)
			return
		}
	}
}

// weakestGroup picks the pole group with the smallest residue contribution
// whose removal keeps the total order at or above the configured floor.
// Pairs count both members, in norm and in order.
func (st *fitState) weakestGroup() (isPair bool, idx int, ok bool) {
	order := st.poles.order()
	best := math.Inf(1)

	if order-1 >= st.cfg.MinOrder {
		for i := range st.poles.real {
			if s := frobNorm(st.coeffs.realRes[i]); s < best {
				best = s
				isPair, idx, ok = false, i, true
			}
		}
	}
	if order-2 >= st.cfg.MinOrder {
		for i := range st.poles.cpx {
			if s := 2 * frobNormC(st.coeffs.cpxRes[i]); s < best {
				best = s
				isPair, idx, ok = true, i, true
			}
		}
	}
	return isPair, idx, ok
}

func dropGroup(ps *poleSet, isPair bool, idx int) *poleSet {
	out := ps.clone()
	if isPair {
		out.cpx = append(out.cpx[:idx], out.cpx[idx+1:]...)
	} else {
		out.real = append(out.real[:idx], out.real[idx+1:]...)
	}
	return out
}

func frobNorm(m *mat.Dense) float64 {
	return mat.Norm(m, 2)
}

func frobNormC(m *mat.CDense) float64 {
	r, c := m.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			sum += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return math.Sqrt(sum)
}
