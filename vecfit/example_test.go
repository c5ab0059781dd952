package vecfit_test

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/vecfit"
)

func ExampleFitScalar() {
	// samples of H(s) = 2/(s+50) + 1 on a linear grid
	freqs := make([]float64, 80)
	h := make([]complex128, 80)
	for n := range freqs {
		freqs[n] = 1 + 1.25*float64(n)
		s := complex(0, 2*math.Pi*freqs[n])
		h[n] = 2/(s+50) + 1
	}

	cfg := vecfit.Config{
		RealPoles:   1,
		FitConstant: true,
		Tolerance:   1e-8,
		MaxSteps:    10,
	}
	res, err := vecfit.FitScalar(freqs, h, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%s: %d real pole at %.1f\n", res.Status, res.RealPoles, real(res.Model.Poles()[0]))
	// Output: converged: 1 real pole at -50.0
}

func ExampleFit() {
	// two-port response with a single resonance at 150 Hz
	p := complex(-40, 2*math.Pi*150)
	freqs := make([]float64, 120)
	data := make([]*mat.CDense, 120)
	res2 := []float64{3, 0.6, 0.6, 3}
	for n := range freqs {
		freqs[n] = 1 + 4*float64(n)
		s := complex(0, 2*math.Pi*freqs[n])
		m := mat.NewCDense(2, 2, nil)
		for k, r := range res2 {
			c := complex(r, 0)
			m.Set(k/2, k%2, c/(s-p)+c/(s-cmplx.Conj(p)))
		}
		data[n] = m
	}

	cfg := vecfit.Config{CpxPairs: 1, Tolerance: 1e-6, MaxSteps: 10}
	res, err := vecfit.Fit(freqs, data, cfg)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("%s with %d conjugate pair(s)\n", res.Status, res.CpxPairs)
	fmt.Printf("max error below 1e-5: %v\n", res.ErrMax < 1e-5)
	// Output:
	// converged with 1 conjugate pair(s)
	// max error below 1e-5: true
}
